package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant root. All business rows hang off a company and are
// invisible to every other company.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	TaxID     *string   `gorm:"type:varchar(20)"`
	Address   *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Branch is a physical point of sale within a company. Cashbox sessions and
// sales are branch-scoped.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time

	Company *Company `gorm:"foreignKey:CompanyID"`
}

func (Branch) TableName() string { return "branches" }
