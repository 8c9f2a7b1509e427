package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment states.
const (
	InstallmentPending = "pending"
	InstallmentPartial = "partial"
	InstallmentPaid    = "paid"
	InstallmentOverdue = "overdue"
)

// Client is a registered customer, required for credit sales.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Document  *string   `gorm:"type:varchar(20)"`
	Phone     *string   `gorm:"type:varchar(30)"`
	// CreditLimit zero means no limit is enforced.
	CreditLimit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CurrentDebt decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaleInstallment is one scheduled payment of a credit sale. PaidAmount may
// never exceed AmountDue; concurrent payments serialize on a row lock.
type SaleInstallment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number     int             `gorm:"not null"`
	AmountDue  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DueDate    time.Time       `gorm:"index"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt     *time.Time
	CreatedAt  time.Time
}
