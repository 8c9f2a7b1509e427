package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement reasons.
const (
	MovementPurchase    = "purchase"
	MovementSale        = "sale"
	MovementAdjustment  = "adjustment"
	MovementReservation = "reservation"
	MovementVoid        = "void"
)

// StockMovement records every stock change on a product. Append-only: a
// product's current stock is the running sum of its deltas, and corrections
// are new "adjustment" rows, never updates.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Delta     int       `gorm:"not null"` // positive = in, negative = out
	Reason    string    `gorm:"type:varchar(20);not null"`
	// StockBefore/StockAfter snapshot the running balance for audit reading.
	StockBefore int `gorm:"not null"`
	StockAfter  int `gorm:"not null"`
	// ReferenceID links to the originating sale, reservation or manual op.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	Notes       string
	UserID      uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
