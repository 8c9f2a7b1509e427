package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale states.
const (
	SaleCompleted = "completed"
	SaleCancelled = "cancelled"
)

// Payment methods accepted on sales and reservation payments. "credit"
// marks the financed leg of an installment sale and never hits the cashbox
// at settlement time.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodWallet   = "wallet"
	MethodTransfer = "transfer"
	MethodCredit   = "credit"
)

// Sale is the settlement header. Immutable once committed except for the
// cancellation flag; undo goes through VoidSale, never deletion.
type Sale struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	// SessionID references the cashbox session that was open at settlement.
	SessionID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID   *uuid.UUID      `gorm:"type:uuid;index"` // nil for walk-in cash sales
	UserID     uuid.UUID       `gorm:"type:uuid;not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status     string          `gorm:"type:varchar(20);not null;default:'completed'"`
	VoidReason *string
	CreatedAt  time.Time `gorm:"index"`

	Items    []SaleItem    `gorm:"foreignKey:SaleID"`
	Payments []SalePayment `gorm:"foreignKey:SaleID"`
	Client   *Client       `gorm:"foreignKey:ClientID"`
}

// SaleItem snapshots description and barcode at sale time so later catalog
// edits do not rewrite history.
type SaleItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity            int             `gorm:"not null"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescriptionSnapshot string          `gorm:"not null"`
	BarcodeSnapshot     string          `gorm:"not null;default:''"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// SalePayment is one leg of a possibly mixed payment. The sum of a sale's
// payment amounts always equals Sale.Total.
type SalePayment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method string          `gorm:"type:varchar(20);not null"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
