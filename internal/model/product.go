package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. Stock is never written directly: every change
// goes through the guarded decrement/increment in the repository, paired
// with a StockMovement row in the same transaction.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_products_company_barcode,where:barcode IS NOT NULL"`
	// Barcode is optional; when present it is unique within the company and
	// takes priority over description when resolving cart lines.
	Barcode       *string         `gorm:"uniqueIndex:uni_products_company_barcode,where:barcode IS NOT NULL"`
	Description   string          `gorm:"index;not null"`
	Category      string          `gorm:"not null;default:'General'"`
	Unit          string          `gorm:"not null;default:'unidad'"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock         int             `gorm:"not null;default:0"`
	MinStock      int             `gorm:"not null;default:5"`
	Active        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
