package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Barcode       *string         `json:"barcode"`
	Description   string          `json:"description" validate:"required"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"min=0"`
	SalePrice     decimal.Decimal `json:"sale_price"     validate:"required"`
	InitialStock  int             `json:"initial_stock"  validate:"min=0"`
	MinStock      int             `json:"min_stock"      validate:"min=0"`
}

type UpdateProductRequest struct {
	Barcode       *string          `json:"barcode"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Unit          string           `json:"unit"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	MinStock      *int             `json:"min_stock"`
}

type ProductFilter struct {
	Barcode     string `form:"barcode"`
	Description string `form:"description"`
	Category    string `form:"category"`
	Active      string `form:"active"` // "false" | "all" | default active only
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	Barcode       *string         `json:"barcode,omitempty"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
	Active        bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// AdjustStockRequest posts a correcting movement. Reason "purchase" for
// goods-in, "adjustment" for count reconciliation.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,oneof=purchase adjustment"`
	Notes  string `json:"notes"`
}

type StockMovementFilter struct {
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
	Reason    string `form:"reason"`
	Page      int    `form:"page,default=1"    validate:"min=1"`
	Limit     int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Product     string  `json:"product,omitempty"`
	Delta       int     `json:"delta"`
	Reason      string  `json:"reason"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	ReferenceID *string `json:"reference_id,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// PriceCheckResponse is the public barcode price lookup, served through the
// Redis read-through cache.
type PriceCheckResponse struct {
	Barcode     string          `json:"barcode"`
	Description string          `json:"description"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Stock       int             `json:"stock"`
}
