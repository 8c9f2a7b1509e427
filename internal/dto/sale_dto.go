package dto

import "github.com/shopspring/decimal"

// ─── Requests ────────────────────────────────────────────────────────────────

// CartItemRequest is one cart line. Product resolution is barcode-first:
// description is only consulted when the barcode is absent or matches
// nothing, and an ambiguous description is rejected rather than guessed.
type CartItemRequest struct {
	Barcode     string          `json:"barcode"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"   validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
}

type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card wallet transfer credit"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type SettleSaleRequest struct {
	Items    []CartItemRequest `json:"items"    validate:"required,min=1,dive"`
	Payments []PaymentRequest  `json:"payments" validate:"required,min=1,dive"`
	ClientID *string           `json:"client_id" validate:"omitempty,uuid"`
	// Installment plan for the credit leg; ignored when no credit payment.
	Installments int     `json:"installments" validate:"omitempty,min=1,max=36"`
	IntervalDays int     `json:"interval_days" validate:"omitempty,min=1"`
	ClientEmail  *string `json:"client_email" validate:"omitempty,email"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	Date     string `form:"date"`                     // YYYY-MM-DD; empty = today
	Status   string `form:"status,default=completed"` // completed | cancelled | all
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type SaleItemResponse struct {
	Product   string          `json:"product"`
	Barcode   string          `json:"barcode,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	ClientID  *string            `json:"client_id,omitempty"`
	Items     []SaleItemResponse `json:"items"`
	Payments  []PaymentRequest   `json:"payments"`
	Total     decimal.Decimal    `json:"total"`
	Status    string             `json:"status"`
	CreatedAt string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
