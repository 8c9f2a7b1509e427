package dto

import "github.com/shopspring/decimal"

type OpenCashboxRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"required"`
}

// AmountsByMethod breaks a total down per payment method. Used both for the
// expected side (computed) and the counted side (declared by the cashier).
type AmountsByMethod struct {
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Wallet   decimal.Decimal `json:"wallet"`
	Transfer decimal.Decimal `json:"transfer"`
	Total    decimal.Decimal `json:"total"`
}

// CloseCashboxRequest carries the cashier's blind count. The variance is
// computed server-side after the declaration is received.
type CloseCashboxRequest struct {
	Counted AmountsByMethod `json:"counted"`
	Notes   *string         `json:"notes"`
}

type VarianceResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Pct    decimal.Decimal `json:"pct"`
	Class  string          `json:"class"` // normal | warning | critical
}

type CloseCashboxResponse struct {
	SessionID string           `json:"session_id"`
	Expected  AmountsByMethod  `json:"expected"`
	Counted   AmountsByMethod  `json:"counted"`
	Variance  VarianceResponse `json:"variance"`
	// RequiresReview marks a critical variance closed without supervisor
	// notes; the session is closed but flagged for audit follow-up.
	RequiresReview bool   `json:"requires_review"`
	Status         string `json:"status"`
}

// CashMovementRequest registers a manual income or expense in the open
// session.
type CashMovementRequest struct {
	Type   string          `json:"type"   validate:"required,oneof=income expense"`
	Method string          `json:"method" validate:"required,oneof=cash card wallet transfer"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Notes  string          `json:"notes"  validate:"required"`
}

type VoidLogRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type CashboxLogResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	IsVoided      bool            `json:"is_voided"`
	SaleID        *string         `json:"sale_id,omitempty"`
	Notes         string          `json:"notes"`
	CreatedAt     string          `json:"created_at"`
}

type SessionReportResponse struct {
	SessionID      string               `json:"session_id"`
	OpeningAmount  decimal.Decimal      `json:"opening_amount"`
	Expected       AmountsByMethod      `json:"expected"`
	Counted        *AmountsByMethod     `json:"counted,omitempty"`
	Variance       *VarianceResponse    `json:"variance,omitempty"`
	RequiresReview bool                 `json:"requires_review"`
	Status         string               `json:"status"`
	Notes          *string              `json:"notes,omitempty"`
	OpenedAt       string               `json:"opened_at"`
	ClosedAt       *string              `json:"closed_at,omitempty"`
	Logs           []CashboxLogResponse `json:"logs,omitempty"`
}
