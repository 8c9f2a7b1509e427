package dto

import "github.com/shopspring/decimal"

type CreateReservationRequest struct {
	FieldName  string  `json:"field_name" validate:"required"`
	Sport      string  `json:"sport"      validate:"required,oneof=futbol voley"`
	ClientID   *string `json:"client_id"  validate:"omitempty,uuid"`
	ClientName string  `json:"client_name" validate:"required"`
	StartTime  string  `json:"start_time" validate:"required"` // RFC 3339
	EndTime    string  `json:"end_time"   validate:"required"`
}

// ReservationPaymentRequest posts an advance or final payment. With is_final
// the payments must cover the full remaining balance.
type ReservationPaymentRequest struct {
	Payments []PaymentRequest `json:"payments" validate:"required,min=1,dive"`
	IsFinal  bool             `json:"is_final"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// SaveFieldPriceRequest creates or updates the hourly rate for a field/sport
// pair. An existing active rate for the same pair is replaced.
type SaveFieldPriceRequest struct {
	FieldName  string          `json:"field_name"  validate:"required"`
	Sport      string          `json:"sport"       validate:"required,oneof=futbol voley"`
	HourlyRate decimal.Decimal `json:"hourly_rate" validate:"required"`
}

type FieldPriceResponse struct {
	ID         string          `json:"id"`
	FieldName  string          `json:"field_name"`
	Sport      string          `json:"sport"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

type ReservationResponse struct {
	ID          string          `json:"id"`
	FieldName   string          `json:"field_name"`
	Sport       string          `json:"sport"`
	ClientName  string          `json:"client_name"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Balance     decimal.Decimal `json:"balance"`
	Status      string          `json:"status"`
}
