package dto

import "github.com/shopspring/decimal"

type CreateClientRequest struct {
	Name        string          `json:"name" validate:"required"`
	Document    *string         `json:"document"`
	Phone       *string         `json:"phone"`
	CreditLimit decimal.Decimal `json:"credit_limit" validate:"min=0"`
}

type ClientResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Document    *string         `json:"document,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	CurrentDebt decimal.Decimal `json:"current_debt"`
	Active      bool            `json:"active"`
}

type PayInstallmentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"method" validate:"required,oneof=cash card wallet transfer"`
}

type InstallmentResponse struct {
	ID         string          `json:"id"`
	SaleID     string          `json:"sale_id"`
	Number     int             `json:"number"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	DueDate    string          `json:"due_date"`
	Status     string          `json:"status"`
	PaidAt     *string         `json:"paid_at,omitempty"`
}

type ClientStatusResponse struct {
	Client              ClientResponse        `json:"client"`
	PendingInstallments []InstallmentResponse `json:"pending_installments"`
}
