// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/bizerror"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// StatusFor maps domain errors to HTTP status codes. Unknown errors map to
// 500 so the handler never leaks raw DB or driver messages.
func StatusFor(err error) int {
	var (
		stockErr      *bizerror.InsufficientStockError
		overErr       *bizerror.OverpaymentError
		ambiguousErr  *bizerror.AmbiguousProductError
		notFoundErr   *bizerror.ProductNotFoundError
		transitionErr *bizerror.InvalidTransitionError
	)

	switch {
	case errors.Is(err, bizerror.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, bizerror.ErrCashboxAlreadyOpen),
		errors.Is(err, bizerror.ErrConcurrencyConflict),
		errors.As(err, &stockErr),
		errors.As(err, &transitionErr):
		return http.StatusConflict
	case errors.Is(err, bizerror.ErrNoOpenCashbox),
		errors.Is(err, bizerror.ErrPaymentMismatch),
		errors.As(err, &overErr),
		errors.As(err, &ambiguousErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the envelope for a domain error. For unknown errors the
// detail is a generic message; the real cause belongs in the server log only.
func FromError(err error) (int, *APIError) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return status, New("Error interno del servidor")
	}
	return status, New(err.Error())
}
