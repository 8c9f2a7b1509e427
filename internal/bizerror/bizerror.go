// Package bizerror defines the domain error taxonomy of the settlement core.
// Handlers map these to HTTP statuses; services return them unwrapped so
// callers can branch with errors.Is / errors.As.
package bizerror

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNoOpenCashbox is returned when a settlement operation requires an
	// open cashbox session for the branch and none exists.
	ErrNoOpenCashbox = errors.New("no hay una sesión de caja abierta")

	// ErrCashboxAlreadyOpen is returned when opening a session while another
	// one is still open for the same branch.
	ErrCashboxAlreadyOpen = errors.New("ya existe una caja abierta en esta sucursal")

	// ErrPaymentMismatch is returned when the sum of payments does not equal
	// the sale total.
	ErrPaymentMismatch = errors.New("la suma de pagos no coincide con el total de la venta")

	// ErrConcurrencyConflict is returned after bounded retries of a
	// transaction that kept failing on serialization conflicts.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, intente nuevamente")

	// ErrNotFound is the generic tenant-scoped lookup miss.
	ErrNotFound = errors.New("registro no encontrado")
)

// InsufficientStockError identifies the product whose available stock could
// not cover the requested quantity.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Product   string
}

func (e *InsufficientStockError) Error() string {
	if e.Product != "" {
		return fmt.Sprintf("stock insuficiente para %s", e.Product)
	}
	return fmt.Sprintf("stock insuficiente para el producto %s", e.ProductID)
}

// OverpaymentError is returned when a payment would push an installment or
// reservation past its remaining balance.
type OverpaymentError struct {
	Remaining string // formatted remaining balance
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("el monto supera el saldo pendiente (%s)", e.Remaining)
}

// AmbiguousProductError is returned when a cart line without a usable barcode
// matches more than one product by description. The caller must retry with a
// barcode; guessing would risk selling the wrong product.
type AmbiguousProductError struct {
	Description string
}

func (e *AmbiguousProductError) Error() string {
	return fmt.Sprintf("el producto '%s' tiene múltiples coincidencias, use código de barras", e.Description)
}

// ProductNotFoundError identifies the cart line that could not be resolved.
type ProductNotFoundError struct {
	Identifier string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %s no encontrado en inventario", e.Identifier)
}

// InvalidTransitionError is returned on regressive or disallowed state
// changes (reservations, sale voiding, log voiding).
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de estado inválida: %s → %s", e.From, e.To)
}
