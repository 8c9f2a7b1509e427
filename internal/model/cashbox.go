package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cashbox session states.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Cashbox log entry types. Lifecycle entries (open/close) are excluded from
// totals; void entries are the paired audit records written when a log entry
// is voided.
const (
	LogOpen               = "open"
	LogClose              = "close"
	LogSalePayment        = "sale_payment"
	LogReservationPayment = "reservation_payment"
	LogIncome             = "income"
	LogExpense            = "expense"
	LogVoid               = "void"
)

// CashboxSession bounds a work shift on one branch. At most one session per
// branch may be open at a time — enforced by a partial unique index, not by
// an application check alone.
type CashboxSession struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Closing figures are computed on close: expected = opening + non-voided
	// income logs − non-voided expense logs, compared against the counted
	// amount. A discrepancy is recorded, never rejected.
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Variance       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	VariancePct    *decimal.Decimal `gorm:"type:decimal(5,2)"`
	// VarianceClass: "normal" | "warning" | "critical"
	VarianceClass *string `gorm:"type:varchar(20)"`
	// RequiresReview flags a critical-variance close that arrived without a
	// supervisor note. The close still commits; the flag keeps it on the
	// audit radar.
	RequiresReview bool   `gorm:"not null;default:false"`
	Status         string `gorm:"type:varchar(20);not null;default:'open'"`
	Notes          *string
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Logs []CashboxLog `gorm:"foreignKey:SessionID"`
}

// CashboxLog is an immutable event in the cashbox ledger. Entries are never
// updated or deleted; voiding flips is_voided and writes a paired "void"
// entry so the audit trail stays complete.
type CashboxLog struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID        *uuid.UUID      `gorm:"type:uuid;index"`
	Type          string          `gorm:"type:varchar(30);not null"`
	PaymentMethod *string         `gorm:"type:varchar(20)"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsVoided      bool            `gorm:"not null;default:false"`
	// ReferenceID links a "void" audit entry to the entry it voided, or a
	// payment entry to its reservation.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	Notes       string     `gorm:"not null;default:''"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
}
