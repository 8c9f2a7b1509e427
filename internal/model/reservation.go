package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation states. Transitions are forward-only: a paid reservation can
// never go back to reserved, and cancelled is terminal.
const (
	ReservationReserved    = "reserved"
	ReservationAdvancePaid = "advance_paid"
	ReservationPaid        = "paid"
	ReservationCancelled   = "cancelled"
)

// FieldReservation books a sports field for a time slot. Payments against it
// flow through the same cashbox trail as sales.
type FieldReservation struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	FieldName    string          `gorm:"not null"`
	Sport        string          `gorm:"type:varchar(20);not null;default:'futbol'"`
	ClientID     *uuid.UUID      `gorm:"type:uuid;index"`
	ClientName   string          `gorm:"not null"`
	StartTime    time.Time       `gorm:"index;not null"`
	EndTime      time.Time       `gorm:"not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status       string          `gorm:"type:varchar(20);not null;default:'reserved'"`
	CancelReason *string
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

// FieldPrice is the hourly rate per field and sport, used to compute a
// reservation's total when it is created.
type FieldPrice struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	FieldName  string          `gorm:"not null"`
	Sport      string          `gorm:"type:varchar(20);not null"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
}
