package repository

import (
	"context"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, fr *model.FieldReservation) error
	FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error)
	// FindByIDTx locks the reservation row; concurrent payments serialize on
	// it so paid_amount accumulates without lost updates.
	FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error)
	UpdateTx(tx *gorm.DB, fr *model.FieldReservation) error
	ListByDate(ctx context.Context, tc tenant.Context, date time.Time) ([]model.FieldReservation, error)
	// FindOverlapping reports reservations on the same field whose slot
	// intersects [start, end). Cancelled ones do not block the slot.
	FindOverlapping(ctx context.Context, tc tenant.Context, fieldName string, start, end time.Time) ([]model.FieldReservation, error)

	FindPrice(ctx context.Context, tc tenant.Context, fieldName, sport string) (*model.FieldPrice, error)
	ListPrices(ctx context.Context, tc tenant.Context) ([]model.FieldPrice, error)
	SavePrice(ctx context.Context, p *model.FieldPrice) error

	DB() *gorm.DB
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepository(db *gorm.DB) ReservationRepository { return &reservationRepo{db: db} }

func (r *reservationRepo) Create(ctx context.Context, fr *model.FieldReservation) error {
	return r.db.WithContext(ctx).Create(fr).Error
}

func (r *reservationRepo) FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error) {
	var fr model.FieldReservation
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND branch_id = ?", id, tc.CompanyID, tc.BranchID).
		First(&fr).Error
	return &fr, err
}

func (r *reservationRepo) FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error) {
	var fr model.FieldReservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ? AND branch_id = ?", id, tc.CompanyID, tc.BranchID).
		First(&fr).Error
	return &fr, err
}

func (r *reservationRepo) UpdateTx(tx *gorm.DB, fr *model.FieldReservation) error {
	return tx.Save(fr).Error
}

func (r *reservationRepo) ListByDate(ctx context.Context, tc tenant.Context, date time.Time) ([]model.FieldReservation, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var reservations []model.FieldReservation
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND branch_id = ? AND start_time >= ? AND start_time < ?",
			tc.CompanyID, tc.BranchID, dayStart, dayEnd).
		Order("start_time ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) FindOverlapping(ctx context.Context, tc tenant.Context, fieldName string, start, end time.Time) ([]model.FieldReservation, error) {
	var reservations []model.FieldReservation
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND branch_id = ? AND field_name = ? AND status <> ? AND start_time < ? AND end_time > ?",
			tc.CompanyID, tc.BranchID, fieldName, model.ReservationCancelled, end, start).
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) FindPrice(ctx context.Context, tc tenant.Context, fieldName, sport string) (*model.FieldPrice, error) {
	var p model.FieldPrice
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND field_name = ? AND sport = ? AND active = true", tc.CompanyID, fieldName, sport).
		First(&p).Error
	return &p, err
}

func (r *reservationRepo) ListPrices(ctx context.Context, tc tenant.Context) ([]model.FieldPrice, error) {
	var prices []model.FieldPrice
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND active = true", tc.CompanyID).
		Order("field_name ASC, sport ASC").
		Find(&prices).Error
	return prices, err
}

func (r *reservationRepo) SavePrice(ctx context.Context, p *model.FieldPrice) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *reservationRepo) DB() *gorm.DB { return r.db }
