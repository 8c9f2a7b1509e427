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

type InstallmentRepository interface {
	CreateBatchTx(tx *gorm.DB, installments []model.SaleInstallment) error
	// FindByIDTx locks the installment row FOR UPDATE. Concurrent payments
	// against the same installment serialize here; each one re-reads the
	// balance before deciding whether the payment still fits.
	FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.SaleInstallment, error)
	UpdateTx(tx *gorm.DB, i *model.SaleInstallment) error
	ListBySale(ctx context.Context, tc tenant.Context, saleID uuid.UUID) ([]model.SaleInstallment, error)
	// ListBySaleTx locks the plan's rows for a void, so payments in flight
	// serialize against the cancellation.
	ListBySaleTx(tx *gorm.DB, tc tenant.Context, saleID uuid.UUID) ([]model.SaleInstallment, error)
	ListByClient(ctx context.Context, tc tenant.Context, clientID uuid.UUID) ([]model.SaleInstallment, error)
	// MarkOverdue flips pending/partial installments past their due date.
	// Called from the maintenance worker, not from request paths.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	DB() *gorm.DB
}

type installmentRepo struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) InstallmentRepository { return &installmentRepo{db: db} }

func (r *installmentRepo) CreateBatchTx(tx *gorm.DB, installments []model.SaleInstallment) error {
	return tx.Create(&installments).Error
}

func (r *installmentRepo) FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.SaleInstallment, error) {
	var i model.SaleInstallment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		First(&i).Error
	return &i, err
}

func (r *installmentRepo) UpdateTx(tx *gorm.DB, i *model.SaleInstallment) error {
	return tx.Save(i).Error
}

func (r *installmentRepo) ListBySale(ctx context.Context, tc tenant.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	var installments []model.SaleInstallment
	err := r.db.WithContext(ctx).
		Where("sale_id = ? AND company_id = ?", saleID, tc.CompanyID).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepo) ListBySaleTx(tx *gorm.DB, tc tenant.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	var installments []model.SaleInstallment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sale_id = ? AND company_id = ?", saleID, tc.CompanyID).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepo) ListByClient(ctx context.Context, tc tenant.Context, clientID uuid.UUID) ([]model.SaleInstallment, error) {
	var installments []model.SaleInstallment
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND company_id = ?", clientID, tc.CompanyID).
		Order("due_date ASC, number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.SaleInstallment{}).
		Where("status IN ? AND due_date < ?", []string{model.InstallmentPending, model.InstallmentPartial}, now).
		Update("status", model.InstallmentOverdue)
	return res.RowsAffected, res.Error
}

func (r *installmentRepo) DB() *gorm.DB { return r.db }
