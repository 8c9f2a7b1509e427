package repository

import (
	"context"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.Sale, error)
	// FindByIDTx locks the sale row so two concurrent voids cannot both pass
	// the status check.
	FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string, reason *string) error
	List(ctx context.Context, tc tenant.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Payments").Preload("Client").
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		First(&s).Error
	return &s, err
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	// Preload separately: FOR UPDATE cannot lock across the item join.
	if err := tx.Where("sale_id = ?", id).Find(&s.Items).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", id).Find(&s.Payments).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string, reason *string) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "void_reason": reason}).Error
}

func (r *saleRepo) List(ctx context.Context, tc tenant.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("company_id = ? AND branch_id = ?", tc.CompanyID, tc.BranchID)

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Preload("Payments").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}
