package repository

import (
	"context"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"gorm.io/gorm"
)

type StockMovementRepository interface {
	// CreateTx appends a movement inside the transaction that changed the
	// stock, so ledger and balance never diverge.
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, tc tenant.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, tc tenant.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("company_id = ? AND branch_id = ?", tc.CompanyID, tc.BranchID)

	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Product").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&movements).Error
	return movements, total, err
}
