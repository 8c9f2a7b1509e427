package repository

import (
	"context"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.Client, error)
	// FindByIDTx locks the client row; debt checks and debt updates must see
	// a stable balance.
	FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, tc tenant.Context, page, limit int) ([]model.Client, int64, error)
	Update(ctx context.Context, c *model.Client) error
	AdjustDebtTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		First(&c).Error
	return &c, err
}

func (r *clientRepo) FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		First(&c).Error
	return &c, err
}

func (r *clientRepo) List(ctx context.Context, tc tenant.Context, page, limit int) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Client{}).
		Where("company_id = ? AND active = true", tc.CompanyID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("name ASC").Limit(limit).Offset((page - 1) * limit).Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) AdjustDebtTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Client{}).Where("id = ?", id).
		Update("current_debt", gorm.Expr("current_debt + ?", delta)).Error
}
