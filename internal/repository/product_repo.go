package repository

import (
	"context"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via mocks.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, tc tenant.Context, barcode string) (*model.Product, error)
	// FindByDescription returns every active match so the caller can reject
	// ambiguous cart lines instead of guessing.
	FindByDescription(ctx context.Context, tc tenant.Context, description string) ([]model.Product, error)
	List(ctx context.Context, tc tenant.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	ListBelowMinStock(ctx context.Context, tc tenant.Context) ([]model.Product, error)
	// ListCompanyIDs returns every company owning at least one product.
	// Used by the maintenance worker to scan tenants one by one.
	ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, tc tenant.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, tc tenant.Context, id uuid.UUID) error

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcodeTx(tx *gorm.DB, tc tenant.Context, barcode string) (*model.Product, error)
	FindByDescriptionTx(tx *gorm.DB, tc tenant.Context, description string) ([]model.Product, error)
	// DecrementStockTx subtracts qty only when enough stock remains. Returns
	// false when the guard rejected the update; the caller decides whether
	// that is an insufficient-stock failure or a retry.
	DecrementStockTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID, qty int) (bool, error)
	IncrementStockTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID, qty int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		First(&p).Error
	return &p, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, tc tenant.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND barcode = ? AND active = true", tc.CompanyID, barcode).
		First(&p).Error
	return &p, err
}

func (r *productRepo) FindByDescription(ctx context.Context, tc tenant.Context, description string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND LOWER(description) = LOWER(?) AND active = true", tc.CompanyID, description).
		Find(&products).Error
	return products, err
}

func (r *productRepo) List(ctx context.Context, tc tenant.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("company_id = ?", tc.CompanyID)

	// Active filter: "false" = inactive, "all" = everything, default = active only
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.Barcode != "" {
		q = q.Where("barcode = ?", filter.Barcode)
	}
	if filter.Description != "" {
		q = q.Where("description ILIKE ?", "%"+filter.Description+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("description ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListBelowMinStock(ctx context.Context, tc tenant.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND active = true AND stock <= min_stock", tc.CompanyID).
		Order("stock ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Distinct("company_id").
		Pluck("company_id", &ids).Error
	return ids, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, tc tenant.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		Update("active", false).Error
}

func (r *productRepo) Reactivate(ctx context.Context, tc tenant.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		Update("active", true).Error
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Where("id = ? AND company_id = ?", id, tc.CompanyID).First(&p).Error
	return &p, err
}

func (r *productRepo) FindByBarcodeTx(tx *gorm.DB, tc tenant.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := tx.Where("company_id = ? AND barcode = ? AND active = true", tc.CompanyID, barcode).
		First(&p).Error
	return &p, err
}

func (r *productRepo) FindByDescriptionTx(tx *gorm.DB, tc tenant.Context, description string) ([]model.Product, error) {
	var products []model.Product
	err := tx.Where("company_id = ? AND LOWER(description) = LOWER(?) AND active = true", tc.CompanyID, description).
		Find(&products).Error
	return products, err
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID, qty int) (bool, error) {
	// Guarded conditional UPDATE: the WHERE clause is the concurrency control.
	// Two competing sales serialize on the row; the loser sees RowsAffected 0.
	res := tx.Model(&model.Product{}).
		Where("id = ? AND company_id = ? AND active = true AND stock >= ?", id, tc.CompanyID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID, qty int) error {
	return tx.Model(&model.Product{}).
		Where("id = ? AND company_id = ?", id, tc.CompanyID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }
