package service

import (
	"context"
	"errors"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/bizerror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InventoryService owns the product catalog and the append-only stock ledger.
// Current stock is always the running sum of movement deltas; the only writes
// that touch the stock column go through the guarded repository primitives.
type InventoryService interface {
	CreateProduct(ctx context.Context, tc tenant.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, tc tenant.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	UpdateProduct(ctx context.Context, tc tenant.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	DeactivateProduct(ctx context.Context, tc tenant.Context, id uuid.UUID) error

	// AdjustStock posts a manual correcting movement (goods-in or count fix).
	AdjustStock(ctx context.Context, tc tenant.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.StockMovementResponse, error)
	ListMovements(ctx context.Context, tc tenant.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
	ListLowStock(ctx context.Context, tc tenant.Context) ([]dto.ProductResponse, error)

	// DecrementStockTx runs inside a settlement transaction. It performs the
	// guarded decrement and appends the paired movement row; a guard miss
	// surfaces as InsufficientStockError after re-checking the balance.
	DecrementStockTx(tx *gorm.DB, tc tenant.Context, productID uuid.UUID, qty int, reason string, refID *uuid.UUID) error
	// RestoreStockTx reverses a prior decrement (sale void) with an
	// offsetting movement.
	RestoreStockTx(tx *gorm.DB, tc tenant.Context, productID uuid.UUID, qty int, refID *uuid.UUID, notes string) error
}

type inventoryService struct {
	repo    repository.ProductRepository
	movRepo repository.StockMovementRepository
	rdb     *redis.Client
}

func NewInventoryService(repo repository.ProductRepository, movRepo repository.StockMovementRepository, rdb *redis.Client) InventoryService {
	return &inventoryService{repo: repo, movRepo: movRepo, rdb: rdb}
}

func (s *inventoryService) CreateProduct(ctx context.Context, tc tenant.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		CompanyID:     tc.CompanyID,
		Barcode:       req.Barcode,
		Description:   req.Description,
		Category:      req.Category,
		Unit:          req.Unit,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         0,
		MinStock:      req.MinStock,
		Active:        true,
	}
	if p.Category == "" {
		p.Category = "General"
	}
	if p.Unit == "" {
		p.Unit = "unidad"
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return err
		}
		if req.InitialStock > 0 {
			if err := s.repo.IncrementStockTx(tx, tc, p.ID, req.InitialStock); err != nil {
				return err
			}
			p.Stock = req.InitialStock
			return s.movRepo.CreateTx(tx, &model.StockMovement{
				CompanyID:   tc.CompanyID,
				BranchID:    tc.BranchID,
				ProductID:   p.ID,
				Delta:       req.InitialStock,
				Reason:      model.MovementPurchase,
				StockBefore: 0,
				StockAfter:  req.InitialStock,
				Notes:       "stock inicial",
				UserID:      tc.UserID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *inventoryService) GetProduct(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, tc, id)
	if err != nil {
		return nil, bizerror.ErrNotFound
	}
	return productToResponse(p), nil
}

func (s *inventoryService) ListProducts(ctx context.Context, tc tenant.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, tc, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, tc tenant.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, tc, id)
	if err != nil {
		return nil, bizerror.ErrNotFound
	}

	oldBarcode := p.Barcode
	if req.Barcode != nil {
		p.Barcode = req.Barcode
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.Unit != "" {
		p.Unit = req.Unit
	}
	if req.PurchasePrice != nil {
		p.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		p.SalePrice = *req.SalePrice
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.invalidatePriceCache(ctx, tc, oldBarcode)
	s.invalidatePriceCache(ctx, tc, p.Barcode)
	return productToResponse(p), nil
}

func (s *inventoryService) DeactivateProduct(ctx context.Context, tc tenant.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, tc, id)
	if err != nil {
		return bizerror.ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, tc, id); err != nil {
		return err
	}
	s.invalidatePriceCache(ctx, tc, p.Barcode)
	return nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, tc tenant.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.StockMovementResponse, error) {
	if req.Delta == 0 {
		return nil, errors.New("el ajuste no puede ser cero")
	}

	var mov *model.StockMovement
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDTx(tx, tc, id)
		if err != nil {
			return bizerror.ErrNotFound
		}

		if req.Delta > 0 {
			if err := s.repo.IncrementStockTx(tx, tc, id, req.Delta); err != nil {
				return err
			}
		} else {
			ok, err := s.repo.DecrementStockTx(tx, tc, id, -req.Delta)
			if err != nil {
				return err
			}
			if !ok {
				return &bizerror.InsufficientStockError{ProductID: id, Product: p.Description}
			}
		}

		mov = &model.StockMovement{
			CompanyID:   tc.CompanyID,
			BranchID:    tc.BranchID,
			ProductID:   id,
			Delta:       req.Delta,
			Reason:      req.Reason,
			StockBefore: p.Stock,
			StockAfter:  p.Stock + req.Delta,
			Notes:       req.Notes,
			UserID:      tc.UserID,
		}
		return s.movRepo.CreateTx(tx, mov)
	})
	if err != nil {
		return nil, err
	}
	return movementToResponse(mov), nil
}

func (s *inventoryService) ListMovements(ctx context.Context, tc tenant.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	movements, total, err := s.movRepo.List(ctx, tc, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockMovementResponse, 0, len(movements))
	for i := range movements {
		data = append(data, *movementToResponse(&movements[i]))
	}
	return &dto.StockMovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *inventoryService) ListLowStock(ctx context.Context, tc tenant.Context) ([]dto.ProductResponse, error) {
	products, err := s.repo.ListBelowMinStock(ctx, tc)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return data, nil
}

func (s *inventoryService) DecrementStockTx(tx *gorm.DB, tc tenant.Context, productID uuid.UUID, qty int, reason string, refID *uuid.UUID) error {
	ok, err := s.repo.DecrementStockTx(tx, tc, productID, qty)
	if err != nil {
		return err
	}

	// Read after the UPDATE: our own write holds the row lock, so p.Stock is
	// the settled balance the movement snapshot must record. A pre-read could
	// go stale under a concurrent decrement.
	p, err := s.repo.FindByIDTx(tx, tc, productID)
	if err != nil {
		return bizerror.ErrNotFound
	}
	if !ok {
		// The guard rejected the update: either the balance is genuinely
		// short, or a concurrent writer drained it between read and update.
		// Either way the remaining stock cannot cover qty.
		return &bizerror.InsufficientStockError{ProductID: productID, Product: p.Description}
	}

	return s.movRepo.CreateTx(tx, &model.StockMovement{
		CompanyID:   tc.CompanyID,
		BranchID:    tc.BranchID,
		ProductID:   productID,
		Delta:       -qty,
		Reason:      reason,
		StockBefore: p.Stock + qty,
		StockAfter:  p.Stock,
		ReferenceID: refID,
		UserID:      tc.UserID,
	})
}

func (s *inventoryService) RestoreStockTx(tx *gorm.DB, tc tenant.Context, productID uuid.UUID, qty int, refID *uuid.UUID, notes string) error {
	if err := s.repo.IncrementStockTx(tx, tc, productID, qty); err != nil {
		return err
	}
	p, err := s.repo.FindByIDTx(tx, tc, productID)
	if err != nil {
		return bizerror.ErrNotFound
	}
	return s.movRepo.CreateTx(tx, &model.StockMovement{
		CompanyID:   tc.CompanyID,
		BranchID:    tc.BranchID,
		ProductID:   productID,
		Delta:       qty,
		Reason:      model.MovementVoid,
		StockBefore: p.Stock - qty,
		StockAfter:  p.Stock,
		ReferenceID: refID,
		Notes:       notes,
		UserID:      tc.UserID,
	})
}

// PriceCacheKey builds the Redis key of the read-through price cache. The
// company ID is part of the key so tenants never see each other's prices.
func PriceCacheKey(companyID uuid.UUID, barcode string) string {
	return "precio:" + companyID.String() + ":" + barcode
}

// invalidatePriceCache drops the read-through price entry. Best effort.
func (s *inventoryService) invalidatePriceCache(ctx context.Context, tc tenant.Context, barcode *string) {
	if s.rdb == nil || barcode == nil || *barcode == "" {
		return
	}
	_ = s.rdb.Del(ctx, PriceCacheKey(tc.CompanyID, *barcode)).Err()
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID.String(),
		Barcode:       p.Barcode,
		Description:   p.Description,
		Category:      p.Category,
		Unit:          p.Unit,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		Stock:         p.Stock,
		MinStock:      p.MinStock,
		Active:        p.Active,
	}
}

func movementToResponse(m *model.StockMovement) *dto.StockMovementResponse {
	resp := &dto.StockMovementResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		Delta:       m.Delta,
		Reason:      m.Reason,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.Product != nil {
		resp.Product = m.Product.Description
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
