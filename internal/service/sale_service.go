package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/bizerror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// settleRetries bounds the optimistic retry loop. Guarded-decrement misses
// that turn out to be transient get this many attempts before surfacing
// ErrConcurrencyConflict.
const settleRetries = 3

type SaleService interface {
	// SettleSale runs the full settlement in one transaction: open-session
	// check, barcode-first product resolution, payment reconciliation,
	// guarded stock decrements, cashbox logging and the credit leg. Any
	// precondition failure aborts before the first write.
	SettleSale(ctx context.Context, tc tenant.Context, req dto.SettleSaleRequest) (*dto.SaleResponse, error)
	// VoidSale reverses a committed sale: offsetting stock movements, log
	// voiding with paired audit entries and debt rollback for unpaid credit.
	// Original rows are never mutated beyond the status flag.
	VoidSale(ctx context.Context, tc tenant.Context, id uuid.UUID, reason string) error
	GetSale(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, tc tenant.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo        repository.SaleRepository
	inventory   InventoryService
	credit      CreditService
	cashboxRepo repository.CashboxRepository
	productRepo repository.ProductRepository
	installRepo repository.InstallmentRepository
	dispatcher  *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	inventory InventoryService,
	credit CreditService,
	cashboxRepo repository.CashboxRepository,
	productRepo repository.ProductRepository,
	installRepo repository.InstallmentRepository,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:        repo,
		inventory:   inventory,
		credit:      credit,
		cashboxRepo: cashboxRepo,
		productRepo: productRepo,
		installRepo: installRepo,
		dispatcher:  dispatcher,
	}
}

type resolvedLine struct {
	product   *model.Product
	quantity  int
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
}

// ── SettleSale ────────────────────────────────────────────────────────────────

func (s *saleService) SettleSale(ctx context.Context, tc tenant.Context, req dto.SettleSaleRequest) (*dto.SaleResponse, error) {
	for attempt := 0; attempt < settleRetries; attempt++ {
		sale, err := s.settleOnce(ctx, tc, req)
		if err == nil {
			s.dispatchReceipt(ctx, sale, req.ClientEmail)
			return saleToResponse(sale), nil
		}
		if !isSerializationError(err) {
			return nil, err
		}
	}
	return nil, bizerror.ErrConcurrencyConflict
}

func (s *saleService) settleOnce(ctx context.Context, tc tenant.Context, req dto.SettleSaleRequest) (*model.Sale, error) {
	var clientID *uuid.UUID
	if req.ClientID != nil {
		id, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("client_id inválido: %w", err)
		}
		clientID = &id
	}

	// Split the payment legs up front. The credit leg never hits the cashbox
	// at settlement; it becomes installments instead.
	creditAmount := decimal.Zero
	paymentTotal := decimal.Zero
	for _, p := range req.Payments {
		if !p.Amount.IsPositive() {
			return nil, errors.New("los montos de pago deben ser mayores a cero")
		}
		paymentTotal = paymentTotal.Add(p.Amount)
		if p.Method == model.MethodCredit {
			creditAmount = creditAmount.Add(p.Amount)
		}
	}
	if creditAmount.IsPositive() && clientID == nil {
		return nil, errors.New("una venta a crédito requiere un cliente registrado")
	}

	var sale *model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// 1. An open session must exist; its row lock orders settlement
		// against close.
		session, err := s.cashboxRepo.FindOpenSessionTx(tx, tc)
		if err != nil {
			return bizerror.ErrNoOpenCashbox
		}

		// 2. Resolve cart lines: barcode first, description only as
		// fallback, ambiguity rejected.
		lines, err := s.resolveCart(tx, tc, req.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.subtotal)
		}

		// 3. Payments must cover the total exactly.
		if !paymentTotal.Equal(total) {
			return bizerror.ErrPaymentMismatch
		}

		// 4. Credit leg: lock the client, verify the limit, raise the debt.
		if creditAmount.IsPositive() {
			if err := s.credit.CheckCreditTx(tx, tc, *clientID, creditAmount); err != nil {
				return err
			}
		}

		// 5. Persist the sale with its items and payment legs.
		sale = &model.Sale{
			CompanyID: tc.CompanyID,
			BranchID:  tc.BranchID,
			SessionID: session.ID,
			ClientID:  clientID,
			UserID:    tc.UserID,
			Total:     total,
			Status:    model.SaleCompleted,
		}
		for _, l := range lines {
			barcode := ""
			if l.product.Barcode != nil {
				barcode = *l.product.Barcode
			}
			sale.Items = append(sale.Items, model.SaleItem{
				ProductID:           l.product.ID,
				Quantity:            l.quantity,
				UnitPrice:           l.unitPrice,
				Subtotal:            l.subtotal,
				DescriptionSnapshot: l.product.Description,
				BarcodeSnapshot:     barcode,
			})
		}
		for _, p := range req.Payments {
			sale.Payments = append(sale.Payments, model.SalePayment{
				Method: p.Method,
				Amount: p.Amount,
			})
		}
		if err := s.repo.CreateTx(tx, sale); err != nil {
			return err
		}

		// 6. Guarded decrement per line, each paired with its ledger row.
		saleRef := sale.ID
		for _, l := range lines {
			if err := s.inventory.DecrementStockTx(tx, tc, l.product.ID, l.quantity, model.MovementSale, &saleRef); err != nil {
				return err
			}
		}

		// 7. One cashbox log per non-credit payment leg.
		for _, p := range req.Payments {
			if p.Method == model.MethodCredit {
				continue
			}
			method := p.Method
			if err := s.cashboxRepo.CreateLogTx(tx, &model.CashboxLog{
				CompanyID:     tc.CompanyID,
				BranchID:      tc.BranchID,
				SessionID:     session.ID,
				SaleID:        &saleRef,
				Type:          model.LogSalePayment,
				PaymentMethod: &method,
				Amount:        p.Amount,
				UserID:        tc.UserID,
			}); err != nil {
				return err
			}
		}

		// 8. Installment plan for the financed amount.
		if creditAmount.IsPositive() {
			if _, err := s.credit.CreateInstallmentPlanTx(tx, tc, sale.ID, *clientID, creditAmount, req.Installments, req.IntervalDays); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return sale, nil
}

// resolveCart maps cart lines to products. Barcode wins; the description is
// consulted when no barcode is given or the barcode matches nothing, and a
// description matching more than one product is an error, never a guess.
func (s *saleService) resolveCart(tx *gorm.DB, tc tenant.Context, items []dto.CartItemRequest) ([]resolvedLine, error) {
	lines := make([]resolvedLine, 0, len(items))
	for _, item := range items {
		var p *model.Product

		if item.Barcode != "" {
			found, err := s.productRepo.FindByBarcodeTx(tx, tc, item.Barcode)
			if err == nil {
				p = found
			} else if item.Description == "" {
				return nil, &bizerror.ProductNotFoundError{Identifier: item.Barcode}
			}
		}

		if p == nil {
			if item.Description == "" {
				return nil, errors.New("cada línea requiere código de barras o descripción")
			}
			matches, err := s.productRepo.FindByDescriptionTx(tx, tc, item.Description)
			if err != nil {
				return nil, err
			}
			switch len(matches) {
			case 0:
				return nil, &bizerror.ProductNotFoundError{Identifier: item.Description}
			case 1:
				p = &matches[0]
			default:
				return nil, &bizerror.AmbiguousProductError{Description: item.Description}
			}
		}

		unitPrice := item.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = p.SalePrice
		}

		lines = append(lines, resolvedLine{
			product:   p,
			quantity:  item.Quantity,
			unitPrice: unitPrice,
			subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return lines, nil
}

// ── VoidSale ──────────────────────────────────────────────────────────────────

func (s *saleService) VoidSale(ctx context.Context, tc tenant.Context, id uuid.UUID, reason string) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDTx(tx, tc, id)
		if err != nil {
			return bizerror.ErrNotFound
		}
		if sale.Status == model.SaleCancelled {
			return &bizerror.InvalidTransitionError{From: model.SaleCancelled, To: model.SaleCancelled}
		}

		// Offsetting stock movements; original rows stay untouched.
		saleRef := sale.ID
		notes := fmt.Sprintf("anulación de venta — %s", reason)
		for _, item := range sale.Items {
			if err := s.inventory.RestoreStockTx(tx, tc, item.ProductID, item.Quantity, &saleRef, notes); err != nil {
				return err
			}
		}

		// Void the sale's non-voided cashbox entries with paired audit rows.
		logs, err := s.listSaleLogsTx(tx, sale.ID)
		if err != nil {
			return err
		}
		for i := range logs {
			l := &logs[i]
			if l.IsVoided || l.Type == model.LogVoid {
				continue
			}
			if err := s.cashboxRepo.MarkLogVoidedTx(tx, l.ID); err != nil {
				return err
			}
			ref := l.ID
			if err := s.cashboxRepo.CreateLogTx(tx, &model.CashboxLog{
				CompanyID:     tc.CompanyID,
				BranchID:      tc.BranchID,
				SessionID:     l.SessionID,
				SaleID:        &saleRef,
				Type:          model.LogVoid,
				PaymentMethod: l.PaymentMethod,
				Amount:        l.Amount,
				ReferenceID:   &ref,
				Notes:         notes,
				UserID:        tc.UserID,
			}); err != nil {
				return err
			}
		}

		// Credit leg rollback: cap every unpaid installment at what was
		// already paid and release the matching debt.
		if sale.ClientID != nil {
			installments, err := s.installRepo.ListBySaleTx(tx, tc, sale.ID)
			if err != nil {
				return err
			}
			outstanding := decimal.Zero
			for i := range installments {
				inst := &installments[i]
				if inst.Status == model.InstallmentPaid {
					continue
				}
				outstanding = outstanding.Add(inst.AmountDue.Sub(inst.PaidAmount))
				inst.AmountDue = inst.PaidAmount
				inst.Status = model.InstallmentPaid
				if err := s.installRepo.UpdateTx(tx, inst); err != nil {
					return err
				}
			}
			if outstanding.IsPositive() {
				if err := s.credit.ReleaseDebtTx(tx, tc, *sale.ClientID, outstanding); err != nil {
					return err
				}
			}
		}

		return s.repo.UpdateStatusTx(tx, sale.ID, model.SaleCancelled, &reason)
	})
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, tc, id)
	if err != nil {
		return nil, bizerror.ErrNotFound
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, tc tenant.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Status == "" {
		filter.Status = model.SaleCompleted
	}
	sales, total, err := s.repo.List(ctx, tc, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *saleService) listSaleLogsTx(tx *gorm.DB, saleID uuid.UUID) ([]model.CashboxLog, error) {
	db := withTx(tx, s.cashboxRepo.DB())
	if db == nil {
		return nil, nil
	}
	var logs []model.CashboxLog
	err := db.Where("sale_id = ?", saleID).Find(&logs).Error
	return logs, err
}

func (s *saleService) dispatchReceipt(ctx context.Context, sale *model.Sale, email *string) {
	if s.dispatcher == nil {
		return
	}
	payload := map[string]interface{}{
		"sale_id":    sale.ID.String(),
		"company_id": sale.CompanyID.String(),
	}
	if email != nil && *email != "" {
		payload["client_email"] = *email
	}
	_ = s.dispatcher.EnqueueReceipt(ctx, payload)
}

// withTx prefers the live transaction; outside one (unit tests) it falls back
// to the repo's own handle.
func withTx(tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// isSerializationError reports whether the failure is a transient conflict
// worth retrying (serialization failure or deadlock under concurrent load).
func isSerializationError(err error) bool {
	var pgCode interface{ SQLState() string }
	if errors.As(err, &pgCode) {
		code := pgCode.SQLState()
		return code == "40001" || code == "40P01"
	}
	return false
}

func saleToResponse(v *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, dto.SaleItemResponse{
			Product:   item.DescriptionSnapshot,
			Barcode:   item.BarcodeSnapshot,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	payments := make([]dto.PaymentRequest, 0, len(v.Payments))
	for _, p := range v.Payments {
		payments = append(payments, dto.PaymentRequest{Method: p.Method, Amount: p.Amount})
	}
	resp := &dto.SaleResponse{
		ID:        v.ID.String(),
		SessionID: v.SessionID.String(),
		Items:     items,
		Payments:  payments,
		Total:     v.Total,
		Status:    v.Status,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
	if v.ClientID != nil {
		id := v.ClientID.String()
		resp.ClientID = &id
	}
	return resp
}
