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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultInstallmentIntervalDays = 30

type CreditService interface {
	CreateClient(ctx context.Context, tc tenant.Context, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	ListClients(ctx context.Context, tc tenant.Context, page, limit int) ([]dto.ClientResponse, int64, error)
	// GetClientStatus returns the client and their not-yet-settled
	// installments ordered by due date.
	GetClientStatus(ctx context.Context, tc tenant.Context, clientID uuid.UUID) (*dto.ClientStatusResponse, error)
	ListInstallmentsBySale(ctx context.Context, tc tenant.Context, saleID uuid.UUID) ([]dto.InstallmentResponse, error)

	// ApplyInstallmentPayment credits amount against one installment. The row
	// is locked before the balance check so two concurrent payments cannot
	// both pass against stale paid_amount.
	ApplyInstallmentPayment(ctx context.Context, tc tenant.Context, installmentID uuid.UUID, req dto.PayInstallmentRequest) (*dto.InstallmentResponse, error)

	// CreateInstallmentPlanTx splits the credit leg of a sale into n
	// installments inside the settlement transaction. The split uses
	// largest-remainder so the parts sum exactly to the financed amount.
	CreateInstallmentPlanTx(tx *gorm.DB, tc tenant.Context, saleID, clientID uuid.UUID, total decimal.Decimal, n, intervalDays int) ([]model.SaleInstallment, error)
	// CheckCreditTx verifies the client can absorb the financed amount and
	// increments their debt. The client row must already be locked.
	CheckCreditTx(tx *gorm.DB, tc tenant.Context, clientID uuid.UUID, amount decimal.Decimal) error
	// ReleaseDebtTx reverses financed debt when a credit sale is voided.
	ReleaseDebtTx(tx *gorm.DB, tc tenant.Context, clientID uuid.UUID, amount decimal.Decimal) error

	// MarkOverdue flips past-due installments; invoked by the maintenance
	// worker.
	MarkOverdue(ctx context.Context) (int64, error)
}

type creditService struct {
	repo        repository.InstallmentRepository
	clientRepo  repository.ClientRepository
	cashboxRepo repository.CashboxRepository
}

func NewCreditService(repo repository.InstallmentRepository, clientRepo repository.ClientRepository, cashboxRepo repository.CashboxRepository) CreditService {
	return &creditService{repo: repo, clientRepo: clientRepo, cashboxRepo: cashboxRepo}
}

// ── Clients ───────────────────────────────────────────────────────────────────

func (s *creditService) CreateClient(ctx context.Context, tc tenant.Context, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	c := &model.Client{
		CompanyID:   tc.CompanyID,
		BranchID:    tc.BranchID,
		Name:        req.Name,
		Document:    req.Document,
		Phone:       req.Phone,
		CreditLimit: req.CreditLimit,
		CurrentDebt: decimal.Zero,
		Active:      true,
	}
	if err := s.clientRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clientToResponse(c), nil
}

func (s *creditService) ListClients(ctx context.Context, tc tenant.Context, page, limit int) ([]dto.ClientResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	clients, total, err := s.clientRepo.List(ctx, tc, page, limit)
	if err != nil {
		return nil, 0, err
	}
	data := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		data = append(data, *clientToResponse(&clients[i]))
	}
	return data, total, nil
}

func (s *creditService) GetClientStatus(ctx context.Context, tc tenant.Context, clientID uuid.UUID) (*dto.ClientStatusResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, tc, clientID)
	if err != nil {
		return nil, bizerror.ErrNotFound
	}
	installments, err := s.repo.ListByClient(ctx, tc, clientID)
	if err != nil {
		return nil, err
	}

	pending := make([]dto.InstallmentResponse, 0)
	for i := range installments {
		if installments[i].Status == model.InstallmentPaid {
			continue
		}
		pending = append(pending, *installmentToResponse(&installments[i]))
	}

	return &dto.ClientStatusResponse{
		Client:              *clientToResponse(client),
		PendingInstallments: pending,
	}, nil
}

func (s *creditService) ListInstallmentsBySale(ctx context.Context, tc tenant.Context, saleID uuid.UUID) ([]dto.InstallmentResponse, error) {
	installments, err := s.repo.ListBySale(ctx, tc, saleID)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InstallmentResponse, 0, len(installments))
	for i := range installments {
		data = append(data, *installmentToResponse(&installments[i]))
	}
	return data, nil
}

// ── ApplyInstallmentPayment ───────────────────────────────────────────────────

func (s *creditService) ApplyInstallmentPayment(ctx context.Context, tc tenant.Context, installmentID uuid.UUID, req dto.PayInstallmentRequest) (*dto.InstallmentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.New("el monto debe ser mayor a cero")
	}

	var resp *dto.InstallmentResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Lock order: session first, then installment, then client. Sale
		// settlement takes the session lock first too, so the order is
		// consistent across both paths.
		session, err := s.cashboxRepo.FindOpenSessionTx(tx, tc)
		if err != nil {
			return bizerror.ErrNoOpenCashbox
		}

		installment, err := s.repo.FindByIDTx(tx, tc, installmentID)
		if err != nil {
			return bizerror.ErrNotFound
		}

		remaining := installment.AmountDue.Sub(installment.PaidAmount)
		if req.Amount.GreaterThan(remaining) {
			return &bizerror.OverpaymentError{Remaining: remaining.StringFixed(2)}
		}

		installment.PaidAmount = installment.PaidAmount.Add(req.Amount)
		switch {
		case installment.PaidAmount.Equal(installment.AmountDue):
			installment.Status = model.InstallmentPaid
			now := time.Now()
			installment.PaidAt = &now
		default:
			installment.Status = model.InstallmentPartial
		}

		if err := s.repo.UpdateTx(tx, installment); err != nil {
			return err
		}

		if _, err := s.clientRepo.FindByIDTx(tx, tc, installment.ClientID); err != nil {
			return bizerror.ErrNotFound
		}
		if err := s.clientRepo.AdjustDebtTx(tx, installment.ClientID, req.Amount.Neg()); err != nil {
			return err
		}

		method := req.Method
		saleID := installment.SaleID
		if err := s.cashboxRepo.CreateLogTx(tx, &model.CashboxLog{
			CompanyID:     tc.CompanyID,
			BranchID:      tc.BranchID,
			SessionID:     session.ID,
			SaleID:        &saleID,
			Type:          model.LogSalePayment,
			PaymentMethod: &method,
			Amount:        req.Amount,
			Notes:         fmt.Sprintf("pago cuota %d", installment.Number),
			UserID:        tc.UserID,
		}); err != nil {
			return err
		}

		resp = installmentToResponse(installment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── Settlement-side primitives ────────────────────────────────────────────────

func (s *creditService) CheckCreditTx(tx *gorm.DB, tc tenant.Context, clientID uuid.UUID, amount decimal.Decimal) error {
	client, err := s.clientRepo.FindByIDTx(tx, tc, clientID)
	if err != nil {
		return errors.New("cliente no encontrado, requerido para venta a crédito")
	}
	// Limit zero means the client has no enforced ceiling.
	if client.CreditLimit.IsPositive() && client.CurrentDebt.Add(amount).GreaterThan(client.CreditLimit) {
		return fmt.Errorf("la venta excede el límite de crédito del cliente (disponible %s)",
			client.CreditLimit.Sub(client.CurrentDebt).StringFixed(2))
	}
	return s.clientRepo.AdjustDebtTx(tx, clientID, amount)
}

func (s *creditService) ReleaseDebtTx(tx *gorm.DB, tc tenant.Context, clientID uuid.UUID, amount decimal.Decimal) error {
	if _, err := s.clientRepo.FindByIDTx(tx, tc, clientID); err != nil {
		return bizerror.ErrNotFound
	}
	return s.clientRepo.AdjustDebtTx(tx, clientID, amount.Neg())
}

func (s *creditService) CreateInstallmentPlanTx(tx *gorm.DB, tc tenant.Context, saleID, clientID uuid.UUID, total decimal.Decimal, n, intervalDays int) ([]model.SaleInstallment, error) {
	if n < 1 {
		n = 1
	}
	if intervalDays < 1 {
		intervalDays = defaultInstallmentIntervalDays
	}

	parts := splitAmount(total, n)
	now := time.Now()
	installments := make([]model.SaleInstallment, 0, n)
	for i := 0; i < n; i++ {
		installments = append(installments, model.SaleInstallment{
			CompanyID:  tc.CompanyID,
			BranchID:   tc.BranchID,
			SaleID:     saleID,
			ClientID:   clientID,
			Number:     i + 1,
			AmountDue:  parts[i],
			PaidAmount: decimal.Zero,
			DueDate:    now.AddDate(0, 0, (i+1)*intervalDays),
			Status:     model.InstallmentPending,
		})
	}

	if err := s.repo.CreateBatchTx(tx, installments); err != nil {
		return nil, err
	}
	return installments, nil
}

func (s *creditService) MarkOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdue(ctx, time.Now())
}

// splitAmount divides total into n cent-exact parts. The floor quota goes to
// every part and the leftover cents land on the first parts, so the sum is
// always exactly total.
func splitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	cents := total.Mul(decimal.NewFromInt(100)).IntPart()
	base := cents / int64(n)
	leftover := cents % int64(n)

	parts := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		c := base
		if int64(i) < leftover {
			c++
		}
		parts[i] = decimal.NewFromInt(c).Div(decimal.NewFromInt(100))
	}
	return parts
}

func clientToResponse(c *model.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Document:    c.Document,
		Phone:       c.Phone,
		CreditLimit: c.CreditLimit,
		CurrentDebt: c.CurrentDebt,
		Active:      c.Active,
	}
}

func installmentToResponse(i *model.SaleInstallment) *dto.InstallmentResponse {
	resp := &dto.InstallmentResponse{
		ID:         i.ID.String(),
		SaleID:     i.SaleID.String(),
		Number:     i.Number,
		AmountDue:  i.AmountDue,
		PaidAmount: i.PaidAmount,
		DueDate:    i.DueDate.Format("2006-01-02"),
		Status:     i.Status,
	}
	if i.PaidAt != nil {
		t := i.PaidAt.UTC().Format(time.RFC3339)
		resp.PaidAt = &t
	}
	return resp
}
