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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashboxService interface {
	Open(ctx context.Context, tc tenant.Context, req dto.OpenCashboxRequest) (*dto.SessionReportResponse, error)
	// Close performs the blind count reconciliation: the variance is computed
	// only after the counted declaration arrives. Closing never fails on a
	// discrepancy; the variance is recorded for audit.
	Close(ctx context.Context, tc tenant.Context, req dto.CloseCashboxRequest) (*dto.CloseCashboxResponse, error)
	RegisterMovement(ctx context.Context, tc tenant.Context, req dto.CashMovementRequest) error
	// VoidLog flips is_voided on an entry of the open session and writes the
	// paired audit entry. Entries of closed sessions cannot be voided.
	VoidLog(ctx context.Context, tc tenant.Context, logID uuid.UUID, reason string) error
	GetReport(ctx context.Context, tc tenant.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	GetOpenSession(ctx context.Context, tc tenant.Context) (*dto.SessionReportResponse, error)
	ListSessions(ctx context.Context, tc tenant.Context, page, limit int) ([]dto.SessionReportResponse, int64, error)
}

type cashboxService struct {
	repo repository.CashboxRepository
}

func NewCashboxService(repo repository.CashboxRepository) CashboxService {
	return &cashboxService{repo: repo}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *cashboxService) Open(ctx context.Context, tc tenant.Context, req dto.OpenCashboxRequest) (*dto.SessionReportResponse, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, errors.New("el monto de apertura no puede ser negativo")
	}

	session := &model.CashboxSession{
		CompanyID:     tc.CompanyID,
		BranchID:      tc.BranchID,
		UserID:        tc.UserID,
		OpeningAmount: req.OpeningAmount,
		Status:        model.SessionOpen,
		OpenedAt:      time.Now(),
	}

	// One transaction for the session row and its lifecycle entry: a failed
	// log write must not leave an open session behind. The partial unique
	// index is the real concurrency guard — two concurrent opens both reach
	// the INSERT and exactly one succeeds. No check-then-act here.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateSessionTx(tx, session); err != nil {
			return err
		}
		return s.repo.CreateLogTx(tx, &model.CashboxLog{
			CompanyID: tc.CompanyID,
			BranchID:  tc.BranchID,
			SessionID: session.ID,
			Type:      model.LogOpen,
			Amount:    req.OpeningAmount,
			Notes:     "apertura de caja",
			UserID:    tc.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.buildReport(ctx, tc, session)
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *cashboxService) Close(ctx context.Context, tc tenant.Context, req dto.CloseCashboxRequest) (*dto.CloseCashboxResponse, error) {
	var resp *dto.CloseCashboxResponse

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Lock the open session row: a settlement racing the close either
		// commits before the lock is taken (its logs count) or waits and
		// then fails its open-session check.
		session, err := s.repo.FindOpenSessionTx(tx, tc)
		if err != nil {
			return bizerror.ErrNoOpenCashbox
		}

		totals, err := s.repo.SumActiveLogsTx(tx, session.ID)
		if err != nil {
			return err
		}

		expected := dto.AmountsByMethod{
			Cash:     session.OpeningAmount.Add(totals.ByMethod[model.MethodCash]),
			Card:     totals.ByMethod[model.MethodCard],
			Wallet:   totals.ByMethod[model.MethodWallet],
			Transfer: totals.ByMethod[model.MethodTransfer],
		}
		expected.Total = expected.Cash.Add(expected.Card).Add(expected.Wallet).Add(expected.Transfer)

		counted := req.Counted
		counted.Total = counted.Cash.Add(counted.Card).Add(counted.Wallet).Add(counted.Transfer)

		variance := counted.Total.Sub(expected.Total)
		var variancePct decimal.Decimal
		if !expected.Total.IsZero() {
			variancePct = variance.Div(expected.Total).Mul(decimal.NewFromInt(100)).Round(2)
		}
		class := classifyVariance(variancePct)

		// A discrepancy is recorded, never rejected. A critical variance
		// without a supervisor note closes flagged so it cannot pass silently.
		requiresReview := class == "critical" && (req.Notes == nil || *req.Notes == "")

		now := time.Now()
		expectedTotal := expected.Total
		countedTotal := counted.Total
		session.ExpectedAmount = &expectedTotal
		session.CountedAmount = &countedTotal
		session.Variance = &variance
		session.VariancePct = &variancePct
		session.VarianceClass = &class
		session.RequiresReview = requiresReview
		session.Status = model.SessionClosed
		session.Notes = req.Notes
		session.ClosedAt = &now

		if err := s.repo.UpdateSessionTx(tx, session); err != nil {
			return err
		}

		if err := s.repo.CreateLogTx(tx, &model.CashboxLog{
			CompanyID: tc.CompanyID,
			BranchID:  tc.BranchID,
			SessionID: session.ID,
			Type:      model.LogClose,
			Amount:    countedTotal,
			Notes:     "cierre de caja",
			UserID:    tc.UserID,
		}); err != nil {
			return err
		}

		resp = &dto.CloseCashboxResponse{
			SessionID: session.ID.String(),
			Expected:  expected,
			Counted:   counted,
			Variance: dto.VarianceResponse{
				Amount: variance,
				Pct:    variancePct,
				Class:  class,
			},
			RequiresReview: requiresReview,
			Status:         model.SessionClosed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── RegisterMovement ──────────────────────────────────────────────────────────
// Manual income / expense. Log entries are immutable — no update, no delete.

func (s *cashboxService) RegisterMovement(ctx context.Context, tc tenant.Context, req dto.CashMovementRequest) error {
	if !req.Amount.IsPositive() {
		return errors.New("el monto debe ser mayor a cero")
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindOpenSessionTx(tx, tc)
		if err != nil {
			return bizerror.ErrNoOpenCashbox
		}

		method := req.Method
		return s.repo.CreateLogTx(tx, &model.CashboxLog{
			CompanyID:     tc.CompanyID,
			BranchID:      tc.BranchID,
			SessionID:     session.ID,
			Type:          req.Type,
			PaymentMethod: &method,
			Amount:        req.Amount,
			Notes:         req.Notes,
			UserID:        tc.UserID,
		})
	})
}

// ── VoidLog ───────────────────────────────────────────────────────────────────

func (s *cashboxService) VoidLog(ctx context.Context, tc tenant.Context, logID uuid.UUID, reason string) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindOpenSessionTx(tx, tc)
		if err != nil {
			return bizerror.ErrNoOpenCashbox
		}

		entry, err := s.repo.FindLogByIDTx(tx, tc, logID)
		if err != nil {
			return bizerror.ErrNotFound
		}
		if entry.SessionID != session.ID {
			return errors.New("la entrada pertenece a una sesión cerrada y no puede anularse")
		}
		if entry.IsVoided {
			return &bizerror.InvalidTransitionError{From: "voided", To: "voided"}
		}
		if entry.Type == model.LogOpen || entry.Type == model.LogClose || entry.Type == model.LogVoid {
			return &bizerror.InvalidTransitionError{From: entry.Type, To: model.LogVoid}
		}

		if err := s.repo.MarkLogVoidedTx(tx, entry.ID); err != nil {
			return err
		}

		// Paired audit entry: the void itself is on the record.
		ref := entry.ID
		return s.repo.CreateLogTx(tx, &model.CashboxLog{
			CompanyID:     tc.CompanyID,
			BranchID:      tc.BranchID,
			SessionID:     session.ID,
			Type:          model.LogVoid,
			PaymentMethod: entry.PaymentMethod,
			Amount:        entry.Amount,
			ReferenceID:   &ref,
			Notes:         reason,
			UserID:        tc.UserID,
		})
	})
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *cashboxService) GetReport(ctx context.Context, tc tenant.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, tc, sessionID)
	if err != nil {
		return nil, bizerror.ErrNotFound
	}
	return s.buildReport(ctx, tc, session)
}

func (s *cashboxService) GetOpenSession(ctx context.Context, tc tenant.Context) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindOpenSession(ctx, tc)
	if err != nil {
		return nil, bizerror.ErrNoOpenCashbox
	}
	return s.buildReport(ctx, tc, session)
}

func (s *cashboxService) ListSessions(ctx context.Context, tc tenant.Context, page, limit int) ([]dto.SessionReportResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	sessions, total, err := s.repo.ListSessions(ctx, tc, page, limit)
	if err != nil {
		return nil, 0, err
	}
	reports := make([]dto.SessionReportResponse, 0, len(sessions))
	for i := range sessions {
		reports = append(reports, *sessionToSummary(&sessions[i]))
	}
	return reports, total, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// classifyVariance returns "normal" | "warning" | "critical"
// normal: |pct| <= 1%, warning: <= 5%, critical: > 5%
func classifyVariance(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return "normal"
	case abs.LessThanOrEqual(five):
		return "warning"
	default:
		return "critical"
	}
}

func (s *cashboxService) buildReport(ctx context.Context, tc tenant.Context, session *model.CashboxSession) (*dto.SessionReportResponse, error) {
	report := sessionToSummary(session)

	logs, err := s.repo.ListLogs(ctx, tc, session.ID)
	if err != nil {
		return nil, err
	}

	expected := dto.AmountsByMethod{Cash: session.OpeningAmount}
	for i := range logs {
		report.Logs = append(report.Logs, *logToResponse(&logs[i]))

		l := &logs[i]
		if l.IsVoided || l.PaymentMethod == nil {
			continue
		}
		switch l.Type {
		case model.LogOpen, model.LogClose, model.LogVoid:
			continue
		}
		amount := l.Amount
		if l.Type == model.LogExpense {
			amount = amount.Neg()
		}
		switch *l.PaymentMethod {
		case model.MethodCash:
			expected.Cash = expected.Cash.Add(amount)
		case model.MethodCard:
			expected.Card = expected.Card.Add(amount)
		case model.MethodWallet:
			expected.Wallet = expected.Wallet.Add(amount)
		case model.MethodTransfer:
			expected.Transfer = expected.Transfer.Add(amount)
		}
	}
	expected.Total = expected.Cash.Add(expected.Card).Add(expected.Wallet).Add(expected.Transfer)
	report.Expected = expected

	return report, nil
}

func sessionToSummary(session *model.CashboxSession) *dto.SessionReportResponse {
	report := &dto.SessionReportResponse{
		SessionID:      session.ID.String(),
		OpeningAmount:  session.OpeningAmount,
		RequiresReview: session.RequiresReview,
		Status:         session.Status,
		Notes:          session.Notes,
		OpenedAt:       session.OpenedAt.UTC().Format(time.RFC3339),
	}
	if session.CountedAmount != nil {
		report.Counted = &dto.AmountsByMethod{Total: *session.CountedAmount}
	}
	if session.Variance != nil && session.VariancePct != nil && session.VarianceClass != nil {
		report.Variance = &dto.VarianceResponse{
			Amount: *session.Variance,
			Pct:    *session.VariancePct,
			Class:  *session.VarianceClass,
		}
	}
	if session.ClosedAt != nil {
		t := session.ClosedAt.UTC().Format(time.RFC3339)
		report.ClosedAt = &t
	}
	return report
}

func logToResponse(l *model.CashboxLog) *dto.CashboxLogResponse {
	resp := &dto.CashboxLogResponse{
		ID:            l.ID.String(),
		Type:          l.Type,
		PaymentMethod: l.PaymentMethod,
		Amount:        l.Amount,
		IsVoided:      l.IsVoided,
		Notes:         l.Notes,
		CreatedAt:     l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.SaleID != nil {
		id := l.SaleID.String()
		resp.SaleID = &id
	}
	return resp
}
