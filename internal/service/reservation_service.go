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

type ReservationService interface {
	Create(ctx context.Context, tc tenant.Context, req dto.CreateReservationRequest) (*dto.ReservationResponse, error)
	// ApplyPayment posts an advance or final payment through the same
	// cashbox-log primitive sales use. State only moves forward:
	// reserved → advance_paid → paid; cancelled is terminal.
	ApplyPayment(ctx context.Context, tc tenant.Context, id uuid.UUID, req dto.ReservationPaymentRequest) (*dto.ReservationResponse, error)
	Cancel(ctx context.Context, tc tenant.Context, id uuid.UUID, reason string) error
	Get(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.ReservationResponse, error)
	ListByDate(ctx context.Context, tc tenant.Context, date time.Time) ([]dto.ReservationResponse, error)

	ListPrices(ctx context.Context, tc tenant.Context) ([]dto.FieldPriceResponse, error)
	SavePrice(ctx context.Context, tc tenant.Context, req dto.SaveFieldPriceRequest) (*dto.FieldPriceResponse, error)
}

type reservationService struct {
	repo        repository.ReservationRepository
	cashboxRepo repository.CashboxRepository
}

func NewReservationService(repo repository.ReservationRepository, cashboxRepo repository.CashboxRepository) ReservationService {
	return &reservationService{repo: repo, cashboxRepo: cashboxRepo}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *reservationService) Create(ctx context.Context, tc tenant.Context, req dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("start_time inválido: %w", err)
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("end_time inválido: %w", err)
	}
	if !end.After(start) {
		return nil, errors.New("la hora de fin debe ser posterior a la de inicio")
	}

	overlapping, err := s.repo.FindOverlapping(ctx, tc, req.FieldName, start, end)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, errors.New("la cancha ya está reservada en ese horario")
	}

	price, err := s.repo.FindPrice(ctx, tc, req.FieldName, req.Sport)
	if err != nil {
		return nil, errors.New("no hay tarifa configurada para esa cancha y deporte")
	}
	hours := decimal.NewFromFloat(end.Sub(start).Hours())
	total := price.HourlyRate.Mul(hours).Round(2)

	var clientID *uuid.UUID
	if req.ClientID != nil {
		id, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("client_id inválido: %w", err)
		}
		clientID = &id
	}

	fr := &model.FieldReservation{
		CompanyID:   tc.CompanyID,
		BranchID:    tc.BranchID,
		FieldName:   req.FieldName,
		Sport:       req.Sport,
		ClientID:    clientID,
		ClientName:  req.ClientName,
		StartTime:   start,
		EndTime:     end,
		TotalAmount: total,
		PaidAmount:  decimal.Zero,
		Status:      model.ReservationReserved,
		UserID:      tc.UserID,
	}
	if err := s.repo.Create(ctx, fr); err != nil {
		return nil, err
	}
	return reservationToResponse(fr), nil
}

// ── ApplyPayment ──────────────────────────────────────────────────────────────

func (s *reservationService) ApplyPayment(ctx context.Context, tc tenant.Context, id uuid.UUID, req dto.ReservationPaymentRequest) (*dto.ReservationResponse, error) {
	paymentTotal := decimal.Zero
	for _, p := range req.Payments {
		if !p.Amount.IsPositive() {
			return nil, errors.New("los montos de pago deben ser mayores a cero")
		}
		if p.Method == model.MethodCredit {
			return nil, errors.New("las reservas no admiten pago a crédito")
		}
		paymentTotal = paymentTotal.Add(p.Amount)
	}

	var resp *dto.ReservationResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.cashboxRepo.FindOpenSessionTx(tx, tc)
		if err != nil {
			return bizerror.ErrNoOpenCashbox
		}

		// Row lock: concurrent payments accumulate paid_amount serially.
		fr, err := s.repo.FindByIDTx(tx, tc, id)
		if err != nil {
			return bizerror.ErrNotFound
		}

		if fr.Status == model.ReservationCancelled {
			return &bizerror.InvalidTransitionError{From: model.ReservationCancelled, To: model.ReservationAdvancePaid}
		}
		if fr.Status == model.ReservationPaid {
			return &bizerror.InvalidTransitionError{From: model.ReservationPaid, To: model.ReservationPaid}
		}

		remaining := fr.TotalAmount.Sub(fr.PaidAmount)
		if paymentTotal.GreaterThan(remaining) {
			return &bizerror.OverpaymentError{Remaining: remaining.StringFixed(2)}
		}
		if req.IsFinal && !paymentTotal.Equal(remaining) {
			return bizerror.ErrPaymentMismatch
		}

		fr.PaidAmount = fr.PaidAmount.Add(paymentTotal)
		switch {
		case fr.PaidAmount.Equal(fr.TotalAmount):
			fr.Status = model.ReservationPaid
		default:
			fr.Status = model.ReservationAdvancePaid
		}
		if err := s.repo.UpdateTx(tx, fr); err != nil {
			return err
		}

		ref := fr.ID
		for _, p := range req.Payments {
			method := p.Method
			if err := s.cashboxRepo.CreateLogTx(tx, &model.CashboxLog{
				CompanyID:     tc.CompanyID,
				BranchID:      tc.BranchID,
				SessionID:     session.ID,
				Type:          model.LogReservationPayment,
				PaymentMethod: &method,
				Amount:        p.Amount,
				ReferenceID:   &ref,
				Notes:         fmt.Sprintf("reserva %s %s", fr.FieldName, fr.StartTime.Format("02/01 15:04")),
				UserID:        tc.UserID,
			}); err != nil {
				return err
			}
		}

		resp = reservationToResponse(fr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func (s *reservationService) Cancel(ctx context.Context, tc tenant.Context, id uuid.UUID, reason string) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		fr, err := s.repo.FindByIDTx(tx, tc, id)
		if err != nil {
			return bizerror.ErrNotFound
		}
		switch fr.Status {
		case model.ReservationCancelled:
			return &bizerror.InvalidTransitionError{From: model.ReservationCancelled, To: model.ReservationCancelled}
		case model.ReservationPaid:
			return &bizerror.InvalidTransitionError{From: model.ReservationPaid, To: model.ReservationCancelled}
		}

		fr.Status = model.ReservationCancelled
		fr.CancelReason = &reason
		if err := s.repo.UpdateTx(tx, fr); err != nil {
			return err
		}

		// An advance already in the drawer goes back to the client, so the
		// refund needs an open session to draw from.
		if fr.PaidAmount.IsPositive() {
			session, err := s.cashboxRepo.FindOpenSessionTx(tx, tc)
			if err != nil {
				return bizerror.ErrNoOpenCashbox
			}
			method := model.MethodCash
			ref := fr.ID
			return s.cashboxRepo.CreateLogTx(tx, &model.CashboxLog{
				CompanyID:     tc.CompanyID,
				BranchID:      tc.BranchID,
				SessionID:     session.ID,
				Type:          model.LogExpense,
				PaymentMethod: &method,
				Amount:        fr.PaidAmount,
				ReferenceID:   &ref,
				Notes:         fmt.Sprintf("devolución de adelanto, reserva %s %s", fr.FieldName, fr.StartTime.Format("02/01 15:04")),
				UserID:        tc.UserID,
			})
		}
		return nil
	})
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *reservationService) Get(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.ReservationResponse, error) {
	fr, err := s.repo.FindByID(ctx, tc, id)
	if err != nil {
		return nil, bizerror.ErrNotFound
	}
	return reservationToResponse(fr), nil
}

func (s *reservationService) ListByDate(ctx context.Context, tc tenant.Context, date time.Time) ([]dto.ReservationResponse, error) {
	reservations, err := s.repo.ListByDate(ctx, tc, date)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		data = append(data, *reservationToResponse(&reservations[i]))
	}
	return data, nil
}

// ── Field prices ──────────────────────────────────────────────────────────────

func (s *reservationService) ListPrices(ctx context.Context, tc tenant.Context) ([]dto.FieldPriceResponse, error) {
	prices, err := s.repo.ListPrices(ctx, tc)
	if err != nil {
		return nil, err
	}
	data := make([]dto.FieldPriceResponse, 0, len(prices))
	for i := range prices {
		data = append(data, *priceToResponse(&prices[i]))
	}
	return data, nil
}

func (s *reservationService) SavePrice(ctx context.Context, tc tenant.Context, req dto.SaveFieldPriceRequest) (*dto.FieldPriceResponse, error) {
	if req.HourlyRate.IsNegative() || req.HourlyRate.IsZero() {
		return nil, errors.New("la tarifa debe ser mayor a cero")
	}

	// Reuse the existing row for the pair so old rates are overwritten, not
	// accumulated.
	p, err := s.repo.FindPrice(ctx, tc, req.FieldName, req.Sport)
	if err != nil {
		p = &model.FieldPrice{
			CompanyID: tc.CompanyID,
			FieldName: req.FieldName,
			Sport:     req.Sport,
			Active:    true,
		}
	}
	p.HourlyRate = req.HourlyRate
	if err := s.repo.SavePrice(ctx, p); err != nil {
		return nil, err
	}
	return priceToResponse(p), nil
}

func priceToResponse(p *model.FieldPrice) *dto.FieldPriceResponse {
	return &dto.FieldPriceResponse{
		ID:         p.ID.String(),
		FieldName:  p.FieldName,
		Sport:      p.Sport,
		HourlyRate: p.HourlyRate,
	}
}

func reservationToResponse(fr *model.FieldReservation) *dto.ReservationResponse {
	return &dto.ReservationResponse{
		ID:          fr.ID.String(),
		FieldName:   fr.FieldName,
		Sport:       fr.Sport,
		ClientName:  fr.ClientName,
		StartTime:   fr.StartTime.Format(time.RFC3339),
		EndTime:     fr.EndTime.Format(time.RFC3339),
		TotalAmount: fr.TotalAmount,
		PaidAmount:  fr.PaidAmount,
		Balance:     fr.TotalAmount.Sub(fr.PaidAmount),
		Status:      fr.Status,
	}
}
