package service

import (
	"context"
	"errors"
	"sync"
	"testing"
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

// In-memory repository stubs. The mutexes matter: the guards that PostgreSQL
// provides in production (partial unique index, guarded UPDATE) are emulated
// atomically here so the concurrency tests exercise real races.

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", s, err)
	}
	return id
}

func testTenant() tenant.Context {
	return tenant.Context{
		CompanyID: uuid.New(),
		BranchID:  uuid.New(),
		UserID:    uuid.New(),
	}
}

func testTenantFor(u *model.User) tenant.Context {
	return tenant.Context{
		CompanyID: u.CompanyID,
		BranchID:  u.BranchID,
		UserID:    u.ID,
	}
}

// ── Cashbox ───────────────────────────────────────────────────────────────────

type stubCashboxRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.CashboxSession
	logs     []*model.CashboxLog
}

func newStubCashboxRepo() *stubCashboxRepo {
	return &stubCashboxRepo{sessions: make(map[uuid.UUID]*model.CashboxSession)}
}

func (r *stubCashboxRepo) CreateSessionTx(_ *gorm.DB, s *model.CashboxSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Emulates the partial unique index on (company_id, branch_id) open.
	for _, existing := range r.sessions {
		if existing.CompanyID == s.CompanyID && existing.BranchID == s.BranchID &&
			existing.Status == model.SessionOpen {
			return bizerror.ErrCashboxAlreadyOpen
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubCashboxRepo) findOpen(tc tenant.Context) (*model.CashboxSession, error) {
	for _, s := range r.sessions {
		if s.CompanyID == tc.CompanyID && s.BranchID == tc.BranchID && s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubCashboxRepo) FindOpenSession(_ context.Context, tc tenant.Context) (*model.CashboxSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOpen(tc)
}

func (r *stubCashboxRepo) FindOpenSessionTx(_ *gorm.DB, tc tenant.Context) (*model.CashboxSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOpen(tc)
}

func (r *stubCashboxRepo) FindSessionByID(_ context.Context, tc tenant.Context, id uuid.UUID) (*model.CashboxSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.CompanyID != tc.CompanyID {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (r *stubCashboxRepo) ListSessions(_ context.Context, tc tenant.Context, _, _ int) ([]model.CashboxSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashboxSession
	for _, s := range r.sessions {
		if s.CompanyID == tc.CompanyID && s.BranchID == tc.BranchID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCashboxRepo) UpdateSessionTx(_ *gorm.DB, s *model.CashboxSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *stubCashboxRepo) CreateLogTx(_ *gorm.DB, l *model.CashboxLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	r.logs = append(r.logs, l)
	return nil
}

func (r *stubCashboxRepo) FindLogByIDTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.CashboxLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.ID == id && l.CompanyID == tc.CompanyID {
			return l, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubCashboxRepo) MarkLogVoidedTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.ID == id {
			l.IsVoided = true
			return nil
		}
	}
	return errors.New("not found")
}

func (r *stubCashboxRepo) ListLogs(_ context.Context, _ tenant.Context, sessionID uuid.UUID) ([]model.CashboxLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashboxLog
	for _, l := range r.logs {
		if l.SessionID == sessionID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubCashboxRepo) SumActiveLogsTx(_ *gorm.DB, sessionID uuid.UUID) (*repository.LogTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := &repository.LogTotals{ByMethod: make(map[string]decimal.Decimal)}
	for _, l := range r.logs {
		if l.SessionID != sessionID || l.IsVoided || l.PaymentMethod == nil {
			continue
		}
		switch l.Type {
		case model.LogOpen, model.LogClose, model.LogVoid:
			continue
		}
		amount := l.Amount
		if l.Type == model.LogExpense {
			totals.Expense = totals.Expense.Add(l.Amount)
			amount = amount.Neg()
		} else {
			totals.Income = totals.Income.Add(l.Amount)
		}
		totals.ByMethod[*l.PaymentMethod] = totals.ByMethod[*l.PaymentMethod].Add(amount)
	}
	return totals, nil
}

func (r *stubCashboxRepo) DB() *gorm.DB { return nil }

var _ repository.CashboxRepository = (*stubCashboxRepo)(nil)

// ── Products ──────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Active = true
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.add(p)
	return nil
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	r.add(p)
	return nil
}

func (r *stubProductRepo) findByID(tc tenant.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok || p.CompanyID != tc.CompanyID {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (r *stubProductRepo) FindByID(_ context.Context, tc tenant.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByID(tc, id)
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByID(tc, id)
}

func (r *stubProductRepo) findByBarcode(tc tenant.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.CompanyID == tc.CompanyID && p.Active && p.Barcode != nil && *p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, tc tenant.Context, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByBarcode(tc, barcode)
}

func (r *stubProductRepo) FindByBarcodeTx(_ *gorm.DB, tc tenant.Context, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByBarcode(tc, barcode)
}

func (r *stubProductRepo) findByDescription(tc tenant.Context, description string) []model.Product {
	var out []model.Product
	for _, p := range r.products {
		if p.CompanyID == tc.CompanyID && p.Active && p.Description == description {
			out = append(out, *p)
		}
	}
	return out
}

func (r *stubProductRepo) FindByDescription(_ context.Context, tc tenant.Context, description string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByDescription(tc, description), nil
}

func (r *stubProductRepo) FindByDescriptionTx(_ *gorm.DB, tc tenant.Context, description string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByDescription(tc, description), nil
}

func (r *stubProductRepo) List(_ context.Context, tc tenant.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.CompanyID == tc.CompanyID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListBelowMinStock(_ context.Context, tc tenant.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.CompanyID == tc.CompanyID && p.Active && p.Stock <= p.MinStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) ListCompanyIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, p := range r.products {
		if !seen[p.CompanyID] {
			seen[p.CompanyID] = true
			out = append(out, p.CompanyID)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, tc tenant.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.findByID(tc, id)
	if err != nil {
		return err
	}
	p.Active = false
	return nil
}

func (r *stubProductRepo) Reactivate(_ context.Context, tc tenant.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.findByID(tc, id)
	if err != nil {
		return err
	}
	p.Active = true
	return nil
}

// DecrementStockTx emulates the guarded UPDATE: the check and the write
// happen under one lock, exactly like "stock >= qty" inside the database.
func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.findByID(tc, id)
	if err != nil {
		// Mirrors the conditional UPDATE: an unknown row is zero rows
		// affected, not an error.
		return false, nil
	}
	if !p.Active || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.findByID(tc, id)
	if err != nil {
		return nil
	}
	p.Stock += qty
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Stock movements ───────────────────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []*model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, tc tenant.Context, _ dto.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.CompanyID == tc.CompanyID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Sales ─────────────────────────────────────────────────────────────────────

type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) find(tc tenant.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok || s.CompanyID != tc.CompanyID {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, tc tenant.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(tc, id)
}

func (r *stubSaleRepo) FindByIDTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(tc, id)
}

func (r *stubSaleRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return errors.New("not found")
	}
	s.Status = status
	s.VoidReason = reason
	return nil
}

func (r *stubSaleRepo) List(_ context.Context, tc tenant.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.CompanyID == tc.CompanyID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Clients ───────────────────────────────────────────────────────────────────

type stubClientRepo struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) find(tc tenant.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok || c.CompanyID != tc.CompanyID {
		return nil, errors.New("not found")
	}
	return c, nil
}

func (r *stubClientRepo) FindByID(_ context.Context, tc tenant.Context, id uuid.UUID) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(tc, id)
}

func (r *stubClientRepo) FindByIDTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(tc, id)
}

func (r *stubClientRepo) List(_ context.Context, tc tenant.Context, _, _ int) ([]model.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Client
	for _, c := range r.clients {
		if c.CompanyID == tc.CompanyID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) AdjustDebtTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return errors.New("not found")
	}
	c.CurrentDebt = c.CurrentDebt.Add(delta)
	return nil
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

// ── Installments ──────────────────────────────────────────────────────────────

type stubInstallmentRepo struct {
	mu           sync.Mutex
	installments map[uuid.UUID]*model.SaleInstallment
}

func newStubInstallmentRepo() *stubInstallmentRepo {
	return &stubInstallmentRepo{installments: make(map[uuid.UUID]*model.SaleInstallment)}
}

func (r *stubInstallmentRepo) CreateBatchTx(_ *gorm.DB, installments []model.SaleInstallment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range installments {
		if installments[i].ID == uuid.Nil {
			installments[i].ID = uuid.New()
		}
		cp := installments[i]
		r.installments[cp.ID] = &cp
	}
	return nil
}

// FindByIDTx drops the mutex before the follow-up UpdateTx, so this stub does
// not stand in for the row lock installment payments rely on. Payment races
// run against real Postgres in the integration suite.
func (r *stubInstallmentRepo) FindByIDTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.SaleInstallment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.installments[id]
	if !ok || inst.CompanyID != tc.CompanyID {
		return nil, errors.New("not found")
	}
	return inst, nil
}

func (r *stubInstallmentRepo) UpdateTx(_ *gorm.DB, i *model.SaleInstallment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installments[i.ID] = i
	return nil
}

func (r *stubInstallmentRepo) listBySale(tc tenant.Context, saleID uuid.UUID) []model.SaleInstallment {
	var out []model.SaleInstallment
	for _, inst := range r.installments {
		if inst.CompanyID == tc.CompanyID && inst.SaleID == saleID {
			out = append(out, *inst)
		}
	}
	return out
}

func (r *stubInstallmentRepo) ListBySale(_ context.Context, tc tenant.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listBySale(tc, saleID), nil
}

func (r *stubInstallmentRepo) ListBySaleTx(_ *gorm.DB, tc tenant.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listBySale(tc, saleID), nil
}

func (r *stubInstallmentRepo) ListByClient(_ context.Context, tc tenant.Context, clientID uuid.UUID) ([]model.SaleInstallment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SaleInstallment
	for _, inst := range r.installments {
		if inst.CompanyID == tc.CompanyID && inst.ClientID == clientID {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (r *stubInstallmentRepo) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inst := range r.installments {
		if (inst.Status == model.InstallmentPending || inst.Status == model.InstallmentPartial) &&
			inst.DueDate.Before(now) {
			inst.Status = model.InstallmentOverdue
			n++
		}
	}
	return n, nil
}

func (r *stubInstallmentRepo) DB() *gorm.DB { return nil }

var _ repository.InstallmentRepository = (*stubInstallmentRepo)(nil)

// ── Reservations ──────────────────────────────────────────────────────────────

type stubReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*model.FieldReservation
	prices       []*model.FieldPrice
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{reservations: make(map[uuid.UUID]*model.FieldReservation)}
}

func (r *stubReservationRepo) Create(_ context.Context, fr *model.FieldReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fr.ID == uuid.Nil {
		fr.ID = uuid.New()
	}
	r.reservations[fr.ID] = fr
	return nil
}

func (r *stubReservationRepo) find(tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error) {
	fr, ok := r.reservations[id]
	if !ok || fr.CompanyID != tc.CompanyID {
		return nil, errors.New("not found")
	}
	return fr, nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(tc, id)
}

func (r *stubReservationRepo) FindByIDTx(_ *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.FieldReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(tc, id)
}

func (r *stubReservationRepo) UpdateTx(_ *gorm.DB, fr *model.FieldReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[fr.ID] = fr
	return nil
}

func (r *stubReservationRepo) ListByDate(_ context.Context, tc tenant.Context, date time.Time) ([]model.FieldReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var out []model.FieldReservation
	for _, fr := range r.reservations {
		if fr.CompanyID == tc.CompanyID && !fr.StartTime.Before(dayStart) && fr.StartTime.Before(dayEnd) {
			out = append(out, *fr)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) FindOverlapping(_ context.Context, tc tenant.Context, fieldName string, start, end time.Time) ([]model.FieldReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.FieldReservation
	for _, fr := range r.reservations {
		if fr.CompanyID != tc.CompanyID || fr.FieldName != fieldName || fr.Status == model.ReservationCancelled {
			continue
		}
		if fr.StartTime.Before(end) && fr.EndTime.After(start) {
			out = append(out, *fr)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) FindPrice(_ context.Context, tc tenant.Context, fieldName, sport string) (*model.FieldPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prices {
		if p.CompanyID == tc.CompanyID && p.FieldName == fieldName && p.Sport == sport && p.Active {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubReservationRepo) ListPrices(_ context.Context, tc tenant.Context) ([]model.FieldPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.FieldPrice
	for _, p := range r.prices {
		if p.CompanyID == tc.CompanyID && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) SavePrice(_ context.Context, p *model.FieldPrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		r.prices = append(r.prices, p)
		return nil
	}
	for i, existing := range r.prices {
		if existing.ID == p.ID {
			r.prices[i] = p
			return nil
		}
	}
	r.prices = append(r.prices, p)
	return nil
}

func (r *stubReservationRepo) DB() *gorm.DB { return nil }

var _ repository.ReservationRepository = (*stubReservationRepo)(nil)

// ── Users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context, tc tenant.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.CompanyID == tc.CompanyID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, tc tenant.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.CompanyID != tc.CompanyID {
		return errors.New("not found")
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, tc tenant.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.CompanyID != tc.CompanyID {
		return errors.New("not found")
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)
