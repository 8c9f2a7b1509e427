package repository

import (
	"context"
	"errors"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/bizerror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pgUniqueViolation = "23505"

// LogTotals aggregates a session's non-voided log amounts keyed by payment
// method, plus the income/expense split used to compute the expected close.
type LogTotals struct {
	ByMethod map[string]decimal.Decimal
	Income   decimal.Decimal
	Expense  decimal.Decimal
}

type CashboxRepository interface {
	// CreateSessionTx inserts a new open session inside the caller's
	// transaction so the lifecycle log commits or rolls back with it. The
	// partial unique index on (company_id, branch_id) WHERE status='open'
	// turns a concurrent second open into ErrCashboxAlreadyOpen.
	CreateSessionTx(tx *gorm.DB, s *model.CashboxSession) error
	FindOpenSession(ctx context.Context, tc tenant.Context) (*model.CashboxSession, error)
	// FindOpenSessionTx locks the open session row FOR UPDATE so competing
	// writers (sale settlement, close, manual movements) serialize on it.
	FindOpenSessionTx(tx *gorm.DB, tc tenant.Context) (*model.CashboxSession, error)
	FindSessionByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.CashboxSession, error)
	ListSessions(ctx context.Context, tc tenant.Context, page, limit int) ([]model.CashboxSession, int64, error)
	UpdateSessionTx(tx *gorm.DB, s *model.CashboxSession) error

	CreateLogTx(tx *gorm.DB, l *model.CashboxLog) error
	FindLogByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.CashboxLog, error)
	// MarkLogVoidedTx flips is_voided on the entry; the paired audit entry is
	// written separately by the service in the same transaction.
	MarkLogVoidedTx(tx *gorm.DB, id uuid.UUID) error
	ListLogs(ctx context.Context, tc tenant.Context, sessionID uuid.UUID) ([]model.CashboxLog, error)
	// SumActiveLogsTx totals the session's non-voided movement entries.
	// Lifecycle entries (open/close) and void audit entries are excluded.
	SumActiveLogsTx(tx *gorm.DB, sessionID uuid.UUID) (*LogTotals, error)

	DB() *gorm.DB
}

type cashboxRepo struct{ db *gorm.DB }

func NewCashboxRepository(db *gorm.DB) CashboxRepository { return &cashboxRepo{db: db} }

func (r *cashboxRepo) CreateSessionTx(tx *gorm.DB, s *model.CashboxSession) error {
	err := tx.Create(s).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return bizerror.ErrCashboxAlreadyOpen
	}
	return err
}

func (r *cashboxRepo) FindOpenSession(ctx context.Context, tc tenant.Context) (*model.CashboxSession, error) {
	var s model.CashboxSession
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND branch_id = ? AND status = ?", tc.CompanyID, tc.BranchID, model.SessionOpen).
		First(&s).Error
	return &s, err
}

func (r *cashboxRepo) FindOpenSessionTx(tx *gorm.DB, tc tenant.Context) (*model.CashboxSession, error) {
	var s model.CashboxSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND branch_id = ? AND status = ?", tc.CompanyID, tc.BranchID, model.SessionOpen).
		First(&s).Error
	return &s, err
}

func (r *cashboxRepo) FindSessionByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*model.CashboxSession, error) {
	var s model.CashboxSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND branch_id = ?", id, tc.CompanyID, tc.BranchID).
		First(&s).Error
	return &s, err
}

func (r *cashboxRepo) ListSessions(ctx context.Context, tc tenant.Context, page, limit int) ([]model.CashboxSession, int64, error) {
	var sessions []model.CashboxSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashboxSession{}).
		Where("company_id = ? AND branch_id = ?", tc.CompanyID, tc.BranchID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("opened_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *cashboxRepo) UpdateSessionTx(tx *gorm.DB, s *model.CashboxSession) error {
	return tx.Save(s).Error
}

func (r *cashboxRepo) CreateLogTx(tx *gorm.DB, l *model.CashboxLog) error {
	return tx.Create(l).Error
}

func (r *cashboxRepo) FindLogByIDTx(tx *gorm.DB, tc tenant.Context, id uuid.UUID) (*model.CashboxLog, error) {
	var l model.CashboxLog
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ? AND branch_id = ?", id, tc.CompanyID, tc.BranchID).
		First(&l).Error
	return &l, err
}

func (r *cashboxRepo) MarkLogVoidedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.CashboxLog{}).Where("id = ?", id).Update("is_voided", true).Error
}

func (r *cashboxRepo) ListLogs(ctx context.Context, tc tenant.Context, sessionID uuid.UUID) ([]model.CashboxLog, error) {
	var logs []model.CashboxLog
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND company_id = ?", sessionID, tc.CompanyID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *cashboxRepo) SumActiveLogsTx(tx *gorm.DB, sessionID uuid.UUID) (*LogTotals, error) {
	type row struct {
		Type          string
		PaymentMethod *string
		Total         decimal.Decimal
	}
	var rows []row

	err := tx.Model(&model.CashboxLog{}).
		Select("type, payment_method, SUM(amount) AS total").
		Where("session_id = ? AND is_voided = false AND type NOT IN ?",
			sessionID, []string{model.LogOpen, model.LogClose, model.LogVoid}).
		Group("type, payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := &LogTotals{ByMethod: map[string]decimal.Decimal{}}
	for _, rw := range rows {
		signed := rw.Total
		if rw.Type == model.LogExpense {
			signed = signed.Neg()
			totals.Expense = totals.Expense.Add(rw.Total)
		} else {
			totals.Income = totals.Income.Add(rw.Total)
		}
		if rw.PaymentMethod != nil {
			totals.ByMethod[*rw.PaymentMethod] = totals.ByMethod[*rw.PaymentMethod].Add(signed)
		}
	}
	return totals, nil
}

func (r *cashboxRepo) DB() *gorm.DB { return r.db }
