package infra

import (
	"fmt"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies the idempotent SQL patches that GORM cannot
// express (partial unique indexes backing business invariants).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests
// against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Company{},
		&model.Branch{},
		&model.User{},
		&model.Product{},
		&model.StockMovement{},
		&model.CashboxSession{},
		&model.CashboxLog{},
		&model.Sale{},
		&model.SaleItem{},
		&model.SalePayment{},
		&model.Client{},
		&model.SaleInstallment{},
		&model.FieldReservation{},
		&model.FieldPrice{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// The one-open-session-per-branch invariant lives here as a partial unique
// index: concurrent opens race at the database, not in application code.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"one open cashbox session per branch", `
CREATE UNIQUE INDEX IF NOT EXISTS uni_cashbox_sessions_open_branch
    ON cashbox_sessions (company_id, branch_id)
    WHERE status = 'open'`},
		{"non-negative stock guard", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock_non_negative') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (stock >= 0);
  END IF;
END $$`},
		{"installment paid within due guard", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_installments_paid_within_due') THEN
    ALTER TABLE sale_installments ADD CONSTRAINT chk_installments_paid_within_due
      CHECK (paid_amount >= 0 AND paid_amount <= amount_due);
  END IF;
END $$`},
		{"cashbox log session lookup index", `
CREATE INDEX IF NOT EXISTS idx_cashbox_logs_session_active
    ON cashbox_logs (session_id)
    WHERE is_voided = false`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}
