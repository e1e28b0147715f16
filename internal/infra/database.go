package infra

import (
	"fmt"

	"github.com/Jvjesus89/ERPapp/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies idempotent SQL patches that
// AutoMigrate cannot express (partial indexes, cross-table constraints).
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

// RunMigrations applies the schema. Also used by the integration tests so
// the container database matches production exactly.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Profile{},
		&model.Customer{},
		&model.Product{},
		&model.PaymentMethod{},
		&model.Sale{},
		&model.SaleItem{},
		&model.FinancialEntry{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully
// handle. Each statement uses IF NOT EXISTS semantics so re-running on an
// already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// The ledger is queried by customer-name substring joined through
		// customers; a trigram-friendly plain index on the join columns keeps
		// that listing cheap.
		`CREATE INDEX IF NOT EXISTS idx_financial_entries_company_due
		    ON financial_entries (company_id, due_date DESC)`,
		// Sale items are always fetched per sale within a company.
		`CREATE INDEX IF NOT EXISTS idx_sale_items_company_sale
		    ON sale_items (company_id, sale_id)`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
