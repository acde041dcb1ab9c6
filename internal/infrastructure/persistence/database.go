package persistence

import (
	"fmt"
	"time"

	"github.com/finops/backend/internal/infrastructure/config"
	"github.com/finops/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase creates a new database connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return NewDatabaseWithLogger(cfg, gormlogger.Default.LogMode(gormlogger.Silent))
}

// NewDatabaseWithLogger creates a new database connection with a custom GORM logger
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, logger gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:      logger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Migrate creates or updates the schema for all persistence models.
func (d *Database) Migrate() error {
	return Migrate(d.DB)
}

// Migrate runs AutoMigrate plus the composite unique indexes that back
// insert-if-absent idempotency and per-tenant account codes. The composite
// indexes span columns on embedded models, so they are created by SQL here
// rather than by struct tags.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.AccountModel{},
		&models.LedgerEntryModel{},
		&models.PaymentModel{},
		&models.InvoiceModel{},
		&models.PurchaseModel{},
		&models.CustomerModel{},
		&models.SupplierModel{},
		&models.EmiPlanModel{},
	); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_tenant_code ON ledger_accounts (tenant_id, code)",
		// Partial: payments submitted without a key never collide with each other.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_tenant_idem_key ON payments (tenant_id, idempotency_key) WHERE idempotency_key <> ''",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_emi_plans_tenant_invoice ON emi_plans (tenant_id, invoice_id)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}
