package persistence

import (
	"context"

	"github.com/finops/backend/internal/domain/ledger"
	"github.com/finops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements ledger.EntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Create inserts the given entries in one batch
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]*models.LedgerEntryModel, len(entries))
	for i := range entries {
		entryModels[i] = models.LedgerEntryModelFromDomain(&entries[i])
	}
	return r.db.WithContext(ctx).Create(&entryModels).Error
}

// FindByReference returns all entries posted for a source record, oldest first
func (r *GormLedgerEntryRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]ledger.Entry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, referenceType, referenceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// SumDebitCredit totals the debit and credit columns for one account. Used to
// reconcile the denormalized account balance against the entry log.
func (r *GormLedgerEntryRepository) SumDebitCredit(ctx context.Context, tenantID uuid.UUID, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Select("COALESCE(SUM(debit), 0) AS debit, COALESCE(SUM(credit), 0) AS credit").
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Debit, row.Credit, nil
}
