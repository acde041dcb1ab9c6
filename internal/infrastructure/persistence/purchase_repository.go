package persistence

import (
	"context"
	"errors"

	"github.com/finops/backend/internal/domain/billing"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/finops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseRepository implements billing.PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByIDForTenant finds a purchase by ID for a specific tenant
func (r *GormPurchaseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Purchase, error) {
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists a purchase without a version check
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *billing.Purchase) error {
	model := models.PurchaseModelFromDomain(purchase)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock persists the purchase's denormalized payment figures guarded
// by the optimistic version
func (r *GormPurchaseRepository) SaveWithLock(ctx context.Context, purchase *billing.Purchase) error {
	model := models.PurchaseModelFromDomain(purchase)
	result := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Where("id = ? AND version = ?", model.ID, purchase.LoadedVersion()).
		Updates(map[string]interface{}{
			"paid_amount":    model.PaidAmount,
			"balance_amount": model.BalanceAmount,
			"payment_state":  model.PaymentState,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
