package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/finops/backend/internal/domain/emi"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/finops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEmiPlanRepository implements emi.Repository using GORM
type GormEmiPlanRepository struct {
	db *gorm.DB
}

// NewGormEmiPlanRepository creates a new GormEmiPlanRepository
func NewGormEmiPlanRepository(db *gorm.DB) *GormEmiPlanRepository {
	return &GormEmiPlanRepository{db: db}
}

// Create inserts the plan. A duplicate (tenant_id, invoice_id) maps to
// shared.ErrAlreadyExists, enforcing one plan per invoice.
func (r *GormEmiPlanRepository) Create(ctx context.Context, plan *emi.Plan) error {
	model := models.EmiPlanModelFromDomain(plan)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByIDForTenant finds a plan by ID for a specific tenant
func (r *GormEmiPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*emi.Plan, error) {
	var model models.EmiPlanModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice finds the plan financing the given invoice
func (r *GormEmiPlanRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*emi.Plan, error) {
	var model models.EmiPlanModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveWithDueInstallments returns active plans carrying at least one
// unsettled installment due before asOf. Installments live in a JSONB
// document, so the query narrows to active plans and the schedule check runs
// on the hydrated aggregates.
func (r *GormEmiPlanRepository) FindActiveWithDueInstallments(ctx context.Context, asOf time.Time) ([]emi.Plan, error) {
	var planModels []models.EmiPlanModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", emi.PlanActive).
		Find(&planModels).Error; err != nil {
		return nil, err
	}

	var plans []emi.Plan
	for i := range planModels {
		plan := planModels[i].ToDomain()
		if hasDueInstallment(plan, asOf) {
			plans = append(plans, *plan)
		}
	}
	return plans, nil
}

func hasDueInstallment(plan *emi.Plan, asOf time.Time) bool {
	for i := range plan.Installments {
		inst := &plan.Installments[i]
		if inst.DueDate.Before(asOf) &&
			(inst.Status == emi.InstallmentPending || inst.Status == emi.InstallmentPartial) {
			return true
		}
	}
	return false
}

// SaveWithLock persists the plan guarded by the optimistic version. The
// installment document rewrites atomically with the status columns.
func (r *GormEmiPlanRepository) SaveWithLock(ctx context.Context, plan *emi.Plan) error {
	model := models.EmiPlanModelFromDomain(plan)
	result := r.db.WithContext(ctx).Model(&models.EmiPlanModel{}).
		Where("id = ? AND version = ?", model.ID, plan.LoadedVersion()).
		Updates(map[string]interface{}{
			"installments": model.Installments,
			"status":       model.Status,
			"completed_at": model.CompletedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
