package emi

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists EMI plans. Create maps a duplicate (tenant_id,
// invoice_id) violation to shared.ErrAlreadyExists, enforcing one plan per
// invoice at the store level.
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Plan, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*Plan, error)
	FindActiveWithDueInstallments(ctx context.Context, asOf time.Time) ([]Plan, error)
	SaveWithLock(ctx context.Context, plan *Plan) error
}
