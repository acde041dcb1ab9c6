package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists payments. Create maps a duplicate (tenant_id,
// idempotency_key) violation to shared.ErrAlreadyExists so the caller can
// collapse duplicate submissions onto the first record.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Payment, error)
	SaveWithLock(ctx context.Context, p *Payment) error
}
