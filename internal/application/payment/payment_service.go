package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerapp "github.com/finops/backend/internal/application/ledger"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/finops/backend/internal/domain/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InstallmentAllocator spreads an already-posted invoice payment across the
// invoice's EMI installments. Implemented by the EMI engine; called only as a
// post-commit secondary effect.
type InstallmentAllocator interface {
	AllocateToPlan(ctx context.Context, tenantID, invoiceID uuid.UUID, amount decimal.Decimal, paymentID uuid.UUID) error
}

// Service owns the payment lifecycle: idempotent creation, status
// transitions, and delegation to the posting engine inside one unit of work
// per transition.
type Service struct {
	uow       uow.UnitOfWork
	payments  payment.Repository
	posting   *ledgerapp.PostingService
	allocator InstallmentAllocator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new payment Service. allocator may be nil when no EMI
// engine is wired.
func NewService(
	unit uow.UnitOfWork,
	payments payment.Repository,
	posting *ledgerapp.PostingService,
	allocator InstallmentAllocator,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		uow:       unit,
		payments:  payments,
		posting:   posting,
		allocator: allocator,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateInput carries a validated create-payment request.
type CreateInput struct {
	TenantID        uuid.UUID
	BranchID        uuid.UUID
	Direction       payment.Direction
	Amount          decimal.Decimal
	CustomerID      *uuid.UUID
	SupplierID      *uuid.UUID
	InvoiceID       *uuid.UUID
	PurchaseID      *uuid.UUID
	Method          payment.Method
	PaymentDate     time.Time
	ReferenceNumber string
	TransactionID   string
	Status          payment.Status // empty = default lifecycle (completed)
	Remarks         string
	CreatedBy       *uuid.UUID
}

// idempotencyKey collapses duplicate submissions: reference number wins,
// transaction id is the fallback. Empty means the caller opted out.
func (in *CreateInput) idempotencyKey() string {
	if in.ReferenceNumber != "" {
		return in.ReferenceNumber
	}
	return in.TransactionID
}

// CreateResult reports the created (or pre-existing) payment.
type CreateResult struct {
	Payment   *payment.Payment
	Duplicate bool
}

// Create persists a payment and, when its initial status is completed, posts
// its effects in the same transaction. A duplicate idempotency key is not an
// error: the existing payment is returned unchanged with no new postings.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	key := in.idempotencyKey()
	if key != "" {
		existing, err := s.payments.FindByIdempotencyKey(ctx, in.TenantID, key)
		if err == nil {
			return &CreateResult{Payment: existing, Duplicate: true}, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
	}

	status := in.Status
	if status == "" {
		// Default lifecycle: effects post synchronously on create.
		status = payment.StatusCompleted
	}

	p, err := payment.NewPayment(in.TenantID, in.BranchID, in.Direction, in.Amount, in.Method, key, in.PaymentDate, status)
	if err != nil {
		return nil, err
	}
	p.Remarks = in.Remarks
	if in.CreatedBy != nil {
		p.SetCreatedBy(*in.CreatedBy)
	}
	if in.InvoiceID != nil && in.CustomerID != nil {
		p.LinkInvoice(*in.InvoiceID, *in.CustomerID)
	} else if in.CustomerID != nil {
		p.CustomerID = in.CustomerID
	}
	if in.PurchaseID != nil && in.SupplierID != nil {
		p.LinkPurchase(*in.PurchaseID, *in.SupplierID)
	} else if in.SupplierID != nil {
		p.SupplierID = in.SupplierID
	}

	err = s.uow.Execute(ctx, func(ctx context.Context, repos uow.RepositorySet) error {
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}
		if p.IsCompleted() {
			return s.posting.PostPaymentEffects(ctx, repos, p, ledgerapp.PostingApply)
		}
		return nil
	})
	if err != nil {
		// The insert-if-absent lost the race: another request with the same
		// key committed first. Collapse onto that record.
		if errors.Is(err, shared.ErrAlreadyExists) && key != "" {
			existing, findErr := s.payments.FindByIdempotencyKey(ctx, in.TenantID, key)
			if findErr != nil {
				return nil, fmt.Errorf("duplicate payment exists but could not be loaded: %w", findErr)
			}
			return &CreateResult{Payment: existing, Duplicate: true}, nil
		}
		return nil, err
	}

	s.runSecondaryEffects(ctx, p, p.IsCompleted())
	return &CreateResult{Payment: p}, nil
}

// UpdateInput carries a status-transition request. Amount, when present,
// must match the stored amount on a completed payment.
type UpdateInput struct {
	TenantID  uuid.UUID
	PaymentID uuid.UUID
	Status    payment.Status
	Amount    *decimal.Decimal
}

// UpdateStatus transitions the payment and performs the posting action the
// transition requires, all inside one unit of work.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateInput) (*payment.Payment, error) {
	var updated *payment.Payment
	var applied bool

	err := s.uow.Execute(ctx, func(ctx context.Context, repos uow.RepositorySet) error {
		applied = false
		p, err := repos.Payments.FindByIDForTenant(ctx, in.TenantID, in.PaymentID)
		if err != nil {
			return err
		}

		if in.Amount != nil && !in.Amount.Equal(p.Amount) {
			if err := p.ChangeAmount(*in.Amount); err != nil {
				return err
			}
		}

		action, err := p.Transition(in.Status)
		if err != nil {
			return err
		}
		if err := repos.Payments.SaveWithLock(ctx, p); err != nil {
			return err
		}

		switch action {
		case payment.PostingApply:
			applied = true
			if err := s.posting.PostPaymentEffects(ctx, repos, p, ledgerapp.PostingApply); err != nil {
				return err
			}
		case payment.PostingReverse:
			if err := s.posting.PostPaymentEffects(ctx, repos, p, ledgerapp.PostingReverse); err != nil {
				return err
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.runSecondaryEffects(ctx, updated, applied)
	return updated, nil
}

// Get loads a payment for the tenant.
func (s *Service) Get(ctx context.Context, tenantID, paymentID uuid.UUID) (*payment.Payment, error) {
	return s.payments.FindByIDForTenant(ctx, tenantID, paymentID)
}

// runSecondaryEffects performs non-critical post-commit work: event
// publication and EMI auto-allocation. Failures are logged and never touch
// the already-committed transaction.
func (s *Service) runSecondaryEffects(ctx context.Context, p *payment.Payment, applied bool) {
	if events := p.GetDomainEvents(); len(events) > 0 {
		s.publisher.Publish(ctx, events...)
		p.ClearDomainEvents()
	}

	if applied && s.allocator != nil && p.Direction == payment.DirectionInflow && p.InvoiceID != nil {
		if err := s.allocator.AllocateToPlan(ctx, p.TenantID, *p.InvoiceID, p.Amount, p.ID); err != nil {
			s.logger.Warn("installment auto-allocation failed; payment remains committed",
				zap.String("payment_id", p.ID.String()),
				zap.String("invoice_id", p.InvoiceID.String()),
				zap.Error(err))
		}
	}
}

func validateCreate(in *CreateInput) error {
	if in.TenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Organization scope is required")
	}
	if !in.Direction.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Payment direction must be INFLOW or OUTFLOW")
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INPUT", "Payment amount must be positive")
	}
	if in.Direction == payment.DirectionInflow && in.SupplierID != nil {
		return shared.NewDomainError("INVALID_INPUT", "Inflow payments settle against a customer, not a supplier")
	}
	if in.Direction == payment.DirectionOutflow && in.CustomerID != nil {
		return shared.NewDomainError("INVALID_INPUT", "Outflow payments settle against a supplier, not a customer")
	}
	if in.InvoiceID != nil && in.CustomerID == nil {
		return shared.NewDomainError("INVALID_INPUT", "Invoice payments require the customer")
	}
	if in.PurchaseID != nil && in.SupplierID == nil {
		return shared.NewDomainError("INVALID_INPUT", "Purchase payments require the supplier")
	}
	if in.Status != "" && !in.Status.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment status %q", in.Status))
	}
	return nil
}
