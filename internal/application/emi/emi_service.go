package emi

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerapp "github.com/finops/backend/internal/application/ledger"
	"github.com/finops/backend/internal/domain/emi"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/finops/backend/internal/domain/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service owns EMI plans: schedule creation, installment payments (which run
// through the ledger posting engine), the overdue sweep and oldest-first
// allocation of generic invoice payments.
type Service struct {
	uow       uow.UnitOfWork
	plans     emi.Repository
	posting   *ledgerapp.PostingService
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new EMI Service
func NewService(
	unit uow.UnitOfWork,
	plans emi.Repository,
	posting *ledgerapp.PostingService,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		uow:       unit,
		plans:     plans,
		posting:   posting,
		publisher: publisher,
		logger:    logger,
	}
}

// CreatePlanInput carries a validated create-plan request.
type CreatePlanInput struct {
	TenantID             uuid.UUID
	InvoiceID            uuid.UUID
	DownPayment          decimal.Decimal
	NumberOfInstallments int
	InterestRate         decimal.Decimal // annual, percent
	StartDate            time.Time
	CreatedBy            *uuid.UUID
}

// CreatePlan generates the amortization schedule for an invoice. The
// one-plan-per-invoice rule is enforced by the store's uniqueness constraint,
// surfaced as ALREADY_EXISTS.
func (s *Service) CreatePlan(ctx context.Context, in CreatePlanInput) (*emi.Plan, error) {
	var plan *emi.Plan
	err := s.uow.Execute(ctx, func(ctx context.Context, repos uow.RepositorySet) error {
		invoice, err := repos.Invoices.FindByIDForTenant(ctx, in.TenantID, in.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice for plan: %w", err)
		}

		plan, err = emi.NewPlan(
			in.TenantID, invoice.BranchID, invoice.ID, invoice.CustomerID,
			invoice.GrandTotal, in.DownPayment,
			in.NumberOfInstallments, in.InterestRate, in.StartDate,
		)
		if err != nil {
			return err
		}
		if in.CreatedBy != nil {
			plan.SetCreatedBy(*in.CreatedBy)
		}

		if err := repos.Plans.Create(ctx, plan); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("ALREADY_EXISTS", "An EMI plan already exists for this invoice")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, plan)
	return plan, nil
}

// PayInstallmentInput carries a pay-installment request.
type PayInstallmentInput struct {
	TenantID          uuid.UUID
	PlanID            uuid.UUID
	InstallmentNumber int
	Amount            decimal.Decimal
	Method            payment.Method
	ReferenceNumber   string
	Remarks           string
	CreatedBy         *uuid.UUID
}

// PayInstallmentResult reports the updated plan and the payment that settled
// the installment.
type PayInstallmentResult struct {
	Plan    *emi.Plan
	Payment *payment.Payment
}

// PayInstallment creates an inflow payment against the plan's invoice,
// delegates the full posting to the ledger engine, then books the amount on
// the target installment, all in one unit of work.
func (s *Service) PayInstallment(ctx context.Context, in PayInstallmentInput) (*PayInstallmentResult, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Installment payment amount must be positive")
	}

	var result PayInstallmentResult
	err := s.uow.Execute(ctx, func(ctx context.Context, repos uow.RepositorySet) error {
		plan, err := repos.Plans.FindByIDForTenant(ctx, in.TenantID, in.PlanID)
		if err != nil {
			return err
		}

		p, err := payment.NewPayment(
			in.TenantID, plan.BranchID, payment.DirectionInflow,
			in.Amount, in.Method, in.ReferenceNumber, time.Now(), payment.StatusCompleted,
		)
		if err != nil {
			return err
		}
		p.LinkInvoice(plan.InvoiceID, plan.CustomerID)
		p.Remarks = in.Remarks
		if in.CreatedBy != nil {
			p.SetCreatedBy(*in.CreatedBy)
		}

		if err := repos.Payments.Create(ctx, p); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("ALREADY_EXISTS", "A payment with this reference number already exists")
			}
			return err
		}
		if err := s.posting.PostPaymentEffects(ctx, repos, p, ledgerapp.PostingApply); err != nil {
			return err
		}

		if err := plan.PayInstallment(in.InstallmentNumber, in.Amount, p.ID); err != nil {
			return err
		}
		if err := repos.Plans.SaveWithLock(ctx, plan); err != nil {
			return err
		}

		result.Plan = plan
		result.Payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, result.Payment)
	s.publish(ctx, result.Plan)
	return &result, nil
}

// AllocateToPlan spreads an already-posted invoice payment across the
// invoice's unpaid installments, oldest first. Bookkeeping only: the caller
// posted the ledger entries, so posting again here would double-book.
// No plan for the invoice is not an error: there is nothing to allocate.
func (s *Service) AllocateToPlan(ctx context.Context, tenantID, invoiceID uuid.UUID, amount decimal.Decimal, paymentID uuid.UUID) error {
	return s.uow.Execute(ctx, func(ctx context.Context, repos uow.RepositorySet) error {
		plan, err := repos.Plans.FindByInvoice(ctx, tenantID, invoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if plan.Status != emi.PlanActive {
			return nil
		}

		leftover := plan.AllocatePayment(amount, &paymentID)
		if !leftover.IsZero() {
			s.logger.Info("payment exceeds open installments; remainder left unallocated",
				zap.String("plan_id", plan.ID.String()),
				zap.String("leftover", leftover.StringFixed(2)))
		}
		return repos.Plans.SaveWithLock(ctx, plan)
	})
}

// SweepOverdue flags due, unsettled installments across all active plans.
// Each plan updates in its own unit of work so one conflicting plan cannot
// poison the sweep. The caller holds the cross-process lease lock. Returns
// the number of installments newly marked overdue.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.plans.FindActiveWithDueInstallments(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list plans with due installments: %w", err)
	}

	total := 0
	for i := range due {
		planID, tenantID := due[i].ID, due[i].TenantID
		changed := 0
		err := s.uow.Execute(ctx, func(ctx context.Context, repos uow.RepositorySet) error {
			changed = 0
			plan, err := repos.Plans.FindByIDForTenant(ctx, tenantID, planID)
			if err != nil {
				return err
			}
			changed = plan.MarkOverdue(now)
			if changed == 0 {
				return nil
			}
			return repos.Plans.SaveWithLock(ctx, plan)
		})
		if err != nil {
			s.logger.Error("overdue sweep failed for plan",
				zap.String("plan_id", planID.String()),
				zap.Error(err))
			continue
		}
		total += changed
	}
	return total, nil
}

// Get loads a plan for the tenant.
func (s *Service) Get(ctx context.Context, tenantID, planID uuid.UUID) (*emi.Plan, error) {
	return s.plans.FindByIDForTenant(ctx, tenantID, planID)
}

func (s *Service) publish(ctx context.Context, agg shared.AggregateRoot) {
	if events := agg.GetDomainEvents(); len(events) > 0 {
		s.publisher.Publish(ctx, events...)
		agg.ClearDomainEvents()
	}
}
