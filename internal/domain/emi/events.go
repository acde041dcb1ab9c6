package emi

import (
	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePlanCreated     = "emi.plan_created"
	EventTypeInstallmentPaid = "emi.installment_paid"
	EventTypePlanCompleted   = "emi.plan_completed"
)

// PlanCreatedEvent fires when a schedule is generated for an invoice.
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID            uuid.UUID       `json:"invoice_id"`
	NumberOfInstallments int             `json:"number_of_installments"`
	FinancedBalance      decimal.Decimal `json:"financed_balance"`
}

// NewPlanCreatedEvent creates a PlanCreatedEvent
func NewPlanCreatedEvent(p *Plan) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypePlanCreated, "EMIPlan", p.ID, p.TenantID),
		InvoiceID:            p.InvoiceID,
		NumberOfInstallments: p.NumberOfInstallments,
		FinancedBalance:      p.FinancedBalance(),
	}
}

// InstallmentPaidEvent fires when money lands on an installment.
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	InstallmentNumber int               `json:"installment_number"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	Status            InstallmentStatus `json:"status"`
}

// NewInstallmentPaidEvent creates an InstallmentPaidEvent
func NewInstallmentPaidEvent(p *Plan, inst *Installment) *InstallmentPaidEvent {
	return &InstallmentPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeInstallmentPaid, "EMIPlan", p.ID, p.TenantID),
		InstallmentNumber: inst.InstallmentNumber,
		PaidAmount:        inst.PaidAmount,
		Status:            inst.Status,
	}
}

// PlanCompletedEvent fires when the last installment settles.
type PlanCompletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// NewPlanCompletedEvent creates a PlanCompletedEvent
func NewPlanCompletedEvent(p *Plan) *PlanCompletedEvent {
	return &PlanCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCompleted, "EMIPlan", p.ID, p.TenantID),
		InvoiceID:       p.InvoiceID,
	}
}
