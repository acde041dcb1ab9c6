package payment

import (
	"github.com/finops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentReversed  = "payment.reversed"
)

// PaymentCompletedEvent fires when a payment's effects land on the ledger.
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentCompletedEvent creates a PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, "Payment", p.ID, p.TenantID),
		Direction:       p.Direction,
		Amount:          p.Amount,
	}
}

// PaymentReversedEvent fires when a completed payment is failed or cancelled
// and its posting has been inverted.
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PreviousStatus Status          `json:"previous_status"`
	NewStatus      Status          `json:"new_status"`
	Amount         decimal.Decimal `json:"amount"`
}

// NewPaymentReversedEvent creates a PaymentReversedEvent
func NewPaymentReversedEvent(p *Payment, from Status) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, "Payment", p.ID, p.TenantID),
		PreviousStatus:  from,
		NewStatus:       p.Status,
		Amount:          p.Amount,
	}
}
