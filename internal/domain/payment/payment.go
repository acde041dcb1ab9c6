package payment

import (
	"fmt"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction tells whether money flows into or out of the business.
type Direction string

const (
	DirectionInflow  Direction = "INFLOW"  // customer pays us
	DirectionOutflow Direction = "OUTFLOW" // we pay a supplier
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// Status represents the payment lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid payment Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Method is the instrument used for the payment.
type Method string

const (
	MethodCash         Method = "CASH"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCard         Method = "CARD"
	MethodUPI          Method = "UPI"
	MethodCheque       Method = "CHEQUE"
)

// IsValid checks if the method is a known payment Method
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCard, MethodUPI, MethodCheque:
		return true
	}
	return false
}

// UsesCashAccount reports whether the method settles through the cash account
// rather than the bank account.
func (m Method) UsesCashAccount() bool {
	return m == MethodCash
}

// PostingAction is what a status transition requires from the posting engine.
type PostingAction int

const (
	PostingNone PostingAction = iota
	PostingApply
	PostingReverse
)

// Payment is the aggregate root for a single money movement. Its ledger
// entries (via ReferenceID) and the balance side effects on the linked
// invoice/purchase and party are owned by the posting engine.
type Payment struct {
	shared.TenantAggregateRoot
	BranchID       uuid.UUID       `json:"branch_id"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	SupplierID     *uuid.UUID      `json:"supplier_id,omitempty"`
	InvoiceID      *uuid.UUID      `json:"invoice_id,omitempty"`
	PurchaseID     *uuid.UUID      `json:"purchase_id,omitempty"`
	Method         Method          `json:"payment_method"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         Status          `json:"status"`
	PaymentDate    time.Time       `json:"payment_date"`
	Remarks        string          `json:"remarks,omitempty"`
}

// NewPayment validates and builds a payment in the given initial status.
func NewPayment(
	tenantID, branchID uuid.UUID,
	direction Direction,
	amount decimal.Decimal,
	method Method,
	idempotencyKey string,
	paymentDate time.Time,
	initialStatus Status,
) (*Payment, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment direction %q", direction))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment method %q", method))
	}
	if !initialStatus.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment status %q", initialStatus))
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Branch ID cannot be empty")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BranchID:            branchID,
		Direction:           direction,
		Amount:              amount.Round(2),
		Method:              method,
		IdempotencyKey:      idempotencyKey,
		Status:              initialStatus,
		PaymentDate:         paymentDate,
	}
	if initialStatus == StatusCompleted {
		p.AddDomainEvent(NewPaymentCompletedEvent(p))
	}
	return p, nil
}

// LinkInvoice associates the payment with a customer invoice.
func (p *Payment) LinkInvoice(invoiceID, customerID uuid.UUID) {
	p.InvoiceID = &invoiceID
	p.CustomerID = &customerID
}

// LinkPurchase associates the payment with a supplier purchase.
func (p *Payment) LinkPurchase(purchaseID, supplierID uuid.UUID) {
	p.PurchaseID = &purchaseID
	p.SupplierID = &supplierID
}

// ActionFor returns the posting action a transition from -> to requires, or a
// state error when the transition is not allowed.
func ActionFor(from, to Status) (PostingAction, error) {
	if !to.IsValid() {
		return PostingNone, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment status %q", to))
	}
	if from == to {
		return PostingNone, nil
	}
	switch {
	case to == StatusCompleted:
		// pending, failed and cancelled payments may all (re)complete.
		return PostingApply, nil
	case from == StatusCompleted && (to == StatusFailed || to == StatusCancelled):
		return PostingReverse, nil
	case from == StatusPending && (to == StatusFailed || to == StatusCancelled):
		return PostingNone, nil
	}
	return PostingNone, shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Payment cannot move from %s to %s", from, to))
}

// Transition moves the payment to the target status and returns the posting
// action the caller must perform inside the same unit of work.
func (p *Payment) Transition(to Status) (PostingAction, error) {
	action, err := ActionFor(p.Status, to)
	if err != nil {
		return PostingNone, err
	}
	if p.Status == to {
		return PostingNone, nil
	}

	from := p.Status
	p.Status = to
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	switch action {
	case PostingApply:
		p.AddDomainEvent(NewPaymentCompletedEvent(p))
	case PostingReverse:
		p.AddDomainEvent(NewPaymentReversedEvent(p, from))
	}
	return action, nil
}

// ChangeAmount updates the amount. Completed payments are immutable: the
// original posting is already on the ledger and must stay reconstructible.
func (p *Payment) ChangeAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INPUT", "Payment amount must be positive")
	}
	if p.Status == StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Amount of a completed payment cannot be changed")
	}
	p.Amount = amount.Round(2)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsCompleted returns true when the payment's effects are on the ledger.
func (p *Payment) IsCompleted() bool {
	return p.Status == StatusCompleted
}
