package billing

import (
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentState is the derived settlement state of an invoice or purchase.
type PaymentState string

const (
	PaymentStateUnpaid  PaymentState = "UNPAID"
	PaymentStatePartial PaymentState = "PARTIAL"
	PaymentStatePaid    PaymentState = "PAID"
)

// IsValid checks if the state is a valid PaymentState
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentStateUnpaid, PaymentStatePartial, PaymentStatePaid:
		return true
	}
	return false
}

// Invoice is a customer-facing document owned elsewhere in the system; the
// posting engine only mutates its denormalized payment figures, inside the
// payment's unit of work.
type Invoice struct {
	shared.TenantAggregateRoot
	BranchID      uuid.UUID       `json:"branch_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	PaymentState  PaymentState    `json:"payment_status"`
}

// NewInvoice creates an unpaid invoice
func NewInvoice(tenantID, branchID, customerID uuid.UUID, number string, date time.Time, grandTotal decimal.Decimal) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number cannot be empty")
	}
	if grandTotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice total must be positive")
	}
	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BranchID:            branchID,
		InvoiceNumber:       number,
		CustomerID:          customerID,
		InvoiceDate:         date,
		GrandTotal:          grandTotal.Round(2),
		PaidAmount:          decimal.Zero,
		BalanceAmount:       grandTotal.Round(2),
		PaymentState:        PaymentStateUnpaid,
	}, nil
}

// ApplySignedPayment moves the paid amount by the signed delta (positive on
// apply, negative on reverse) and recomputes balance and state. Balance is
// rounded to 2 decimals on every recompute.
func (inv *Invoice) ApplySignedPayment(delta decimal.Decimal) {
	inv.PaidAmount = inv.PaidAmount.Add(delta).Round(2)
	inv.BalanceAmount = inv.GrandTotal.Sub(inv.PaidAmount).Round(2)
	inv.PaymentState = DeriveState(inv.PaidAmount, inv.BalanceAmount)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// DeriveState computes the settlement state from the denormalized figures:
// balance <= 0 is paid, any payment at all is partial, otherwise unpaid.
func DeriveState(paid, balance decimal.Decimal) PaymentState {
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return PaymentStatePaid
	case paid.IsPositive():
		return PaymentStatePartial
	default:
		return PaymentStateUnpaid
	}
}
