package ledger

import (
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferenceTypePayment tags entries produced by the payment posting engine.
const ReferenceTypePayment = "payment"

// Entry is a single ledger line. Exactly one of Debit/Credit is nonzero; the
// lines created by one posting always balance (sum of debits equals sum of
// credits).
type Entry struct {
	shared.BaseEntity
	TenantID      uuid.UUID       `json:"tenant_id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Date          time.Time       `json:"date"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	Description   string          `json:"description"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty"`
}

// Effect returns "debit" or "credit" depending on which side of the entry is
// nonzero.
func (e *Entry) Effect() string {
	if e.Debit.IsPositive() {
		return "debit"
	}
	return "credit"
}

// newEntry builds a line with common payment-posting fields filled in.
func newEntry(tenantID, branchID, accountID uuid.UUID, date time.Time, referenceID uuid.UUID, description string) Entry {
	return Entry{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		BranchID:      branchID,
		AccountID:     accountID,
		Date:          date,
		Debit:         decimal.Zero,
		Credit:        decimal.Zero,
		ReferenceType: ReferenceTypePayment,
		ReferenceID:   referenceID,
		Description:   description,
	}
}

// PostingPair is the balanced debit/credit line set for one economic event.
type PostingPair struct {
	Debit  Entry
	Credit Entry
}

// Entries returns the pair as a slice, debit line first.
func (p *PostingPair) Entries() []Entry {
	return []Entry{p.Debit, p.Credit}
}

// IsBalanced verifies the pair's debits equal its credits.
func (p *PostingPair) IsBalanced() bool {
	return p.Debit.Debit.Equal(p.Credit.Credit) &&
		p.Debit.Credit.IsZero() && p.Credit.Debit.IsZero()
}

// NewPostingPair creates the balanced line set moving amount from the credit
// account to the debit account.
func NewPostingPair(
	tenantID, branchID uuid.UUID,
	debitAccountID, creditAccountID uuid.UUID,
	amount decimal.Decimal,
	date time.Time,
	referenceID uuid.UUID,
	description string,
) (*PostingPair, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Posting amount must be positive")
	}
	if debitAccountID == creditAccountID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Debit and credit accounts must differ")
	}

	debit := newEntry(tenantID, branchID, debitAccountID, date, referenceID, description)
	debit.Debit = amount

	credit := newEntry(tenantID, branchID, creditAccountID, date, referenceID, description)
	credit.Credit = amount

	return &PostingPair{Debit: debit, Credit: credit}, nil
}

// WithCustomer attaches the customer id to the given line, enabling per-party
// ledger views. Only the receivable-side line carries the party.
func (e *Entry) WithCustomer(customerID uuid.UUID) *Entry {
	e.CustomerID = &customerID
	return e
}

// WithSupplier attaches the supplier id to the given line.
func (e *Entry) WithSupplier(supplierID uuid.UUID) *Entry {
	e.SupplierID = &supplierID
	return e
}

// WithCreatedBy records the acting user on the line.
func (e *Entry) WithCreatedBy(userID uuid.UUID) *Entry {
	e.CreatedBy = &userID
	return e
}
