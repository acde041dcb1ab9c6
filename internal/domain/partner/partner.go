package partner

import (
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries the denormalized amount the customer still owes us. The
// posting engine adjusts it inversely to the signed payment amount.
type Customer struct {
	shared.TenantAggregateRoot
	Name               string          `json:"name"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// NewCustomer creates a customer with zero outstanding balance
func NewCustomer(tenantID uuid.UUID, name string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name cannot be empty")
	}
	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		OutstandingBalance:  decimal.Zero,
	}, nil
}

// AdjustOutstanding shifts the outstanding balance by -signedAmount: an
// applied inflow payment of 100 reduces what the customer owes by 100, and
// its reversal restores it.
func (c *Customer) AdjustOutstanding(signedAmount decimal.Decimal) {
	c.OutstandingBalance = c.OutstandingBalance.Sub(signedAmount).Round(2)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Supplier carries the denormalized amount we still owe the supplier.
type Supplier struct {
	shared.TenantAggregateRoot
	Name               string          `json:"name"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// NewSupplier creates a supplier with zero outstanding balance
func NewSupplier(tenantID uuid.UUID, name string) (*Supplier, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Supplier name cannot be empty")
	}
	return &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		OutstandingBalance:  decimal.Zero,
	}, nil
}

// AdjustOutstanding mirrors Customer.AdjustOutstanding for the payable side.
func (s *Supplier) AdjustOutstanding(signedAmount decimal.Decimal) {
	s.OutstandingBalance = s.OutstandingBalance.Sub(signedAmount).Round(2)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
