package ledger

import (
	"fmt"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRole identifies the bookkeeping purpose of a ledger account.
type AccountRole string

const (
	RoleCash       AccountRole = "CASH"
	RoleBank       AccountRole = "BANK"
	RoleReceivable AccountRole = "ACCOUNTS_RECEIVABLE"
	RolePayable    AccountRole = "ACCOUNTS_PAYABLE"
)

// IsValid checks if the role is a known AccountRole
func (r AccountRole) IsValid() bool {
	switch r {
	case RoleCash, RoleBank, RoleReceivable, RolePayable:
		return true
	}
	return false
}

// String returns the string representation of AccountRole
func (r AccountRole) String() string {
	return string(r)
}

// DefaultCode returns the conventional per-tenant account code for the role.
// Resolution tries this code first and falls back to DefaultName.
func (r AccountRole) DefaultCode() string {
	switch r {
	case RoleCash:
		return "1001"
	case RoleBank:
		return "1002"
	case RoleReceivable:
		return "1200"
	case RolePayable:
		return "2000"
	}
	return ""
}

// DefaultName returns the fallback account name used when no account carries
// the conventional code.
func (r AccountRole) DefaultName() string {
	switch r {
	case RoleCash:
		return "Cash"
	case RoleBank:
		return "Bank"
	case RoleReceivable:
		return "Accounts Receivable"
	case RolePayable:
		return "Accounts Payable"
	}
	return ""
}

// Account represents a logical ledger account within a tenant's chart of
// accounts. Balance is denormalized: the posting engine keeps it in step with
// the entries written against the account.
type Account struct {
	shared.TenantAggregateRoot
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Role    AccountRole     `json:"role"`
	Balance decimal.Decimal `json:"balance"`
}

// NewAccount creates a new ledger account
func NewAccount(tenantID uuid.UUID, code, name string, role AccountRole) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown account role %q", role))
	}
	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Role:                role,
		Balance:             decimal.Zero,
	}, nil
}

// ApplyEntry adjusts the denormalized balance by the entry's debit minus
// credit. Over an apply/reverse pair the adjustments net to zero.
func (a *Account) ApplyEntry(e *Entry) {
	a.Balance = a.Balance.Add(e.Debit).Sub(e.Credit)
	a.IncrementVersion()
}
