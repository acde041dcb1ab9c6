package ledger

import (
	"testing"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRoleDefaults(t *testing.T) {
	tests := []struct {
		role AccountRole
		code string
		name string
	}{
		{RoleCash, "1001", "Cash"},
		{RoleBank, "1002", "Bank"},
		{RoleReceivable, "1200", "Accounts Receivable"},
		{RolePayable, "2000", "Accounts Payable"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.role.DefaultCode())
			assert.Equal(t, tt.name, tt.role.DefaultName())
			assert.True(t, tt.role.IsValid())
		})
	}
	assert.False(t, AccountRole("EQUITY").IsValid())
}

func TestNewAccount(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates account with zero balance", func(t *testing.T) {
		acc, err := NewAccount(tenantID, "1001", "Cash", RoleCash)
		require.NoError(t, err)
		assert.True(t, acc.Balance.IsZero())
		assert.Equal(t, tenantID, acc.TenantID)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewAccount(tenantID, "", "Cash", RoleCash)
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
		_, err = NewAccount(tenantID, "1001", "", RoleCash)
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
		_, err = NewAccount(tenantID, "1001", "Cash", AccountRole("NOPE"))
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
	})
}

func TestNewPostingPair(t *testing.T) {
	tenantID, branchID := uuid.New(), uuid.New()
	debitAcc, creditAcc := uuid.New(), uuid.New()
	refID := uuid.New()
	date := time.Now()

	t.Run("pair is balanced", func(t *testing.T) {
		pair, err := NewPostingPair(tenantID, branchID, debitAcc, creditAcc, decimal.NewFromInt(500), date, refID, "cash received")
		require.NoError(t, err)

		assert.True(t, pair.IsBalanced())
		assert.Equal(t, "debit", pair.Debit.Effect())
		assert.Equal(t, "credit", pair.Credit.Effect())
		assert.Equal(t, ReferenceTypePayment, pair.Debit.ReferenceType)
		assert.Equal(t, refID, pair.Credit.ReferenceID)

		entries := pair.Entries()
		require.Len(t, entries, 2)
		sum := entries[0].Debit.Sub(entries[0].Credit).Add(entries[1].Debit.Sub(entries[1].Credit))
		assert.True(t, sum.IsZero(), "debits and credits must cancel")
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPostingPair(tenantID, branchID, debitAcc, creditAcc, decimal.Zero, date, refID, "")
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
	})

	t.Run("rejects same account on both sides", func(t *testing.T) {
		_, err := NewPostingPair(tenantID, branchID, debitAcc, debitAcc, decimal.NewFromInt(5), date, refID, "")
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
	})
}

func TestAccountApplyEntry(t *testing.T) {
	acc, err := NewAccount(uuid.New(), "1001", "Cash", RoleCash)
	require.NoError(t, err)

	debit := Entry{Debit: decimal.NewFromInt(500), Credit: decimal.Zero}
	credit := Entry{Debit: decimal.Zero, Credit: decimal.NewFromInt(500)}

	acc.ApplyEntry(&debit)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(500)))

	// Reversal nets the balance back to zero.
	acc.ApplyEntry(&credit)
	assert.True(t, acc.Balance.IsZero())
	assert.Equal(t, 3, acc.Version)
}

func TestEntryPartyTagging(t *testing.T) {
	customerID := uuid.New()
	e := Entry{}
	e.WithCustomer(customerID)
	require.NotNil(t, e.CustomerID)
	assert.Equal(t, customerID, *e.CustomerID)
	assert.Nil(t, e.SupplierID)
}
