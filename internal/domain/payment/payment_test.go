package payment

import (
	"testing"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, status Status) *Payment {
	t.Helper()
	p, err := NewPayment(
		uuid.New(), uuid.New(),
		DirectionInflow,
		decimal.NewFromInt(500),
		MethodCash,
		"REF-001",
		time.Now(),
		status,
	)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewPayment(t *testing.T) {
	tenantID := uuid.New()
	branchID := uuid.New()

	t.Run("creates valid payment", func(t *testing.T) {
		p, err := NewPayment(tenantID, branchID, DirectionInflow, decimal.NewFromFloat(100.555), MethodCash, "REF-1", time.Now(), StatusPending)
		require.NoError(t, err)
		assert.Equal(t, tenantID, p.TenantID)
		assert.Equal(t, StatusPending, p.Status)
		assert.True(t, p.Amount.Equal(decimal.NewFromFloat(100.56)), "amount rounds to 2 decimals")
		assert.Equal(t, 1, p.Version)
	})

	t.Run("completed payment records completion event", func(t *testing.T) {
		p, err := NewPayment(tenantID, branchID, DirectionInflow, decimal.NewFromInt(100), MethodCash, "REF-2", time.Now(), StatusCompleted)
		require.NoError(t, err)
		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePaymentCompleted, events[0].EventType())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name      string
			direction Direction
			amount    decimal.Decimal
			method    Method
			branch    uuid.UUID
		}{
			{"unknown direction", Direction("SIDEWAYS"), decimal.NewFromInt(100), MethodCash, branchID},
			{"zero amount", DirectionInflow, decimal.Zero, MethodCash, branchID},
			{"negative amount", DirectionInflow, decimal.NewFromInt(-5), MethodCash, branchID},
			{"unknown method", DirectionInflow, decimal.NewFromInt(100), Method("BARTER"), branchID},
			{"empty branch", DirectionInflow, decimal.NewFromInt(100), MethodCash, uuid.Nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewPayment(tenantID, tt.branch, tt.direction, tt.amount, tt.method, "k", time.Now(), StatusPending)
				require.Error(t, err)
				assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
			})
		}
	})
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		action  PostingAction
		wantErr string
	}{
		{"pending to completed applies", StatusPending, StatusCompleted, PostingApply, ""},
		{"failed to completed applies", StatusFailed, StatusCompleted, PostingApply, ""},
		{"cancelled to completed applies", StatusCancelled, StatusCompleted, PostingApply, ""},
		{"completed to failed reverses", StatusCompleted, StatusFailed, PostingReverse, ""},
		{"completed to cancelled reverses", StatusCompleted, StatusCancelled, PostingReverse, ""},
		{"pending to failed posts nothing", StatusPending, StatusFailed, PostingNone, ""},
		{"pending to cancelled posts nothing", StatusPending, StatusCancelled, PostingNone, ""},
		{"same status is a no-op", StatusCompleted, StatusCompleted, PostingNone, ""},
		{"failed to cancelled rejected", StatusFailed, StatusCancelled, PostingNone, "INVALID_STATE"},
		{"cancelled to pending rejected", StatusCancelled, StatusPending, PostingNone, "INVALID_STATE"},
		{"completed to pending rejected", StatusCompleted, StatusPending, PostingNone, "INVALID_STATE"},
		{"unknown target rejected", StatusPending, Status("LIMBO"), PostingNone, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ActionFor(tt.from, tt.to)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, shared.DomainErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestTransition(t *testing.T) {
	t.Run("apply transition emits completed event", func(t *testing.T) {
		p := newTestPayment(t, StatusPending)
		action, err := p.Transition(StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, PostingApply, action)
		assert.Equal(t, StatusCompleted, p.Status)
		assert.Equal(t, 2, p.Version)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePaymentCompleted, p.GetDomainEvents()[0].EventType())
	})

	t.Run("reverse transition emits reversed event", func(t *testing.T) {
		p := newTestPayment(t, StatusCompleted)
		action, err := p.Transition(StatusFailed)
		require.NoError(t, err)
		assert.Equal(t, PostingReverse, action)
		require.Len(t, p.GetDomainEvents(), 1)
		reversed, ok := p.GetDomainEvents()[0].(*PaymentReversedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusCompleted, reversed.PreviousStatus)
		assert.Equal(t, StatusFailed, reversed.NewStatus)
	})

	t.Run("self transition keeps state and version", func(t *testing.T) {
		p := newTestPayment(t, StatusCompleted)
		action, err := p.Transition(StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, PostingNone, action)
		assert.Equal(t, 1, p.Version)
		assert.Empty(t, p.GetDomainEvents())
	})

	t.Run("invalid transition leaves payment untouched", func(t *testing.T) {
		p := newTestPayment(t, StatusFailed)
		_, err := p.Transition(StatusCancelled)
		require.Error(t, err)
		assert.Equal(t, StatusFailed, p.Status)
		assert.Equal(t, 1, p.Version)
	})
}

func TestChangeAmount(t *testing.T) {
	t.Run("pending payment amount can change", func(t *testing.T) {
		p := newTestPayment(t, StatusPending)
		require.NoError(t, p.ChangeAmount(decimal.NewFromFloat(750.125)))
		assert.True(t, p.Amount.Equal(decimal.NewFromFloat(750.13)))
	})

	t.Run("completed payment amount is immutable", func(t *testing.T) {
		p := newTestPayment(t, StatusCompleted)
		err := p.ChangeAmount(decimal.NewFromInt(999))
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", shared.DomainErrorCode(err))
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(500)))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		p := newTestPayment(t, StatusPending)
		err := p.ChangeAmount(decimal.Zero)
		require.Error(t, err)
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
	})
}

func TestMethodUsesCashAccount(t *testing.T) {
	assert.True(t, MethodCash.UsesCashAccount())
	for _, m := range []Method{MethodBankTransfer, MethodCard, MethodUPI, MethodCheque} {
		assert.False(t, m.UsesCashAccount(), string(m))
	}
}
