package emi

import (
	"testing"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan(t *testing.T, total, down float64, n int, rate float64) *Plan {
	t.Helper()
	plan, err := NewPlan(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromFloat(total), decimal.NewFromFloat(down),
		n, decimal.NewFromFloat(rate),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	plan.ClearDomainEvents()
	return plan
}

func TestMonthlyInstallment(t *testing.T) {
	t.Run("zero rate splits evenly", func(t *testing.T) {
		per := MonthlyInstallment(decimal.NewFromInt(1000), 5, decimal.Zero)
		assert.True(t, per.Equal(decimal.NewFromInt(200)), "got %s", per)
	})

	t.Run("zero rate rounds to 2 decimals", func(t *testing.T) {
		per := MonthlyInstallment(decimal.NewFromInt(1000), 3, decimal.Zero)
		assert.Equal(t, "333.33", per.StringFixed(2))
	})

	t.Run("annuity formula at 12 percent over 12 months", func(t *testing.T) {
		// 10000 at 1% monthly over 12 months: standard annuity tables give 888.49.
		per := MonthlyInstallment(decimal.NewFromInt(10000), 12, decimal.NewFromInt(12))
		assert.Equal(t, "888.49", per.StringFixed(2))
	})

	t.Run("positive rate yields more than even split", func(t *testing.T) {
		withInterest := MonthlyInstallment(decimal.NewFromInt(1200), 6, decimal.NewFromFloat(18))
		even := MonthlyInstallment(decimal.NewFromInt(1200), 6, decimal.Zero)
		assert.True(t, withInterest.GreaterThan(even))
	})
}

func TestNewPlan(t *testing.T) {
	t.Run("generates full schedule", func(t *testing.T) {
		start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
		plan, err := NewPlan(
			uuid.New(), uuid.New(), uuid.New(), uuid.New(),
			decimal.NewFromInt(1200), decimal.NewFromInt(200),
			5, decimal.Zero, start,
		)
		require.NoError(t, err)

		assert.Equal(t, PlanActive, plan.Status)
		require.Len(t, plan.Installments, 5)
		for i, inst := range plan.Installments {
			assert.Equal(t, i+1, inst.InstallmentNumber)
			assert.Equal(t, "200.00", inst.TotalAmount.StringFixed(2))
			assert.Equal(t, InstallmentPending, inst.Status)
			assert.Equal(t, start.AddDate(0, i+1, 0), inst.DueDate)
		}
		assert.True(t, plan.FinancedBalance().Equal(decimal.NewFromInt(1000)))

		events := plan.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePlanCreated, events[0].EventType())
	})

	t.Run("schedule total stays within rounding of balance at zero rate", func(t *testing.T) {
		plan := newTestPlan(t, 1000, 0, 3, 0)
		diff := plan.ScheduleTotal().Sub(plan.FinancedBalance()).Abs()
		maxDrift := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(3))
		assert.True(t, diff.LessThanOrEqual(maxDrift), "drift %s", diff)
	})

	t.Run("rejects invalid terms", func(t *testing.T) {
		tenantID, branchID, invoiceID, customerID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
		start := time.Now()

		tests := []struct {
			name    string
			total   decimal.Decimal
			down    decimal.Decimal
			n       int
			rate    decimal.Decimal
			invoice uuid.UUID
		}{
			{"zero installments", decimal.NewFromInt(1000), decimal.Zero, 0, decimal.Zero, invoiceID},
			{"negative down payment", decimal.NewFromInt(1000), decimal.NewFromInt(-1), 5, decimal.Zero, invoiceID},
			{"negative rate", decimal.NewFromInt(1000), decimal.Zero, 5, decimal.NewFromInt(-2), invoiceID},
			{"down payment covers total", decimal.NewFromInt(1000), decimal.NewFromInt(1000), 5, decimal.Zero, invoiceID},
			{"missing invoice", decimal.NewFromInt(1000), decimal.Zero, 5, decimal.Zero, uuid.Nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewPlan(tenantID, branchID, tt.invoice, customerID, tt.total, tt.down, tt.n, tt.rate, start)
				require.Error(t, err)
				assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
			})
		}
	})
}

func TestPayInstallment(t *testing.T) {
	paymentID := uuid.New()

	t.Run("full payment settles the installment", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		require.NoError(t, plan.PayInstallment(1, decimal.NewFromInt(200), paymentID))

		inst, err := plan.FindInstallment(1)
		require.NoError(t, err)
		assert.Equal(t, InstallmentPaid, inst.Status)
		assert.True(t, inst.Remaining().IsZero())
		require.NotNil(t, inst.PaymentID)
		assert.Equal(t, paymentID, *inst.PaymentID)
	})

	t.Run("partial payment leaves installment partial", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		require.NoError(t, plan.PayInstallment(2, decimal.NewFromInt(50), paymentID))

		inst, err := plan.FindInstallment(2)
		require.NoError(t, err)
		assert.Equal(t, InstallmentPartial, inst.Status)
		assert.Equal(t, "150.00", inst.Remaining().StringFixed(2))
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		err := plan.PayInstallment(1, decimal.NewFromInt(300), paymentID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_INPUT", shared.DomainErrorCode(err))
	})

	t.Run("paid installment rejects further payment", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		require.NoError(t, plan.PayInstallment(1, decimal.NewFromInt(200), paymentID))
		err := plan.PayInstallment(1, decimal.NewFromInt(1), paymentID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", shared.DomainErrorCode(err))
	})

	t.Run("unknown installment number", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		err := plan.PayInstallment(9, decimal.NewFromInt(10), paymentID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", shared.DomainErrorCode(err))
	})

	t.Run("settling every installment completes the plan", func(t *testing.T) {
		plan := newTestPlan(t, 300, 100, 2, 0)
		require.NoError(t, plan.PayInstallment(1, decimal.NewFromInt(100), paymentID))
		assert.Equal(t, PlanActive, plan.Status)

		require.NoError(t, plan.PayInstallment(2, decimal.NewFromInt(100), paymentID))
		assert.Equal(t, PlanCompleted, plan.Status)
		require.NotNil(t, plan.CompletedAt)

		var sawCompleted bool
		for _, e := range plan.GetDomainEvents() {
			if e.EventType() == EventTypePlanCompleted {
				sawCompleted = true
			}
		}
		assert.True(t, sawCompleted)
	})
}

func TestAllocatePayment(t *testing.T) {
	paymentID := uuid.New()

	t.Run("allocates oldest first", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		leftover := plan.AllocatePayment(decimal.NewFromInt(450), &paymentID)
		assert.True(t, leftover.IsZero())

		first, _ := plan.FindInstallment(1)
		second, _ := plan.FindInstallment(2)
		third, _ := plan.FindInstallment(3)
		assert.Equal(t, InstallmentPaid, first.Status)
		assert.Equal(t, InstallmentPaid, second.Status)
		assert.Equal(t, InstallmentPartial, third.Status)
		assert.Equal(t, "50.00", third.PaidAmount.StringFixed(2))
	})

	t.Run("skips already paid installments", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		require.NoError(t, plan.PayInstallment(1, decimal.NewFromInt(200), paymentID))

		leftover := plan.AllocatePayment(decimal.NewFromInt(200), &paymentID)
		assert.True(t, leftover.IsZero())

		second, _ := plan.FindInstallment(2)
		assert.Equal(t, InstallmentPaid, second.Status)
	})

	t.Run("returns the unallocatable remainder", func(t *testing.T) {
		plan := newTestPlan(t, 300, 100, 2, 0)
		leftover := plan.AllocatePayment(decimal.NewFromInt(250), &paymentID)
		assert.Equal(t, "50.00", leftover.StringFixed(2))
		assert.Equal(t, PlanCompleted, plan.Status)
	})

	t.Run("allocation settles overdue installments too", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		afterLast := plan.Installments[4].DueDate.AddDate(0, 0, 1)
		require.Equal(t, 5, plan.MarkOverdue(afterLast))

		leftover := plan.AllocatePayment(decimal.NewFromInt(1000), &paymentID)
		assert.True(t, leftover.IsZero())
		assert.Equal(t, PlanCompleted, plan.Status)
	})
}

func TestMarkOverdue(t *testing.T) {
	t.Run("flags due unsettled installments", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		// Past the second due date but not the third.
		now := plan.Installments[1].DueDate.AddDate(0, 0, 1)

		assert.Equal(t, 2, plan.MarkOverdue(now))
		first, _ := plan.FindInstallment(1)
		second, _ := plan.FindInstallment(2)
		third, _ := plan.FindInstallment(3)
		assert.Equal(t, InstallmentOverdue, first.Status)
		assert.Equal(t, InstallmentOverdue, second.Status)
		assert.Equal(t, InstallmentPending, third.Status)
	})

	t.Run("is idempotent for the same instant", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		now := plan.Installments[1].DueDate.AddDate(0, 0, 1)

		assert.Equal(t, 2, plan.MarkOverdue(now))
		versionAfterFirst := plan.Version
		assert.Equal(t, 0, plan.MarkOverdue(now))
		assert.Equal(t, versionAfterFirst, plan.Version)
	})

	t.Run("paid installments never go overdue", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		require.NoError(t, plan.PayInstallment(1, decimal.NewFromInt(200), uuid.New()))

		now := plan.Installments[0].DueDate.AddDate(0, 0, 1)
		assert.Equal(t, 0, plan.MarkOverdue(now))
		first, _ := plan.FindInstallment(1)
		assert.Equal(t, InstallmentPaid, first.Status)
	})

	t.Run("inactive plan is untouched", func(t *testing.T) {
		plan := newTestPlan(t, 300, 100, 2, 0)
		plan.AllocatePayment(decimal.NewFromInt(200), nil)
		require.Equal(t, PlanCompleted, plan.Status)

		assert.Equal(t, 0, plan.MarkOverdue(time.Now().AddDate(1, 0, 0)))
	})
}

func TestInstallmentsScan(t *testing.T) {
	t.Run("round trips through JSON", func(t *testing.T) {
		plan := newTestPlan(t, 1200, 200, 5, 0)
		value, err := plan.Installments.Value()
		require.NoError(t, err)

		var decoded Installments
		require.NoError(t, decoded.Scan(value))
		require.Len(t, decoded, 5)
		assert.True(t, decoded[0].TotalAmount.Equal(plan.Installments[0].TotalAmount))
		assert.Equal(t, plan.Installments[4].DueDate.Unix(), decoded[4].DueDate.Unix())
	})

	t.Run("nil scans to empty list", func(t *testing.T) {
		var ins Installments
		require.NoError(t, ins.Scan(nil))
		assert.Empty(t, ins)
	})
}
