package persistence

import (
	"context"
	"testing"
	"time"

	emiapp "github.com/finops/backend/internal/application/emi"
	paymentapp "github.com/finops/backend/internal/application/payment"
	"github.com/finops/backend/internal/domain/emi"
	"github.com/finops/backend/internal/domain/ledger"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reloadPlan(t *testing.T, db *gorm.DB, f *testFixture) *emi.Plan {
	t.Helper()
	plan, err := NewGormEmiPlanRepository(db).FindByInvoice(context.Background(), f.TenantID, f.Invoice.ID)
	require.NoError(t, err)
	return plan
}

func TestCreatePlanGeneratesSchedule(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	_, emiSvc := newFlowServices(t, db)
	ctx := context.Background()

	in := emiapp.CreatePlanInput{
		TenantID:             f.TenantID,
		InvoiceID:            f.Invoice.ID,
		DownPayment:          decimal.NewFromInt(200),
		NumberOfInstallments: 4,
		InterestRate:         decimal.Zero,
		StartDate:            time.Now(),
	}

	plan, err := emiSvc.CreatePlan(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, emi.PlanActive, plan.Status)
	assert.Equal(t, "800.00", plan.FinancedBalance().StringFixed(2))
	require.Len(t, plan.Installments, 4)
	for i, inst := range plan.Installments {
		assert.Equal(t, i+1, inst.InstallmentNumber)
		assert.Equal(t, "200.00", inst.TotalAmount.StringFixed(2))
		assert.Equal(t, emi.InstallmentPending, inst.Status)
	}

	// One plan per invoice.
	_, err = emiSvc.CreatePlan(ctx, in)
	require.Error(t, err)
	assert.Equal(t, "ALREADY_EXISTS", shared.DomainErrorCode(err))
}

func TestPayInstallmentPostsAndBooks(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	_, emiSvc := newFlowServices(t, db)
	ctx := context.Background()

	plan, err := emiSvc.CreatePlan(ctx, emiapp.CreatePlanInput{
		TenantID:             f.TenantID,
		InvoiceID:            f.Invoice.ID,
		DownPayment:          decimal.NewFromInt(200),
		NumberOfInstallments: 4,
		InterestRate:         decimal.Zero,
		StartDate:            time.Now(),
	})
	require.NoError(t, err)

	res, err := emiSvc.PayInstallment(ctx, emiapp.PayInstallmentInput{
		TenantID:          f.TenantID,
		PlanID:            plan.ID,
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(200),
		Method:            payment.MethodCash,
		ReferenceNumber:   "EMI-PAY-1",
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, res.Payment.Status)
	assert.Equal(t, emi.InstallmentPaid, res.Plan.Installments[0].Status)

	// The payment, its postings and the installment booking all committed
	// together.
	entries, err := NewGormLedgerEntryRepository(db).FindByReference(ctx, f.TenantID, ledger.ReferenceTypePayment, res.Payment.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "200.00", reloadInvoice(t, db, f.TenantID, f.Invoice.ID).PaidAmount.StringFixed(2))

	persisted := reloadPlan(t, db, f)
	require.NotNil(t, persisted.Installments[0].PaymentID)
	assert.Equal(t, res.Payment.ID, *persisted.Installments[0].PaymentID)
	assert.Equal(t, emi.InstallmentPaid, persisted.Installments[0].Status)
	assert.Equal(t, emi.InstallmentPending, persisted.Installments[1].Status)
}

func TestInvoicePaymentAllocatesOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	paySvc, emiSvc := newFlowServices(t, db)
	ctx := context.Background()

	_, err := emiSvc.CreatePlan(ctx, emiapp.CreatePlanInput{
		TenantID:             f.TenantID,
		InvoiceID:            f.Invoice.ID,
		DownPayment:          decimal.NewFromInt(200),
		NumberOfInstallments: 4,
		InterestRate:         decimal.Zero,
		StartDate:            time.Now(),
	})
	require.NoError(t, err)

	// A generic invoice payment triggers allocation as a post-commit effect.
	_, err = paySvc.Create(ctx, paymentapp.CreateInput{
		TenantID:        f.TenantID,
		BranchID:        f.BranchID,
		Direction:       payment.DirectionInflow,
		Amount:          decimal.NewFromInt(500),
		CustomerID:      &f.Customer.ID,
		InvoiceID:       &f.Invoice.ID,
		Method:          payment.MethodBankTransfer,
		PaymentDate:     time.Now(),
		ReferenceNumber: "NEFT-500",
	})
	require.NoError(t, err)

	plan := reloadPlan(t, db, f)
	assert.Equal(t, emi.InstallmentPaid, plan.Installments[0].Status)
	assert.Equal(t, emi.InstallmentPaid, plan.Installments[1].Status)
	assert.Equal(t, emi.InstallmentPartial, plan.Installments[2].Status)
	assert.Equal(t, "100.00", plan.Installments[2].PaidAmount.StringFixed(2))
	assert.Equal(t, emi.InstallmentPending, plan.Installments[3].Status)
}

func TestSweepOverdueIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	_, emiSvc := newFlowServices(t, db)
	ctx := context.Background()

	// Schedule starting six months back: all four due dates have passed.
	_, err := emiSvc.CreatePlan(ctx, emiapp.CreatePlanInput{
		TenantID:             f.TenantID,
		InvoiceID:            f.Invoice.ID,
		DownPayment:          decimal.NewFromInt(200),
		NumberOfInstallments: 4,
		InterestRate:         decimal.Zero,
		StartDate:            time.Now().AddDate(0, -6, 0),
	})
	require.NoError(t, err)

	marked, err := emiSvc.SweepOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, marked)

	plan := reloadPlan(t, db, f)
	for _, inst := range plan.Installments {
		assert.Equal(t, emi.InstallmentOverdue, inst.Status)
	}

	// Re-running the sweep finds nothing new to mark.
	marked, err = emiSvc.SweepOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, marked)
}
