package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	emiapp "github.com/finops/backend/internal/application/emi"
	ledgerapp "github.com/finops/backend/internal/application/ledger"
	paymentapp "github.com/finops/backend/internal/application/payment"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockAllocator struct {
	mock.Mock
}

func (m *mockAllocator) AllocateToPlan(ctx context.Context, tenantID, invoiceID uuid.UUID, amount decimal.Decimal, paymentID uuid.UUID) error {
	args := m.Called(ctx, tenantID, invoiceID, amount, paymentID)
	return args.Error(0)
}

var _ paymentapp.InstallmentAllocator = (*mockAllocator)(nil)
var _ paymentapp.InstallmentAllocator = (*emiapp.Service)(nil)

func newServiceWithAllocator(t *testing.T, db *gorm.DB, allocator paymentapp.InstallmentAllocator) *paymentapp.Service {
	t.Helper()
	logger := zap.NewNop()
	return paymentapp.NewService(
		NewGormUnitOfWork(db),
		NewGormPaymentRepository(db),
		ledgerapp.NewPostingService(logger),
		allocator,
		event.NewLogPublisher(logger),
		logger,
	)
}

func TestAllocatorFailureLeavesPaymentCommitted(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	ctx := context.Background()

	allocator := &mockAllocator{}
	allocator.On("AllocateToPlan", mock.Anything, f.TenantID, f.Invoice.ID, mock.Anything, mock.Anything).
		Return(errors.New("plan store unavailable"))
	svc := newServiceWithAllocator(t, db, allocator)

	res, err := svc.Create(ctx, paymentapp.CreateInput{
		TenantID:        f.TenantID,
		BranchID:        f.BranchID,
		Direction:       payment.DirectionInflow,
		Amount:          decimal.NewFromInt(200),
		CustomerID:      &f.Customer.ID,
		InvoiceID:       &f.Invoice.ID,
		Method:          payment.MethodCash,
		PaymentDate:     time.Now(),
		ReferenceNumber: "PAY-ALLOC-ERR",
	})
	require.NoError(t, err, "secondary-effect failure must not surface")
	allocator.AssertExpectations(t)

	// The payment and its postings survived the allocator failure.
	persisted, err := NewGormPaymentRepository(db).FindByIDForTenant(ctx, f.TenantID, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, persisted.Status)
	assert.Equal(t, "200.00", reloadInvoice(t, db, f.TenantID, f.Invoice.ID).PaidAmount.StringFixed(2))
}

func TestAllocatorSkippedForPendingAndOutflow(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	ctx := context.Background()

	allocator := &mockAllocator{}
	svc := newServiceWithAllocator(t, db, allocator)

	_, err := svc.Create(ctx, paymentapp.CreateInput{
		TenantID:        f.TenantID,
		BranchID:        f.BranchID,
		Direction:       payment.DirectionInflow,
		Amount:          decimal.NewFromInt(100),
		CustomerID:      &f.Customer.ID,
		InvoiceID:       &f.Invoice.ID,
		Method:          payment.MethodCheque,
		PaymentDate:     time.Now(),
		ReferenceNumber: "PAY-PENDING",
		Status:          payment.StatusPending,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, paymentapp.CreateInput{
		TenantID:        f.TenantID,
		BranchID:        f.BranchID,
		Direction:       payment.DirectionOutflow,
		Amount:          decimal.NewFromInt(100),
		SupplierID:      &f.Supplier.ID,
		PurchaseID:      &f.Purchase.ID,
		Method:          payment.MethodBankTransfer,
		PaymentDate:     time.Now(),
		ReferenceNumber: "PAY-OUT",
	})
	require.NoError(t, err)

	// Allocation only ever applies to completed inflow invoice payments.
	allocator.AssertNotCalled(t, "AllocateToPlan",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
