package persistence

import (
	"context"
	"testing"
	"time"

	paymentapp "github.com/finops/backend/internal/application/payment"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedFeed produces one invoice (Jul 1), one purchase (Jul 2) and one
// completed inflow payment with its two ledger entries (Jul 3), so the
// unified feed holds five rows for the fixture scope.
func seedFeed(t *testing.T, db *gorm.DB) *testFixture {
	t.Helper()
	f := seedFixture(t, db)
	paySvc, _ := newFlowServices(t, db)

	_, err := paySvc.Create(context.Background(), paymentapp.CreateInput{
		TenantID:        f.TenantID,
		BranchID:        f.BranchID,
		Direction:       payment.DirectionInflow,
		Amount:          decimal.NewFromInt(400),
		CustomerID:      &f.Customer.ID,
		InvoiceID:       &f.Invoice.ID,
		Method:          payment.MethodCash,
		PaymentDate:     time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		ReferenceNumber: "PAY-FEED-1",
	})
	require.NoError(t, err)
	return f
}

func feedQuery(t *testing.T, db *gorm.DB, filter report.FeedFilter) *report.FeedPage {
	t.Helper()
	filter.Normalize()
	require.NoError(t, filter.Validate())
	page, err := NewGormTransactionFeedRepository(db).Query(context.Background(), filter)
	require.NoError(t, err)
	return page
}

func TestFeedUnionAndScoping(t *testing.T) {
	db := setupTestDB(t)
	f := seedFeed(t, db)

	page := feedQuery(t, db, report.FeedFilter{TenantID: f.TenantID, BranchID: f.BranchID})
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Results, 5)

	// Default sort is ascending by date.
	assert.Equal(t, report.TypeInvoice, page.Results[0].Type)
	assert.Equal(t, "INV-1001", page.Results[0].RefNumber)
	assert.Equal(t, report.TypePurchase, page.Results[1].Type)

	// Another branch or tenant sees nothing.
	other := feedQuery(t, db, report.FeedFilter{TenantID: f.TenantID, BranchID: uuid.New()})
	assert.Zero(t, other.Total)
	other = feedQuery(t, db, report.FeedFilter{TenantID: uuid.New(), BranchID: f.BranchID})
	assert.Zero(t, other.Total)
}

func TestFeedTypeAndEffectFilters(t *testing.T) {
	db := setupTestDB(t)
	f := seedFeed(t, db)

	byType := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID,
		Types: []report.TransactionType{report.TypePayment},
	})
	require.EqualValues(t, 1, byType.Total)
	assert.Equal(t, report.TypePayment, byType.Results[0].Type)
	assert.Equal(t, report.EffectCredit, byType.Results[0].Effect, "inflow payments read as credit")

	credit := report.EffectCredit
	byEffect := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Effect: &credit,
	})
	// Inflow payment, purchase and the receivable-side ledger entry.
	assert.EqualValues(t, 3, byEffect.Total)

	debit := report.EffectDebit
	byEffect = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Effect: &debit,
	})
	assert.EqualValues(t, 2, byEffect.Total)
}

func TestFeedDateRangeAndSearch(t *testing.T) {
	db := setupTestDB(t)
	f := seedFeed(t, db)

	from := time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)
	page := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, StartDate: &from,
	})
	assert.EqualValues(t, 4, page.Total, "invoice from Jul 1 falls outside the range")

	to := time.Date(2026, 7, 1, 23, 59, 59, 0, time.UTC)
	page = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, EndDate: &to,
	})
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, report.TypeInvoice, page.Results[0].Type)

	// Search is case-insensitive over reference number and description.
	page = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Search: "inv-1001",
	})
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "INV-1001", page.Results[0].RefNumber)

	page = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Search: "pay-feed",
	})
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, report.TypePayment, page.Results[0].Type)

	// LIKE metacharacters in the search text match literally.
	page = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Search: "%",
	})
	assert.Zero(t, page.Total)

	page = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Search: "pay_feed",
	})
	assert.Zero(t, page.Total)
}

func TestFeedPartyFilter(t *testing.T) {
	db := setupTestDB(t)
	f := seedFeed(t, db)

	page := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, PartyID: &f.Customer.ID,
	})
	// Invoice, payment and the customer-tagged ledger entry.
	assert.EqualValues(t, 3, page.Total)

	page = feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, PartyID: &f.Supplier.ID,
	})
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, report.TypePurchase, page.Results[0].Type)
}

func TestFeedSortAndPagination(t *testing.T) {
	db := setupTestDB(t)
	f := seedFeed(t, db)

	page := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Page: 1, Limit: 2,
	})
	assert.EqualValues(t, 5, page.Total, "total counts all rows, not the page")
	require.Len(t, page.Results, 2)
	assert.Equal(t, report.TypeInvoice, page.Results[0].Type)

	last := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, Page: 3, Limit: 2,
	})
	assert.Len(t, last.Results, 1)

	desc := feedQuery(t, db, report.FeedFilter{
		TenantID: f.TenantID, BranchID: f.BranchID, SortDesc: true,
	})
	require.Len(t, desc.Results, 5)
	assert.Equal(t, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), desc.Results[0].Date.UTC())
	assert.Equal(t, report.TypeInvoice, desc.Results[4].Type)
}

func TestFeedExcludesUnsettledPayments(t *testing.T) {
	db := setupTestDB(t)
	f := seedFeed(t, db)
	paySvc, _ := newFlowServices(t, db)

	// Pending payments never moved money and stay out of the feed.
	_, err := paySvc.Create(context.Background(), paymentapp.CreateInput{
		TenantID:        f.TenantID,
		BranchID:        f.BranchID,
		Direction:       payment.DirectionInflow,
		Amount:          decimal.NewFromInt(50),
		CustomerID:      &f.Customer.ID,
		Method:          payment.MethodCheque,
		PaymentDate:     time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		ReferenceNumber: "CHQ-PENDING",
		Status:          payment.StatusPending,
	})
	require.NoError(t, err)

	page := feedQuery(t, db, report.FeedFilter{TenantID: f.TenantID, BranchID: f.BranchID})
	assert.EqualValues(t, 5, page.Total)
}
