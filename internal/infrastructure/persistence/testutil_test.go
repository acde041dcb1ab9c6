package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/finops/backend/internal/domain/billing"
	"github.com/finops/backend/internal/domain/ledger"
	"github.com/finops/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory sqlite database with the full
// schema. A single connection keeps the in-memory database alive for the
// whole test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

// testFixture bundles the seeded tenant scope used by the flow tests.
type testFixture struct {
	TenantID   uuid.UUID
	BranchID   uuid.UUID
	Cash       *ledger.Account
	Bank       *ledger.Account
	Receivable *ledger.Account
	Payable    *ledger.Account
	Customer   *partner.Customer
	Supplier   *partner.Supplier
	Invoice    *billing.Invoice
	Purchase   *billing.Purchase
}

// seedFixture provisions the conventional chart of accounts, one customer
// and supplier with outstanding balances, and one open invoice and purchase.
func seedFixture(t *testing.T, db *gorm.DB) *testFixture {
	t.Helper()
	ctx := context.Background()

	f := &testFixture{
		TenantID: uuid.New(),
		BranchID: uuid.New(),
	}

	accounts := NewGormAccountRepository(db)
	mk := func(code, name string, role ledger.AccountRole) *ledger.Account {
		acc, err := ledger.NewAccount(f.TenantID, code, name, role)
		require.NoError(t, err)
		require.NoError(t, accounts.Save(ctx, acc))
		return acc
	}
	f.Cash = mk("1001", "Cash", ledger.RoleCash)
	f.Bank = mk("1002", "Bank", ledger.RoleBank)
	f.Receivable = mk("1200", "Accounts Receivable", ledger.RoleReceivable)
	f.Payable = mk("2000", "Accounts Payable", ledger.RolePayable)

	customers := NewGormCustomerRepository(db)
	customer, err := partner.NewCustomer(f.TenantID, "Acme Retail")
	require.NoError(t, err)
	customer.OutstandingBalance = decimal.NewFromInt(1000)
	require.NoError(t, customers.Save(ctx, customer))
	f.Customer = customer

	suppliers := NewGormSupplierRepository(db)
	supplier, err := partner.NewSupplier(f.TenantID, "Bulk Goods Co")
	require.NoError(t, err)
	supplier.OutstandingBalance = decimal.NewFromInt(800)
	require.NoError(t, suppliers.Save(ctx, supplier))
	f.Supplier = supplier

	invoices := NewGormInvoiceRepository(db)
	invoice, err := billing.NewInvoice(f.TenantID, f.BranchID, customer.ID, "INV-1001",
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, invoices.Save(ctx, invoice))
	f.Invoice = invoice

	purchases := NewGormPurchaseRepository(db)
	purchase, err := billing.NewPurchase(f.TenantID, f.BranchID, supplier.ID, "PO-2001",
		time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(800))
	require.NoError(t, err)
	require.NoError(t, purchases.Save(ctx, purchase))
	f.Purchase = purchase

	return f
}
