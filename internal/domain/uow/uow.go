// Package uow defines the unit-of-work boundary the engines run inside. A
// payment lifecycle event touches up to six repositories; either all of their
// writes commit or none do.
package uow

import (
	"context"

	"github.com/finops/backend/internal/domain/billing"
	"github.com/finops/backend/internal/domain/emi"
	"github.com/finops/backend/internal/domain/ledger"
	"github.com/finops/backend/internal/domain/partner"
	"github.com/finops/backend/internal/domain/payment"
)

// RepositorySet bundles the repositories bound to one transaction.
type RepositorySet struct {
	Accounts  ledger.AccountRepository
	Entries   ledger.EntryRepository
	Payments  payment.Repository
	Invoices  billing.InvoiceRepository
	Purchases billing.PurchaseRepository
	Customers partner.CustomerRepository
	Suppliers partner.SupplierRepository
	Plans     emi.Repository
}

// UnitOfWork executes fn inside one atomic, serializable transaction against
// the shared store. Implementations retry transient store-level conflicts a
// bounded number of times; application errors propagate immediately and roll
// the transaction back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos RepositorySet) error) error
}
