package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/finops/backend/internal/domain/uow"
	"gorm.io/gorm"
)

const (
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond
)

// GormUnitOfWork implements uow.UnitOfWork on a GORM connection. Every
// Execute call opens one database transaction and hands the callback a
// repository set bound to it.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a transaction, retrying up to maxAttempts times on
// transient conflicts (serialization failures, deadlocks, optimistic lock
// collisions). Application errors roll back and propagate on the first try.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.RepositorySet) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, NewRepositorySet(tx))
		})
		if err == nil || !isRetryableConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

// NewRepositorySet builds the repository set bound to the given connection,
// which may be a transaction handle.
func NewRepositorySet(tx *gorm.DB) uow.RepositorySet {
	return uow.RepositorySet{
		Accounts:  NewGormAccountRepository(tx),
		Entries:   NewGormLedgerEntryRepository(tx),
		Payments:  NewGormPaymentRepository(tx),
		Invoices:  NewGormInvoiceRepository(tx),
		Purchases: NewGormPurchaseRepository(tx),
		Customers: NewGormCustomerRepository(tx),
		Suppliers: NewGormSupplierRepository(tx),
		Plans:     NewGormEmiPlanRepository(tx),
	}
}

// isRetryableConflict reports whether the transaction failed for a transient
// store-level reason worth retrying. Postgres signals serialization failure
// as SQLSTATE 40001 and deadlock as 40P01.
func isRetryableConflict(err error) bool {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "deadlock")
}
