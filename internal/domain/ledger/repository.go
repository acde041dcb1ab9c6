package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository persists ledger accounts.
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Account, error)
	Save(ctx context.Context, account *Account) error
	SaveWithLock(ctx context.Context, account *Account) error
}

// EntryRepository persists ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, entries []Entry) error
	FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]Entry, error)
	SumDebitCredit(ctx context.Context, tenantID uuid.UUID, accountID uuid.UUID) (debit, credit decimal.Decimal, err error)
}
