package report

import (
	"context"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType identifies the source record behind a feed row.
type TransactionType string

const (
	TypeInvoice     TransactionType = "invoice"
	TypePayment     TransactionType = "payment"
	TypePurchase    TransactionType = "purchase"
	TypeLedgerEntry TransactionType = "ledger_entry"
)

// IsValid checks if the type is a known TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeInvoice, TypePayment, TypePurchase, TypeLedgerEntry:
		return true
	}
	return false
}

// Effect is the normalized direction of a feed row.
type Effect string

const (
	EffectDebit  Effect = "debit"
	EffectCredit Effect = "credit"
)

// IsValid checks if the effect is valid
func (e Effect) IsValid() bool {
	return e == EffectDebit || e == EffectCredit
}

// TransactionRecord is the unified shape all four sources normalize into.
type TransactionRecord struct {
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Effect      Effect          `json:"effect"`
	RefID       uuid.UUID       `json:"ref_id"`
	RefNumber   string          `json:"ref_number"`
	PartyID     *uuid.UUID      `json:"party_id,omitempty"`
	Description string          `json:"description"`
}

// FeedFilter scopes and filters the unified feed. TenantID and BranchID are
// mandatory; everything else narrows the result.
type FeedFilter struct {
	TenantID  uuid.UUID
	BranchID  uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Types     []TransactionType
	Effect    *Effect
	PartyID   *uuid.UUID
	Search    string
	SortDesc  bool
	Page      int
	Limit     int
}

// Normalize clamps pagination to sane defaults.
func (f *FeedFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

// Validate checks the mandatory scope and enum filters.
func (f *FeedFilter) Validate() error {
	if f.TenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Organization scope is required")
	}
	if f.BranchID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Branch scope is required")
	}
	for _, t := range f.Types {
		if !t.IsValid() {
			return shared.NewDomainError("INVALID_INPUT", "Unknown transaction type "+string(t))
		}
	}
	if f.Effect != nil && !f.Effect.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Effect must be debit or credit")
	}
	return nil
}

// FeedPage is one page of the unified feed.
type FeedPage struct {
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
	Results []TransactionRecord `json:"results"`
}

// FeedRepository computes the feed at query time: the storage layer performs
// the set union, filtering, sorting and pagination so results reflect current
// committed state and memory stays bounded on large datasets.
type FeedRepository interface {
	Query(ctx context.Context, filter FeedFilter) (*FeedPage, error)
}
