package models

import (
	"time"

	"github.com/finops/backend/internal/domain/ledger"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the ledger Account aggregate root.
// (tenant_id, code) is unique; the composite index is created during
// migration because tenant_id lives on the embedded model.
type AccountModel struct {
	TenantAggregateModel
	Code    string             `gorm:"type:varchar(20);not null;index"`
	Name    string             `gorm:"type:varchar(200);not null;index"`
	Role    ledger.AccountRole `gorm:"type:varchar(30);not null;index"`
	Balance decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *ledger.Account {
	a := &ledger.Account{
		Code:    m.Code,
		Name:    m.Name,
		Role:    m.Role,
		Balance: m.Balance,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Role = a.Role
	m.Balance = a.Balance
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// LedgerEntryModel is the persistence model for a ledger Entry. Entries are
// append-only; reversal writes new lines instead of touching these.
type LedgerEntryModel struct {
	BaseModel
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_entries_tenant_branch,priority:1"`
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_entries_tenant_branch,priority:2"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date          time.Time       `gorm:"not null;index"`
	Debit         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Credit        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReferenceType string          `gorm:"type:varchar(30);not null;index:idx_entries_reference,priority:1"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_entries_reference,priority:2"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index"`
	Description   string          `gorm:"type:varchar(500)"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *LedgerEntryModel) ToDomain() ledger.Entry {
	return ledger.Entry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:      m.TenantID,
		BranchID:      m.BranchID,
		AccountID:     m.AccountID,
		Date:          m.Date,
		Debit:         m.Debit,
		Credit:        m.Credit,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CustomerID:    m.CustomerID,
		SupplierID:    m.SupplierID,
		Description:   m.Description,
		CreatedBy:     m.CreatedBy,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain Entry.
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.BranchID = e.BranchID
	m.AccountID = e.AccountID
	m.Date = e.Date
	m.Debit = e.Debit
	m.Credit = e.Credit
	m.ReferenceType = e.ReferenceType
	m.ReferenceID = e.ReferenceID
	m.CustomerID = e.CustomerID
	m.SupplierID = e.SupplierID
	m.Description = e.Description
	m.CreatedBy = e.CreatedBy
	return m
}
