package models

import (
	"time"

	"github.com/finops/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	BranchID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceNumber string               `gorm:"type:varchar(50);not null;index"`
	CustomerID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceDate   time.Time            `gorm:"not null;index"`
	GrandTotal    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaymentState  billing.PaymentState `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		BranchID:      m.BranchID,
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		InvoiceDate:   m.InvoiceDate,
		GrandTotal:    m.GrandTotal,
		PaidAmount:    m.PaidAmount,
		BalanceAmount: m.BalanceAmount,
		PaymentState:  m.PaymentState,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.BranchID = inv.BranchID
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.InvoiceDate = inv.InvoiceDate
	m.GrandTotal = inv.GrandTotal
	m.PaidAmount = inv.PaidAmount
	m.BalanceAmount = inv.BalanceAmount
	m.PaymentState = inv.PaymentState
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PurchaseModel is the persistence model for the Purchase aggregate root.
type PurchaseModel struct {
	TenantAggregateModel
	BranchID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	PurchaseNumber string               `gorm:"type:varchar(50);not null;index"`
	SupplierID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	PurchaseDate   time.Time            `gorm:"not null;index"`
	GrandTotal     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAmount  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaymentState   billing.PaymentState `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// ToDomain converts the persistence model to a domain Purchase entity.
func (m *PurchaseModel) ToDomain() *billing.Purchase {
	p := &billing.Purchase{
		BranchID:       m.BranchID,
		PurchaseNumber: m.PurchaseNumber,
		SupplierID:     m.SupplierID,
		PurchaseDate:   m.PurchaseDate,
		GrandTotal:     m.GrandTotal,
		PaidAmount:     m.PaidAmount,
		BalanceAmount:  m.BalanceAmount,
		PaymentState:   m.PaymentState,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Purchase entity.
func (m *PurchaseModel) FromDomain(p *billing.Purchase) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.BranchID = p.BranchID
	m.PurchaseNumber = p.PurchaseNumber
	m.SupplierID = p.SupplierID
	m.PurchaseDate = p.PurchaseDate
	m.GrandTotal = p.GrandTotal
	m.PaidAmount = p.PaidAmount
	m.BalanceAmount = p.BalanceAmount
	m.PaymentState = p.PaymentState
}

// PurchaseModelFromDomain creates a new persistence model from a domain Purchase.
func PurchaseModelFromDomain(p *billing.Purchase) *PurchaseModel {
	m := &PurchaseModel{}
	m.FromDomain(p)
	return m
}
