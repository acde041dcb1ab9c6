package models

import (
	"time"

	"github.com/finops/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// (tenant_id, idempotency_key) is unique; the composite index is created
// during migration and backs insert-if-absent idempotency.
type PaymentModel struct {
	TenantAggregateModel
	BranchID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Direction      payment.Direction `gorm:"type:varchar(10);not null;index"`
	Amount         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	CustomerID     *uuid.UUID        `gorm:"type:uuid;index"`
	SupplierID     *uuid.UUID        `gorm:"type:uuid;index"`
	InvoiceID      *uuid.UUID        `gorm:"type:uuid;index"`
	PurchaseID     *uuid.UUID        `gorm:"type:uuid;index"`
	Method         payment.Method    `gorm:"type:varchar(20);not null"`
	IdempotencyKey string            `gorm:"type:varchar(100);not null"`
	Status         payment.Status    `gorm:"type:varchar(20);not null;index"`
	PaymentDate    time.Time         `gorm:"not null;index"`
	Remarks        string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *payment.Payment {
	p := &payment.Payment{
		BranchID:       m.BranchID,
		Direction:      m.Direction,
		Amount:         m.Amount,
		CustomerID:     m.CustomerID,
		SupplierID:     m.SupplierID,
		InvoiceID:      m.InvoiceID,
		PurchaseID:     m.PurchaseID,
		Method:         m.Method,
		IdempotencyKey: m.IdempotencyKey,
		Status:         m.Status,
		PaymentDate:    m.PaymentDate,
		Remarks:        m.Remarks,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.BranchID = p.BranchID
	m.Direction = p.Direction
	m.Amount = p.Amount
	m.CustomerID = p.CustomerID
	m.SupplierID = p.SupplierID
	m.InvoiceID = p.InvoiceID
	m.PurchaseID = p.PurchaseID
	m.Method = p.Method
	m.IdempotencyKey = p.IdempotencyKey
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.Remarks = p.Remarks
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
