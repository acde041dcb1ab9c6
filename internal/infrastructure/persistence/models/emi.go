package models

import (
	"time"

	"github.com/finops/backend/internal/domain/emi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmiPlanModel is the persistence model for the EMI Plan aggregate root.
// Installments persist as a JSONB document rewritten with the row; the
// optimistic version guards the whole aggregate. (tenant_id, invoice_id)
// is unique; the composite index is created during migration.
type EmiPlanModel struct {
	TenantAggregateModel
	BranchID             uuid.UUID        `gorm:"type:uuid;not null;index"`
	InvoiceID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	TotalAmount          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	DownPayment          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfInstallments int              `gorm:"not null"`
	InterestRate         decimal.Decimal  `gorm:"type:decimal(8,4);not null;default:0"`
	Installments         emi.Installments `gorm:"type:jsonb;default:'[]'"`
	Status               emi.PlanStatus   `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CompletedAt          *time.Time
}

// TableName returns the table name for GORM
func (EmiPlanModel) TableName() string {
	return "emi_plans"
}

// ToDomain converts the persistence model to a domain Plan entity.
func (m *EmiPlanModel) ToDomain() *emi.Plan {
	p := &emi.Plan{
		BranchID:             m.BranchID,
		InvoiceID:            m.InvoiceID,
		CustomerID:           m.CustomerID,
		TotalAmount:          m.TotalAmount,
		DownPayment:          m.DownPayment,
		NumberOfInstallments: m.NumberOfInstallments,
		InterestRate:         m.InterestRate,
		Installments:         m.Installments,
		Status:               m.Status,
		CompletedAt:          m.CompletedAt,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Plan entity.
func (m *EmiPlanModel) FromDomain(p *emi.Plan) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.BranchID = p.BranchID
	m.InvoiceID = p.InvoiceID
	m.CustomerID = p.CustomerID
	m.TotalAmount = p.TotalAmount
	m.DownPayment = p.DownPayment
	m.NumberOfInstallments = p.NumberOfInstallments
	m.InterestRate = p.InterestRate
	m.Installments = p.Installments
	m.Status = p.Status
	m.CompletedAt = p.CompletedAt
}

// EmiPlanModelFromDomain creates a new persistence model from a domain Plan.
func EmiPlanModelFromDomain(p *emi.Plan) *EmiPlanModel {
	m := &EmiPlanModel{}
	m.FromDomain(p)
	return m
}
