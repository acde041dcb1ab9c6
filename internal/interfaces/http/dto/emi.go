package dto

import (
	"time"

	"github.com/finops/backend/internal/domain/emi"
)

// CreateEmiPlanRequest is the payload for generating an EMI plan
// @Description Create EMI plan request
type CreateEmiPlanRequest struct {
	InvoiceID            string  `json:"invoice_id" binding:"required,uuid"`
	DownPayment          float64 `json:"down_payment" binding:"gte=0" example:"200.00"`
	NumberOfInstallments int     `json:"number_of_installments" binding:"required,gt=0" example:"5"`
	InterestRate         float64 `json:"interest_rate" binding:"gte=0" example:"12.5"`
	StartDate            string  `json:"start_date" binding:"required,date" example:"2026-08-01"`
}

// PayInstallmentRequest is the payload for settling one installment
// @Description Pay installment request
type PayInstallmentRequest struct {
	InstallmentNumber int     `json:"installment_number" binding:"required,gt=0" example:"1"`
	Amount            float64 `json:"amount" binding:"required,gt=0" example:"200.00"`
	Method            string  `json:"payment_method" binding:"required,oneof=CASH BANK_TRANSFER CARD UPI CHEQUE"`
	ReferenceNumber   string  `json:"reference_number,omitempty" binding:"max=100"`
	Remarks           string  `json:"remarks,omitempty" binding:"max=500"`
}

// InstallmentResponse represents one installment in API responses
// @Description Installment response
type InstallmentResponse struct {
	InstallmentNumber int       `json:"installment_number" example:"1"`
	DueDate           time.Time `json:"due_date"`
	TotalAmount       float64   `json:"total_amount" example:"200.00"`
	PaidAmount        float64   `json:"paid_amount" example:"0.00"`
	Status            string    `json:"payment_status" example:"PENDING"`
	PaymentID         *string   `json:"payment_id,omitempty"`
}

// EmiPlanResponse represents an EMI plan in API responses
// @Description EMI plan response
type EmiPlanResponse struct {
	ID                   string                `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID             string                `json:"tenant_id"`
	BranchID             string                `json:"branch_id"`
	InvoiceID            string                `json:"invoice_id"`
	CustomerID           string                `json:"customer_id"`
	TotalAmount          float64               `json:"total_amount" example:"1200.00"`
	DownPayment          float64               `json:"down_payment" example:"200.00"`
	NumberOfInstallments int                   `json:"number_of_installments" example:"5"`
	InterestRate         float64               `json:"interest_rate" example:"0"`
	Installments         []InstallmentResponse `json:"installments"`
	Status               string                `json:"status" example:"ACTIVE"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	Version              int                   `json:"version" example:"1"`
}

// ToEmiPlanResponse maps a domain plan to its API shape
func ToEmiPlanResponse(p *emi.Plan) EmiPlanResponse {
	installments := make([]InstallmentResponse, len(p.Installments))
	for i := range p.Installments {
		inst := &p.Installments[i]
		installments[i] = InstallmentResponse{
			InstallmentNumber: inst.InstallmentNumber,
			DueDate:           inst.DueDate,
			TotalAmount:       inst.TotalAmount.InexactFloat64(),
			PaidAmount:        inst.PaidAmount.InexactFloat64(),
			Status:            string(inst.Status),
		}
		if inst.PaymentID != nil {
			s := inst.PaymentID.String()
			installments[i].PaymentID = &s
		}
	}
	return EmiPlanResponse{
		ID:                   p.ID.String(),
		TenantID:             p.TenantID.String(),
		BranchID:             p.BranchID.String(),
		InvoiceID:            p.InvoiceID.String(),
		CustomerID:           p.CustomerID.String(),
		TotalAmount:          p.TotalAmount.InexactFloat64(),
		DownPayment:          p.DownPayment.InexactFloat64(),
		NumberOfInstallments: p.NumberOfInstallments,
		InterestRate:         p.InterestRate.InexactFloat64(),
		Installments:         installments,
		Status:               string(p.Status),
		CompletedAt:          p.CompletedAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.Version,
	}
}
