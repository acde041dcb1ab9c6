package dto

import (
	"time"

	"github.com/finops/backend/internal/domain/payment"
)

// CreatePaymentRequest is the payload for registering a payment
// @Description Create payment request
type CreatePaymentRequest struct {
	BranchID        string  `json:"branch_id" binding:"required,uuid"`
	Direction       string  `json:"direction" binding:"required,oneof=INFLOW OUTFLOW"`
	Amount          float64 `json:"amount" binding:"required,gt=0" example:"500.00"`
	CustomerID      *string `json:"customer_id,omitempty" binding:"omitempty,uuid"`
	SupplierID      *string `json:"supplier_id,omitempty" binding:"omitempty,uuid"`
	InvoiceID       *string `json:"invoice_id,omitempty" binding:"omitempty,uuid"`
	PurchaseID      *string `json:"purchase_id,omitempty" binding:"omitempty,uuid"`
	Method          string  `json:"payment_method" binding:"required,oneof=CASH BANK_TRANSFER CARD UPI CHEQUE"`
	PaymentDate     *string `json:"payment_date,omitempty" binding:"omitempty,date" example:"2026-08-01"`
	ReferenceNumber string  `json:"reference_number,omitempty" binding:"max=100"`
	TransactionID   string  `json:"transaction_id,omitempty" binding:"max=100"`
	Status          string  `json:"status,omitempty" binding:"omitempty,oneof=PENDING COMPLETED FAILED CANCELLED"`
	Remarks         string  `json:"remarks,omitempty" binding:"max=500"`
}

// UpdatePaymentStatusRequest is the payload for a status transition
// @Description Update payment status request
type UpdatePaymentStatusRequest struct {
	Status string   `json:"status" binding:"required,oneof=PENDING COMPLETED FAILED CANCELLED"`
	Amount *float64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
}

// PaymentResponse represents a payment in API responses
// @Description Payment response
type PaymentResponse struct {
	ID             string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID       string    `json:"tenant_id"`
	BranchID       string    `json:"branch_id"`
	Direction      string    `json:"direction" example:"INFLOW"`
	Amount         float64   `json:"amount" example:"500.00"`
	CustomerID     *string   `json:"customer_id,omitempty"`
	SupplierID     *string   `json:"supplier_id,omitempty"`
	InvoiceID      *string   `json:"invoice_id,omitempty"`
	PurchaseID     *string   `json:"purchase_id,omitempty"`
	Method         string    `json:"payment_method" example:"CASH"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Status         string    `json:"status" example:"COMPLETED"`
	PaymentDate    time.Time `json:"payment_date"`
	Remarks        string    `json:"remarks,omitempty"`
	Duplicate      bool      `json:"duplicate,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version" example:"1"`
}

// ToPaymentResponse maps a domain payment to its API shape
func ToPaymentResponse(p *payment.Payment, duplicate bool) PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID.String(),
		TenantID:       p.TenantID.String(),
		BranchID:       p.BranchID.String(),
		Direction:      string(p.Direction),
		Amount:         p.Amount.InexactFloat64(),
		Method:         string(p.Method),
		IdempotencyKey: p.IdempotencyKey,
		Status:         string(p.Status),
		PaymentDate:    p.PaymentDate,
		Remarks:        p.Remarks,
		Duplicate:      duplicate,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
	if p.CustomerID != nil {
		s := p.CustomerID.String()
		resp.CustomerID = &s
	}
	if p.SupplierID != nil {
		s := p.SupplierID.String()
		resp.SupplierID = &s
	}
	if p.InvoiceID != nil {
		s := p.InvoiceID.String()
		resp.InvoiceID = &s
	}
	if p.PurchaseID != nil {
		s := p.PurchaseID.String()
		resp.PurchaseID = &s
	}
	return resp
}
