package billing

import (
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is the supplier-side counterpart of Invoice. Same ownership rules:
// only the denormalized payment figures are mutated here.
type Purchase struct {
	shared.TenantAggregateRoot
	BranchID       uuid.UUID       `json:"branch_id"`
	PurchaseNumber string          `json:"purchase_number"`
	SupplierID     uuid.UUID       `json:"supplier_id"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
	PaymentState   PaymentState    `json:"payment_status"`
}

// NewPurchase creates an unpaid purchase
func NewPurchase(tenantID, branchID, supplierID uuid.UUID, number string, date time.Time, grandTotal decimal.Decimal) (*Purchase, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purchase number cannot be empty")
	}
	if grandTotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purchase total must be positive")
	}
	return &Purchase{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BranchID:            branchID,
		PurchaseNumber:      number,
		SupplierID:          supplierID,
		PurchaseDate:        date,
		GrandTotal:          grandTotal.Round(2),
		PaidAmount:          decimal.Zero,
		BalanceAmount:       grandTotal.Round(2),
		PaymentState:        PaymentStateUnpaid,
	}, nil
}

// ApplySignedPayment mirrors Invoice.ApplySignedPayment for the payable side.
func (p *Purchase) ApplySignedPayment(delta decimal.Decimal) {
	p.PaidAmount = p.PaidAmount.Add(delta).Round(2)
	p.BalanceAmount = p.GrandTotal.Sub(p.PaidAmount).Round(2)
	p.PaymentState = DeriveState(p.PaidAmount, p.BalanceAmount)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
