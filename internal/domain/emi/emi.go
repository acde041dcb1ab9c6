package emi

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus is the settlement state of a single installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPartial InstallmentStatus = "PARTIAL"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentPending, InstallmentPartial, InstallmentPaid, InstallmentOverdue:
		return true
	}
	return false
}

// AcceptsPayment reports whether money can still be applied to an installment
// in this status.
func (s InstallmentStatus) AcceptsPayment() bool {
	return s != InstallmentPaid
}

// PlanStatus is the lifecycle state of the whole plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "ACTIVE"
	PlanCompleted PlanStatus = "COMPLETED"
)

// Installment is a value object inside the Plan aggregate, stored as JSONB.
// The list is rewritten with the plan row on every mutation.
type Installment struct {
	InstallmentNumber int               `json:"installment_number"`
	DueDate           time.Time         `json:"due_date"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	Status            InstallmentStatus `json:"payment_status"`
	PaymentID         *uuid.UUID        `json:"payment_id,omitempty"`
}

// Remaining returns the unpaid portion of the installment.
func (i *Installment) Remaining() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// IsPaid returns true if the installment is fully settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentPaid
}

// apply books amount against the installment and derives the status.
func (i *Installment) apply(amount decimal.Decimal, paymentID *uuid.UUID) {
	i.PaidAmount = i.PaidAmount.Add(amount).Round(2)
	if i.PaidAmount.GreaterThanOrEqual(i.TotalAmount) {
		i.Status = InstallmentPaid
	} else if i.PaidAmount.IsPositive() {
		i.Status = InstallmentPartial
	}
	if paymentID != nil {
		i.PaymentID = paymentID
	}
}

// Installments implements GORM Scanner/Valuer so the list persists as JSONB.
type Installments []Installment

// Value implements driver.Valuer
func (ins Installments) Value() (driver.Value, error) {
	if ins == nil {
		return "[]", nil
	}
	return json.Marshal(ins)
}

// Scan implements sql.Scanner
func (ins *Installments) Scan(value interface{}) error {
	if value == nil {
		*ins = Installments{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Installments: unsupported type")
	}
	if len(bytes) == 0 {
		*ins = Installments{}
		return nil
	}
	return json.Unmarshal(bytes, ins)
}

// Plan is the EMI aggregate root: the financed remainder of an invoice split
// into monthly installments. One plan per invoice.
type Plan struct {
	shared.TenantAggregateRoot
	BranchID             uuid.UUID       `json:"branch_id"`
	InvoiceID            uuid.UUID       `json:"invoice_id"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InterestRate         decimal.Decimal `json:"interest_rate"` // annual, percent
	Installments         Installments    `json:"installments"`
	Status               PlanStatus      `json:"status"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
}

// MonthlyInstallment computes the level payment for a financed balance over n
// months. Zero rate splits the balance evenly; otherwise the standard annuity
// formula B*r*(1+r)^n / ((1+r)^n - 1) with r the monthly rate. Result is
// rounded to 2 decimals.
func MonthlyInstallment(balance decimal.Decimal, n int, annualRatePct decimal.Decimal) decimal.Decimal {
	if annualRatePct.IsZero() {
		return balance.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	r := annualRatePct.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))
	pow := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(int64(n)))
	return balance.Mul(r).Mul(pow).Div(pow.Sub(decimal.NewFromInt(1))).Round(2)
}

// NewPlan validates the terms and generates the installment schedule with
// sequential monthly due dates from startDate.
func NewPlan(
	tenantID, branchID, invoiceID, customerID uuid.UUID,
	grandTotal, downPayment decimal.Decimal,
	numberOfInstallments int,
	annualRatePct decimal.Decimal,
	startDate time.Time,
) (*Plan, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice ID cannot be empty")
	}
	if numberOfInstallments <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Number of installments must be positive")
	}
	if downPayment.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Down payment cannot be negative")
	}
	if annualRatePct.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Interest rate cannot be negative")
	}
	balance := grandTotal.Sub(downPayment)
	if balance.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Down payment must leave a positive balance to finance")
	}

	per := MonthlyInstallment(balance, numberOfInstallments, annualRatePct)
	installments := make(Installments, numberOfInstallments)
	for i := 0; i < numberOfInstallments; i++ {
		installments[i] = Installment{
			InstallmentNumber: i + 1,
			DueDate:           startDate.AddDate(0, i+1, 0),
			TotalAmount:       per,
			PaidAmount:        decimal.Zero,
			Status:            InstallmentPending,
		}
	}

	p := &Plan{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		BranchID:             branchID,
		InvoiceID:            invoiceID,
		CustomerID:           customerID,
		TotalAmount:          grandTotal.Round(2),
		DownPayment:          downPayment.Round(2),
		NumberOfInstallments: numberOfInstallments,
		InterestRate:         annualRatePct,
		Installments:         installments,
		Status:               PlanActive,
	}
	p.AddDomainEvent(NewPlanCreatedEvent(p))
	return p, nil
}

// FindInstallment returns the installment with the given number.
func (p *Plan) FindInstallment(number int) (*Installment, error) {
	for i := range p.Installments {
		if p.Installments[i].InstallmentNumber == number {
			return &p.Installments[i], nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Installment %d not found", number))
}

// PayInstallment books amount against one installment. The paid amount of an
// installment never exceeds its total: overpayment is rejected rather than
// spilled over.
func (p *Plan) PayInstallment(number int, amount decimal.Decimal, paymentID uuid.UUID) error {
	if p.Status != PlanActive {
		return shared.NewDomainError("INVALID_STATE", "Plan is not active")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INPUT", "Installment payment amount must be positive")
	}
	inst, err := p.FindInstallment(number)
	if err != nil {
		return err
	}
	if !inst.Status.AcceptsPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Installment %d is already paid", number))
	}
	if amount.GreaterThan(inst.Remaining()) {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Amount %s exceeds remaining %s on installment %d",
				amount.StringFixed(2), inst.Remaining().StringFixed(2), number))
	}

	inst.apply(amount, &paymentID)
	p.AddDomainEvent(NewInstallmentPaidEvent(p, inst))
	p.refreshCompletion()
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// AllocatePayment distributes amount across unpaid installments oldest-first,
// partially filling one before moving to the next, until the amount is
// exhausted. Pure bookkeeping: it must never trigger ledger postings, the
// caller has already posted the payment. Returns the unallocated remainder.
func (p *Plan) AllocatePayment(amount decimal.Decimal, paymentID *uuid.UUID) decimal.Decimal {
	remaining := amount
	for i := range p.Installments {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		inst := &p.Installments[i]
		if !inst.Status.AcceptsPayment() {
			continue
		}
		due := inst.Remaining()
		portion := decimal.Min(due, remaining)
		if portion.LessThanOrEqual(decimal.Zero) {
			continue
		}
		inst.apply(portion, paymentID)
		remaining = remaining.Sub(portion)
	}
	p.refreshCompletion()
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return remaining
}

// MarkOverdue flags due, unsettled installments. Idempotent: rerunning over
// the same clock instant changes nothing further. Returns how many
// installments changed state.
func (p *Plan) MarkOverdue(now time.Time) int {
	if p.Status != PlanActive {
		return 0
	}
	changed := 0
	for i := range p.Installments {
		inst := &p.Installments[i]
		if inst.DueDate.Before(now) &&
			(inst.Status == InstallmentPending || inst.Status == InstallmentPartial) {
			inst.Status = InstallmentOverdue
			changed++
		}
	}
	if changed > 0 {
		p.UpdatedAt = now
		p.IncrementVersion()
	}
	return changed
}

// refreshCompletion completes the plan once every installment is paid.
func (p *Plan) refreshCompletion() {
	for i := range p.Installments {
		if !p.Installments[i].IsPaid() {
			return
		}
	}
	if p.Status != PlanCompleted {
		now := time.Now()
		p.Status = PlanCompleted
		p.CompletedAt = &now
		p.AddDomainEvent(NewPlanCompletedEvent(p))
	}
}

// FinancedBalance returns the amount the schedule covers.
func (p *Plan) FinancedBalance() decimal.Decimal {
	return p.TotalAmount.Sub(p.DownPayment)
}

// ScheduleTotal returns the sum of all installment totals.
func (p *Plan) ScheduleTotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range p.Installments {
		sum = sum.Add(p.Installments[i].TotalAmount)
	}
	return sum
}
