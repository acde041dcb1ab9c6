package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/finops/backend/internal/domain/ledger"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/domain/shared"
	"github.com/finops/backend/internal/domain/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostingDirection tells the engine whether to book or invert a payment's
// financial effect.
type PostingDirection string

const (
	PostingApply   PostingDirection = "apply"
	PostingReverse PostingDirection = "reverse"
)

// PostingService writes the double-entry effect of a payment and keeps every
// denormalized balance (invoice/purchase, customer/supplier, account) in step
// with the ledger. It must always run inside an already-open unit of work;
// the caller owns commit and rollback.
type PostingService struct {
	logger *zap.Logger
}

// NewPostingService creates a new PostingService
func NewPostingService(logger *zap.Logger) *PostingService {
	return &PostingService{logger: logger}
}

// PostPaymentEffects books (or inverts) the full effect of one payment:
// a balanced debit/credit entry pair, the account balances, the linked
// invoice/purchase figures and the counter-party outstanding balance.
// Reversal uses the same accounts with debit and credit swapped, so
// apply+reverse nets to zero per payment.
func (s *PostingService) PostPaymentEffects(
	ctx context.Context,
	repos uow.RepositorySet,
	p *payment.Payment,
	direction PostingDirection,
) error {
	signed := p.Amount
	if direction == PostingReverse {
		signed = signed.Neg()
	}

	settlement, err := s.ResolveAccount(ctx, repos, p.TenantID, settlementRole(p.Method))
	if err != nil {
		return err
	}

	var partyAccount *ledger.Account
	if p.Direction == payment.DirectionInflow {
		partyAccount, err = s.ResolveAccount(ctx, repos, p.TenantID, ledger.RoleReceivable)
	} else {
		partyAccount, err = s.ResolveAccount(ctx, repos, p.TenantID, ledger.RolePayable)
	}
	if err != nil {
		return err
	}

	pair, err := s.buildPair(p, direction, settlement, partyAccount)
	if err != nil {
		return err
	}
	if err := repos.Entries.Create(ctx, pair.Entries()); err != nil {
		return fmt.Errorf("failed to write ledger entries: %w", err)
	}

	for _, acc := range []*ledger.Account{settlement, partyAccount} {
		for i := range pair.Entries() {
			e := pair.Entries()[i]
			if e.AccountID == acc.ID {
				acc.ApplyEntry(&e)
			}
		}
		if err := repos.Accounts.SaveWithLock(ctx, acc); err != nil {
			return fmt.Errorf("failed to update account %s balance: %w", acc.Code, err)
		}
	}

	if err := s.applyDocumentEffects(ctx, repos, p, signed); err != nil {
		return err
	}
	return s.applyPartyEffects(ctx, repos, p, signed)
}

// ResolveAccount finds the tenant's account for a role: conventional code
// first, name fallback second. A missing account fails the whole posting
// (fail-closed) so balances can never silently drift.
func (s *PostingService) ResolveAccount(
	ctx context.Context,
	repos uow.RepositorySet,
	tenantID uuid.UUID,
	role ledger.AccountRole,
) (*ledger.Account, error) {
	acc, err := repos.Accounts.FindByCode(ctx, tenantID, role.DefaultCode())
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up %s account: %w", role, err)
	}

	acc, err = repos.Accounts.FindByName(ctx, tenantID, role.DefaultName())
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up %s account: %w", role, err)
	}

	s.logger.Error("required ledger account not provisioned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("role", role.String()),
		zap.String("code", role.DefaultCode()))
	return nil, shared.NewDomainError("ACCOUNT_NOT_PROVISIONED",
		fmt.Sprintf("No %s account (code %s) provisioned for organization", role, role.DefaultCode()))
}

// buildPair derives the debit/credit sides for the payment direction and
// posting direction and tags the counter-party onto the receivable or
// payable side line only.
func (s *PostingService) buildPair(
	p *payment.Payment,
	direction PostingDirection,
	settlement, partyAccount *ledger.Account,
) (*ledger.PostingPair, error) {
	var debitAcc, creditAcc *ledger.Account
	switch {
	case p.Direction == payment.DirectionInflow && direction == PostingApply:
		debitAcc, creditAcc = settlement, partyAccount
	case p.Direction == payment.DirectionInflow && direction == PostingReverse:
		debitAcc, creditAcc = partyAccount, settlement
	case p.Direction == payment.DirectionOutflow && direction == PostingApply:
		debitAcc, creditAcc = partyAccount, settlement
	default: // outflow reverse
		debitAcc, creditAcc = settlement, partyAccount
	}

	pair, err := ledger.NewPostingPair(
		p.TenantID, p.BranchID,
		debitAcc.ID, creditAcc.ID,
		p.Amount, p.PaymentDate, p.ID,
		postingDescription(p, direction),
	)
	if err != nil {
		return nil, err
	}

	partyLine := &pair.Debit
	if creditAcc.ID == partyAccount.ID {
		partyLine = &pair.Credit
	}
	if p.Direction == payment.DirectionInflow && p.CustomerID != nil {
		partyLine.WithCustomer(*p.CustomerID)
	}
	if p.Direction == payment.DirectionOutflow && p.SupplierID != nil {
		partyLine.WithSupplier(*p.SupplierID)
	}
	if by := p.GetCreatedBy(); by != nil {
		pair.Debit.WithCreatedBy(*by)
		pair.Credit.WithCreatedBy(*by)
	}
	return pair, nil
}

// applyDocumentEffects moves the linked invoice/purchase denormalized figures
// by the signed amount.
func (s *PostingService) applyDocumentEffects(
	ctx context.Context,
	repos uow.RepositorySet,
	p *payment.Payment,
	signed decimal.Decimal,
) error {
	if p.InvoiceID != nil {
		invoice, err := repos.Invoices.FindByIDForTenant(ctx, p.TenantID, *p.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice for posting: %w", err)
		}
		invoice.ApplySignedPayment(signed)
		if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice balance: %w", err)
		}
	}
	if p.PurchaseID != nil {
		purchase, err := repos.Purchases.FindByIDForTenant(ctx, p.TenantID, *p.PurchaseID)
		if err != nil {
			return fmt.Errorf("failed to load purchase for posting: %w", err)
		}
		purchase.ApplySignedPayment(signed)
		if err := repos.Purchases.SaveWithLock(ctx, purchase); err != nil {
			return fmt.Errorf("failed to update purchase balance: %w", err)
		}
	}
	return nil
}

// applyPartyEffects adjusts the counter-party outstanding balance inversely
// to the signed amount.
func (s *PostingService) applyPartyEffects(
	ctx context.Context,
	repos uow.RepositorySet,
	p *payment.Payment,
	signed decimal.Decimal,
) error {
	if p.CustomerID != nil {
		customer, err := repos.Customers.FindByIDForTenant(ctx, p.TenantID, *p.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to load customer for posting: %w", err)
		}
		customer.AdjustOutstanding(signed)
		if err := repos.Customers.SaveWithLock(ctx, customer); err != nil {
			return fmt.Errorf("failed to update customer outstanding balance: %w", err)
		}
	}
	if p.SupplierID != nil {
		supplier, err := repos.Suppliers.FindByIDForTenant(ctx, p.TenantID, *p.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to load supplier for posting: %w", err)
		}
		// Outflow pays down what we owe, so the supplier side moves the same way.
		supplier.AdjustOutstanding(signed)
		if err := repos.Suppliers.SaveWithLock(ctx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier outstanding balance: %w", err)
		}
	}
	return nil
}

func settlementRole(m payment.Method) ledger.AccountRole {
	if m.UsesCashAccount() {
		return ledger.RoleCash
	}
	return ledger.RoleBank
}

func postingDescription(p *payment.Payment, direction PostingDirection) string {
	verb := "received"
	if p.Direction == payment.DirectionOutflow {
		verb = "made"
	}
	if direction == PostingReverse {
		return fmt.Sprintf("Reversal of payment %s (%s)", p.ID, verb)
	}
	if p.Remarks != "" {
		return fmt.Sprintf("Payment %s: %s", verb, p.Remarks)
	}
	return fmt.Sprintf("Payment %s via %s", verb, p.Method)
}
