/**
 * @description
 * Money-movement operations: customer deposits, transfers between checking
 * accounts, and the monthly interest payment for deposit accounts. Balance
 * arithmetic happens in the store's atomic methods; this layer enforces the
 * eligibility rules.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/minhnhat165/banking-be/internal/domain"
	"github.com/minhnhat165/banking-be/internal/interest"
	"github.com/minhnhat165/banking-be/internal/store"
)

// Deposit credits an activated account. Term deposits accept top-ups after
// activation; a REGULAR contract then accrues on the higher balance.
func (s *Service) Deposit(ctx context.Context, accountID int64, req domain.DepositRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, badRequest("deposit amount must be positive")
	}
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != domain.AccountStatusActivated {
		return nil, forbidden("account is not active")
	}
	entry, err := s.repo.CreditAccount(ctx, accountID, req.Amount, domain.TransactionTypeDeposit, "Customer deposit")
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}
	return entry, nil
}

// Transfer moves money between two activated accounts.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, badRequest("transfer amount must be positive")
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, badRequest("cannot transfer to the same account")
	}
	from, err := s.findAccount(ctx, req.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.findAccount(ctx, req.ToAccountID)
	if err != nil {
		return nil, err
	}
	if from.Status != domain.AccountStatusActivated || to.Status != domain.AccountStatusActivated {
		return nil, forbidden("both accounts must be active")
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Transfer from %s to %s", from.Number, to.Number)
	}
	entry, err := s.repo.TransferFunds(ctx, req.FromAccountID, req.ToAccountID, req.Amount, domain.TransactionTypeTransfer, description)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, wrap(KindBadRequest, "insufficient funds", err)
		}
		return nil, fmt.Errorf("failed to transfer: %w", err)
	}
	return entry, nil
}

// PayAccountInterest credits whatever interest is due today for one deposit
// account: the monthly coupon of a REGULAR contract on its anniversary, or
// the full-term interest of an END_OF_TERM contract once its maturity date
// has arrived. The (account, pay date) claim in the store makes repeated
// calls a no-op.
func (s *Service) PayAccountInterest(ctx context.Context, accountID int64) (*domain.Transaction, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	entry, paid, err := s.payInterestIfDue(ctx, account, s.now())
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, conflict("no interest payment is due for this account today")
	}
	return entry, nil
}

// payInterestIfDue applies the payment-method rule for one account on the
// given day. REGULAR deposits accrue monthly between activation and maturity;
// END_OF_TERM deposits receive the full-term interest on the maturity date;
// PREPAID was paid at activation.
func (s *Service) payInterestIfDue(ctx context.Context, account *domain.Account, today time.Time) (*domain.Transaction, bool, error) {
	if !account.IsDeposit() {
		return nil, false, nil
	}
	if account.Status != domain.AccountStatusActivated && account.Status != domain.AccountStatusMaturity {
		return nil, false, nil
	}
	if account.ActivatedDate == nil || account.PaymentMethodID == nil || account.InterestRateID == nil {
		return nil, false, nil
	}

	switch *account.PaymentMethodID {
	case domain.PaymentMethodRegular:
		if account.MaturityDate != nil && dateOnly(today).After(dateOnly(*account.MaturityDate)) {
			return nil, false, nil
		}
		if !interest.IsMonthlyAnniversary(*account.ActivatedDate, today) {
			return nil, false, nil
		}
		rateAndTerm, err := s.repo.FindRateAndTerm(ctx, *account.InterestRateID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve rate and term: %w", err)
		}
		amount, err := interest.Monthly(account.Balance, rateAndTerm.Percent)
		if err != nil {
			return nil, false, fmt.Errorf("failed to compute monthly interest: %w", err)
		}
		return s.claimInterest(ctx, account.ID, amount, dateOnly(today), "Monthly interest")

	case domain.PaymentMethodEndOfTerm:
		if account.MaturityDate == nil || dateOnly(today).Before(dateOnly(*account.MaturityDate)) {
			return nil, false, nil
		}
		rateAndTerm, err := s.repo.FindRateAndTerm(ctx, *account.InterestRateID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve rate and term: %w", err)
		}
		amount, err := interest.EndOfTerm(account.Principal, rateAndTerm.Percent, rateAndTerm.TermMonths)
		if err != nil {
			return nil, false, fmt.Errorf("failed to compute end-of-term interest: %w", err)
		}
		// Claim on the maturity date itself so a late sweep stays idempotent.
		return s.claimInterest(ctx, account.ID, amount, dateOnly(*account.MaturityDate), "End-of-term interest")

	default:
		return nil, false, nil
	}
}

// claimInterest records one interest payment under its (account, pay date)
// claim. An already-held claim reports not-paid rather than an error.
func (s *Service) claimInterest(ctx context.Context, accountID, amount int64, payDate time.Time, description string) (*domain.Transaction, bool, error) {
	if amount == 0 {
		return nil, false, nil
	}
	entry, err := s.repo.RecordInterestPayment(ctx, accountID, amount, payDate, description)
	if err != nil {
		if errors.Is(err, store.ErrInterestAlreadyPaid) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to record interest payment: %w", err)
	}
	return entry, true, nil
}

// PayDueInterest sweeps every active deposit account and credits whatever
// interest is due. Per-account failures are logged and never abort the batch.
// Returns the number of accounts paid.
func (s *Service) PayDueInterest(ctx context.Context, today time.Time) (int, error) {
	accounts, err := s.repo.ListActiveDepositAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list deposit accounts: %w", err)
	}
	paidCount := 0
	for i := range accounts {
		_, paid, err := s.payInterestIfDue(ctx, &accounts[i], today)
		if err != nil {
			log.Printf("level=error component=service msg=\"interest payment failed\" account_id=%d err=%v", accounts[i].ID, err)
			continue
		}
		if paid {
			paidCount++
		}
	}
	return paidCount, nil
}
