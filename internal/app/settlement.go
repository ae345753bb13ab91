/**
 * @description
 * Settlement and rollover resolution for term deposit accounts. Settling
 * first corrects the balance to what the customer is entitled to, then
 * applies the chosen disposition: pay everything out and close, renew with
 * the full amount, renew with the original principal and pay out the rest,
 * or move everything into a beneficiary account and close.
 *
 * Entitlement rules:
 * - At or after maturity the balance stands as accrued: any interest still
 *   owed (the final REGULAR coupon, the END_OF_TERM payment) is credited
 *   through the interest engine first, then the balance settles as-is.
 * - Before maturity the contract rate is forfeited. The customer is entitled
 *   to principal plus interest at the configured base (no-term) rate over the
 *   elapsed whole months, so interest already credited above that (PREPAID,
 *   REGULAR) is clawed back as a negative adjustment.
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

// SettlementResult reports what a settlement produced: the ledger entry for
// payouts and transfers, or the refreshed account for renewals.
type SettlementResult struct {
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	Account     *domain.Account     `json:"account,omitempty"`
}

// Settle resolves a deposit account with the requested disposition. The
// request may override the rollover chosen at opening.
func (s *Service) Settle(ctx context.Context, accountID int64, req domain.SettleAccountRequest) (*SettlementResult, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !req.Rollover.IsValid() {
		return nil, badRequest("unknown rollover disposition")
	}
	beneficiaryID := req.BeneficiaryAccountID
	if beneficiaryID == nil {
		beneficiaryID = account.TransferAccountID
	}
	return s.settleWithDisposition(ctx, account, req.Rollover, beneficiaryID)
}

func (s *Service) settleWithDisposition(ctx context.Context, account *domain.Account, disposition domain.RolloverChoice, beneficiaryID *int64) (*SettlementResult, error) {
	if !account.IsDeposit() {
		return nil, badRequest("only term deposit accounts can be settled")
	}
	if account.Status != domain.AccountStatusActivated && account.Status != domain.AccountStatusMaturity {
		return nil, forbidden("account is not active")
	}
	if account.ActivatedDate == nil || account.InterestRateID == nil {
		return nil, fmt.Errorf("account %d is active but missing contract fields", account.ID)
	}

	now := s.now()
	// Credit any interest still owed (the REGULAR coupon on a maturity-day
	// anniversary, or the END_OF_TERM payment) before measuring the balance.
	if _, paid, err := s.payInterestIfDue(ctx, account, now); err != nil {
		return nil, err
	} else if paid {
		account, err = s.findAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}
	}

	rateAndTerm, err := s.repo.FindRateAndTerm(ctx, *account.InterestRateID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rate and term: %w", err)
	}
	adjustment, err := s.settlementAdjustment(account, now)
	if err != nil {
		return nil, err
	}

	switch disposition {
	case domain.RolloverFullSettlement:
		entry, err := s.repo.CloseWithPayout(ctx, account.ID, adjustment, now)
		if err != nil {
			return nil, fmt.Errorf("failed to close account: %w", err)
		}
		s.notifySettled(ctx, account, "fully settled and closed")
		return &SettlementResult{Transaction: entry}, nil

	case domain.RolloverRenewalFull, domain.RolloverRenewalPrincipal:
		newPrincipal := account.Balance + adjustment
		if disposition == domain.RolloverRenewalPrincipal {
			newPrincipal = account.Principal
		}
		renewed, err := s.repo.RenewAccount(ctx, account.ID, store.RenewAccountParams{
			Adjustment:   adjustment,
			NewPrincipal: newPrincipal,
			StartedAt:    now,
			MaturityDate: interest.MaturityDate(now, rateAndTerm.TermMonths),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to renew account: %w", err)
		}
		s.notifySettled(ctx, account, "renewed for a new term")
		return &SettlementResult{Account: renewed}, nil

	case domain.RolloverTransferToAccount:
		if beneficiaryID == nil {
			return nil, badRequest("transfer-to-account settlement requires a beneficiary account")
		}
		if *beneficiaryID == account.ID {
			return nil, badRequest("beneficiary cannot be the settled account itself")
		}
		beneficiary, err := s.findAccount(ctx, *beneficiaryID)
		if err != nil {
			return nil, err
		}
		if beneficiary.Status != domain.AccountStatusActivated {
			return nil, forbidden("beneficiary account is not active")
		}
		entry, err := s.repo.SettleToBeneficiary(ctx, account.ID, beneficiary.ID, adjustment, now)
		if err != nil {
			return nil, fmt.Errorf("failed to settle to beneficiary: %w", err)
		}
		s.notifySettled(ctx, account, fmt.Sprintf("settled into account %s", beneficiary.Number))
		return &SettlementResult{Transaction: entry}, nil

	default:
		return nil, badRequest("unknown rollover disposition")
	}
}

// settlementAdjustment computes the correction that brings the balance to the
// entitled amount. Zero at maturity, where every contract's interest has
// already been credited to the balance; before maturity, principal plus
// base-rate interest minus the current balance.
func (s *Service) settlementAdjustment(account *domain.Account, now time.Time) (int64, error) {
	matured := account.MaturityDate != nil && !dateOnly(now).Before(dateOnly(*account.MaturityDate))
	if matured {
		return 0, nil
	}

	elapsed := interest.ElapsedMonths(*account.ActivatedDate, now)
	entitled, err := interest.EndOfTerm(account.Principal, s.baseRatePercent, elapsed)
	if err != nil {
		return 0, fmt.Errorf("failed to compute early-settlement interest: %w", err)
	}
	return account.Principal + entitled - account.Balance, nil
}

// UpdateMaturity settles every deposit account whose maturity date has
// arrived, using the disposition the customer chose at opening. Per-account
// failures are logged and never abort the batch. Returns the number of
// accounts settled.
func (s *Service) UpdateMaturity(ctx context.Context, today time.Time) (int, error) {
	accounts, err := s.repo.ListActiveDepositAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list deposit accounts: %w", err)
	}
	settled := 0
	for i := range accounts {
		account := &accounts[i]
		if account.MaturityDate == nil || dateOnly(today).Before(dateOnly(*account.MaturityDate)) {
			continue
		}
		disposition := domain.RolloverFullSettlement
		if account.RolloverID != nil {
			disposition = *account.RolloverID
		}
		if _, err := s.settleWithDisposition(ctx, account, disposition, account.TransferAccountID); err != nil {
			log.Printf("level=error component=service msg=\"maturity settlement failed\" account_id=%d rollover=%d err=%v", account.ID, disposition, err)
			continue
		}
		settled++
	}
	return settled, nil
}

func (s *Service) notifySettled(ctx context.Context, account *domain.Account, outcome string) {
	customer, err := s.repo.FindCustomerByID(ctx, account.CustomerID)
	if err != nil {
		if !errors.Is(err, store.ErrCustomerNotFound) {
			log.Printf("level=warn component=service msg=\"failed to find owner for settlement notice\" account_id=%d err=%v", account.ID, err)
		}
		return
	}
	s.sendEmail(ctx, customer.Email, "Deposit account settled",
		fmt.Sprintf("Your deposit account %s was %s.", account.Number, outcome))
}
