package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minhnhat165/banking-be/internal/domain"
	"github.com/minhnhat165/banking-be/internal/store"
)

func TestDeposit(t *testing.T) {
	env := newTestEnv(t)
	account := openChecking(t, env, "alice@example.com")

	entry, err := env.service.Deposit(context.Background(), account.ID, domain.DepositRequest{Amount: 75_000})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if entry.Details[0].PostBalance != 75_000 {
		t.Fatalf("expected post balance 75000, got %d", entry.Details[0].PostBalance)
	}

	if _, err := env.service.Deposit(context.Background(), account.ID, domain.DepositRequest{Amount: 0}); KindOf(err) != KindBadRequest {
		t.Fatalf("expected bad request for zero amount, got %v", err)
	}
	if _, err := env.service.Deposit(context.Background(), 9999, domain.DepositRequest{Amount: 100}); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeposit_TermDepositTopUp(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	env.setClock(start)
	rateID := env.repo.addRate(6, 12)
	account := activateDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	entry, err := env.service.Deposit(context.Background(), account.ID, domain.DepositRequest{Amount: 250_000})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if entry.Details[0].PostBalance != 1_250_000 {
		t.Fatalf("expected post balance 1250000, got %d", entry.Details[0].PostBalance)
	}

	// The next REGULAR coupon accrues on the topped-up balance:
	// 1,250,000 * 6 / 1200 = 6,250.
	env.setClock(start.AddDate(0, 1, 0))
	coupon, err := env.service.PayAccountInterest(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("PayAccountInterest: %v", err)
	}
	if coupon.Amount != 6_250 {
		t.Fatalf("expected 6250 interest on the new balance, got %d", coupon.Amount)
	}
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	alice := openChecking(t, env, "alice@example.com")
	bob := openChecking(t, env, "bob@example.com")
	if _, err := env.service.Deposit(context.Background(), alice.ID, domain.DepositRequest{Amount: 200_000}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	entry, err := env.service.Transfer(context.Background(), domain.TransferRequest{
		FromAccountID: alice.ID, ToAccountID: bob.ID, Amount: 50_000,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if len(entry.Details) != 2 {
		t.Fatalf("expected two detail rows, got %d", len(entry.Details))
	}

	aliceAfter, _ := env.service.GetAccount(context.Background(), alice.ID)
	bobAfter, _ := env.service.GetAccount(context.Background(), bob.ID)
	if aliceAfter.Balance != 150_000 || bobAfter.Balance != 50_000 {
		t.Fatalf("expected 150000/50000, got %d/%d", aliceAfter.Balance, bobAfter.Balance)
	}
}

func TestTransfer_Rejections(t *testing.T) {
	env := newTestEnv(t)
	alice := openChecking(t, env, "alice@example.com")
	bob := openChecking(t, env, "bob@example.com")

	tests := []struct {
		name     string
		req      domain.TransferRequest
		wantKind Kind
	}{
		{"zero amount", domain.TransferRequest{FromAccountID: alice.ID, ToAccountID: bob.ID, Amount: 0}, KindBadRequest},
		{"same account", domain.TransferRequest{FromAccountID: alice.ID, ToAccountID: alice.ID, Amount: 100}, KindBadRequest},
		{"unknown destination", domain.TransferRequest{FromAccountID: alice.ID, ToAccountID: 9999, Amount: 100}, KindNotFound},
		{"insufficient funds", domain.TransferRequest{FromAccountID: alice.ID, ToAccountID: bob.ID, Amount: 1}, KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Transfer(context.Background(), tt.req)
			if KindOf(err) != tt.wantKind {
				t.Fatalf("expected %s, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestTransfer_BetweenTermDeposits(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	first := activateDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)
	second := activateDeposit(t, env, 500_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	entry, err := env.service.Transfer(context.Background(), domain.TransferRequest{
		FromAccountID: first.ID, ToAccountID: second.ID, Amount: 200_000,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if len(entry.Details) != 2 {
		t.Fatalf("expected two detail rows, got %d", len(entry.Details))
	}

	firstAfter, _ := env.service.GetAccount(context.Background(), first.ID)
	secondAfter, _ := env.service.GetAccount(context.Background(), second.ID)
	if firstAfter.Balance != 800_000 || secondAfter.Balance != 700_000 {
		t.Fatalf("expected 800000/700000, got %d/%d", firstAfter.Balance, secondAfter.Balance)
	}
}

func TestTransfer_InsufficientFundsKeepsCause(t *testing.T) {
	env := newTestEnv(t)
	alice := openChecking(t, env, "alice@example.com")
	bob := openChecking(t, env, "bob@example.com")

	_, err := env.service.Transfer(context.Background(), domain.TransferRequest{
		FromAccountID: alice.ID, ToAccountID: bob.ID, Amount: 1,
	})
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected the store sentinel in the chain, got %v", err)
	}
}

func TestPayAccountInterest_RegularAnniversary(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	env.setClock(start)
	rateID := env.repo.addRate(6, 12)
	account, pin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)
	activated, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "111222",
	})
	if err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}

	// Not an anniversary yet.
	env.setClock(start.AddDate(0, 0, 20))
	if _, err := env.service.PayAccountInterest(context.Background(), activated.ID); KindOf(err) != KindConflict {
		t.Fatalf("expected nothing due mid-month, got %v", err)
	}

	// First anniversary: 1,000,000 * 6 / 1200 = 5,000.
	env.setClock(start.AddDate(0, 1, 0))
	entry, err := env.service.PayAccountInterest(context.Background(), activated.ID)
	if err != nil {
		t.Fatalf("PayAccountInterest: %v", err)
	}
	if entry.Amount != 5_000 {
		t.Fatalf("expected 5000 interest, got %d", entry.Amount)
	}

	// Same day again: the claim absorbs the duplicate.
	if _, err := env.service.PayAccountInterest(context.Background(), activated.ID); KindOf(err) != KindConflict {
		t.Fatalf("expected duplicate payment to be refused, got %v", err)
	}
}

func TestPayAccountInterest_EndOfTermAtMaturity(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	env.setClock(start)
	rateID := env.repo.addRate(6, 12)
	account := activateDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodEndOfTerm, domain.RolloverFullSettlement, nil)

	// Nothing is due before the maturity date.
	env.setClock(start.AddDate(0, 6, 0))
	if _, err := env.service.PayAccountInterest(context.Background(), account.ID); KindOf(err) != KindConflict {
		t.Fatalf("expected nothing due mid-term, got %v", err)
	}

	// Maturity: the full-term interest 1,000,000*6*12/1200 = 60,000, once.
	env.setClock(start.AddDate(0, 12, 0))
	entry, err := env.service.PayAccountInterest(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("PayAccountInterest: %v", err)
	}
	if entry.Type != domain.TransactionTypeInterest {
		t.Fatalf("expected an interest entry, got %q", entry.Type)
	}
	if entry.Amount != 60_000 {
		t.Fatalf("expected 60000 interest, got %d", entry.Amount)
	}
	if _, err := env.service.PayAccountInterest(context.Background(), account.ID); KindOf(err) != KindConflict {
		t.Fatalf("expected duplicate payment to be refused, got %v", err)
	}

	after, _ := env.service.GetAccount(context.Background(), account.ID)
	if after.Balance != 1_060_000 {
		t.Fatalf("expected balance 1060000, got %d", after.Balance)
	}
}
