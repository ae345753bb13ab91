package app

import (
	"context"
	"testing"
	"time"

	"github.com/minhnhat165/banking-be/internal/domain"
)

// openDeposit opens a deposit account through the service and returns it with
// the pin that was emailed to the owner.
func openDeposit(t *testing.T, env *testEnv, principal int64, rateID int64, method domain.PaymentMethod, rollover domain.RolloverChoice, beneficiary *int64) (*domain.Account, string) {
	t.Helper()
	customer := env.repo.addCustomer("owner@example.com")
	account, err := env.service.OpenAccount(context.Background(), domain.OpenAccountRequest{
		CustomerID:        customer.ID,
		Type:              domain.AccountTypeDeposit,
		Principal:         principal,
		InterestRateID:    int64Ptr(rateID),
		PaymentMethodID:   methodPtr(method),
		RolloverID:        rolloverPtr(rollover),
		TransferAccountID: beneficiary,
	})
	if err != nil {
		t.Fatalf("OpenAccount: %v", err)
	}
	return account, env.lastEmailPin(t, pinLength)
}

// openChecking opens and activates a checking account, returning it ready to
// move money.
func openChecking(t *testing.T, env *testEnv, email string) *domain.Account {
	t.Helper()
	customer := env.repo.addCustomer(email)
	account, err := env.service.OpenAccount(context.Background(), domain.OpenAccountRequest{
		CustomerID: customer.ID,
		Type:       domain.AccountTypeChecking,
	})
	if err != nil {
		t.Fatalf("OpenAccount: %v", err)
	}
	pin := env.lastEmailPin(t, pinLength)
	activated, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "204060",
	})
	if err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}
	return activated
}

func TestActivateAccount_PrepaidCreditsFullTermInterest(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env.setClock(start)
	rateID := env.repo.addRate(6, 12)
	account, pin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodPrepaid, domain.RolloverFullSettlement, nil)

	activated, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "111222",
	})
	if err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}
	if activated.Status != domain.AccountStatusActivated {
		t.Fatalf("expected ACTIVATED, got %d", activated.Status)
	}
	// Principal plus prepaid interest 1,000,000*6*12/1200 = 60,000.
	if activated.Balance != 1_060_000 {
		t.Fatalf("expected balance 1060000, got %d", activated.Balance)
	}
	if activated.MaturityDate == nil || !activated.MaturityDate.Equal(start.AddDate(0, 12, 0)) {
		t.Fatalf("expected maturity twelve months out, got %v", activated.MaturityDate)
	}

	history, err := env.service.ListTransactions(context.Background(), activated.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected principal and interest entries, got %d", len(history))
	}
}

func TestActivateAccount_RegularDoesNotPrepay(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	account, pin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	activated, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "111222",
	})
	if err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}
	if activated.Balance != 1_000_000 {
		t.Fatalf("expected only the principal, got %d", activated.Balance)
	}
}

func TestActivateAccount_Rejections(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	account, pin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	tests := []struct {
		name     string
		req      domain.ActivateAccountRequest
		wantKind Kind
	}{
		{"unknown number", domain.ActivateAccountRequest{Number: "0000000000000000", PIN: pin, NewPIN: "111222"}, KindNotFound},
		{"wrong pin", domain.ActivateAccountRequest{Number: account.Number, PIN: "000000", NewPIN: "111222"}, KindUnauthorized},
		{"short new pin", domain.ActivateAccountRequest{Number: account.Number, PIN: pin, NewPIN: "12"}, KindBadRequest},
		{"non-digit new pin", domain.ActivateAccountRequest{Number: account.Number, PIN: pin, NewPIN: "12a456"}, KindBadRequest},
		{"new pin equals issued pin", domain.ActivateAccountRequest{Number: account.Number, PIN: pin, NewPIN: pin}, KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.ActivateAccount(context.Background(), tt.req)
			if KindOf(err) != tt.wantKind {
				t.Fatalf("expected %s, got %v", tt.wantKind, err)
			}
		})
	}

	// A successful activation, then a second attempt conflicts.
	if _, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "111222",
	}); err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}
	_, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: "111222", NewPIN: "333444",
	})
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict on second activation, got %v", err)
	}
}

func TestChangePIN(t *testing.T) {
	env := newTestEnv(t)
	account := openChecking(t, env, "owner@example.com")

	if err := env.service.ChangePIN(context.Background(), account.ID, "204060", "909090"); err != nil {
		t.Fatalf("ChangePIN: %v", err)
	}
	if err := env.service.ChangePIN(context.Background(), account.ID, "204060", "121212"); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected old pin to stop working, got %v", err)
	}
	if err := env.service.ChangePIN(context.Background(), account.ID, "909090", "909090"); KindOf(err) != KindBadRequest {
		t.Fatalf("expected same-pin rejection, got %v", err)
	}
}

func TestResetPIN_EmailsFreshPin(t *testing.T) {
	env := newTestEnv(t)
	account := openChecking(t, env, "owner@example.com")

	if err := env.service.ResetPIN(context.Background(), account.ID); err != nil {
		t.Fatalf("ResetPIN: %v", err)
	}
	fresh := env.lastEmailPin(t, pinLength)
	if err := env.service.ChangePIN(context.Background(), account.ID, fresh, "515151"); err != nil {
		t.Fatalf("fresh pin should verify: %v", err)
	}
}

func TestChangeAndResetPIN_RequireActivation(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	account, pin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	if err := env.service.ChangePIN(context.Background(), account.ID, pin, "909090"); KindOf(err) != KindBadRequest {
		t.Fatalf("expected pin change on inactivated account to be rejected, got %v", err)
	}
	if err := env.service.ResetPIN(context.Background(), account.ID); KindOf(err) != KindBadRequest {
		t.Fatalf("expected pin reset on inactivated account to be rejected, got %v", err)
	}
	if len(env.producer.emails) != 1 {
		t.Fatalf("a rejected reset must not email a pin, got %d emails", len(env.producer.emails))
	}

	// The issued activation pin survived both attempts.
	if _, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "111222",
	}); err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}
}

func TestUpdateAccount_OwnerChangeReissuesPin(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	account, oldPin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)
	successor := env.repo.addCustomer("successor@example.com")

	updated, err := env.service.UpdateAccount(context.Background(), account.ID, domain.AccountPatch{
		CustomerID: int64Ptr(successor.ID),
	})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.CustomerID != successor.ID {
		t.Fatalf("expected the account handed to customer %d, got %d", successor.ID, updated.CustomerID)
	}

	last := env.producer.emails[len(env.producer.emails)-1]
	if last.Recipient != "successor@example.com" {
		t.Fatalf("expected the activation email to go to the new owner, got %q", last.Recipient)
	}
	fresh := env.lastEmailPin(t, pinLength)

	// The pin issued to the previous owner no longer opens the account.
	if _, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: oldPin, NewPIN: "111222",
	}); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected the old pin to be dead, got %v", err)
	}
	if _, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: fresh, NewPIN: "111222",
	}); err != nil {
		t.Fatalf("the reissued pin should activate: %v", err)
	}
}

func TestUpdateAccount_UnknownCustomerRejected(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	account, _ := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	if _, err := env.service.UpdateAccount(context.Background(), account.ID, domain.AccountPatch{
		CustomerID: int64Ptr(9999),
	}); KindOf(err) != KindBadRequest {
		t.Fatalf("expected bad request for unknown customer, got %v", err)
	}
}

func TestUpdateAndDelete_OnlyWhileInactive(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)
	account, pin := openDeposit(t, env, 1_000_000, rateID, domain.PaymentMethodRegular, domain.RolloverFullSettlement, nil)

	updated, err := env.service.UpdateAccount(context.Background(), account.ID, domain.AccountPatch{Principal: int64Ptr(2_000_000)})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.Principal != 2_000_000 {
		t.Fatalf("expected patched principal, got %d", updated.Principal)
	}

	if _, err := env.service.ActivateAccount(context.Background(), domain.ActivateAccountRequest{
		Number: account.Number, PIN: pin, NewPIN: "111222",
	}); err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}

	if _, err := env.service.UpdateAccount(context.Background(), account.ID, domain.AccountPatch{Principal: int64Ptr(3_000_000)}); KindOf(err) != KindForbidden {
		t.Fatalf("expected forbidden update after activation, got %v", err)
	}
	if err := env.service.DeleteAccount(context.Background(), account.ID); KindOf(err) != KindForbidden {
		t.Fatalf("expected forbidden delete after activation, got %v", err)
	}
	if err := env.service.DeleteAccount(context.Background(), 9999); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for unknown account, got %v", err)
	}
}
