package app

import (
	"context"
	"testing"

	"github.com/minhnhat165/banking-be/internal/domain"
)

func TestRegisterAndVerify_CreatesTheAccount(t *testing.T) {
	env := newTestEnv(t)
	rateID := env.repo.addRate(6, 12)

	registrationID, err := env.service.RegisterAccount(context.Background(), domain.OpenAccountRequest{
		Customer:        &domain.CreateCustomerPayload{FullName: "New Customer", Email: "new@example.com"},
		Type:            domain.AccountTypeDeposit,
		Principal:       1_000_000,
		InterestRateID:  int64Ptr(rateID),
		PaymentMethodID: methodPtr(domain.PaymentMethodRegular),
		RolloverID:      rolloverPtr(domain.RolloverFullSettlement),
	})
	if err != nil {
		t.Fatalf("RegisterAccount: %v", err)
	}
	if len(env.repo.accounts) != 0 {
		t.Fatal("nothing should touch the database before verification")
	}
	code := env.lastEmailPin(t, verificationCodeLength)

	account, err := env.service.VerifyRegistration(context.Background(), domain.VerifyRegistrationRequest{
		RegistrationID: registrationID,
		Code:           code,
	})
	if err != nil {
		t.Fatalf("VerifyRegistration: %v", err)
	}
	if account.Status != domain.AccountStatusInactivated {
		t.Fatalf("expected INACTIVATED account, got %d", account.Status)
	}
	if _, err := env.repo.FindCustomerByEmail(context.Background(), "new@example.com"); err != nil {
		t.Fatalf("expected the customer to exist after verification: %v", err)
	}

	// The staging read was destructive; replays fail.
	if _, err := env.service.VerifyRegistration(context.Background(), domain.VerifyRegistrationRequest{
		RegistrationID: registrationID,
		Code:           code,
	}); KindOf(err) != KindNotFound {
		t.Fatalf("expected replay to miss, got %v", err)
	}
}

func TestVerifyRegistration_WrongCodeConsumesTheAttempt(t *testing.T) {
	env := newTestEnv(t)
	registrationID, err := env.service.RegisterAccount(context.Background(), domain.OpenAccountRequest{
		Customer: &domain.CreateCustomerPayload{FullName: "New Customer", Email: "new@example.com"},
		Type:     domain.AccountTypeChecking,
	})
	if err != nil {
		t.Fatalf("RegisterAccount: %v", err)
	}

	_, err = env.service.VerifyRegistration(context.Background(), domain.VerifyRegistrationRequest{
		RegistrationID: registrationID,
		Code:           "000000",
	})
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized for wrong code, got %v", err)
	}
	if len(env.staging.entries) != 0 {
		t.Fatal("a wrong code should discard the staged registration")
	}
}

func TestRegisterAccount_DuplicateEmailRejectedBeforeStaging(t *testing.T) {
	env := newTestEnv(t)
	env.repo.addCustomer("taken@example.com")

	_, err := env.service.RegisterAccount(context.Background(), domain.OpenAccountRequest{
		Customer: &domain.CreateCustomerPayload{FullName: "Dup", Email: "taken@example.com"},
		Type:     domain.AccountTypeChecking,
	})
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(env.staging.entries) != 0 {
		t.Fatal("nothing should be staged after a rejection")
	}
}

func TestVerifyRegistration_ExpiredEntry(t *testing.T) {
	env := newTestEnv(t)
	registrationID, err := env.service.RegisterAccount(context.Background(), domain.OpenAccountRequest{
		Customer: &domain.CreateCustomerPayload{FullName: "New Customer", Email: "new@example.com"},
		Type:     domain.AccountTypeChecking,
	})
	if err != nil {
		t.Fatalf("RegisterAccount: %v", err)
	}

	// Simulate the TTL lapsing.
	delete(env.staging.entries, registrationID)

	_, err = env.service.VerifyRegistration(context.Background(), domain.VerifyRegistrationRequest{
		RegistrationID: registrationID,
		Code:           "123456",
	})
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for expired registration, got %v", err)
	}
}
