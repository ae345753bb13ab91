/**
 * @description
 * This file contains the core business logic for the account service. The
 * `Service` struct orchestrates the account lifecycle, coordinating between
 * the database repository, the Redis staging store, and the message broker.
 *
 * Key features:
 * - Implements account opening, activation, pin management, update and delete.
 * - Generates the unique 16-digit account number and the server-side pin.
 * - Publishes email notification events to RabbitMQ; delivery failures are
 *   logged and never fail the operation that triggered them.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - golang.org/x/crypto/bcrypt: pin hashing.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For the notification event producer.
 */

package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/minhnhat165/banking-be/internal/domain"
	"github.com/minhnhat165/banking-be/internal/interest"
	"github.com/minhnhat165/banking-be/internal/store"
	"github.com/minhnhat165/banking-be/pkg/rabbitmq"
)

const (
	accountNumberLength   = 16
	pinLength             = 6
	createAccountAttempts = 5
)

// Service provides the core business logic for accounts.
type Service struct {
	repo            store.Repository
	staging         store.StagingStore
	eventProducer   rabbitmq.Publisher
	baseRatePercent float64
	registrationTTL time.Duration

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

// NewService creates a new account service instance. baseRatePercent is the
// no-term reference rate applied to the elapsed months of an early-settled
// deposit.
func NewService(repo store.Repository, staging store.StagingStore, producer rabbitmq.Publisher, baseRatePercent float64, registrationTTL time.Duration) *Service {
	return &Service{
		repo:            repo,
		staging:         staging,
		eventProducer:   producer,
		baseRatePercent: baseRatePercent,
		registrationTTL: registrationTTL,
		now:             time.Now,
	}
}

// OpenAccount creates an INACTIVATED account, generating its unique number
// and a server-side pin that is emailed to the owner. The pin never appears
// in the response.
func (s *Service) OpenAccount(ctx context.Context, req domain.OpenAccountRequest) (*domain.Account, error) {
	customer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.validateOpenRequest(ctx, req); err != nil {
		return nil, err
	}

	pin, err := randomDigits(pinLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pin: %w", err)
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}

	var created *domain.Account
	for attempt := 0; attempt < createAccountAttempts; attempt++ {
		number, err := randomDigits(accountNumberLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate account number: %w", err)
		}
		created, err = s.repo.CreateAccount(ctx, &domain.Account{
			Number:            number,
			Type:              req.Type,
			Balance:           0,
			Principal:         req.Principal,
			Status:            domain.AccountStatusInactivated,
			PINHash:           string(pinHash),
			CustomerID:        customer.ID,
			InterestRateID:    req.InterestRateID,
			PaymentMethodID:   req.PaymentMethodID,
			RolloverID:        req.RolloverID,
			TransferAccountID: req.TransferAccountID,
			CreatedDate:       s.now(),
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicateAccountNumber) {
			log.Printf("level=warn component=service msg=\"account number collision; retrying\" attempt=%d", attempt+1)
			continue
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("failed to create account: exhausted %d number attempts", createAccountAttempts)
	}

	s.sendEmail(ctx, customer.Email, "Your new account",
		fmt.Sprintf("Account number: %s. Activation pin: %s. Activate the account to start using it.", created.Number, pin))

	return created, nil
}

// resolveCustomer looks up the owner, or creates one inline when the request
// carries a customer payload instead of an id.
func (s *Service) resolveCustomer(ctx context.Context, req domain.OpenAccountRequest) (*domain.Customer, error) {
	if req.Customer != nil {
		if req.Customer.Email == "" || req.Customer.FullName == "" {
			return nil, badRequest("customer full name and email are required")
		}
		customer, err := s.repo.CreateCustomer(ctx, &domain.Customer{
			FullName:    req.Customer.FullName,
			Email:       req.Customer.Email,
			Phone:       req.Customer.Phone,
			CreatedDate: s.now(),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateCustomer) {
				return nil, conflict("a customer with this email already exists")
			}
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
		return customer, nil
	}
	customer, err := s.repo.FindCustomerByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, store.ErrCustomerNotFound) {
			return nil, notFound("customer not found")
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

// validateOpenRequest checks the shape rules: deposits need a positive
// principal and a full contract (rate, payment method, rollover); checking
// accounts must not carry deposit-only fields.
func (s *Service) validateOpenRequest(ctx context.Context, req domain.OpenAccountRequest) error {
	if req.Principal < 0 {
		return badRequest("principal cannot be negative")
	}
	if !req.Type.IsValid() {
		return badRequest("unknown account type")
	}

	if req.Type == domain.AccountTypeChecking {
		if req.InterestRateID != nil || req.PaymentMethodID != nil || req.RolloverID != nil || req.TransferAccountID != nil {
			return badRequest("checking accounts cannot carry deposit contract fields")
		}
		return nil
	}

	if req.Principal == 0 {
		return badRequest("deposit accounts require a positive principal")
	}
	if req.InterestRateID == nil || req.PaymentMethodID == nil || req.RolloverID == nil {
		return badRequest("deposit accounts require an interest rate, payment method, and rollover")
	}
	if !req.PaymentMethodID.IsValid() {
		return badRequest("unknown payment method")
	}
	if !req.RolloverID.IsValid() {
		return badRequest("unknown rollover disposition")
	}
	if *req.RolloverID == domain.RolloverTransferToAccount && req.TransferAccountID == nil {
		return badRequest("transfer-to-account rollover requires a beneficiary account")
	}
	if req.TransferAccountID != nil {
		if _, err := s.repo.FindAccountByID(ctx, *req.TransferAccountID); err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				return badRequest("beneficiary account not found")
			}
			return fmt.Errorf("failed to find beneficiary account: %w", err)
		}
	}
	if _, err := s.repo.FindRateAndTerm(ctx, *req.InterestRateID); err != nil {
		if errors.Is(err, store.ErrRateNotFound) {
			return badRequest("interest rate not found")
		}
		return fmt.Errorf("failed to find interest rate: %w", err)
	}
	return nil
}

// ActivateAccount verifies the emailed pin, installs the customer-chosen
// replacement, stamps the maturity date, and funds the account with its
// principal. A PREPAID deposit also receives its full-term interest up front.
func (s *Service) ActivateAccount(ctx context.Context, req domain.ActivateAccountRequest) (*domain.Account, error) {
	account, err := s.repo.FindAccountByNumber(ctx, req.Number)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account.Status != domain.AccountStatusInactivated {
		return nil, conflict("account is already activated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte(req.PIN)); err != nil {
		return nil, unauthorized("invalid pin")
	}
	if err := validatePin(req.NewPIN); err != nil {
		return nil, err
	}
	if req.NewPIN == req.PIN {
		return nil, badRequest("new pin must differ from the issued pin")
	}

	activatedAt := s.now()
	var maturity *time.Time
	var rateAndTerm *domain.RateAndTerm
	if account.IsDeposit() {
		rateAndTerm, err = s.repo.FindRateAndTerm(ctx, *account.InterestRateID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve rate and term: %w", err)
		}
		m := interest.MaturityDate(activatedAt, rateAndTerm.TermMonths)
		maturity = &m
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}
	activated, err := s.repo.ActivateAccount(ctx, account.ID, string(newHash), activatedAt, maturity)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			// Status predicate failed; someone activated concurrently.
			return nil, conflict("account is already activated")
		}
		return nil, fmt.Errorf("failed to activate account: %w", err)
	}

	if activated.Principal > 0 {
		if _, err := s.repo.CreditAccount(ctx, activated.ID, activated.Principal, domain.TransactionTypeDeposit, "Initial principal deposit"); err != nil {
			return nil, fmt.Errorf("failed to fund principal: %w", err)
		}
	}
	if activated.IsDeposit() && *activated.PaymentMethodID == domain.PaymentMethodPrepaid {
		prepaid, err := interest.Prepaid(activated.Principal, rateAndTerm.Percent, rateAndTerm.TermMonths)
		if err != nil {
			return nil, fmt.Errorf("failed to compute prepaid interest: %w", err)
		}
		if prepaid > 0 {
			if _, err := s.repo.RecordInterestPayment(ctx, activated.ID, prepaid, dateOnly(activatedAt), "Prepaid interest for the full term"); err != nil && !errors.Is(err, store.ErrInterestAlreadyPaid) {
				return nil, fmt.Errorf("failed to credit prepaid interest: %w", err)
			}
		}
	}

	return s.repo.FindAccountByID(ctx, activated.ID)
}

// ChangePIN replaces the pin after verifying the current one. Only an
// activated account has a customer-chosen pin to change.
func (s *Service) ChangePIN(ctx context.Context, accountID int64, currentPin, newPin string) error {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status != domain.AccountStatusActivated {
		return badRequest("account is not activated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte(currentPin)); err != nil {
		return unauthorized("invalid pin")
	}
	if err := validatePin(newPin); err != nil {
		return err
	}
	if newPin == currentPin {
		return badRequest("new pin must differ from the current pin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	return s.repo.UpdateAccountPIN(ctx, accountID, string(hash))
}

// ResetPIN issues a fresh server-generated pin and emails it to the owner.
// An account that was never activated keeps its original activation pin.
func (s *Service) ResetPIN(ctx context.Context, accountID int64) error {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status != domain.AccountStatusActivated {
		return badRequest("account is not activated")
	}
	customer, err := s.repo.FindCustomerByID(ctx, account.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to find account owner: %w", err)
	}
	pin, err := randomDigits(pinLength)
	if err != nil {
		return fmt.Errorf("failed to generate pin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.repo.UpdateAccountPIN(ctx, accountID, string(hash)); err != nil {
		return fmt.Errorf("failed to store pin: %w", err)
	}
	s.sendEmail(ctx, customer.Email, "Your pin was reset",
		fmt.Sprintf("The new pin for account %s is %s.", account.Number, pin))
	return nil
}

// UpdateAccount patches contract fields while the account is INACTIVATED.
// Activated accounts are immutable except through settlement. Handing the
// account to a different customer invalidates the previously emailed pin: a
// fresh one is issued and sent to the new owner.
func (s *Service) UpdateAccount(ctx context.Context, accountID int64, patch domain.AccountPatch) (*domain.Account, error) {
	if patch.Principal != nil && *patch.Principal <= 0 {
		return nil, badRequest("principal must be positive")
	}
	var newPin string
	if patch.CustomerID != nil {
		if _, err := s.repo.FindCustomerByID(ctx, *patch.CustomerID); err != nil {
			if errors.Is(err, store.ErrCustomerNotFound) {
				return nil, badRequest("customer not found")
			}
			return nil, fmt.Errorf("failed to find customer: %w", err)
		}
		pin, err := randomDigits(pinLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate pin: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash pin: %w", err)
		}
		newPin = pin
		pinHash := string(hash)
		patch.PINHash = &pinHash
	}
	if patch.InterestRateID != nil {
		if _, err := s.repo.FindRateAndTerm(ctx, *patch.InterestRateID); err != nil {
			if errors.Is(err, store.ErrRateNotFound) {
				return nil, badRequest("interest rate not found")
			}
			return nil, fmt.Errorf("failed to find interest rate: %w", err)
		}
	}
	if patch.PaymentMethodID != nil && !patch.PaymentMethodID.IsValid() {
		return nil, badRequest("unknown payment method")
	}
	if patch.RolloverID != nil && !patch.RolloverID.IsValid() {
		return nil, badRequest("unknown rollover disposition")
	}

	updated, err := s.repo.UpdateInactiveAccount(ctx, accountID, patch)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, s.inactiveOnlyError(ctx, accountID, "activated accounts cannot be updated")
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if newPin != "" {
		if customer, err := s.repo.FindCustomerByID(ctx, updated.CustomerID); err == nil {
			s.sendEmail(ctx, customer.Email, "Your new account",
				fmt.Sprintf("Account number: %s. Activation pin: %s. Activate the account to start using it.", updated.Number, newPin))
		}
	}
	return updated, nil
}

// DeleteAccount removes an account that was never activated.
func (s *Service) DeleteAccount(ctx context.Context, accountID int64) error {
	if err := s.repo.DeleteInactiveAccount(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return s.inactiveOnlyError(ctx, accountID, "activated accounts cannot be deleted")
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// inactiveOnlyError disambiguates a status-predicate miss: the account either
// does not exist (not found) or exists in a later state (forbidden).
func (s *Service) inactiveOnlyError(ctx context.Context, accountID int64, message string) error {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err == nil {
		return forbidden(message)
	}
	return notFound("account not found")
}

// GetAccount retrieves one account. The pin hash never serializes.
func (s *Service) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.findAccount(ctx, accountID)
}

// GetAccountByNumber retrieves one account by its external number.
func (s *Service) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	account, err := s.repo.FindAccountByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// ListCustomerAccounts retrieves every account a customer owns.
func (s *Service) ListCustomerAccounts(ctx context.Context, customerID int64) ([]domain.Account, error) {
	return s.repo.ListAccountsByCustomer(ctx, customerID)
}

// ListTransactions retrieves the ledger history for an account.
func (s *Service) ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	if _, err := s.findAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactionsByAccount(ctx, accountID)
}

func (s *Service) findAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// sendEmail publishes an email notification event. Failures are logged and
// swallowed; notifications never fail the business operation.
func (s *Service) sendEmail(ctx context.Context, recipient, subject, body string) {
	if s.eventProducer == nil {
		return
	}
	event := rabbitmq.EmailRequestedEvent{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Timestamp: s.now(),
	}
	if err := s.eventProducer.PublishEmailRequested(ctx, event); err != nil {
		log.Printf("level=warn component=service msg=\"failed to publish email event\" recipient=%s err=%v", recipient, err)
	}
}

func validatePin(pin string) error {
	if len(pin) != pinLength {
		return badRequest(fmt.Sprintf("pin must be exactly %d digits", pinLength))
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return badRequest("pin must contain digits only")
		}
	}
	return nil
}

// randomDigits draws n decimal digits from crypto/rand.
func randomDigits(n int) (string, error) {
	ten := big.NewInt(10)
	buf := make([]byte, n)
	for i := range buf {
		v, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + v.Int64())
	}
	return string(buf), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
