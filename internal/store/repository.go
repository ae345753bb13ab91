/**
 * @description
 * This file defines the Repository interface, the data-access contract the
 * lifecycle manager depends on. Every balance-affecting method commits the
 * balance mutation and its ledger entry in a single database transaction, so
 * callers never observe an account whose balance disagrees with the ledger.
 *
 * @dependencies
 * - internal/domain: domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/minhnhat165/banking-be/internal/domain"
)

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrRateNotFound           = errors.New("interest rate not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrDuplicateAccountNumber = errors.New("account number already taken")
	ErrDuplicateCustomer      = errors.New("customer already exists")
	ErrInterestAlreadyPaid    = errors.New("interest already paid for this date")
	ErrStagingNotFound        = errors.New("pending registration not found or expired")
)

// RenewAccountParams describes the in-place renewal of a deposit account at
// settlement: the adjustment corrects the balance for early withdrawal, the
// remainder above NewPrincipal is paid out, and the account restarts with a
// fresh start date and maturity.
type RenewAccountParams struct {
	Adjustment   int64
	NewPrincipal int64
	StartedAt    time.Time
	MaturityDate time.Time
}

// Repository is the persistence contract for accounts, the money ledger, the
// customer directory, and the reference catalogs.
type Repository interface {
	// Accounts.
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	FindAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
	ListAccountsByCustomer(ctx context.Context, customerID int64) ([]domain.Account, error)
	ActivateAccount(ctx context.Context, id int64, pinHash string, activatedAt time.Time, maturityDate *time.Time) (*domain.Account, error)
	UpdateAccountPIN(ctx context.Context, id int64, pinHash string) error
	UpdateInactiveAccount(ctx context.Context, id int64, patch domain.AccountPatch) (*domain.Account, error)
	DeleteInactiveAccount(ctx context.Context, id int64) error

	// Money movement. Each call is one atomic unit: row lock, balance
	// mutation, and ledger entry commit together or not at all.
	CreditAccount(ctx context.Context, accountID, amount int64, txType, description string) (*domain.Transaction, error)
	DebitAccount(ctx context.Context, accountID, amount int64, txType, description string) (*domain.Transaction, error)
	TransferFunds(ctx context.Context, fromID, toID, amount int64, txType, description string) (*domain.Transaction, error)
	RecordInterestPayment(ctx context.Context, accountID, amount int64, payDate time.Time, description string) (*domain.Transaction, error)

	// Settlement write shapes.
	CloseWithPayout(ctx context.Context, accountID, adjustment int64, closedAt time.Time) (*domain.Transaction, error)
	RenewAccount(ctx context.Context, accountID int64, params RenewAccountParams) (*domain.Account, error)
	SettleToBeneficiary(ctx context.Context, accountID, beneficiaryID, adjustment int64, closedAt time.Time) (*domain.Transaction, error)

	// Ledger reads.
	ListTransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)

	// Maturity sweep support.
	ListActiveDepositAccounts(ctx context.Context) ([]domain.Account, error)

	// Customer directory.
	FindCustomerByID(ctx context.Context, id int64) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)

	// Reference catalogs.
	FindRateAndTerm(ctx context.Context, rateID int64) (*domain.RateAndTerm, error)
	CreateInterestRate(ctx context.Context, rate *domain.InterestRate) (*domain.InterestRate, error)
	UpdateInterestRate(ctx context.Context, rate *domain.InterestRate) (*domain.InterestRate, error)
	DeleteInterestRate(ctx context.Context, id int64) error
	ListInterestRates(ctx context.Context) ([]domain.InterestRate, error)
	CountAccountsByInterestRate(ctx context.Context, rateID int64) (int, error)
	SweepInterestRateStatuses(ctx context.Context, now time.Time) (int, error)
	ListTerms(ctx context.Context) ([]domain.Term, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListRollovers(ctx context.Context) ([]domain.Rollover, error)
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodInfo, error)
}

// StagingStore is the expiring key-value contract for pending registrations.
type StagingStore interface {
	StagePendingRegistration(ctx context.Context, id string, registration *domain.PendingRegistration, ttl time.Duration) error
	// TakePendingRegistration returns and removes a staged registration in one
	// step so a code can only be redeemed once. Missing or expired ids yield
	// ErrStagingNotFound.
	TakePendingRegistration(ctx context.Context, id string) (*domain.PendingRegistration, error)
}
