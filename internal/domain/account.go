/**
 * @description
 * This file defines the core domain models for accounts. These structs represent
 * the main entities and data transfer objects (DTOs) used throughout the
 * service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit, which avoids
 *   floating-point inaccuracies with financial data.
 * - The PIN is only ever held as a bcrypt hash and is excluded from JSON output.
 */

package domain

import "time"

// AccountType distinguishes plain checking accounts from term deposits.
type AccountType int

const (
	AccountTypeChecking AccountType = 0
	AccountTypeDeposit  AccountType = 1
)

// AccountStatus is the lifecycle state of an account. Statuses only move
// forward: INACTIVATED -> ACTIVATED -> MATURITY -> CLOSED.
type AccountStatus int

const (
	AccountStatusInactivated AccountStatus = 0
	AccountStatusActivated   AccountStatus = 1
	AccountStatusMaturity    AccountStatus = 2
	AccountStatusClosed      AccountStatus = 3
)

// PaymentMethod selects how interest on a deposit account is paid out.
type PaymentMethod int

const (
	PaymentMethodRegular   PaymentMethod = 1 // monthly, on the current balance
	PaymentMethodEndOfTerm PaymentMethod = 2 // once at maturity, on the principal
	PaymentMethodPrepaid   PaymentMethod = 3 // once at activation, full term up front
)

// RolloverChoice is the customer's chosen disposition at settlement time.
type RolloverChoice int

const (
	RolloverFullSettlement    RolloverChoice = 1
	RolloverRenewalFull       RolloverChoice = 2
	RolloverRenewalPrincipal  RolloverChoice = 3
	RolloverTransferToAccount RolloverChoice = 4
)

// Account maps to the `accounts` table. The `number` column carries a unique
// index; collisions at creation time surface as a conflict and are retried.
type Account struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number"`
	Type              AccountType     `json:"type"`
	Balance           int64           `json:"balance"`
	Principal         int64           `json:"principal"`
	Status            AccountStatus   `json:"status"`
	PINHash           string          `json:"-"`
	CustomerID        int64           `json:"customer_id"`
	InterestRateID    *int64          `json:"interest_rate_id,omitempty"`
	PaymentMethodID   *PaymentMethod  `json:"payment_method_id,omitempty"`
	RolloverID        *RolloverChoice `json:"rollover_id,omitempty"`
	TransferAccountID *int64          `json:"transfer_account_id,omitempty"`
	CreatedDate       time.Time       `json:"created_date"`
	ActivatedDate     *time.Time      `json:"activated_date,omitempty"`
	MaturityDate      *time.Time      `json:"maturity_date,omitempty"`
	ClosedDate        *time.Time      `json:"closed_date,omitempty"`
}

// IsDeposit reports whether the account is a term deposit.
func (a *Account) IsDeposit() bool { return a.Type == AccountTypeDeposit }

// IsValid reports whether the value is a known account type.
func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeDeposit
}

// IsValid reports whether the value is a known payment method.
func (m PaymentMethod) IsValid() bool {
	return m >= PaymentMethodRegular && m <= PaymentMethodPrepaid
}

// IsValid reports whether the value is a known rollover disposition.
func (r RolloverChoice) IsValid() bool {
	return r >= RolloverFullSettlement && r <= RolloverTransferToAccount
}

// OpenAccountRequest is the DTO for creating a new account. Exactly one of
// CustomerID or Customer must be set; the deposit-only fields are required
// when Type is AccountTypeDeposit and must be absent for checking accounts.
type OpenAccountRequest struct {
	CustomerID      int64                  `json:"customer_id,omitempty"`
	Customer        *CreateCustomerPayload `json:"customer,omitempty"`
	Type            AccountType            `json:"type"`
	Principal       int64                  `json:"principal"`
	InterestRateID  *int64                 `json:"interest_rate_id,omitempty"`
	PaymentMethodID *PaymentMethod         `json:"payment_method_id,omitempty"`
	RolloverID      *RolloverChoice        `json:"rollover_id,omitempty"`
	// TransferAccountID names the beneficiary for RolloverTransferToAccount.
	TransferAccountID *int64 `json:"transfer_account_id,omitempty"`
}

// AccountPatch carries the fields that may be changed while an account is
// still INACTIVATED. PINHash is set by the service when the owner changes
// and never comes from a request body.
type AccountPatch struct {
	CustomerID        *int64          `json:"customer_id,omitempty"`
	Principal         *int64          `json:"principal,omitempty"`
	InterestRateID    *int64          `json:"interest_rate_id,omitempty"`
	PaymentMethodID   *PaymentMethod  `json:"payment_method_id,omitempty"`
	RolloverID        *RolloverChoice `json:"rollover_id,omitempty"`
	TransferAccountID *int64          `json:"transfer_account_id,omitempty"`
	PINHash           *string         `json:"-"`
}

// ActivateAccountRequest is the DTO for the activation flow. The customer
// proves possession of the emailed pin and picks a new one.
type ActivateAccountRequest struct {
	Number string `json:"number"`
	PIN    string `json:"pin"`
	NewPIN string `json:"new_pin"`
}

// SettleAccountRequest is the DTO for settling a deposit account before or at
// maturity. BeneficiaryAccountID is required for RolloverTransferToAccount.
type SettleAccountRequest struct {
	Rollover             RolloverChoice `json:"rollover"`
	BeneficiaryAccountID *int64         `json:"beneficiary_account_id,omitempty"`
}
