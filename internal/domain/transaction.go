package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types recorded in the ledger.
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeTransfer   = "transfer"
	TransactionTypeInterest   = "interest"
	TransactionTypeSettlement = "settlement"
	TransactionTypeRenewal    = "renewal"
)

// Detail direction flags.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Transaction is one immutable ledger record of a balance-affecting event.
// A transaction that touches two accounts (transfer, transfer settlement)
// carries two detail rows sharing its id; single-account events carry one.
// Rows are never mutated after creation.
type Transaction struct {
	ID          uuid.UUID           `json:"id"`
	Type        string              `json:"type"`
	Amount      int64               `json:"amount"`
	Description string              `json:"description"`
	Status      int                 `json:"status"`
	Timestamp   time.Time           `json:"timestamp"`
	Details     []TransactionDetail `json:"details,omitempty"`
}

// TransactionDetail ties a transaction to one affected account, recording the
// direction of the movement and the account's balance after it was applied.
type TransactionDetail struct {
	ID            int64     `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     int64     `json:"account_id"`
	Direction     string    `json:"direction"`
	Amount        int64     `json:"amount"`
	PostBalance   int64     `json:"post_balance"`
}

// TransferRequest is the DTO for moving money between two accounts.
type TransferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description,omitempty"`
}

// DepositRequest is the DTO for funding an account.
type DepositRequest struct {
	Amount int64 `json:"amount"`
}
