/**
 * @description
 * PostgreSQL implementation of the money ledger: every balance-affecting
 * operation runs in one database transaction that locks the account row
 * (SELECT ... FOR UPDATE), mutates the balance, and appends the ledger rows
 * with the post-mutation balance snapshot. Concurrent operations on the same
 * account serialize on the row lock, and a failure anywhere rolls the whole
 * unit back.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/minhnhat165/banking-be/internal/domain"
)

// transactionStatusPosted marks a committed ledger row. There is no other
// status; entries are never mutated after creation.
const transactionStatusPosted = 1

func lockBalance(ctx context.Context, tx pgx.Tx, accountID int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func setBalance(ctx context.Context, tx pgx.Tx, accountID, balance int64) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET balance = $2 WHERE id = $1`, accountID, balance)
	return err
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, type, amount, description, status, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Type, t.Amount, t.Description, t.Status, t.Timestamp,
	)
	return err
}

func insertDetail(ctx context.Context, tx pgx.Tx, d *domain.TransactionDetail) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transaction_details (transaction_id, account_id, direction, amount, post_balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		d.TransactionID, d.AccountID, d.Direction, d.Amount, d.PostBalance,
	).Scan(&d.ID)
}

// postEntry appends a complete single-account ledger entry inside tx and
// returns it. The caller has already locked the account and computed the
// post balance.
func postEntry(ctx context.Context, tx pgx.Tx, accountID int64, txType string, amount int64, direction, description string, postBalance int64, ts time.Time) (*domain.Transaction, error) {
	entry := &domain.Transaction{
		ID:          uuid.New(),
		Type:        txType,
		Amount:      amount,
		Description: description,
		Status:      transactionStatusPosted,
		Timestamp:   ts,
	}
	if err := insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	detail := domain.TransactionDetail{
		TransactionID: entry.ID,
		AccountID:     accountID,
		Direction:     direction,
		Amount:        amount,
		PostBalance:   postBalance,
	}
	if err := insertDetail(ctx, tx, &detail); err != nil {
		return nil, err
	}
	entry.Details = []domain.TransactionDetail{detail}
	return entry, nil
}

// CreditAccount atomically increases an account balance and records the
// ledger entry.
func (r *PostgresRepository) CreditAccount(ctx context.Context, accountID, amount int64, txType, description string) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	newBalance := balance + amount
	if err := setBalance(ctx, tx, accountID, newBalance); err != nil {
		return nil, err
	}
	entry, err := postEntry(ctx, tx, accountID, txType, amount, domain.DirectionCredit, description, newBalance, time.Now())
	if err != nil {
		return nil, err
	}
	return entry, tx.Commit(ctx)
}

// DebitAccount atomically decreases an account balance and records the
// ledger entry. A debit below zero fails with ErrInsufficientFunds and
// leaves no trace.
func (r *PostgresRepository) DebitAccount(ctx context.Context, accountID, amount int64, txType, description string) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, ErrInsufficientFunds
	}
	newBalance := balance - amount
	if err := setBalance(ctx, tx, accountID, newBalance); err != nil {
		return nil, err
	}
	entry, err := postEntry(ctx, tx, accountID, txType, amount, domain.DirectionDebit, description, newBalance, time.Now())
	if err != nil {
		return nil, err
	}
	return entry, tx.Commit(ctx)
}

// TransferFunds moves amount between two accounts as one transaction with a
// debit detail on the source and a credit detail on the destination. Rows
// are locked in id order so two opposing transfers cannot deadlock.
func (r *PostgresRepository) TransferFunds(ctx context.Context, fromID, toID, amount int64, txType, description string) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	balances := make(map[int64]int64, 2)
	for _, id := range []int64{first, second} {
		balance, err := lockBalance(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		balances[id] = balance
	}

	if balances[fromID] < amount {
		return nil, ErrInsufficientFunds
	}
	fromBalance := balances[fromID] - amount
	toBalance := balances[toID] + amount
	if err := setBalance(ctx, tx, fromID, fromBalance); err != nil {
		return nil, err
	}
	if err := setBalance(ctx, tx, toID, toBalance); err != nil {
		return nil, err
	}

	entry := &domain.Transaction{
		ID:          uuid.New(),
		Type:        txType,
		Amount:      amount,
		Description: description,
		Status:      transactionStatusPosted,
		Timestamp:   time.Now(),
	}
	if err := insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	details := []domain.TransactionDetail{
		{TransactionID: entry.ID, AccountID: fromID, Direction: domain.DirectionDebit, Amount: amount, PostBalance: fromBalance},
		{TransactionID: entry.ID, AccountID: toID, Direction: domain.DirectionCredit, Amount: amount, PostBalance: toBalance},
	}
	for i := range details {
		if err := insertDetail(ctx, tx, &details[i]); err != nil {
			return nil, err
		}
	}
	entry.Details = details
	return entry, tx.Commit(ctx)
}

// RecordInterestPayment credits interest exactly once per (account, pay
// date). The claim insert carries a unique constraint, so when the sweep
// runs twice on the same day the second caller loses the claim and gets
// ErrInterestAlreadyPaid with no balance change.
func (r *PostgresRepository) RecordInterestPayment(ctx context.Context, accountID, amount int64, payDate time.Time, description string) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	claimed, err := tx.Exec(ctx, `
		INSERT INTO interest_postings (account_id, pay_date)
		VALUES ($1, $2)
		ON CONFLICT (account_id, pay_date) DO NOTHING`,
		accountID, payDate,
	)
	if err != nil {
		return nil, err
	}
	if claimed.RowsAffected() == 0 {
		return nil, ErrInterestAlreadyPaid
	}

	balance, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	newBalance := balance + amount
	if err := setBalance(ctx, tx, accountID, newBalance); err != nil {
		return nil, err
	}
	entry, err := postEntry(ctx, tx, accountID, domain.TransactionTypeInterest, amount, domain.DirectionCredit, description, newBalance, time.Now())
	if err != nil {
		return nil, err
	}
	return entry, tx.Commit(ctx)
}

func closeAccount(ctx context.Context, tx pgx.Tx, accountID int64, closedAt time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE accounts SET status = $2, closed_date = $3 WHERE id = $1`,
		accountID, domain.AccountStatusClosed, closedAt,
	)
	return err
}

// applyAdjustment books a settlement correction entry when the adjustment is
// nonzero and returns the corrected balance.
func applyAdjustment(ctx context.Context, tx pgx.Tx, accountID, balance, adjustment int64, ts time.Time) (int64, error) {
	if adjustment == 0 {
		return balance, nil
	}
	direction := domain.DirectionCredit
	amount := adjustment
	if adjustment < 0 {
		direction = domain.DirectionDebit
		amount = -adjustment
	}
	newBalance := balance + adjustment
	if err := setBalance(ctx, tx, accountID, newBalance); err != nil {
		return 0, err
	}
	if _, err := postEntry(ctx, tx, accountID, domain.TransactionTypeSettlement, amount, direction, "Early settlement adjustment", newBalance, ts); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CloseWithPayout settles an account in full: apply the early-withdrawal
// adjustment, pay the remaining balance out, zero the balance, and close.
func (r *PostgresRepository) CloseWithPayout(ctx context.Context, accountID, adjustment int64, closedAt time.Time) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	balance, err = applyAdjustment(ctx, tx, accountID, balance, adjustment, closedAt)
	if err != nil {
		return nil, err
	}
	if err := setBalance(ctx, tx, accountID, 0); err != nil {
		return nil, err
	}
	entry, err := postEntry(ctx, tx, accountID, domain.TransactionTypeSettlement, balance, domain.DirectionDebit, "Full settlement payout", 0, closedAt)
	if err != nil {
		return nil, err
	}
	if err := closeAccount(ctx, tx, accountID, closedAt); err != nil {
		return nil, err
	}
	return entry, tx.Commit(ctx)
}

// RenewAccount settles an account in place and restarts it with a new
// principal: the corrected balance is paid out as a settlement entry, the
// new principal is funded back as a renewal entry, and the account keeps its
// id and number with a fresh start date and maturity.
func (r *PostgresRepository) RenewAccount(ctx context.Context, accountID int64, params RenewAccountParams) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	balance, err = applyAdjustment(ctx, tx, accountID, balance, params.Adjustment, params.StartedAt)
	if err != nil {
		return nil, err
	}
	if err := setBalance(ctx, tx, accountID, 0); err != nil {
		return nil, err
	}
	if _, err := postEntry(ctx, tx, accountID, domain.TransactionTypeSettlement, balance, domain.DirectionDebit, "Settlement for renewal", 0, params.StartedAt); err != nil {
		return nil, err
	}
	if err := setBalance(ctx, tx, accountID, params.NewPrincipal); err != nil {
		return nil, err
	}
	if _, err := postEntry(ctx, tx, accountID, domain.TransactionTypeRenewal, params.NewPrincipal, domain.DirectionCredit, "Renewal funding", params.NewPrincipal, params.StartedAt); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE accounts
		SET principal = $2, activated_date = $3, maturity_date = $4
		WHERE id = $1
		RETURNING `+accountColumns,
		accountID, params.NewPrincipal, params.StartedAt, params.MaturityDate,
	)
	account, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	return account, tx.Commit(ctx)
}

// SettleToBeneficiary closes an account and moves its corrected balance into
// the beneficiary account: one settlement transaction with a debit detail on
// the closing account and a credit detail on the beneficiary.
func (r *PostgresRepository) SettleToBeneficiary(ctx context.Context, accountID, beneficiaryID, adjustment int64, closedAt time.Time) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	first, second := accountID, beneficiaryID
	if second < first {
		first, second = second, first
	}
	balances := make(map[int64]int64, 2)
	for _, id := range []int64{first, second} {
		balance, err := lockBalance(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		balances[id] = balance
	}

	settled, err := applyAdjustment(ctx, tx, accountID, balances[accountID], adjustment, closedAt)
	if err != nil {
		return nil, err
	}
	if err := setBalance(ctx, tx, accountID, 0); err != nil {
		return nil, err
	}
	beneficiaryBalance := balances[beneficiaryID] + settled
	if err := setBalance(ctx, tx, beneficiaryID, beneficiaryBalance); err != nil {
		return nil, err
	}

	entry := &domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeSettlement,
		Amount:      settled,
		Description: "Settlement transfer to beneficiary account",
		Status:      transactionStatusPosted,
		Timestamp:   closedAt,
	}
	if err := insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	details := []domain.TransactionDetail{
		{TransactionID: entry.ID, AccountID: accountID, Direction: domain.DirectionDebit, Amount: settled, PostBalance: 0},
		{TransactionID: entry.ID, AccountID: beneficiaryID, Direction: domain.DirectionCredit, Amount: settled, PostBalance: beneficiaryBalance},
	}
	for i := range details {
		if err := insertDetail(ctx, tx, &details[i]); err != nil {
			return nil, err
		}
	}
	entry.Details = details

	if err := closeAccount(ctx, tx, accountID, closedAt); err != nil {
		return nil, err
	}
	return entry, tx.Commit(ctx)
}

// ListTransactionsByAccount returns every ledger entry that touched the
// account, newest first, with all detail rows attached.
func (r *PostgresRepository) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	query := `
		SELECT t.id, t.type, t.amount, t.description, t.status, t.transaction_date,
		       d.id, d.account_id, d.direction, d.amount, d.post_balance
		FROM transactions t
		JOIN transaction_details d ON d.transaction_id = t.id
		WHERE t.id IN (
			SELECT transaction_id FROM transaction_details WHERE account_id = $1
		)
		ORDER BY t.transaction_date DESC, t.id, d.id`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var t domain.Transaction
		var d domain.TransactionDetail
		if err := rows.Scan(
			&t.ID, &t.Type, &t.Amount, &t.Description, &t.Status, &t.Timestamp,
			&d.ID, &d.AccountID, &d.Direction, &d.Amount, &d.PostBalance,
		); err != nil {
			return nil, err
		}
		d.TransactionID = t.ID
		key := t.ID.String()
		if at, ok := index[key]; ok {
			transactions[at].Details = append(transactions[at].Details, d)
			continue
		}
		t.Details = []domain.TransactionDetail{d}
		index[key] = len(transactions)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
