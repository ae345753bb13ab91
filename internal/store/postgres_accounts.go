/**
 * @description
 * PostgreSQL implementation of the account portion of the Repository
 * interface.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: the PostgreSQL driver for database operations.
 * - internal/domain: domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhnhat165/banking-be/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface
// for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `
	id, number, type, balance, principal, status, pin_hash, customer_id,
	interest_rate_id, payment_method_id, rollover_id, transfer_account_id,
	created_date, activated_date, maturity_date, closed_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Number, &a.Type, &a.Balance, &a.Principal, &a.Status,
		&a.PINHash, &a.CustomerID, &a.InterestRateID, &a.PaymentMethodID,
		&a.RolloverID, &a.TransferAccountID, &a.CreatedDate, &a.ActivatedDate,
		&a.MaturityDate, &a.ClosedDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateAccount inserts a new account record. A collision on the unique
// `number` index surfaces as ErrDuplicateAccountNumber so the caller can
// re-roll and retry.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (
			number, type, balance, principal, status, pin_hash, customer_id,
			interest_rate_id, payment_method_id, rollover_id, transfer_account_id,
			created_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + accountColumns
	row := r.db.QueryRow(ctx, query,
		account.Number,
		account.Type,
		account.Balance,
		account.Principal,
		account.Status,
		account.PINHash,
		account.CustomerID,
		account.InterestRateID,
		account.PaymentMethodID,
		account.RolloverID,
		account.TransferAccountID,
		account.CreatedDate,
	)
	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAccountNumber
		}
		return nil, err
	}
	return created, nil
}

// FindAccountByID retrieves an account by its internal id.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// FindAccountByNumber retrieves an account by its external 16-digit number.
func (r *PostgresRepository) FindAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE number = $1`
	return scanAccount(r.db.QueryRow(ctx, query, number))
}

// ListAccountsByCustomer retrieves every account owned by a customer.
func (r *PostgresRepository) ListAccountsByCustomer(ctx context.Context, customerID int64) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// ActivateAccount stores the customer-chosen pin hash and flips the account
// to ACTIVATED. The status predicate keeps a concurrent second activation
// from re-applying.
func (r *PostgresRepository) ActivateAccount(ctx context.Context, id int64, pinHash string, activatedAt time.Time, maturityDate *time.Time) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET pin_hash = $2, status = $3, activated_date = $4, maturity_date = $5
		WHERE id = $1 AND status = $6
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query,
		id, pinHash, domain.AccountStatusActivated, activatedAt, maturityDate,
		domain.AccountStatusInactivated,
	))
}

// UpdateAccountPIN replaces the stored pin hash.
func (r *PostgresRepository) UpdateAccountPIN(ctx context.Context, id int64, pinHash string) error {
	result, err := r.db.Exec(ctx, `UPDATE accounts SET pin_hash = $2 WHERE id = $1`, id, pinHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateInactiveAccount patches account fields while the account is still
// INACTIVATED; the status predicate in SQL means an activation racing this
// update wins and the patch reports not-found to the caller.
func (r *PostgresRepository) UpdateInactiveAccount(ctx context.Context, id int64, patch domain.AccountPatch) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET
			customer_id = COALESCE($2, customer_id),
			principal = COALESCE($3, principal),
			interest_rate_id = COALESCE($4, interest_rate_id),
			payment_method_id = COALESCE($5, payment_method_id),
			rollover_id = COALESCE($6, rollover_id),
			transfer_account_id = COALESCE($7, transfer_account_id),
			pin_hash = COALESCE($8, pin_hash)
		WHERE id = $1 AND status = $9
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query,
		id, patch.CustomerID, patch.Principal, patch.InterestRateID,
		patch.PaymentMethodID, patch.RolloverID, patch.TransferAccountID,
		patch.PINHash, domain.AccountStatusInactivated,
	))
}

// DeleteInactiveAccount removes an account that was never activated.
func (r *PostgresRepository) DeleteInactiveAccount(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND status = $2`,
		id, domain.AccountStatusInactivated,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListActiveDepositAccounts loads the accounts the maturity sweep visits.
func (r *PostgresRepository) ListActiveDepositAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE status = $1 AND type = $2 ORDER BY id`
	rows, err := r.db.Query(ctx, query, domain.AccountStatusActivated, domain.AccountTypeDeposit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}
