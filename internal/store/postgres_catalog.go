/**
 * @description
 * PostgreSQL implementation of the customer directory and the reference
 * catalogs: interest rates, terms, products, rollover dispositions, and
 * payment methods. Rate records carry effective and expiry dates and a status
 * the scheduler sweeps forward as those dates pass.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/minhnhat165/banking-be/internal/domain"
)

// FindCustomerByID retrieves a customer record.
func (r *PostgresRepository) FindCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, email, phone, created_date FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CreatedDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindCustomerByEmail retrieves a customer by their unique email address.
func (r *PostgresRepository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, email, phone, created_date FROM customers WHERE email = $1`, email,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CreatedDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCustomer inserts a customer. The email column is unique; a collision
// surfaces as ErrDuplicateCustomer.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (full_name, email, phone, created_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, full_name, email, phone, created_date`,
		customer.FullName, customer.Email, customer.Phone, customer.CreatedDate,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CreatedDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCustomer
		}
		return nil, err
	}
	return &c, nil
}

const rateColumns = `id, product_id, term_id, value, status, effective_date, expired_date, created_by, created_date`

func scanRate(row rowScanner) (*domain.InterestRate, error) {
	var rate domain.InterestRate
	err := row.Scan(
		&rate.ID, &rate.ProductID, &rate.TermID, &rate.Value, &rate.Status,
		&rate.EffectiveDate, &rate.ExpiredDate, &rate.CreatedBy, &rate.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}
	return &rate, nil
}

// FindRateAndTerm resolves the rate percent and term length the interest
// engine needs, in one join.
func (r *PostgresRepository) FindRateAndTerm(ctx context.Context, rateID int64) (*domain.RateAndTerm, error) {
	var rt domain.RateAndTerm
	err := r.db.QueryRow(ctx, `
		SELECT ir.id, ir.value, t.value, ir.product_id
		FROM interest_rates ir
		JOIN terms t ON t.id = ir.term_id
		WHERE ir.id = $1`,
		rateID,
	).Scan(&rt.RateID, &rt.Percent, &rt.TermMonths, &rt.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (r *PostgresRepository) CreateInterestRate(ctx context.Context, rate *domain.InterestRate) (*domain.InterestRate, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO interest_rates (product_id, term_id, value, status, effective_date, expired_date, created_by, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+rateColumns,
		rate.ProductID, rate.TermID, rate.Value, rate.Status,
		rate.EffectiveDate, rate.ExpiredDate, rate.CreatedBy, rate.CreatedDate,
	)
	return scanRate(row)
}

func (r *PostgresRepository) UpdateInterestRate(ctx context.Context, rate *domain.InterestRate) (*domain.InterestRate, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE interest_rates
		SET product_id = $2, term_id = $3, value = $4, status = $5,
		    effective_date = $6, expired_date = $7
		WHERE id = $1
		RETURNING `+rateColumns,
		rate.ID, rate.ProductID, rate.TermID, rate.Value, rate.Status,
		rate.EffectiveDate, rate.ExpiredDate,
	)
	return scanRate(row)
}

func (r *PostgresRepository) DeleteInterestRate(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM interest_rates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRateNotFound
	}
	return nil
}

func (r *PostgresRepository) ListInterestRates(ctx context.Context) ([]domain.InterestRate, error) {
	rows, err := r.db.Query(ctx, `SELECT `+rateColumns+` FROM interest_rates ORDER BY effective_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.InterestRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, *rate)
	}
	return rates, rows.Err()
}

// CountAccountsByInterestRate reports how many accounts reference a rate,
// used to refuse deleting a rate that contracts still depend on.
func (r *PostgresRepository) CountAccountsByInterestRate(ctx context.Context, rateID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE interest_rate_id = $1`, rateID,
	).Scan(&count)
	return count, err
}

// SweepInterestRateStatuses advances rate statuses past their dates: records
// past expiry become EXPIRED and pending records whose effective date has
// arrived become ACTIVATED. Returns the number of rows touched.
func (r *PostgresRepository) SweepInterestRateStatuses(ctx context.Context, now time.Time) (int, error) {
	expired, err := r.db.Exec(ctx, `
		UPDATE interest_rates SET status = $1
		WHERE status <> $1 AND expired_date <= $2`,
		domain.RateStatusExpired, now,
	)
	if err != nil {
		return 0, err
	}
	activated, err := r.db.Exec(ctx, `
		UPDATE interest_rates SET status = $1
		WHERE status = $2 AND effective_date <= $3`,
		domain.RateStatusActivated, domain.RateStatusInactivated, now,
	)
	if err != nil {
		return int(expired.RowsAffected()), err
	}
	return int(expired.RowsAffected() + activated.RowsAffected()), nil
}

func (r *PostgresRepository) ListTerms(ctx context.Context) ([]domain.Term, error) {
	rows, err := r.db.Query(ctx, `SELECT id, value FROM terms ORDER BY value`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []domain.Term
	for rows.Next() {
		var t domain.Term
		if err := rows.Scan(&t.ID, &t.Value); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (r *PostgresRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) ListRollovers(ctx context.Context) ([]domain.Rollover, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM rollovers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollovers []domain.Rollover
	for rows.Next() {
		var ro domain.Rollover
		if err := rows.Scan(&ro.ID, &ro.Name); err != nil {
			return nil, err
		}
		rollovers = append(rollovers, ro)
	}
	return rollovers, rows.Err()
}

func (r *PostgresRepository) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodInfo, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM payment_methods ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []domain.PaymentMethodInfo
	for rows.Next() {
		var m domain.PaymentMethodInfo
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}
