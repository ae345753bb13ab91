/**
 * @description
 * Pure interest-calculation functions for term deposit accounts. Nothing in
 * this package performs I/O or holds state; every function is deterministic
 * given its inputs, so the lifecycle manager and the tests share the exact
 * same arithmetic.
 *
 * The deployment-wide day-count policy is month-based: a year is twelve equal
 * months and rates are percent per annum, so one month of simple interest on
 * an amount A at rate r is A*r/(12*100). Amounts are int64 minor currency
 * units; intermediate math runs on shopspring decimals and results round
 * half-up to a whole unit.
 */

package interest

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNegativeInput is returned when a principal, balance, rate, or term is
// negative. Valid positive inputs can never yield negative interest.
var ErrNegativeInput = errors.New("interest: negative input")

var monthsPerYearTimesPercent = decimal.NewFromInt(12 * 100)

// Prepaid computes simple interest over the full term, credited once at
// activation: principal * rate * months / (12*100).
func Prepaid(principal int64, ratePercent float64, termMonths int) (int64, error) {
	return termInterest(principal, ratePercent, termMonths)
}

// Monthly computes one month of simple interest on the current balance:
// balance * rate / (12*100). Because the balance grows after each credit,
// repeated application compounds.
func Monthly(balance int64, ratePercent float64) (int64, error) {
	return termInterest(balance, ratePercent, 1)
}

// EndOfTerm computes interest for an elapsed whole number of months on the
// principal (not the balance), paid once at term end or at early settlement:
// principal * rate * months / (12*100).
func EndOfTerm(principal int64, ratePercent float64, elapsedMonths int) (int64, error) {
	return termInterest(principal, ratePercent, elapsedMonths)
}

func termInterest(amount int64, ratePercent float64, months int) (int64, error) {
	if amount < 0 || ratePercent < 0 || months < 0 {
		return 0, ErrNegativeInput
	}
	interest := decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(ratePercent)).
		Mul(decimal.NewFromInt(int64(months))).
		Div(monthsPerYearTimesPercent)
	return interest.Round(0).IntPart(), nil
}

// ElapsedMonths returns the number of whole months between start and now,
// never negative. Only calendar dates matter; the time of day is ignored. A
// month is complete when the same day-of-month (normalized by AddDate) has
// been reached again.
func ElapsedMonths(start, now time.Time) int {
	startDay, nowDay := dateOnly(start), dateOnly(now)
	if !startDay.Before(nowDay) {
		return 0
	}
	months := 0
	for !startDay.AddDate(0, months+1, 0).After(nowDay) {
		months++
	}
	return months
}

// IsMonthlyAnniversary reports whether `day` falls exactly on a monthly
// anniversary of `start`, i.e. start plus a positive whole number of months
// lands on the same calendar date as `day`.
func IsMonthlyAnniversary(start, day time.Time) bool {
	months := ElapsedMonths(start, day)
	if months == 0 {
		return false
	}
	return dateOnly(start).AddDate(0, months, 0).Equal(dateOnly(day))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MaturityDate derives the contract end date from the start date and term.
func MaturityDate(start time.Time, termMonths int) time.Time {
	return start.AddDate(0, termMonths, 0)
}
