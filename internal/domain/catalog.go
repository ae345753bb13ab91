package domain

import "time"

// InterestRateStatus tracks whether a rate record is currently offered.
// The scheduler flips records along INACTIVATED -> ACTIVATED -> EXPIRED as
// their effective and expiry dates pass.
type InterestRateStatus int

const (
	RateStatusInactivated InterestRateStatus = 0
	RateStatusActivated   InterestRateStatus = 1
	RateStatusExpired     InterestRateStatus = 2
)

// InterestRate bundles a percent-per-annum rate with the product and term it
// applies to. Accounts reference a rate by id; the rate and term are resolved
// at accrual time via RateAndTerm rather than held as back-pointers.
type InterestRate struct {
	ID            int64              `json:"id"`
	ProductID     int64              `json:"product_id"`
	TermID        int64              `json:"term_id"`
	Value         float64            `json:"value"` // percent per annum
	Status        InterestRateStatus `json:"status"`
	EffectiveDate time.Time          `json:"effective_date"`
	ExpiredDate   time.Time          `json:"expired_date"`
	CreatedBy     int64              `json:"created_by"`
	CreatedDate   time.Time          `json:"created_date"`
}

// RateAndTerm is the explicit projection the interest engine works from:
// the contracted rate plus the term duration in months.
type RateAndTerm struct {
	RateID     int64   `json:"rate_id"`
	Percent    float64 `json:"percent"`
	TermMonths int     `json:"term_months"`
	ProductID  int64   `json:"product_id"`
}

// Term is a catalog entry for a contract duration, in months.
type Term struct {
	ID    int64 `json:"id"`
	Value int   `json:"value"`
}

// Product is a catalog entry for a deposit product line.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Rollover is a catalog entry describing one settlement disposition.
type Rollover struct {
	ID   RolloverChoice `json:"id"`
	Name string         `json:"name"`
}

// PaymentMethodInfo is a catalog entry describing one interest payment method.
type PaymentMethodInfo struct {
	ID   PaymentMethod `json:"id"`
	Name string        `json:"name"`
}

// CreateInterestRateRequest is the DTO for publishing a new rate record.
type CreateInterestRateRequest struct {
	ProductID     int64     `json:"product_id"`
	TermID        int64     `json:"term_id"`
	Value         float64   `json:"value"`
	EffectiveDate time.Time `json:"effective_date"`
	ExpiredDate   time.Time `json:"expired_date"`
}
