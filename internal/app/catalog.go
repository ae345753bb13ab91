/**
 * @description
 * Reference catalog reads and the interest-rate administration operations.
 * Rate records that live accounts reference cannot be changed or deleted;
 * new rates activate automatically when their effective date passes.
 */

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/minhnhat165/banking-be/internal/domain"
	"github.com/minhnhat165/banking-be/internal/store"
)

// CreateInterestRate publishes a new rate record. Its status is derived from
// the effective date: already effective means ACTIVATED, otherwise the sweep
// flips it when the date arrives.
func (s *Service) CreateInterestRate(ctx context.Context, createdBy int64, req domain.CreateInterestRateRequest) (*domain.InterestRate, error) {
	if req.Value < 0 {
		return nil, badRequest("rate value cannot be negative")
	}
	if !req.ExpiredDate.After(req.EffectiveDate) {
		return nil, badRequest("expiry date must be after the effective date")
	}
	now := s.now()
	status := domain.RateStatusInactivated
	if !req.EffectiveDate.After(now) {
		status = domain.RateStatusActivated
	}
	rate, err := s.repo.CreateInterestRate(ctx, &domain.InterestRate{
		ProductID:     req.ProductID,
		TermID:        req.TermID,
		Value:         req.Value,
		Status:        status,
		EffectiveDate: req.EffectiveDate,
		ExpiredDate:   req.ExpiredDate,
		CreatedBy:     createdBy,
		CreatedDate:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create interest rate: %w", err)
	}
	return rate, nil
}

// UpdateInterestRate modifies a rate record no account references yet.
func (s *Service) UpdateInterestRate(ctx context.Context, rateID int64, req domain.CreateInterestRateRequest) (*domain.InterestRate, error) {
	if req.Value < 0 {
		return nil, badRequest("rate value cannot be negative")
	}
	if !req.ExpiredDate.After(req.EffectiveDate) {
		return nil, badRequest("expiry date must be after the effective date")
	}
	if err := s.requireUnreferencedRate(ctx, rateID); err != nil {
		return nil, err
	}
	status := domain.RateStatusInactivated
	if !req.EffectiveDate.After(s.now()) {
		status = domain.RateStatusActivated
	}
	rate, err := s.repo.UpdateInterestRate(ctx, &domain.InterestRate{
		ID:            rateID,
		ProductID:     req.ProductID,
		TermID:        req.TermID,
		Value:         req.Value,
		Status:        status,
		EffectiveDate: req.EffectiveDate,
		ExpiredDate:   req.ExpiredDate,
	})
	if err != nil {
		if errors.Is(err, store.ErrRateNotFound) {
			return nil, notFound("interest rate not found")
		}
		return nil, fmt.Errorf("failed to update interest rate: %w", err)
	}
	return rate, nil
}

// DeleteInterestRate removes a rate record no account references.
func (s *Service) DeleteInterestRate(ctx context.Context, rateID int64) error {
	if err := s.requireUnreferencedRate(ctx, rateID); err != nil {
		return err
	}
	if err := s.repo.DeleteInterestRate(ctx, rateID); err != nil {
		if errors.Is(err, store.ErrRateNotFound) {
			return notFound("interest rate not found")
		}
		return fmt.Errorf("failed to delete interest rate: %w", err)
	}
	return nil
}

func (s *Service) requireUnreferencedRate(ctx context.Context, rateID int64) error {
	count, err := s.repo.CountAccountsByInterestRate(ctx, rateID)
	if err != nil {
		return fmt.Errorf("failed to count accounts on rate: %w", err)
	}
	if count > 0 {
		return forbidden("interest rate is referenced by existing accounts")
	}
	return nil
}

// ListInterestRates retrieves all rate records, newest first.
func (s *Service) ListInterestRates(ctx context.Context) ([]domain.InterestRate, error) {
	return s.repo.ListInterestRates(ctx)
}

// ListTerms retrieves the term catalog.
func (s *Service) ListTerms(ctx context.Context) ([]domain.Term, error) {
	return s.repo.ListTerms(ctx)
}

// ListProducts retrieves the product catalog.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// ListRollovers retrieves the rollover disposition catalog.
func (s *Service) ListRollovers(ctx context.Context) ([]domain.Rollover, error) {
	return s.repo.ListRollovers(ctx)
}

// ListPaymentMethods retrieves the payment method catalog.
func (s *Service) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodInfo, error) {
	return s.repo.ListPaymentMethods(ctx)
}
