/**
 * @description
 * Self-service account opening: the request is staged in the expiring
 * key-value store under a transient id while a verification code travels to
 * the customer's email. Confirming the code creates the account for real.
 * Nothing touches the database until the code is confirmed.
 */

package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/minhnhat165/banking-be/internal/domain"
	"github.com/minhnhat165/banking-be/internal/store"
)

const verificationCodeLength = 6

// RegisterAccount stages an account-opening request and emails a verification
// code. Returns the transient registration id the customer confirms with.
func (s *Service) RegisterAccount(ctx context.Context, req domain.OpenAccountRequest) (string, error) {
	email, err := s.registrationEmail(ctx, req)
	if err != nil {
		return "", err
	}
	if err := s.validateOpenRequest(ctx, req); err != nil {
		return "", err
	}

	code, err := randomDigits(verificationCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	registrationID := uuid.NewString()
	registration := &domain.PendingRegistration{
		Request: req,
		Email:   email,
		Code:    code,
	}
	if err := s.staging.StagePendingRegistration(ctx, registrationID, registration, s.registrationTTL); err != nil {
		return "", fmt.Errorf("failed to stage registration: %w", err)
	}

	s.sendEmail(ctx, email, "Confirm your account registration",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.registrationTTL.Minutes())))

	return registrationID, nil
}

// registrationEmail resolves where the verification code goes, rejecting
// registrations whose inline customer email is already taken before anything
// is staged.
func (s *Service) registrationEmail(ctx context.Context, req domain.OpenAccountRequest) (string, error) {
	if req.Customer != nil {
		if req.Customer.Email == "" || req.Customer.FullName == "" {
			return "", badRequest("customer full name and email are required")
		}
		if _, err := s.repo.FindCustomerByEmail(ctx, req.Customer.Email); err == nil {
			return "", conflict("a customer with this email already exists")
		} else if !errors.Is(err, store.ErrCustomerNotFound) {
			return "", fmt.Errorf("failed to check customer email: %w", err)
		}
		return req.Customer.Email, nil
	}
	customer, err := s.repo.FindCustomerByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, store.ErrCustomerNotFound) {
			return "", notFound("customer not found")
		}
		return "", fmt.Errorf("failed to find customer: %w", err)
	}
	return customer.Email, nil
}

// VerifyRegistration redeems a staged registration. The staging read is
// destructive, so a code gets exactly one confirmation attempt; a wrong code
// discards the registration and the customer starts over.
func (s *Service) VerifyRegistration(ctx context.Context, req domain.VerifyRegistrationRequest) (*domain.Account, error) {
	registration, err := s.staging.TakePendingRegistration(ctx, req.RegistrationID)
	if err != nil {
		if errors.Is(err, store.ErrStagingNotFound) {
			return nil, notFound("registration not found or expired")
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(registration.Code), []byte(req.Code)) != 1 {
		return nil, unauthorized("invalid verification code")
	}
	return s.OpenAccount(ctx, registration.Request)
}
