/**
 * @description
 * This file sets up the HTTP router for the account service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AccountRoutes creates and returns a new router for the account service.
func AccountRoutes(h *AccountHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public endpoints: self-service registration and activation, and the
	// reference catalogs the opening form needs.
	r.Post("/registrations", h.RegisterHandler)
	r.Post("/registrations/verify", h.VerifyRegistrationHandler)
	r.Post("/accounts/activate", h.ActivateAccountHandler)
	r.Get("/terms", h.ListTermsHandler)
	r.Get("/products", h.ListProductsHandler)
	r.Get("/rollovers", h.ListRolloversHandler)
	r.Get("/payment-methods", h.ListPaymentMethodsHandler)
	r.Get("/interest-rates", h.ListInterestRatesHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Accounts.
		r.Post("/accounts", h.OpenAccountHandler)
		r.Get("/accounts/{accountID}", h.GetAccountHandler)
		r.Get("/accounts/number/{accountNumber}", h.GetAccountByNumberHandler)
		r.Patch("/accounts/{accountID}", h.UpdateAccountHandler)
		r.Delete("/accounts/{accountID}", h.DeleteAccountHandler)
		r.Get("/customers/{customerID}/accounts", h.ListCustomerAccountsHandler)

		// Pin management.
		r.Post("/accounts/{accountID}/change-pin", h.ChangePINHandler)
		r.Post("/accounts/{accountID}/reset-pin", h.ResetPINHandler)

		// Money movement and settlement.
		r.Post("/accounts/{accountID}/deposit", h.DepositHandler)
		r.Post("/transfers", h.TransferHandler)
		r.Post("/accounts/{accountID}/settle", h.SettleHandler)
		r.Post("/accounts/{accountID}/pay-interest", h.PayInterestHandler)
		r.Get("/accounts/{accountID}/transactions", h.ListTransactionsHandler)

		// Interest rate administration.
		r.Post("/interest-rates", h.CreateInterestRateHandler)
		r.Put("/interest-rates/{rateID}", h.UpdateInterestRateHandler)
		r.Delete("/interest-rates/{rateID}", h.DeleteInterestRateHandler)
	})

	return r
}
