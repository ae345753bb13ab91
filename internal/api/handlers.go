/**
 * @description
 * This file contains the HTTP handlers for the account service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain: For service logic, models, and error kinds.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/minhnhat165/banking-be/internal/app"
	"github.com/minhnhat165/banking-be/internal/domain"
)

// AccountHandlers holds the application service that handlers will use.
type AccountHandlers struct {
	service *app.Service
}

// NewAccountHandlers creates a new instance of AccountHandlers.
func NewAccountHandlers(service *app.Service) *AccountHandlers {
	return &AccountHandlers{service: service}
}

func (h *AccountHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
		}
	}
}

func (h *AccountHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a business error kind to an HTTP status. Anything
// unclassified becomes a 500 with the internals hidden.
func (h *AccountHandlers) writeServiceError(w http.ResponseWriter, err error) {
	var status int
	switch app.KindOf(err) {
	case app.KindBadRequest:
		status = http.StatusBadRequest
	case app.KindUnauthorized:
		status = http.StatusUnauthorized
	case app.KindForbidden:
		status = http.StatusForbidden
	case app.KindNotFound:
		status = http.StatusNotFound
	case app.KindConflict:
		status = http.StatusConflict
	default:
		log.Printf("level=error component=api msg=\"internal error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if appErr, ok := err.(*app.Error); ok {
		h.writeError(w, status, appErr.Message)
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *AccountHandlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id in path")
		return 0, false
	}
	return id, true
}

// OpenAccountHandler handles back-office account creation.
func (h *AccountHandlers) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := h.service.OpenAccount(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns one account by id.
func (h *AccountHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// GetAccountByNumberHandler returns one account by its external number, used
// by teller lookups and transfer forms.
func (h *AccountHandlers) GetAccountByNumberHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "accountNumber")
	account, err := h.service.GetAccountByNumber(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// ListCustomerAccountsHandler returns every account a customer owns.
func (h *AccountHandlers) ListCustomerAccountsHandler(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.pathID(w, r, "customerID")
	if !ok {
		return
	}
	accounts, err := h.service.ListCustomerAccounts(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

// UpdateAccountHandler patches an account that is still INACTIVATED.
func (h *AccountHandlers) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var patch domain.AccountPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := h.service.UpdateAccount(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// DeleteAccountHandler removes an account that was never activated.
func (h *AccountHandlers) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivateAccountHandler verifies the emailed pin and activates the account.
func (h *AccountHandlers) ActivateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := h.service.ActivateAccount(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

type changePinRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

// ChangePINHandler replaces the account pin after verifying the current one.
func (h *AccountHandlers) ChangePINHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var req changePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.ChangePIN(r.Context(), id, req.CurrentPIN, req.NewPIN); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "pin changed"})
}

// ResetPINHandler issues a fresh server-generated pin and emails it.
func (h *AccountHandlers) ResetPINHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	if err := h.service.ResetPIN(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "pin reset"})
}

// DepositHandler credits an activated checking account.
func (h *AccountHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := h.service.Deposit(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// TransferHandler moves money between two checking accounts.
func (h *AccountHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// SettleHandler resolves a deposit account with the requested rollover.
func (h *AccountHandlers) SettleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var req domain.SettleAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.Settle(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PayInterestHandler manually triggers the monthly interest payment for one
// account. The store's pay-date claim makes repeated calls harmless.
func (h *AccountHandlers) PayInterestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	entry, err := h.service.PayAccountInterest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// ListTransactionsHandler returns the ledger history for an account.
func (h *AccountHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	transactions, err := h.service.ListTransactions(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// RegisterHandler stages a self-service account registration and emails the
// verification code.
func (h *AccountHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	registrationID, err := h.service.RegisterAccount(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"registration_id": registrationID})
}

// VerifyRegistrationHandler redeems a staged registration with its code.
func (h *AccountHandlers) VerifyRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := h.service.VerifyRegistration(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// ListTermsHandler returns the term catalog.
func (h *AccountHandlers) ListTermsHandler(w http.ResponseWriter, r *http.Request) {
	terms, err := h.service.ListTerms(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, terms)
}

// ListProductsHandler returns the product catalog.
func (h *AccountHandlers) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// ListRolloversHandler returns the rollover disposition catalog.
func (h *AccountHandlers) ListRolloversHandler(w http.ResponseWriter, r *http.Request) {
	rollovers, err := h.service.ListRollovers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rollovers)
}

// ListPaymentMethodsHandler returns the payment method catalog.
func (h *AccountHandlers) ListPaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListPaymentMethods(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, methods)
}

// ListInterestRatesHandler returns every rate record.
func (h *AccountHandlers) ListInterestRatesHandler(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.ListInterestRates(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if rates == nil {
		rates = []domain.InterestRate{}
	}
	h.writeJSON(w, http.StatusOK, rates)
}

// CreateInterestRateHandler publishes a new rate record attributed to the
// authenticated employee.
func (h *AccountHandlers) CreateInterestRateHandler(w http.ResponseWriter, r *http.Request) {
	createdBy, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var req domain.CreateInterestRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rate, err := h.service.CreateInterestRate(r.Context(), createdBy, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rate)
}

// UpdateInterestRateHandler modifies an unreferenced rate record.
func (h *AccountHandlers) UpdateInterestRateHandler(w http.ResponseWriter, r *http.Request) {
	rateID, ok := h.pathID(w, r, "rateID")
	if !ok {
		return
	}
	var req domain.CreateInterestRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rate, err := h.service.UpdateInterestRate(r.Context(), rateID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rate)
}

// DeleteInterestRateHandler removes an unreferenced rate record.
func (h *AccountHandlers) DeleteInterestRateHandler(w http.ResponseWriter, r *http.Request) {
	rateID, ok := h.pathID(w, r, "rateID")
	if !ok {
		return
	}
	if err := h.service.DeleteInterestRate(r.Context(), rateID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandlers) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	subject, ok := GetEmployeeID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid token subject")
		return 0, false
	}
	return id, true
}
