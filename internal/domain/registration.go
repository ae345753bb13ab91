package domain

// PendingRegistration is the short-lived staging record for the self-service
// account opening flow. It lives in an expiring key-value store under a
// transient id until the customer confirms the emailed verification code, and
// is discarded unread when the TTL lapses.
type PendingRegistration struct {
	Request OpenAccountRequest `json:"request"`
	Email   string             `json:"email"`
	Code    string             `json:"code"`
}

// VerifyRegistrationRequest confirms a staged registration.
type VerifyRegistrationRequest struct {
	RegistrationID string `json:"registration_id"`
	Code           string `json:"code"`
}
