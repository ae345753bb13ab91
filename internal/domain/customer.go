package domain

import "time"

// Customer is the minimal projection of the customer directory that account
// operations need: an id to own accounts and an email to notify.
type Customer struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}

// CreateCustomerPayload is the DTO for creating a customer inline while
// opening their first account.
type CreateCustomerPayload struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}
