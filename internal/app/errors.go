/**
 * @description
 * Kinded errors for the business layer. Handlers translate a Kind into an
 * HTTP status without inspecting messages, and every constructor keeps the
 * wrapped cause reachable through errors.Is/As.
 */

package app

import "fmt"

// Kind classifies a business error for transport mapping.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error carries a kind, a safe client-facing message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(message string) error { return &Error{Kind: KindBadRequest, Message: message} }

func unauthorized(message string) error { return &Error{Kind: KindUnauthorized, Message: message} }

func forbidden(message string) error { return &Error{Kind: KindForbidden, Message: message} }

func notFound(message string) error { return &Error{Kind: KindNotFound, Message: message} }

func conflict(message string) error { return &Error{Kind: KindConflict, Message: message} }

func wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain; unclassified errors report
// KindInternal so nothing leaks by default.
func KindOf(err error) Kind {
	for err != nil {
		if appErr, ok := err.(*Error); ok {
			return appErr.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindInternal
		}
		err = u.Unwrap()
	}
	return KindInternal
}
