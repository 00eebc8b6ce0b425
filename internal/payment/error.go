package payment

import (
	"errors"
	"net/http"
)

var (
	ErrAlreadyMember = errors.New("you are already a member. Please sign in to access your membership")
	ErrNoOrderID     = errors.New("No order ID received from server")
	ErrForbidden     = errors.New("You need admin or staff privileges to create manual payments. Please contact an administrator to get the required permissions.")
	ErrInvalidRecord = errors.New("Invalid response from server")
	ErrRequestFailed = errors.New("payment backend request failed")
	ErrNetwork       = errors.New("network error")
)

const (
	msgNetwork           = "Network error. Please check your internet connection"
	msgUnauthorized      = "Please login to continue with payment"
	msgServer            = "Server error. Please try again later"
	msgOrderFailed       = "Failed to create order"
	msgVerifyFailed      = "Payment verification failed"
	msgManualFailed      = "Failed to create payment record"
	codeAlreadyMember    = "already_member"
	phraseAlreadyAMember = "already a member"
)

// APIError is a failed backend call with the message a payer should see.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel kind and the transport cause.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message returns the user-facing text of any error produced by this package.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func networkError(err error) *APIError {
	return &APIError{Message: msgNetwork, kind: ErrNetwork, Err: err}
}

// statusFallback is used when the body carried no message of its own.
func statusFallback(status int, fallback string) string {
	switch status {
	case http.StatusUnauthorized:
		return msgUnauthorized
	case http.StatusInternalServerError:
		return msgServer
	default:
		return fallback
	}
}
