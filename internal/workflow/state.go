package workflow

import (
	"errors"

	"sevapay/internal/payment"
)

type State string

const (
	StateIdle           State = "idle"
	StateCreatingOrder  State = "creating-order"
	StateWaitingPayment State = "waiting-payment"
	StateVerifying      State = "verifying"
	StateCompleted      State = "completed"
)

// ErrorKind tells callers how to surface Status.Error.
type ErrorKind string

const (
	ErrorNone         ErrorKind = ""
	ErrorValidation   ErrorKind = "validation"
	ErrorOrder        ErrorKind = "order"
	ErrorConflict     ErrorKind = "conflict"
	ErrorCancelled    ErrorKind = "cancelled"
	ErrorVerification ErrorKind = "verification"
	ErrorManual       ErrorKind = "manual"
)

var (
	ErrBusy      = errors.New("a payment is already in progress")
	ErrCompleted = errors.New("payment already completed, reset to start a new one")
)

const (
	msgCancelled         = "Payment cancelled by user"
	msgIncompletePayload = "Payment verification data is incomplete"
	msgVerifyFailed      = "Payment verification failed"
)

// Status is a point-in-time copy of the controller's state.
type Status struct {
	State       State             `json:"state"`
	Processing  bool              `json:"processing"`
	Error       string            `json:"error,omitempty"`
	ErrorKind   ErrorKind         `json:"error_kind,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Success     bool              `json:"success"`
	DonationID  string            `json:"donation_id,omitempty"`
	ReceiptURL  string            `json:"receipt_url,omitempty"`
	ReceiptLink string            `json:"receipt_link,omitempty"`
	Order       *payment.Order    `json:"order,omitempty"`
}

// Retryable reports whether resubmitting the same form can help.
func (s Status) Retryable() bool {
	return s.State == StateIdle && s.ErrorKind != ErrorConflict && s.ErrorKind != ErrorValidation
}
