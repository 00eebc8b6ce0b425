package checkout

import (
	"context"
	"errors"
)

var (
	ErrUnknownPresentation = errors.New("no pending checkout for this order")
	ErrMissingOrder        = errors.New("checkout requires an order id")
	ErrScriptUnavailable   = errors.New("Failed to load payment gateway. Please try again")
)

// Payload is the widget's success callback, forwarded to verification untouched.
type Payload struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// Hooks receive at most one terminal outcome per presentation.
type Hooks struct {
	OnSuccess func(ctx context.Context, p Payload)
	OnDismiss func(ctx context.Context)
}

// Presenter shows the third-party checkout for an order. Present returns
// once the widget is armed; the outcome arrives later through hooks.
type Presenter interface {
	Present(ctx context.Context, opts Options, hooks Hooks) error
}
