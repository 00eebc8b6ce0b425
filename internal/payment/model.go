package payment

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Order is what the backend returns from order initiation. It is handed to
// the checkout presenter once and never reused.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// Verification is a successful verify response.
type Verification struct {
	Verified   bool   `json:"verified"`
	DonationID string `json:"donation_id,omitempty"`
	ReceiptURL string `json:"receipt_url,omitempty"`
	PaymentID  string `json:"payment_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ManualRecord is the backend's echo of an offline payment.
type ManualRecord struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// Failure is a journal row for a verification that did not go through while
// the payer may already have been charged.
type Failure struct {
	ID         int64
	OrderID    string
	PaymentID  string
	Signature  string
	Amount     int64
	Currency   string
	PayerName  string
	PayerEmail string
	PayerPhone string
	Reason     string
	CreatedAt  time.Time
}

// envelope is the union of every field the backend sends back.
type envelope struct {
	Code        string     `json:"code"`
	Error       string     `json:"error"`
	Message     string     `json:"message"`
	Detail      string     `json:"detail"`
	ID          flexString `json:"id"`
	OrderID     string     `json:"order_id"`
	PaymentID   string     `json:"payment_id"`
	Amount      flexAmount `json:"amount"`
	Currency    string     `json:"currency"`
	RazorpayKey string     `json:"razorpay_key"`
	Status      string     `json:"status"`
	DonationID  flexString `json:"donation_id"`
	ReceiptURL  string     `json:"receipt_url"`
}

// flexAmount accepts 19900, 19900.0 and "19900.00".
type flexAmount struct {
	Value int64
	Set   bool
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	a.Value = int64(f)
	a.Set = true
	return nil
}

// flexString accepts numeric or string ids.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}
