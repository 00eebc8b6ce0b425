package donation

import "strings"

// Purpose tags what a payment is for; the backend stores it as payment_for.
type Purpose string

const (
	PurposeDonation  Purpose = "donation"
	PurposeGeneral   Purpose = "general"
	PurposeMember    Purpose = "member"
	PurposeVolunteer Purpose = "volunteer"
	PurposeOther     Purpose = "other"
)

// Form is what the payer typed. Amount is in whole rupees.
type Form struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Amount     int64   `json:"amount"`
	PaymentFor Purpose `json:"payment_for"`
	Notes      string  `json:"notes,omitempty"`
}

// PaymentRequest is a validated form ready for order creation.
// Amount is in minor units (paise), as the gateway expects.
type PaymentRequest struct {
	Name       string
	Email      string
	Phone      string
	Amount     int64
	PaymentFor Purpose
	Notes      string
}

// Request converts the form to a PaymentRequest. Call Validate first.
func (f Form) Request() PaymentRequest {
	return PaymentRequest{
		Name:       strings.TrimSpace(f.Name),
		Email:      strings.TrimSpace(f.Email),
		Phone:      strings.TrimSpace(f.Phone),
		Amount:     f.Amount * 100,
		PaymentFor: f.PaymentFor,
		Notes:      f.Notes,
	}
}

// MajorAmount returns the amount in whole rupees, dropping paise.
func (r PaymentRequest) MajorAmount() int64 {
	return r.Amount / 100
}

// PaymentMethod is how an offline payment was collected.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodUPI          PaymentMethod = "UPI"
)

// ManualDetails holds every method-specific field an operator may fill in.
// Only the fields relevant to the chosen method are sent.
type ManualDetails struct {
	ChequeNumber     string `json:"cheque_number,omitempty"`
	ChequeDate       string `json:"cheque_date,omitempty"`
	BankName         string `json:"bank_name,omitempty"`
	AccountNumber    string `json:"account_number,omitempty"`
	UPITransactionID string `json:"upi_transaction_id,omitempty"`
	ReferenceNumber  string `json:"reference_number,omitempty"`
}

// ManualPayment is an offline payment recorded by staff. Amount is in whole rupees.
type ManualPayment struct {
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone"`
	Amount     int64         `json:"amount"`
	PaymentFor string        `json:"payment_for"`
	Notes      string        `json:"notes"`
	Method     PaymentMethod `json:"method"`
	Details    ManualDetails `json:"payment_details"`
}

// RelevantDetails filters Details down to the fields of the chosen method.
func (m ManualPayment) RelevantDetails() map[string]string {
	d := m.Details
	switch m.Method {
	case MethodCheque:
		return map[string]string{
			"cheque_number": d.ChequeNumber,
			"cheque_date":   d.ChequeDate,
			"bank_name":     d.BankName,
		}
	case MethodBankTransfer:
		return map[string]string{
			"account_number":   d.AccountNumber,
			"reference_number": d.ReferenceNumber,
			"bank_name":        d.BankName,
		}
	case MethodUPI:
		return map[string]string{
			"upi_transaction_id": d.UPITransactionID,
			"reference_number":   d.ReferenceNumber,
		}
	default:
		return map[string]string{}
	}
}
