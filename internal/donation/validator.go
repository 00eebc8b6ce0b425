package donation

import (
	"regexp"
	"strings"

	"sevapay/internal/utils"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

// fieldOrder decides which error FirstError reports.
var fieldOrder = []string{"name", "email", "phone", "amount", "payment_for"}

// Rules are the organization-level limits applied to a Form.
type Rules struct {
	MaxAmount int64
	Purposes  []Purpose
}

var DefaultRules = Rules{
	MaxAmount: 500000,
	Purposes: []Purpose{
		PurposeDonation,
		PurposeGeneral,
		PurposeMember,
		PurposeVolunteer,
		PurposeOther,
	},
}

// Validate checks f against DefaultRules.
func Validate(f Form) map[string]string {
	return DefaultRules.Validate(f)
}

// Validate returns field -> message for every failing field. An empty map
// means the form may be submitted.
func (r Rules) Validate(f Form) map[string]string {
	errs := make(map[string]string)

	if len([]rune(strings.TrimSpace(f.Name))) < 2 {
		errs["name"] = "Name must be at least 2 characters long"
	}

	if !emailRegex.MatchString(strings.TrimSpace(f.Email)) {
		errs["email"] = "Please enter a valid email address"
	}

	if !phoneRegex.MatchString(utils.DigitsOnly(f.Phone)) {
		errs["phone"] = "Please enter a valid 10-digit phone number"
	}

	switch {
	case f.Amount < 1:
		errs["amount"] = "Please select or enter a donation amount"
	case r.MaxAmount > 0 && f.Amount > r.MaxAmount:
		errs["amount"] = "Maximum donation amount is ₹" + utils.FormatIndian(r.MaxAmount)
	}

	if !r.allows(f.PaymentFor) {
		errs["payment_for"] = "Please select what your donation is for"
	}

	return errs
}

// ValidateRequest checks a request whose amount is already in paise.
func (r Rules) ValidateRequest(req PaymentRequest) map[string]string {
	return r.Validate(Form{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Amount:     req.MajorAmount(),
		PaymentFor: req.PaymentFor,
		Notes:      req.Notes,
	})
}

func (r Rules) allows(p Purpose) bool {
	for _, allowed := range r.Purposes {
		if p == allowed {
			return true
		}
	}
	return false
}

// FirstError picks one message to show when only a single error fits.
func FirstError(errs map[string]string) string {
	for _, field := range fieldOrder {
		if msg, ok := errs[field]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return ""
}

// ValidateManual checks the fields an operator must fill in before an
// offline payment is recorded.
func ValidateManual(m ManualPayment) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(m.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(m.Email) == "" {
		errs["email"] = "Email is required"
	}
	if strings.TrimSpace(m.Phone) == "" {
		errs["phone"] = "Phone is required"
	}
	if m.Amount < 1 {
		errs["amount"] = "Amount is required"
	}
	if strings.TrimSpace(m.PaymentFor) == "" {
		errs["payment_for"] = "Payment purpose is required"
	}

	switch m.Method {
	case MethodCash, MethodCheque, MethodBankTransfer, MethodUPI:
	default:
		errs["method"] = "Unsupported payment method"
	}

	return errs
}
