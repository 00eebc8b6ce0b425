package checkout

import (
	"sevapay/internal/donation"
	"sevapay/internal/payment"
)

// Options is serialized as-is into the widget constructor.
type Options struct {
	Key              string            `json:"key"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Image            string            `json:"image,omitempty"`
	OrderID          string            `json:"order_id"`
	Prefill          Prefill           `json:"prefill"`
	Notes            map[string]string `json:"notes"`
	Theme            Theme             `json:"theme"`
	Modal            Modal             `json:"modal"`
	Readonly         Readonly          `json:"readonly"`
	Retry            Retry             `json:"retry"`
	Timeout          int               `json:"timeout"`
	RememberCustomer bool              `json:"remember_customer"`
	SendSMSHash      bool              `json:"send_sms_hash"`
	AllowRotation    bool              `json:"allow_rotation"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color         string `json:"color"`
	BackdropColor string `json:"backdrop_color"`
}

type Modal struct {
	Escape        bool `json:"escape"`
	BackdropClose bool `json:"backdropclose"`
	Animation     bool `json:"animation"`
	ConfirmClose  bool `json:"confirm_close"`
}

type Readonly struct {
	Contact bool `json:"contact"`
	Email   bool `json:"email"`
	Name    bool `json:"name"`
}

type Retry struct {
	Enabled  bool `json:"enabled"`
	MaxCount int  `json:"max_count"`
}

// Branding is the organization-level part of the widget configuration.
type Branding struct {
	DisplayName string
	LogoURL     string
	ThemeColor  string
}

const (
	defaultThemeColor = "#FF9933"
	backdropColor     = "rgba(0, 0, 0, 0.6)"
	widgetTimeout     = 900
	widgetRetries     = 4
)

// BuildOptions assembles the widget configuration for one order.
func BuildOptions(b Branding, order *payment.Order, req donation.PaymentRequest) Options {
	color := b.ThemeColor
	if color == "" {
		color = defaultThemeColor
	}

	amount := order.Amount
	if amount == 0 {
		amount = req.Amount
	}

	return Options{
		Key:         order.Key,
		Amount:      amount,
		Currency:    order.Currency,
		Name:        b.DisplayName,
		Description: "Donation - " + string(req.PaymentFor),
		Image:       b.LogoURL,
		OrderID:     order.ID,
		Prefill: Prefill{
			Name:    req.Name,
			Email:   req.Email,
			Contact: req.Phone,
		},
		Notes: map[string]string{
			"payment_for": string(req.PaymentFor),
			"notes":       req.Notes,
			"donor_name":  req.Name,
			"donor_email": req.Email,
			"donor_phone": req.Phone,
		},
		Theme: Theme{
			Color:         color,
			BackdropColor: backdropColor,
		},
		Modal: Modal{
			Escape:        true,
			BackdropClose: false,
			Animation:     true,
			ConfirmClose:  true,
		},
		Readonly: Readonly{Contact: true, Email: true, Name: true},
		Retry: Retry{
			Enabled:  true,
			MaxCount: widgetRetries,
		},
		Timeout:          widgetTimeout,
		RememberCustomer: false,
		SendSMSHash:      true,
		AllowRotation:    true,
	}
}
