package api

import (
	"embed"
	"html/template"
	"net/http"

	"sevapay/internal/checkout"
	"sevapay/internal/logger"
	"sevapay/internal/utils"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type checkoutPage struct {
	Title      string
	ScriptURL  string
	Options    checkout.Options
	SuccessURL string
	DismissURL string
}

// CheckoutPage serves the page that opens the gateway widget for a session's
// pending order and posts the widget's callbacks back to this service.
func (h *Handler) CheckoutPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	opts, ok := h.hosted.Lookup(sess.Controller.PendingOrderID())
	if !ok {
		http.Error(w, msgNoPending, http.StatusNotFound)
		return
	}

	data := checkoutPage{
		Title:      h.cfg.OrgName,
		ScriptURL:  h.hosted.ScriptURL(),
		Options:    opts,
		SuccessURL: checkoutURL(sess.ID) + "/success",
		DismissURL: checkoutURL(sess.ID) + "/dismiss",
	}
	h.render(w, r, "checkout.html", data)
}

type receiptPage struct {
	OrgName        string
	OrgDisplayName string
	LogoURL        string
	ThemeColor     string
	SupportEmail   string
	SupportPhone   string

	ReceiptNumber string
	Date          string
	Name          string
	Phone         string
	Mode          string
	Amount        string
	AmountWords   string

	HasLocation bool
	Country     string
	State       string
	City        string
	PostalCode  string
}

// ReceiptPage renders a printable receipt from the link built by the
// receipt dispatcher.
func (h *Handler) ReceiptPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := receiptPage{
		OrgName:        h.cfg.OrgName,
		OrgDisplayName: h.cfg.OrgDisplayName,
		LogoURL:        h.cfg.OrgLogoURL,
		ThemeColor:     h.cfg.ThemeColor,
		SupportEmail:   h.cfg.SupportEmail,
		SupportPhone:   h.cfg.SupportPhone,

		ReceiptNumber: q.Get("receiptNumber"),
		Date:          q.Get("date"),
		Name:          q.Get("name"),
		Phone:         q.Get("phone"),
		Mode:          q.Get("mode"),
		Amount:        q.Get("amount"),
		AmountWords:   q.Get("amountWords"),

		HasLocation: q.Has("country"),
		Country:     q.Get("country"),
		State:       q.Get("state"),
		City:        q.Get("city"),
		PostalCode:  q.Get("postal_code"),
	}

	if data.ReceiptNumber == "" || data.Amount == "" {
		http.Error(w, "Incomplete receipt link", http.StatusBadRequest)
		return
	}
	h.render(w, r, "receipt.html", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		logger.FromCtx(r.Context()).Error("Failed to render page", zap.String("page", name), zap.Error(err))
		utils.WriteJSONError(w, "Failed to render page", http.StatusInternalServerError)
	}
}
