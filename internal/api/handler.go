package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"sevapay/internal/checkout"
	"sevapay/internal/config"
	"sevapay/internal/donation"
	"sevapay/internal/logger"
	"sevapay/internal/payment"
	"sevapay/internal/session"
	"sevapay/internal/utils"
	"sevapay/internal/workflow"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	msgNoSession    = "Payment session not found or expired"
	msgNoPending    = "No pending payment for this session"
	msgBadBody      = "Invalid request body"
	msgNoJournal    = "Reconciliation journal is not enabled"
	codeAlreadyHeld = "already_member"
)

// ControllerFactory builds a fresh controller for one form session. ctx
// carries the caller's identity and location claims.
type ControllerFactory func(ctx context.Context, purpose donation.Purpose) *workflow.Controller

type Deps struct {
	Config        *config.Config
	Store         *session.Store
	Hosted        *checkout.Hosted
	Journal       payment.Repository
	NewController ControllerFactory
	Rules         donation.Rules
}

type Handler struct {
	cfg           *config.Config
	store         *session.Store
	hosted        *checkout.Hosted
	journal       payment.Repository
	newController ControllerFactory
	rules         donation.Rules
	pages         *template.Template
}

func NewHandler(d Deps) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	rules := d.Rules
	if rules.MaxAmount == 0 {
		rules = donation.DefaultRules
	}

	return &Handler{
		cfg:           d.Config,
		store:         d.Store,
		hosted:        d.Hosted,
		journal:       d.Journal,
		newController: d.NewController,
		rules:         rules,
		pages:         pages,
	}, nil
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/donations", h.CreateDonation)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/reset", h.ResetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)

	mux.HandleFunc("GET /checkout/{id}", h.CheckoutPage)
	mux.HandleFunc("POST /checkout/{id}/success", h.CheckoutSuccess)
	mux.HandleFunc("POST /checkout/{id}/dismiss", h.CheckoutDismiss)

	mux.HandleFunc("POST /api/payments/manual", h.RecordManualPayment)
	mux.HandleFunc("GET /api/payments/failures", h.ListFailures)
	mux.HandleFunc("POST /api/payments/failures/{id}/resolve", h.ResolveFailure)

	mux.HandleFunc("GET /receipt", h.ReceiptPage)
}

type sessionResponse struct {
	SessionID   string          `json:"session_id"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	Status      workflow.Status `json:"status"`
	Error       string          `json:"error,omitempty"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type conflictResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Action string `json:"action"`
}

func checkoutURL(id string) string {
	return "/checkout/" + id
}

// ----------------- Donations -----------------

func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	var form donation.Form
	if err := decodeJSON(w, r, &form); err != nil {
		utils.WriteJSONError(w, msgBadBody, http.StatusBadRequest)
		return
	}

	if errs := h.rules.Validate(form); len(errs) > 0 {
		utils.WriteJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:  donation.FirstError(errs),
			Fields: errs,
		})
		return
	}

	c := h.newController(ctx, form.PaymentFor)
	err := c.Submit(ctx, form.Request())
	st := c.Status()

	var vErr *donation.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &vErr):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: vErr.Error(), Fields: vErr.Fields})
		return
	case errors.Is(err, payment.ErrAlreadyMember):
		utils.WriteJSON(w, http.StatusConflict, conflictResponse{
			Error:  st.Error,
			Code:   codeAlreadyHeld,
			Action: "sign_in",
		})
		return
	default:
		log.Warn("Donation submission failed", zap.Error(err))
		utils.WriteJSONError(w, utils.FirstNonEmpty(st.Error, payment.Message(err)), http.StatusBadGateway)
		return
	}

	sess := h.store.Create(c)
	log.Info("Payment session started",
		zap.String("session_id", sess.ID),
		zap.String("order_id", c.PendingOrderID()),
	)

	utils.WriteJSON(w, http.StatusCreated, sessionResponse{
		SessionID:   sess.ID,
		CheckoutURL: checkoutURL(sess.ID),
		Status:      st,
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Reset()
	h.writeSession(w, http.StatusOK, sess)
}

// DeleteSession abandons a form: any pending checkout is discarded first.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Reset()
	h.store.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ----------------- Checkout callbacks -----------------

func (h *Handler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var payload checkout.Payload
	if err := decodeJSON(w, r, &payload); err != nil {
		utils.WriteJSONError(w, msgBadBody, http.StatusBadRequest)
		return
	}

	orderID := sess.Controller.PendingOrderID()
	if orderID == "" {
		utils.WriteJSONError(w, msgNoPending, http.StatusConflict)
		return
	}

	if err := h.hosted.Complete(r.Context(), orderID, payload); err != nil {
		utils.WriteJSONError(w, msgNoPending, http.StatusConflict)
		return
	}

	code := http.StatusOK
	if sess.Controller.Status().State != workflow.StateCompleted {
		code = http.StatusUnprocessableEntity
	}
	h.writeSession(w, code, sess)
}

func (h *Handler) CheckoutDismiss(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	orderID := sess.Controller.PendingOrderID()
	if orderID == "" {
		utils.WriteJSONError(w, msgNoPending, http.StatusConflict)
		return
	}

	if err := h.hosted.Dismiss(r.Context(), orderID); err != nil {
		utils.WriteJSONError(w, msgNoPending, http.StatusConflict)
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// ----------------- Manual payments -----------------

type manualResponse struct {
	Record *payment.ManualRecord `json:"record"`
	Status workflow.Status       `json:"status"`
}

func (h *Handler) RecordManualPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !utils.IsStaff(ctx) && !utils.IsInternalRequest(ctx) {
		utils.WriteJSONError(w, payment.ErrForbidden.Error(), http.StatusForbidden)
		return
	}

	var m donation.ManualPayment
	if err := decodeJSON(w, r, &m); err != nil {
		utils.WriteJSONError(w, msgBadBody, http.StatusBadRequest)
		return
	}

	c := h.newController(ctx, donation.Purpose(m.PaymentFor))
	rec, err := c.RecordManual(ctx, m)

	var vErr *donation.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &vErr):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: vErr.Error(), Fields: vErr.Fields})
		return
	case errors.Is(err, payment.ErrForbidden):
		utils.WriteJSONError(w, payment.Message(err), http.StatusForbidden)
		return
	default:
		utils.WriteJSONError(w, payment.Message(err), http.StatusBadGateway)
		return
	}

	logger.FromCtx(ctx).Info("Manual payment recorded",
		zap.String("record_id", rec.ID),
		zap.String("recorded_by", utils.FirstNonEmpty(utils.GetUserEmailFromContext(ctx), "internal")),
	)
	utils.WriteJSON(w, http.StatusCreated, manualResponse{Record: rec, Status: c.Status()})
}

// ----------------- Reconciliation journal -----------------

type failureResponse struct {
	ID         int64  `json:"id"`
	OrderID    string `json:"order_id"`
	PaymentID  string `json:"payment_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PayerName  string `json:"payer_name"`
	PayerEmail string `json:"payer_email"`
	PayerPhone string `json:"payer_phone"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"created_at"`
}

func (h *Handler) ListFailures(w http.ResponseWriter, r *http.Request) {
	if !h.staffWithJournal(w, r) {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	failures, err := h.journal.ListVerificationFailures(r.Context(), limit)
	if err != nil {
		logger.FromCtx(r.Context()).Error("Failed to list verification failures", zap.Error(err))
		utils.WriteJSONError(w, "Failed to load verification failures", http.StatusInternalServerError)
		return
	}

	out := make([]failureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureResponse{
			ID:         f.ID,
			OrderID:    f.OrderID,
			PaymentID:  f.PaymentID,
			Amount:     f.Amount,
			Currency:   f.Currency,
			PayerName:  f.PayerName,
			PayerEmail: f.PayerEmail,
			PayerPhone: f.PayerPhone,
			Reason:     f.Reason,
			CreatedAt:  f.CreatedAt.Format(time.RFC3339),
		})
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ResolveFailure(w http.ResponseWriter, r *http.Request) {
	if !h.staffWithJournal(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.WriteJSONError(w, "Invalid failure id", http.StatusBadRequest)
		return
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteJSONError(w, msgBadBody, http.StatusBadRequest)
		return
	}

	err = h.journal.MarkFailureResolved(r.Context(), id, body.Note)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		utils.WriteJSONError(w, "Verification failure not found or already resolved", http.StatusNotFound)
		return
	case err != nil:
		logger.FromCtx(r.Context()).Error("Failed to resolve verification failure", zap.Int64("id", id), zap.Error(err))
		utils.WriteJSONError(w, "Failed to resolve verification failure", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ----------------- helpers -----------------

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		utils.WriteJSONError(w, msgNoSession, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) writeSession(w http.ResponseWriter, code int, sess *session.Session) {
	st := sess.Controller.Status()
	resp := sessionResponse{
		SessionID: sess.ID,
		Status:    st,
		Error:     st.Error,
	}
	if st.State == workflow.StateWaitingPayment {
		resp.CheckoutURL = checkoutURL(sess.ID)
	}
	utils.WriteJSON(w, code, resp)
}

func (h *Handler) staffWithJournal(w http.ResponseWriter, r *http.Request) bool {
	if !utils.IsStaff(r.Context()) {
		utils.WriteJSONError(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return false
	}
	if h.journal == nil {
		utils.WriteJSONError(w, msgNoJournal, http.StatusServiceUnavailable)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
