package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sevapay/internal/auth"
	"sevapay/internal/config"
	"sevapay/internal/donation"
	"sevapay/internal/logger"
	"sevapay/internal/metrics"
	"sevapay/internal/utils"

	"go.uber.org/zap"
)

const (
	pathInit   = "/payment/init/"
	pathVerify = "/payment/verify/"
	pathCreate = "/payment/create/"
)

// Client talks to the organization's payment backend. It owns no state
// besides configuration and never retries.
type Client struct {
	baseURL    string
	keyID      string
	currency   string
	httpClient *http.Client
	now        func() time.Time
}

// ----------------- Constructor -----------------

func NewClient(cfg *config.Config) *Client {
	if cfg.RazorpayKeyID == "" {
		logger.L().Warn("gateway key id is empty, relying on backend supplied keys")
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		keyID:    cfg.RazorpayKeyID,
		currency: currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// ----------------- CreateOrder -----------------

func (c *Client) CreateOrder(ctx context.Context, req donation.PaymentRequest) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payer", req.Name),
		zap.Int64("amount", req.Amount),
		zap.String("payment_for", string(req.PaymentFor)),
	)

	body := map[string]interface{}{
		"name":        req.Name,
		"email":       req.Email,
		"phone":       req.Phone,
		"amount":      req.Amount,
		"payment_for": string(req.PaymentFor),
		"notes":       req.Notes,
		"currency":    c.currency,
	}

	log.Info("Creating payment order")

	status, env, err := c.post(ctx, pathInit, body)
	if err != nil {
		log.Error("Order request failed", zap.Error(err))
		return nil, networkError(err)
	}

	if alreadyMember(status, env) {
		log.Warn("Payer already holds this membership", zap.Int("status", status))
		return nil, &APIError{StatusCode: status, Message: ErrAlreadyMember.Error(), kind: ErrAlreadyMember}
	}

	if !isSuccess(status) {
		msg := utils.FirstNonEmpty(env.Error, env.Message, env.Detail, statusFallback(status, msgOrderFailed))
		log.Error("Backend rejected order", zap.Int("status", status), zap.String("message", msg))
		return nil, &APIError{StatusCode: status, Message: msg, kind: ErrRequestFailed}
	}

	if env.OrderID == "" {
		log.Error("Backend response has no order id", zap.Int("status", status))
		return nil, &APIError{StatusCode: status, Message: ErrNoOrderID.Error(), kind: ErrNoOrderID}
	}

	order := &Order{
		ID:       env.OrderID,
		Amount:   req.Amount,
		Currency: utils.FirstNonEmpty(env.Currency, c.currency),
		Key:      utils.FirstNonEmpty(env.RazorpayKey, c.keyID),
	}
	if env.Amount.Set {
		order.Amount = env.Amount.Value
	}

	log.Info("Payment order created", zap.String("order_id", order.ID))
	return order, nil
}

// ----------------- VerifyPayment -----------------

// VerifyPayment forwards the widget's callback fields untouched. The
// signature is only ever checked by the backend.
func (c *Client) VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (*Verification, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID),
	)

	body := map[string]interface{}{
		"order_id":   orderID,
		"payment_id": paymentID,
		"signature":  signature,
	}

	status, env, err := c.post(ctx, pathVerify, body)
	if err != nil {
		log.Error("Verify request failed", zap.Error(err))
		return nil, networkError(err)
	}

	if !isSuccess(status) {
		msg := utils.FirstNonEmpty(env.Error, env.Message, env.Detail, msgVerifyFailed)
		log.Error("Payment verification failed", zap.Int("status", status), zap.String("message", msg))
		return nil, &APIError{StatusCode: status, Message: msg, kind: ErrRequestFailed}
	}

	log.Info("Payment verified", zap.String("status", env.Status))

	return &Verification{
		Verified:   true,
		DonationID: string(env.DonationID),
		ReceiptURL: env.ReceiptURL,
		PaymentID:  utils.FirstNonEmpty(env.PaymentID, paymentID),
		OrderID:    utils.FirstNonEmpty(env.OrderID, orderID),
		Status:     env.Status,
		Message:    env.Message,
	}, nil
}

// ----------------- RecordManualPayment -----------------

// RecordManualPayment stores an offline payment as already completed.
// Only the detail fields of the chosen method are sent.
func (c *Client) RecordManualPayment(ctx context.Context, m donation.ManualPayment) (*ManualRecord, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payer", m.Name),
		zap.Int64("amount", m.Amount),
		zap.String("method", string(m.Method)),
	)

	ms := c.now().UnixMilli()
	orderID := fmt.Sprintf("manual_order_%d", ms)
	paymentID := fmt.Sprintf("manual_payment_%d", ms)

	body := map[string]interface{}{
		"name":            m.Name,
		"email":           m.Email,
		"phone":           m.Phone,
		"amount":          m.Amount,
		"payment_for":     m.PaymentFor,
		"notes":           m.Notes,
		"method":          string(m.Method),
		"payment_details": m.RelevantDetails(),
		"status":          "COMPLETED",
		"order_id":        orderID,
		"payment_id":      paymentID,
	}

	status, env, err := c.post(ctx, pathCreate, body)
	if err != nil {
		log.Error("Manual payment request failed", zap.Error(err))
		return nil, networkError(err)
	}

	if status == http.StatusForbidden {
		log.Warn("Caller lacks privileges for manual payments")
		return nil, &APIError{StatusCode: status, Message: ErrForbidden.Error(), kind: ErrForbidden}
	}

	if !isSuccess(status) {
		msg := utils.FirstNonEmpty(env.Error, env.Message, env.Detail, msgManualFailed)
		log.Error("Backend rejected manual payment", zap.Int("status", status), zap.String("message", msg))
		return nil, &APIError{StatusCode: status, Message: msg, kind: ErrRequestFailed}
	}

	if env.ID == "" {
		log.Error("Manual payment response has no id")
		return nil, &APIError{StatusCode: status, Message: ErrInvalidRecord.Error(), kind: ErrInvalidRecord}
	}

	log.Info("Manual payment recorded", zap.String("id", string(env.ID)))

	return &ManualRecord{
		ID:        string(env.ID),
		OrderID:   utils.FirstNonEmpty(env.OrderID, orderID),
		PaymentID: utils.FirstNonEmpty(env.PaymentID, paymentID),
		Status:    utils.FirstNonEmpty(env.Status, "COMPLETED"),
	}, nil
}

// ----------------- helpers -----------------

// post sends one JSON request. A non-JSON body decodes to an empty envelope;
// only transport failures are returned as errors.
func (c *Client) post(ctx context.Context, path string, body interface{}) (int, envelope, error) {
	var env envelope
	timer := metrics.StartTimer()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return 0, env, fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, env, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := auth.AccessTokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendCall(path, "error", timer.Duration())
		return 0, env, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordBackendCall(path, "error", timer.Duration())
		return 0, env, fmt.Errorf("read %s response: %w", path, err)
	}

	metrics.RecordBackendCall(path, outcome(resp.StatusCode), timer.Duration())

	if len(bytes.TrimSpace(bodyBytes)) > 0 {
		if err := json.Unmarshal(bodyBytes, &env); err != nil {
			logger.FromCtx(ctx).Warn("Backend response is not JSON",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.ByteString("response", bodyBytes),
			)
			env = envelope{}
		}
	}

	return resp.StatusCode, env, nil
}

// alreadyMember checks the structured code first, then the status, then the
// text the backend used before it had a code.
func alreadyMember(status int, env envelope) bool {
	if env.Code == codeAlreadyMember {
		return true
	}
	if status == http.StatusConflict {
		return true
	}
	for _, text := range []string{env.Error, env.Message, env.Detail} {
		if strings.Contains(strings.ToLower(text), phraseAlreadyAMember) {
			return true
		}
	}
	return false
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func outcome(status int) string {
	switch {
	case isSuccess(status):
		return "success"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
