package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sevapay/internal/checkout"
	"sevapay/internal/donation"
	"sevapay/internal/logger"
	"sevapay/internal/metrics"
	"sevapay/internal/payment"
	"sevapay/internal/receipt"
	"sevapay/internal/utils"

	"go.uber.org/zap"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, req donation.PaymentRequest) (*payment.Order, error)
}

type Verifier interface {
	VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (*payment.Verification, error)
}

type ManualRecorder interface {
	RecordManualPayment(ctx context.Context, m donation.ManualPayment) (*payment.ManualRecord, error)
}

type ReceiptDispatcher interface {
	Dispatch(ctx context.Context, det receipt.Details) (string, error)
}

type Journal interface {
	SaveVerificationFailure(ctx context.Context, f *payment.Failure) (int64, bool, error)
}

// Option configures optional collaborators.
type Option func(*Controller)

// WithValidator runs v on every submitted request before any network call.
func WithValidator(v func(donation.PaymentRequest) map[string]string) Option {
	return func(c *Controller) { c.validate = v }
}

// WithObserver is called on every transition while the controller lock is
// held, so it must not call back into the controller.
func WithObserver(fn func(from, to State)) Option {
	return func(c *Controller) { c.observer = fn }
}

func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

func WithManualRecorder(m ManualRecorder) Option {
	return func(c *Controller) { c.manual = m }
}

// WithLocation prints the payer's address on the receipt.
func WithLocation(loc utils.Location) Option {
	return func(c *Controller) { c.location = &loc }
}

func WithBranding(b checkout.Branding) Option {
	return func(c *Controller) { c.branding = b }
}

// Controller drives one form session's payment from submission to receipt.
// Network calls and presenter callbacks run without the lock held.
type Controller struct {
	orders    OrderCreator
	verifier  Verifier
	presenter checkout.Presenter
	receipts  ReceiptDispatcher
	manual    ManualRecorder
	journal   Journal
	validate  func(donation.PaymentRequest) map[string]string
	observer  func(from, to State)
	location  *utils.Location
	branding  checkout.Branding

	mu          sync.Mutex
	state       State
	processing  bool
	errMsg      string
	errKind     ErrorKind
	fieldErrs   map[string]string
	success     bool
	donationID  string
	receiptURL  string
	receiptLink string
	order       *payment.Order
	request     donation.PaymentRequest
	// generation invalidates hooks of superseded presentations.
	generation uint64
}

func NewController(
	orders OrderCreator,
	verifier Verifier,
	presenter checkout.Presenter,
	receipts ReceiptDispatcher,
	opts ...Option,
) *Controller {
	c := &Controller{
		orders:    orders,
		verifier:  verifier,
		presenter: presenter,
		receipts:  receipts,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		State:       c.state,
		Processing:  c.processing,
		Error:       c.errMsg,
		ErrorKind:   c.errKind,
		Success:     c.success,
		DonationID:  c.donationID,
		ReceiptURL:  c.receiptURL,
		ReceiptLink: c.receiptLink,
	}
	if c.order != nil {
		o := *c.order
		s.Order = &o
	}
	if len(c.fieldErrs) > 0 {
		s.FieldErrors = make(map[string]string, len(c.fieldErrs))
		for k, v := range c.fieldErrs {
			s.FieldErrors[k] = v
		}
	}
	return s
}

// Submit creates an order for req and presents checkout. It returns once
// the widget is armed; the outcome arrives through the presenter hooks.
func (c *Controller) Submit(ctx context.Context, req donation.PaymentRequest) error {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromCtx(ctx).With(zap.String("payment_for", string(req.PaymentFor)))

	c.mu.Lock()
	if err := c.beginLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.request = req
	gen := c.generation
	c.mu.Unlock()

	if c.validate != nil {
		if errs := c.validate(req); len(errs) > 0 {
			c.fail(gen, donation.FirstError(errs), ErrorValidation, errs)
			return &donation.ValidationError{Fields: errs}
		}
	}

	order, err := c.orders.CreateOrder(ctx, req)
	if err != nil {
		kind := ErrorOrder
		if errors.Is(err, payment.ErrAlreadyMember) {
			kind = ErrorConflict
		}
		log.Warn("Order creation failed", zap.String("kind", string(kind)), zap.Error(err))
		c.fail(gen, payment.Message(err), kind, nil)
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Info("Order created after reset, dropping", zap.String("order_id", order.ID))
		return nil
	}
	c.order = order
	c.processing = false
	c.transitionLocked(StateWaitingPayment)
	c.mu.Unlock()

	opts := checkout.BuildOptions(c.branding, order, req)
	hooks := checkout.Hooks{
		OnSuccess: func(ctx context.Context, p checkout.Payload) { c.onSuccess(ctx, gen, p) },
		OnDismiss: func(ctx context.Context) { c.onDismiss(ctx, gen) },
	}

	if err := c.presenter.Present(ctx, opts, hooks); err != nil {
		log.Error("Checkout presentation failed", zap.String("order_id", order.ID), zap.Error(err))
		c.fail(gen, checkout.ErrScriptUnavailable.Error(), ErrorOrder, nil)
		return err
	}

	return nil
}

// RecordManual stores an offline payment collected by staff. It walks
// idle -> creating-order -> completed, or back to idle on failure.
func (c *Controller) RecordManual(ctx context.Context, m donation.ManualPayment) (*payment.ManualRecord, error) {
	ctx = context.WithoutCancel(ctx)

	if c.manual == nil {
		return nil, errors.New("manual payments are not enabled")
	}

	c.mu.Lock()
	if err := c.beginLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	gen := c.generation
	c.mu.Unlock()

	if errs := donation.ValidateManual(m); len(errs) > 0 {
		c.fail(gen, donation.FirstError(errs), ErrorValidation, errs)
		return nil, &donation.ValidationError{Fields: errs}
	}

	rec, err := c.manual.RecordManualPayment(ctx, m)
	if err != nil {
		logger.FromCtx(ctx).Warn("Manual payment failed", zap.Error(err))
		c.fail(gen, payment.Message(err), ErrorManual, nil)
		return nil, err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return rec, nil
	}
	c.processing = false
	c.success = true
	c.donationID = rec.ID
	c.order = &payment.Order{ID: rec.OrderID, Amount: m.Amount * 100}
	c.transitionLocked(StateCompleted)
	c.mu.Unlock()

	metrics.RecordCompleted("manual")

	c.dispatchReceipt(ctx, gen, receipt.Details{
		Name:        m.Name,
		Phone:       m.Phone,
		AmountMinor: m.Amount * 100,
		Mode:        manualMode(m.Method),
		PaymentID:   rec.PaymentID,
		OrderID:     rec.OrderID,
		Location:    c.location,
	})

	return rec, nil
}

// Reset returns to idle from any state and forgets everything derived from
// the previous submission. Late callbacks of that submission are ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	var pendingID string
	if c.state == StateWaitingPayment && c.order != nil {
		pendingID = c.order.ID
	}

	c.generation++
	c.processing = false
	c.clearLocked()
	c.order = nil
	c.request = donation.PaymentRequest{}
	if c.state != StateIdle {
		c.transitionLocked(StateIdle)
	}
	c.mu.Unlock()

	if pendingID == "" {
		return
	}
	if d, ok := c.presenter.(interface{ Discard(orderID string) }); ok {
		d.Discard(pendingID)
	}
}

// PendingOrderID is the order awaiting the widget, if any.
func (c *Controller) PendingOrderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateWaitingPayment || c.order == nil {
		return ""
	}
	return c.order.ID
}

func (c *Controller) onSuccess(ctx context.Context, gen uint64, p checkout.Payload) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", p.OrderID),
		zap.String("payment_id", p.PaymentID),
	)

	c.mu.Lock()
	if gen != c.generation || c.state != StateWaitingPayment {
		c.mu.Unlock()
		log.Warn("Ignoring stale success callback")
		return
	}
	req := c.request
	order := c.order
	c.processing = true
	c.transitionLocked(StateVerifying)
	c.mu.Unlock()

	if p.PaymentID == "" || p.OrderID == "" || p.Signature == "" {
		c.verificationFailed(ctx, gen, p, req, order, msgIncompletePayload)
		return
	}

	v, err := c.verifier.VerifyPayment(ctx, p.PaymentID, p.OrderID, p.Signature)
	if err != nil {
		log.Error("Verification failed", zap.Error(err))
		c.verificationFailed(ctx, gen, p, req, order, utils.FirstNonEmpty(payment.Message(err), msgVerifyFailed))
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Warn("Verification finished after reset, dropping result")
		return
	}
	c.processing = false
	c.success = true
	c.donationID = v.DonationID
	c.receiptURL = v.ReceiptURL
	c.transitionLocked(StateCompleted)
	c.mu.Unlock()

	metrics.RecordCompleted("online")
	log.Info("Payment completed")

	c.dispatchReceipt(ctx, gen, receipt.Details{
		Name:        req.Name,
		Phone:       req.Phone,
		AmountMinor: req.Amount,
		Mode:        receipt.ModeOnline,
		PaymentID:   v.PaymentID,
		OrderID:     v.OrderID,
		Location:    c.location,
	})
}

func (c *Controller) onDismiss(ctx context.Context, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateWaitingPayment {
		logger.FromCtx(ctx).Warn("Ignoring stale dismiss callback")
		return
	}

	c.processing = false
	c.success = false
	c.errMsg = msgCancelled
	c.errKind = ErrorCancelled
	c.transitionLocked(StateIdle)
}

func (c *Controller) verificationFailed(
	ctx context.Context,
	gen uint64,
	p checkout.Payload,
	req donation.PaymentRequest,
	order *payment.Order,
	reason string,
) {
	orderID := utils.FirstNonEmpty(p.OrderID, orderIDOf(order))
	msg := fmt.Sprintf(
		"%s. If the amount was debited from your account, please contact support with order ID %s.",
		trimPeriod(reason), orderID,
	)
	c.fail(gen, msg, ErrorVerification, nil)

	if c.journal == nil {
		return
	}

	currency := "INR"
	if order != nil && order.Currency != "" {
		currency = order.Currency
	}

	_, dup, err := c.journal.SaveVerificationFailure(ctx, &payment.Failure{
		OrderID:    orderID,
		PaymentID:  p.PaymentID,
		Signature:  p.Signature,
		Amount:     req.Amount,
		Currency:   currency,
		PayerName:  req.Name,
		PayerEmail: req.Email,
		PayerPhone: req.Phone,
		Reason:     reason,
	})
	if err != nil {
		logger.FromCtx(ctx).Error("Failed to journal verification failure",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return
	}
	if dup {
		logger.FromCtx(ctx).Info("Verification failure already journaled", zap.String("order_id", orderID))
	}
}

// dispatchReceipt never affects the completed state.
func (c *Controller) dispatchReceipt(ctx context.Context, gen uint64, det receipt.Details) {
	if c.receipts == nil {
		return
	}

	link, err := c.receipts.Dispatch(ctx, det)
	if err != nil {
		logger.FromCtx(ctx).Warn("Receipt dispatch failed", zap.Error(err))
		return
	}

	c.mu.Lock()
	if gen == c.generation {
		c.receiptLink = link
	}
	c.mu.Unlock()
}

// fail returns to idle with an error unless the submission was superseded.
func (c *Controller) fail(gen uint64, msg string, kind ErrorKind, fields map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	c.processing = false
	c.success = false
	c.errMsg = msg
	c.errKind = kind
	c.fieldErrs = fields
	c.transitionLocked(StateIdle)
}

// beginLocked moves idle -> creating-order.
func (c *Controller) beginLocked() error {
	switch c.state {
	case StateIdle:
	case StateCompleted:
		return ErrCompleted
	default:
		return ErrBusy
	}

	c.generation++
	c.clearLocked()
	c.order = nil
	c.processing = true
	c.transitionLocked(StateCreatingOrder)
	return nil
}

func (c *Controller) clearLocked() {
	c.errMsg = ""
	c.errKind = ErrorNone
	c.fieldErrs = nil
	c.success = false
	c.donationID = ""
	c.receiptURL = ""
	c.receiptLink = ""
}

func (c *Controller) transitionLocked(to State) {
	from := c.state
	c.state = to
	metrics.RecordTransition(string(from), string(to))
	if c.observer != nil {
		c.observer(from, to)
	}
}

func orderIDOf(o *payment.Order) string {
	if o == nil {
		return ""
	}
	return o.ID
}

func trimPeriod(s string) string {
	for len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func manualMode(m donation.PaymentMethod) string {
	switch m {
	case donation.MethodCash:
		return "Cash"
	case donation.MethodCheque:
		return "Cheque"
	case donation.MethodBankTransfer:
		return "Bank transfer"
	case donation.MethodUPI:
		return "UPI"
	default:
		return string(m)
	}
}
