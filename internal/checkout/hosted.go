package checkout

import (
	"context"
	"sync"
	"time"

	"sevapay/internal/logger"

	"go.uber.org/zap"
)

// pendingTTL outlives the widget's own timeout so a slow payer still lands.
const pendingTTL = 30 * time.Minute

type presentation struct {
	opts    Options
	hooks   Hooks
	created time.Time
}

// Hosted presents checkout as a page served by this process. The page posts
// the widget outcome back, which is routed to Complete or Dismiss.
type Hosted struct {
	loader *ScriptLoader
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]*presentation
}

func NewHosted(loader *ScriptLoader) *Hosted {
	return &Hosted{
		loader:  loader,
		now:     time.Now,
		pending: make(map[string]*presentation),
	}
}

func (h *Hosted) Present(ctx context.Context, opts Options, hooks Hooks) error {
	if opts.OrderID == "" {
		return ErrMissingOrder
	}

	if h.loader != nil {
		if err := h.loader.Ensure(ctx); err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.prune()
	h.pending[opts.OrderID] = &presentation{opts: opts, hooks: hooks, created: h.now()}
	h.mu.Unlock()

	logger.FromCtx(ctx).Info("Checkout presented",
		zap.String("order_id", opts.OrderID),
		zap.Int64("amount", opts.Amount),
	)
	return nil
}

// Lookup returns the widget options of a pending presentation.
func (h *Hosted) Lookup(orderID string) (Options, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pending[orderID]
	if !ok {
		return Options{}, false
	}
	return p.opts, true
}

func (h *Hosted) ScriptURL() string {
	if h.loader == nil {
		return ""
	}
	return h.loader.URL()
}

// Complete delivers the success payload. Only the first terminal callback
// for an order fires.
func (h *Hosted) Complete(ctx context.Context, orderID string, payload Payload) error {
	p := h.take(orderID)
	if p == nil {
		return ErrUnknownPresentation
	}
	if p.hooks.OnSuccess != nil {
		p.hooks.OnSuccess(ctx, payload)
	}
	return nil
}

func (h *Hosted) Dismiss(ctx context.Context, orderID string) error {
	p := h.take(orderID)
	if p == nil {
		return ErrUnknownPresentation
	}
	if p.hooks.OnDismiss != nil {
		p.hooks.OnDismiss(ctx)
	}
	return nil
}

// Discard drops a presentation without firing anything.
func (h *Hosted) Discard(orderID string) {
	h.take(orderID)
}

func (h *Hosted) take(orderID string) *presentation {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pending[orderID]
	if !ok {
		return nil
	}
	delete(h.pending, orderID)
	return p
}

// prune must be called with mu held.
func (h *Hosted) prune() {
	cutoff := h.now().Add(-pendingTTL)
	for id, p := range h.pending {
		if p.created.Before(cutoff) {
			delete(h.pending, id)
		}
	}
}
