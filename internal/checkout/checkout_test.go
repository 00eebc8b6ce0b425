package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sevapay/internal/donation"
	"sevapay/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptServer(t *testing.T, status *int32, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(int(atomic.LoadInt32(status)))
		_, _ = w.Write([]byte("/* checkout */"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScriptLoader_Ensure(t *testing.T) {
	t.Run("Loads once", func(t *testing.T) {
		status, hits := int32(http.StatusOK), int32(0)
		srv := scriptServer(t, &status, &hits)
		loader := NewScriptLoader(srv.URL+"/v1/checkout.js", srv.Client())

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, loader.Ensure(context.Background()))
			}()
		}
		wg.Wait()

		assert.NoError(t, loader.Ensure(context.Background()))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("Failure is not remembered", func(t *testing.T) {
		status, hits := int32(http.StatusServiceUnavailable), int32(0)
		srv := scriptServer(t, &status, &hits)
		loader := NewScriptLoader(srv.URL, srv.Client())

		err := loader.Ensure(context.Background())
		assert.ErrorIs(t, err, ErrScriptUnavailable)

		atomic.StoreInt32(&status, http.StatusOK)
		assert.NoError(t, loader.Ensure(context.Background()))
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})
}

func TestBuildOptions(t *testing.T) {
	order := &payment.Order{ID: "order_1", Amount: 19900, Currency: "INR", Key: "rzp_test"}
	req := donation.PaymentRequest{
		Name:       "Asha Rao",
		Email:      "asha@example.com",
		Phone:      "9123456789",
		Amount:     19900,
		PaymentFor: donation.PurposeMember,
		Notes:      "annual",
	}

	opts := BuildOptions(Branding{DisplayName: "राष्ट्रीय सेवा संघ", LogoURL: "/logo/logo.png"}, order, req)

	assert.Equal(t, "Donation - member", opts.Description)
	assert.Equal(t, "#FF9933", opts.Theme.Color)
	assert.Equal(t, "rgba(0, 0, 0, 0.6)", opts.Theme.BackdropColor)
	assert.Equal(t, "order_1", opts.OrderID)
	assert.Equal(t, 900, opts.Timeout)
	assert.Equal(t, Retry{Enabled: true, MaxCount: 4}, opts.Retry)
	assert.Equal(t, "Asha Rao", opts.Notes["donor_name"])
	assert.Equal(t, "annual", opts.Notes["notes"])

	raw, err := json.Marshal(opts)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	modal := decoded["modal"].(map[string]interface{})
	assert.Equal(t, true, modal["escape"])
	assert.Equal(t, false, modal["backdropclose"])
	assert.Equal(t, true, modal["confirm_close"])
	assert.Equal(t, false, decoded["remember_customer"])
	assert.Equal(t, "9123456789", decoded["prefill"].(map[string]interface{})["contact"])
}

func TestHosted_CompleteFiresOnce(t *testing.T) {
	h := NewHosted(nil)
	ctx := context.Background()

	var successes, dismissals int32
	var got Payload
	hooks := Hooks{
		OnSuccess: func(ctx context.Context, p Payload) {
			atomic.AddInt32(&successes, 1)
			got = p
		},
		OnDismiss: func(ctx context.Context) { atomic.AddInt32(&dismissals, 1) },
	}

	require.NoError(t, h.Present(ctx, Options{OrderID: "order_1", Amount: 19900}, hooks))

	opts, ok := h.Lookup("order_1")
	assert.True(t, ok)
	assert.Equal(t, int64(19900), opts.Amount)

	payload := Payload{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig_1"}
	assert.NoError(t, h.Complete(ctx, "order_1", payload))
	assert.ErrorIs(t, h.Complete(ctx, "order_1", payload), ErrUnknownPresentation)
	assert.ErrorIs(t, h.Dismiss(ctx, "order_1"), ErrUnknownPresentation)

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(0), dismissals)
	assert.Equal(t, payload, got)

	_, ok = h.Lookup("order_1")
	assert.False(t, ok)
}

func TestHosted_Dismiss(t *testing.T) {
	h := NewHosted(nil)
	ctx := context.Background()

	dismissed := false
	require.NoError(t, h.Present(ctx, Options{OrderID: "order_2"}, Hooks{
		OnDismiss: func(ctx context.Context) { dismissed = true },
	}))

	assert.NoError(t, h.Dismiss(ctx, "order_2"))
	assert.True(t, dismissed)
	assert.ErrorIs(t, h.Dismiss(ctx, "unknown"), ErrUnknownPresentation)
}

func TestHosted_PresentRequiresOrder(t *testing.T) {
	h := NewHosted(nil)
	assert.ErrorIs(t, h.Present(context.Background(), Options{}, Hooks{}), ErrMissingOrder)
}

func TestHosted_ScriptFailureBlocksPresentation(t *testing.T) {
	status, hits := int32(http.StatusNotFound), int32(0)
	srv := scriptServer(t, &status, &hits)
	h := NewHosted(NewScriptLoader(srv.URL, srv.Client()))

	err := h.Present(context.Background(), Options{OrderID: "order_3"}, Hooks{})
	assert.ErrorIs(t, err, ErrScriptUnavailable)

	_, ok := h.Lookup("order_3")
	assert.False(t, ok)
	assert.Equal(t, srv.URL, h.ScriptURL())
}

func TestHosted_DiscardAndPrune(t *testing.T) {
	h := NewHosted(nil)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	fired := false
	require.NoError(t, h.Present(ctx, Options{OrderID: "old"}, Hooks{
		OnDismiss: func(ctx context.Context) { fired = true },
	}))
	require.NoError(t, h.Present(ctx, Options{OrderID: "kept"}, Hooks{}))

	h.Discard("kept")
	_, ok := h.Lookup("kept")
	assert.False(t, ok)

	now = now.Add(pendingTTL + time.Minute)
	require.NoError(t, h.Present(ctx, Options{OrderID: "fresh"}, Hooks{}))

	_, ok = h.Lookup("old")
	assert.False(t, ok)
	assert.False(t, fired)
}
