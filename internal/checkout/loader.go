package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"sevapay/internal/logger"

	"go.uber.org/zap"
)

// ScriptLoader makes sure the remote checkout script is reachable before the
// first page embeds it. A successful load is remembered for the life of the
// process; a failed one is not.
type ScriptLoader struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	loaded bool
}

func NewScriptLoader(url string, client *http.Client) *ScriptLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &ScriptLoader{url: url, client: client}
}

func (l *ScriptLoader) URL() string {
	return l.url
}

// Ensure loads the script once. Concurrent callers wait for the same load.
func (l *ScriptLoader) Ensure(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}

	log := logger.FromCtx(ctx).With(zap.String("script", l.url))

	if err := l.fetch(ctx); err != nil {
		log.Error("Checkout script unavailable", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrScriptUnavailable, err)
	}

	l.loaded = true
	log.Info("Checkout script loaded")
	return nil
}

func (l *ScriptLoader) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
