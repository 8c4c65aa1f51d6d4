package llm

import (
	"context"
	"sync"
	"time"
)

// Throttle wraps a Provider with a token bucket that allows at most rpm
// requests per minute. Waiting honours ctx, so a per-call timeout also
// bounds the time spent queued.
type Throttle struct {
	provider Provider
	rpm      int
	now      func() time.Time

	mu       sync.Mutex
	tokens   int
	lastFill time.Time
}

// NewThrottle wraps provider. A non-positive rpm disables throttling.
func NewThrottle(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &Throttle{
		provider: provider,
		rpm:      rpm,
		now:      time.Now,
		tokens:   rpm,
		lastFill: time.Now(),
	}
}

func (t *Throttle) Name() string {
	return t.provider.Name()
}

func (t *Throttle) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.provider.Complete(ctx, req)
}

func (t *Throttle) take() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if refill := int(now.Sub(t.lastFill).Seconds() * float64(t.rpm) / 60.0); refill > 0 {
		t.tokens = min(t.tokens+refill, t.rpm)
		t.lastFill = now
	}
	if t.tokens == 0 {
		return false
	}
	t.tokens--
	return true
}

func (t *Throttle) wait(ctx context.Context) error {
	for !t.take() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}
