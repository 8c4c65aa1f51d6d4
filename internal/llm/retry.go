package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// StatusError is a non-2xx answer from a provider's HTTP API.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, e.Message)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Retrying repeats failed completions with exponential backoff. Every
// attempt shares the caller's context, so retries never outlive the
// per-call timeout.
type Retrying struct {
	provider   Provider
	maxRetries uint64
	base       time.Duration
}

// NewRetrying wraps provider. maxRetries of zero disables retries.
func NewRetrying(provider Provider, maxRetries int, base time.Duration) Provider {
	if maxRetries <= 0 {
		return provider
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &Retrying{provider: provider, maxRetries: uint64(maxRetries), base: base}
}

func (r *Retrying) Name() string {
	return r.provider.Name()
}

func (r *Retrying) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.WithJitter(r.base/4, retry.NewExponential(r.base)))

	var resp *CompletionResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.provider.Complete(ctx, req)
		if callErr != nil {
			if retryable(ctx, callErr) {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	// Transport failures (connection refused, reset) are worth another try.
	return true
}
