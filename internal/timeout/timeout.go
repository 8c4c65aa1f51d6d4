// Package timeout bounds calls to backends that may not honor their context.
package timeout

import (
	"context"
	"time"
)

// Call runs fn with its own deadline d and returns as soon as the deadline
// passes, even if fn ignores its context. A non-positive d only inherits
// the deadline of ctx. A call that outlives its deadline finishes in the
// background and its result is discarded.
func Call[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()
	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
