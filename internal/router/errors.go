package router

import (
	"context"
	"errors"
	"fmt"
)

// ErrHandoffConfiguration means no handoff message exists for the resolved
// language or the pivot language. It is the only error Route returns
// besides context cancellation.
var ErrHandoffConfiguration = errors.New("handoff message not configured")

// Backend names used in errors, logs and metrics.
const (
	BackendTranslation = "translation"
	BackendRetrieval   = "retrieval"
	BackendGeneration  = "generation"
)

// BackendError is a failed or timed-out call to an external backend. The
// router absorbs it and moves to the next state.
type BackendError struct {
	Backend string
	Op      string
	Timeout bool
	Err     error
}

func (e *BackendError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timed out: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// backendError classifies err. parent is the request context: a deadline
// hit while the request itself is still live is the per-call timeout.
func backendError(parent context.Context, backend, op string, err error) *BackendError {
	return &BackendError{
		Backend: backend,
		Op:      op,
		Timeout: errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil,
		Err:     err,
	}
}
