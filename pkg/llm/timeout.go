package llm

import (
	"context"
	"time"

	"github.com/GontrandL/autoweave-agents/pkg/llm/llmerrors"
)

// DefaultCallTimeout bounds a single reasoning service round-trip. The
// pipeline must not hang indefinitely if the external service stalls.
const DefaultCallTimeout = 60 * time.Second

// timeoutClient wraps a Client with a per-call timeout.
type timeoutClient struct {
	inner   Client
	timeout time.Duration
}

// WithTimeout returns a Client whose Complete calls are bounded by timeout.
// A non-positive timeout falls back to DefaultCallTimeout.
func WithTimeout(inner Client, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &timeoutClient{inner: inner, timeout: timeout}
}

// Complete runs the wrapped call under a deadline. A deadline hit surfaces as
// a transient classified error so callers treat it like any other outage.
func (t *timeoutClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Complete(ctx, in)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return CompletionResponse{}, llmerrors.NewErrorWithCause(
				llmerrors.ErrorTypeTransient, err, "reasoning call timed out")
		}
		return CompletionResponse{}, err
	}
	return resp, nil
}

// ModelName returns the wrapped client's model name.
func (t *timeoutClient) ModelName() string {
	return t.inner.ModelName()
}
