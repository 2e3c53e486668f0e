package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Retrying wraps a Client with bounded retry. Transient failures are
// retried with exponential backoff plus jitter; permanent errors and
// context cancellation stop immediately.
type Retrying struct {
	next      Client
	max       int
	baseDelay time.Duration
}

// WithRetry decorates next with up to maxRetries additional attempts.
func WithRetry(next Client, maxRetries int, baseDelay time.Duration) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return &Retrying{next: next, max: maxRetries, baseDelay: baseDelay}
}

// Complete calls the wrapped client, retrying transient failures.
func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	var last error
	for attempt := 0; attempt <= r.max; attempt++ {
		text, err := r.next.Complete(ctx, req)
		if err == nil {
			return text, nil
		}

		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err

		if attempt == r.max {
			break
		}

		delay := r.baseDelay * time.Duration(1<<attempt)
		delay += time.Duration(rand.Int63n(int64(r.baseDelay)))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", last
}
