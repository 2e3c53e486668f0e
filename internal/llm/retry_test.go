package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	fake := NewFake("ok", "ok").Fail(0, errors.New("connection reset"))
	client := WithRetry(fake, 2, time.Millisecond)

	text, err := client.Complete(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, fake.Calls())
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	perm := &PermanentError{Reason: "400 Bad Request"}
	fake := NewFake("unreached").Fail(0, perm)
	client := WithRetry(fake, 2, time.Millisecond)

	_, err := client.Complete(context.Background(), Request{})
	var pErr *PermanentError
	assert.ErrorAs(t, err, &pErr)
	assert.Equal(t, 1, fake.Calls())
}

func TestRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("timeout")
	fake := NewFake("never").Fail(0, boom).Fail(1, boom).Fail(2, boom)
	client := WithRetry(fake, 2, time.Millisecond)

	_, err := client.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, fake.Calls())
}

func TestRetryHonorsCancellation(t *testing.T) {
	fake := NewFake("never").Fail(0, errors.New("timeout"))
	client := WithRetry(fake, 3, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fake.Calls())
}
