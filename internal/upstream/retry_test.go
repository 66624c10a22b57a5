package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), 3, func() (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestRetry_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, func() (string, error) {
		calls++
		return "", NewMalformedResponse("bad schema", nil)
	})

	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
	assert.Equal(t, 1, calls, "malformed responses must not be retried")
}

func TestRetry_RetryableSucceedsOnSecondTry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), 3, func() (int, error) {
		calls++
		if calls == 1 {
			return 0, NewNetworkError("connection refused", 0, nil)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, calls)
}

func TestRetry_ExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 1, func() (int, error) {
		calls++
		return 0, NewTimeout("deadline exceeded", nil)
	})

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, 2, calls, "one retry means two attempts total")
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, 10, func() (int, error) {
			calls++
			return 0, NewNetworkError("connection refused", 0, nil)
		})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not stop after context cancellation")
	}
}
