package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	retryInitialInterval = 1 * time.Second
	retryMaxInterval     = 30 * time.Second
	retryMultiplier      = 2.0
	retryJitterFactor    = 0.5
)

// Retry runs op with exponential backoff and jitter until it succeeds, the
// context is cancelled, or the attempt budget is exhausted. maxRetries counts
// retries after the first attempt, so maxRetries=3 allows four calls total.
// Errors whose kind is not retryable abort the loop immediately.
func Retry[T any](ctx context.Context, maxRetries int, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval
	bo.Multiplier = retryMultiplier
	bo.RandomizationFactor = retryJitterFactor

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !isRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(maxRetries+1)))
}

func isRetryable(err error) bool {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	// Unknown error types get one conservative classification: retry.
	return true
}
