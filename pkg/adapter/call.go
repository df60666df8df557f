package adapter

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy controls transient-fault retries around a single adapter call.
// This is backend plumbing, distinct from the pipeline's regeneration loop.
type RetryPolicy struct {
	MaxRetries    int
	BaseBackoffMs int
	MaxBackoffMs  int
}

// DefaultRetryPolicy returns the default transient-retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseBackoffMs: 200, MaxBackoffMs: 2000}
}

// Call invokes the adapter, retrying transient failures with jittered
// exponential backoff. Non-transient errors return immediately.
func Call(ctx context.Context, a Adapter, model, prompt string, policy RetryPolicy) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		resp, err := a.Generate(ctx, model, prompt)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !IsTransient(err) || attempt == policy.MaxRetries {
			break
		}

		if err := sleepWithContext(ctx, computeBackoff(policy, attempt)); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("adapter call failed")
	}
	return nil, lastErr
}

func computeBackoff(policy RetryPolicy, attempt int) time.Duration {
	backoff := time.Duration(policy.BaseBackoffMs) * time.Millisecond
	for i := 0; i < attempt; i++ {
		backoff *= 2
	}
	max := time.Duration(policy.MaxBackoffMs) * time.Millisecond
	if backoff > max {
		backoff = max
	}
	// Up to 25% jitter keeps concurrent retries from herding.
	jitter := time.Duration(rand.Int63n(int64(backoff)/4 + 1))
	return backoff + jitter
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
