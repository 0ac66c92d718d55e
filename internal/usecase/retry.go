package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SettlePolicy bounds how long the service waits for the remote to catch up
// after a write, for example before reading back or pushing an event for a
// customer it just created. One attempt means no retry.
type SettlePolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultSettlePolicy() SettlePolicy {
	return SettlePolicy{
		MaxAttempts:     5,
		InitialInterval: time.Second,
		MaxInterval:     8 * time.Second,
		Multiplier:      2,
	}
}

// Window is the longest Do can spend waiting between attempts.
func (p SettlePolicy) Window() time.Duration {
	var total time.Duration
	interval := p.InitialInterval
	for i := 1; i < p.MaxAttempts; i++ {
		total += interval
		interval = time.Duration(float64(interval) * p.Multiplier)
		if interval > p.MaxInterval {
			interval = p.MaxInterval
		}
	}
	return total
}

func (p SettlePolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx)
}

// Do runs op until it succeeds, fails with an error retryable rejects, or
// the attempts run out. The last error is returned.
func (p SettlePolicy) Do(ctx context.Context, retryable func(error) bool, op func() error) error {
	if p.MaxAttempts <= 1 {
		return op()
	}

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx))
}
