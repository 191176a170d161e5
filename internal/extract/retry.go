package extract

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/BikS2013/ppt2desc/internal/config"
)

const (
	defaultMaxAttempts    = 3
	defaultBaseDelay      = 1 * time.Second
	defaultMaxDelay       = 30 * time.Second
	defaultJitter         = 0.5
	defaultRequestTimeout = 120 * time.Second
)

// RetryConfig holds the per-slide retry policy
type RetryConfig struct {
	MaxAttempts         int
	BaseDelay           time.Duration
	MaxDelay            time.Duration
	Jitter              float64
	RequestTimeout      time.Duration
	CountFailedAttempts bool
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:         defaultMaxAttempts,
		BaseDelay:           defaultBaseDelay,
		MaxDelay:            defaultMaxDelay,
		Jitter:              defaultJitter,
		RequestTimeout:      defaultRequestTimeout,
		CountFailedAttempts: true,
	}
}

// RetryConfigFrom maps the retry section of the configuration.
func RetryConfigFrom(c config.RetryConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts:         c.MaxAttempts,
		BaseDelay:           c.BaseDelay,
		MaxDelay:            c.MaxDelay,
		Jitter:              c.Jitter,
		RequestTimeout:      c.RequestTimeout,
		CountFailedAttempts: c.CountFailedAttempts,
	}
}

// newBackOff returns a fresh schedule: BaseDelay * 2^attempt, capped at
// MaxDelay, randomized by Jitter. It never gives up on its own; the attempt
// counter bounds the loop.
func (c RetryConfig) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.Multiplier = 2
	b.MaxInterval = c.MaxDelay
	b.RandomizationFactor = c.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
