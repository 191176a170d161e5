// Package ratelimit bounds how many model invocations start within a trailing
// time window. One Limiter is shared by every slide of a run.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Policy selects the admission algorithm.
type Policy string

const (
	PolicyTokenBucket   Policy = "token_bucket"
	PolicySlidingWindow Policy = "sliding_window"
)

// Limiter admits callers so that no window of length Window holds more than
// RequestsPerWindow admissions.
type Limiter interface {
	// Acquire blocks until the caller may issue one request. It only fails
	// with ctx.Err().
	Acquire(ctx context.Context) error
}

// Reservation is one admission that can be handed back.
type Reservation interface {
	// Refund removes the admission from the window. Refunding twice, or after
	// the admission has aged out, is a no-op.
	Refund()
}

// Reserver is implemented by limiters whose admissions can be refunded
// individually.
type Reserver interface {
	Reserve(ctx context.Context) (Reservation, error)
}

// Config describes a limiter.
type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	Policy            Policy
}

// Option customizes a limiter.
type Option func(*options)

type options struct {
	onAdmit func(time.Time)
}

// WithAdmitHook registers fn to receive every admission instant.
// fn runs on the admitted caller's goroutine and must not block.
func WithAdmitHook(fn func(time.Time)) Option {
	return func(o *options) { o.onAdmit = fn }
}

// New builds the limiter described by cfg. A non-positive RequestsPerWindow
// disables limiting.
func New(cfg Config, opts ...Option) (Limiter, error) {
	o := options{onAdmit: func(time.Time) {}}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.RequestsPerWindow <= 0 {
		return &unlimited{onAdmit: o.onAdmit}, nil
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", cfg.Window)
	}

	switch cfg.Policy {
	case PolicyTokenBucket, "":
		return newTokenBucket(cfg, o), nil
	case PolicySlidingWindow:
		return newSlidingWindow(cfg, o), nil
	default:
		return nil, fmt.Errorf("unknown rate limit policy %q", cfg.Policy)
	}
}

// TokenBucket paces admissions evenly, Window/RequestsPerWindow apart.
type TokenBucket struct {
	lim     *rate.Limiter
	onAdmit func(time.Time)
}

func newTokenBucket(cfg Config, o options) *TokenBucket {
	every := cfg.Window / time.Duration(cfg.RequestsPerWindow)
	return &TokenBucket{
		lim:     rate.NewLimiter(rate.Every(every), 1),
		onAdmit: o.onAdmit,
	}
}

// Acquire reserves the next slot and sleeps until it starts.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate limiter cannot admit a single request")
	}

	delay := r.DelayFrom(now)
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.CancelAt(time.Now())
			return ctx.Err()
		}
	}

	b.onAdmit(now.Add(delay))
	return nil
}

type unlimited struct {
	onAdmit func(time.Time)
}

func (u *unlimited) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.onAdmit(time.Now())
	return nil
}
