package extract

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/ratelimit"
)

type fakeClient struct {
	model    string
	describe func(ctx context.Context, image []byte, mimeType, instructions string) (string, error)
	calls    int32
}

func (f *fakeClient) Describe(ctx context.Context, image []byte, mimeType, instructions string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.describe(ctx, image, mimeType, instructions)
}

func (f *fakeClient) Model() string { return f.model }

func (f *fakeClient) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

// countingLimiter admits immediately and counts admissions.
type countingLimiter struct {
	admitted int32
}

func (l *countingLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	atomic.AddInt32(&l.admitted, 1)
	return nil
}

func (l *countingLimiter) Admitted() int { return int(atomic.LoadInt32(&l.admitted)) }

type fakeRenderer struct {
	render func(ctx context.Context, path string) ([]domain.SlideImage, error)
	calls  int32
}

func (f *fakeRenderer) Render(ctx context.Context, path string) ([]domain.SlideImage, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.render(ctx, path)
}

func slidesFor(deck string, n int) []domain.SlideImage {
	slides := make([]domain.SlideImage, n)
	for i := range slides {
		slides[i] = domain.SlideImage{
			Deck:     deck,
			Number:   i + 1,
			Data:     []byte(fmt.Sprintf("slide-%d", i+1)),
			MIMEType: "image/jpeg",
		}
	}
	return slides
}

func staticRenderer(n int) *fakeRenderer {
	return &fakeRenderer{render: func(_ context.Context, path string) ([]domain.SlideImage, error) {
		return slidesFor(path, n), nil
	}}
}

// scriptedErrors returns the queued errors for an image in order, then succeeds.
type scriptedErrors struct {
	mu     sync.Mutex
	queued map[string][]error
}

func (s *scriptedErrors) next(image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(image)
	q := s.queued[key]
	if len(q) == 0 {
		return nil
	}
	s.queued[key] = q[1:]
	return q[0]
}

func transient() error {
	return domain.NewProviderError(domain.KindTransient, "upstream 503", nil)
}

func noRetryDelay() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.BaseDelay = 0
	cfg.MaxDelay = 0
	cfg.Jitter = 0
	return cfg
}

// reservingLimiter hands out numbered reservations and records refunds.
type reservingLimiter struct {
	mu       sync.Mutex
	issued   int
	refunded []int
}

type numberedReservation struct {
	owner *reservingLimiter
	id    int
}

func (r numberedReservation) Refund() {
	r.owner.mu.Lock()
	defer r.owner.mu.Unlock()
	r.owner.refunded = append(r.owner.refunded, r.id)
}

func (l *reservingLimiter) Acquire(ctx context.Context) error {
	_, err := l.Reserve(ctx)
	return err
}

func (l *reservingLimiter) Reserve(ctx context.Context) (ratelimit.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return numberedReservation{owner: l, id: l.issued}, nil
}

func (l *reservingLimiter) Refunded() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.refunded...)
}
