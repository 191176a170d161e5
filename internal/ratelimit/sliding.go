package ratelimit

import (
	"context"
	"sync"
	"time"
)

type admission struct {
	id uint64
	at time.Time
}

// SlidingWindow keeps the instants of the admissions inside the trailing
// window. Bursts up to the limit are admitted immediately.
type SlidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	log     []admission // ascending
	nextID  uint64
	onAdmit func(time.Time)
}

func newSlidingWindow(cfg Config, o options) *SlidingWindow {
	return &SlidingWindow{
		limit:   cfg.RequestsPerWindow,
		window:  cfg.Window,
		log:     make([]admission, 0, cfg.RequestsPerWindow),
		onAdmit: o.onAdmit,
	}
}

// Acquire admits the caller once fewer than limit admissions fall within the
// trailing window, sleeping until the oldest one expires otherwise.
func (s *SlidingWindow) Acquire(ctx context.Context) error {
	_, err := s.Reserve(ctx)
	return err
}

// Reserve is Acquire returning a handle to the caller's own admission.
func (s *SlidingWindow) Reserve(ctx context.Context) (Reservation, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		now := time.Now()
		s.prune(now)
		if len(s.log) < s.limit {
			s.nextID++
			id := s.nextID
			s.log = append(s.log, admission{id: id, at: now})
			s.onAdmit(now)
			s.mu.Unlock()
			return &slot{window: s, id: id}, nil
		}
		wait := s.log[0].at.Add(s.window).Sub(now)
		s.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// release drops the admission with the given id if it is still in the window.
func (s *SlidingWindow) release(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.log {
		if a.id == id {
			s.log = append(s.log[:i], s.log[i+1:]...)
			return
		}
	}
}

// prune drops admissions at least one window old. Caller holds mu.
func (s *SlidingWindow) prune(now time.Time) {
	i := 0
	for i < len(s.log) && now.Sub(s.log[i].at) >= s.window {
		i++
	}
	if i > 0 {
		s.log = append(s.log[:0], s.log[i:]...)
	}
}

type slot struct {
	window *SlidingWindow
	id     uint64
}

func (s *slot) Refund() {
	s.window.release(s.id)
}
