// Package ratelimit implements sliding window admission control keyed by an
// arbitrary client key.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// Result is the outcome of one admission check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store keeps the per-key request timestamps of a trailing window
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that must evict idle keys themselves
type Sweeper interface {
	Sweep(now time.Time, window time.Duration) int
}

// Limiter admits at most limit requests per key within any trailing window
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
}

// Option customises a Limiter
type Option func(*Limiter)

// WithClock replaces the limiter time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a limiter over store
func NewLimiter(store Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	l := &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow records a request for key if the window has room. Rejected
// requests are not recorded.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	return l.store.Allow(ctx, key, l.limit, l.window, l.now())
}

// Reset forgets every request recorded for key
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}

// Limit returns the maximum requests per window
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the window length
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Start launches the idle key janitor when the store needs one. Calling it
// more than once has no effect.
func (l *Limiter) Start(interval time.Duration) {
	sweeper, ok := l.store.(Sweeper)
	if !ok || interval <= 0 {
		return
	}
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if evicted := sweeper.Sweep(l.now(), l.window); evicted > 0 {
						logger.Debug("Rate limiter evicted idle keys", logger.Int("evicted", evicted))
					}
				case <-l.stop:
					return
				}
			}
		}()
	})
}

// Stop terminates the janitor and waits for it to exit
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	l.wg.Wait()
}
