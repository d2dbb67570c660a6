// Package retry runs startup dependency probes with exponential backoff
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// Config controls how often and how long an operation is retried
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// Jitter adds up to 10% to every delay
	Jitter bool
}

// DefaultConfig retries for roughly half a minute before giving up
func DefaultConfig() Config {
	return Config{
		MaxRetries: 6,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// Do calls fn until it succeeds, the attempts run out or ctx is done.
// name identifies the operation in logs.
func Do(ctx context.Context, cfg Config, name string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 0 {
				logger.Info("Operation succeeded after retries",
					logger.String("operation", name),
					logger.Int("attempts", attempt+1))
			}
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.delay(attempt)
		logger.Warn("Operation failed, retrying",
			logger.String("operation", name),
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Err(lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, cfg.MaxRetries+1, lastErr)
}

func (c Config) delay(attempt int) time.Duration {
	multiplier := c.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(c.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if c.Jitter {
		delay += delay * 0.1 * rand.Float64()
	}
	return time.Duration(delay)
}
