package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the pause between batch units.
const DefaultInterval = 2 * time.Second

// Pacer is waited on after every batch unit.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay sleeps for Interval after every unit.
type FixedDelay struct {
	Interval time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

// TokenBucket allows one unit per interval on average, absorbing the time a
// slow unit already spent instead of adding a full delay on top of it.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

func (p *TokenBucket) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NewPacer builds the pacer named by the batch.pacing setting.
func NewPacer(kind string, interval time.Duration) (Pacer, error) {
	switch kind {
	case "", "fixed":
		if interval <= 0 {
			interval = DefaultInterval
		}
		return FixedDelay{Interval: interval}, nil
	case "token_bucket":
		if interval <= 0 {
			interval = DefaultInterval
		}
		return NewTokenBucket(interval, 1), nil
	case "none":
		return NoDelay{}, nil
	default:
		return nil, fmt.Errorf("unknown pacing policy %q", kind)
	}
}
