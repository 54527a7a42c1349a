package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/custody-server/pkg/retry/backoff"
)

// Strategy decides whether another attempt should follow a failed one. It may
// block, which is how backoff is implemented.
type Strategy func(attempts uint, err error) bool

// sleep is swapped out by tests
var sleep = time.Sleep

// Limit allows at most maxAttempts attempts in total, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// NonRetriableErrors stops on any error that matches, or wraps, one of errs.
func NonRetriableErrors(errs ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, target := range errs {
			if errors.Is(err, target) {
				return false
			}
		}
		return true
	}
}

// Context stops once ctx is done. Place it before any backoff so a cancelled
// caller does not sleep before giving up.
func Context(ctx context.Context) Strategy {
	return func(uint, error) bool {
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the strategy's delay, never longer than maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay spread uniformly over
// delay*(1-jitter) to delay*(1+jitter). A jitter of 0.1 turns 100ms into
// anything from 90ms to 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}

		if jitter > 0 {
			spread := rand.Float64()*2*jitter - jitter
			delay = time.Duration(float64(delay) * (1 + spread))
		}

		sleep(delay)
		return true
	}
}
