// Package resilience wraps outbound delivery in retries with exponential
// backoff and a per-target circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Permanent marks an error that retrying cannot fix, such as a receiver
// rejecting the payload. The executor returns it immediately and does not
// count it against the breaker.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Executor runs delivery attempts under a shared policy. Breakers are
// keyed by target so one unhealthy receiver does not block the rest.
type Executor struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(policy Policy) *Executor {
	return &Executor{
		policy:   policy.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Run executes fn under the target's breaker, retrying transient failures
// until the policy's attempt budget is exhausted.
func (e *Executor) Run(ctx context.Context, target string, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: delivery callback is nil")
	}
	if target == "" {
		target = "default"
	}

	breaker := e.breakerFor(target)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.runWithRetry(ctx, target, fn)
	})
	return err
}

func (e *Executor) runWithRetry(ctx context.Context, target string, fn func(context.Context) error) error {
	backoff := e.policy.InitialBackoff

	var err error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || attempt == e.policy.MaxAttempts {
			return err
		}

		slog.Warn("delivery retry",
			"target", target,
			"attempt", attempt,
			"max_attempts", e.policy.MaxAttempts,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * e.policy.Multiplier)
		if backoff > e.policy.MaxBackoff {
			backoff = e.policy.MaxBackoff
		}
	}

	return err
}

func (e *Executor) breakerFor(target string) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[target]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        target,
		MaxRequests: e.policy.BreakerHalfOpenMaxCalls,
		Timeout:     e.policy.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.policy.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.policy.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("delivery breaker state change", "target", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[target] = breaker
	return breaker
}

// IsCircuitOpen reports whether err came from an open breaker rather than
// the delivery itself.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
