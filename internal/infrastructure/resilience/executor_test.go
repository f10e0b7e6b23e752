package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:             3,
		InitialBackoff:          1 * time.Millisecond,
		MaxBackoff:              2 * time.Millisecond,
		Multiplier:              2,
		BreakerMinRequests:      100,
		BreakerFailureRatio:     0.99,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func TestRunRetriesTransientFailure(t *testing.T) {
	exec := NewExecutor(fastPolicy())

	attempts := 0
	err := exec.Run(context.Background(), "callback", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastPolicy())

	attempts := 0
	errRejected := errors.New("payload rejected")
	err := exec.Run(context.Background(), "callback", func(context.Context) error {
		attempts++
		return Permanent(errRejected)
	})
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected rejection error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRunExhaustsAttemptBudget(t *testing.T) {
	exec := NewExecutor(fastPolicy())

	attempts := 0
	errDown := errors.New("receiver down")
	err := exec.Run(context.Background(), "callback", func(context.Context) error {
		attempts++
		return errDown
	})
	if !errors.Is(err, errDown) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunOpensCircuitPerTarget(t *testing.T) {
	policy := fastPolicy()
	policy.MaxAttempts = 1
	policy.BreakerMinRequests = 2
	policy.BreakerFailureRatio = 0.5
	exec := NewExecutor(policy)

	errDown := errors.New("receiver down")
	for i := 0; i < 2; i++ {
		err := exec.Run(context.Background(), "callback", func(context.Context) error {
			return errDown
		})
		if !errors.Is(err, errDown) {
			t.Fatalf("expected delivery error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Run(context.Background(), "callback", func(context.Context) error {
		t.Fatalf("open circuit must not call delivery")
		return nil
	})
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	// Other targets keep their own breaker.
	if err := exec.Run(context.Background(), "other", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected healthy target to pass, got %v", err)
	}
}
