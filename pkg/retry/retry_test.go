package retry

import (
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoff_SucceedsAfterTransientFailures(t *testing.T) {
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	})

	attempts := 0
	err := policy.Execute(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExponentialBackoff_StopsOnNonRetryableError(t *testing.T) {
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	})

	permanent := errors.New("password authentication failed")
	attempts := 0
	err := policy.Execute(func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("expected the permanent error back, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt for a non-retryable error, got %d", attempts)
	}
}

func TestExponentialBackoff_ReportsExhaustion(t *testing.T) {
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	})

	transient := errors.New("the database system is starting up")
	err := policy.Execute(func() error {
		return transient
	})

	if !IsMaxRetriesExceeded(err) {
		t.Fatalf("expected max retries exceeded, got %v", err)
	}
	if !errors.Is(err, transient) {
		t.Fatalf("expected the last error to be wrapped, got %v", err)
	}
}
