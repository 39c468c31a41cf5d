package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errTransient}
	})
	if !errors.Is(err, errTransient) {
		t.Errorf("Retry() error = %v, want %v", err, errTransient)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryZeroAttempts(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryHonoursAfter(t *testing.T) {
	start := time.Now()
	calls := 0
	err := Retry(context.Background(), 2, time.Hour, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errTransient, After: time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Minute {
		t.Errorf("Retry waited %v, want the Retry-After delay", elapsed)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return &RetryableError{Err: errTransient}
	})
	if err != context.Canceled {
		t.Errorf("Retry() error = %v, want %v", err, context.Canceled)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&RetryableError{Err: errTransient}) {
		t.Error("IsRetryable(RetryableError) = false, want true")
	}
	if IsRetryable(errTransient) {
		t.Error("IsRetryable(plain) = true, want false")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true, want false")
	}
}
