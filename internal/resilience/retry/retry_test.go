package retry_test

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"feedpress/internal/resilience/retry"
)

func fastConfig(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:    maxAttempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithBackoff_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := retry.WithBackoff(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return syscall.ECONNRESET
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retry.WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return syscall.ECONNREFUSED
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("expected wrapped ECONNREFUSED, got %v", err)
	}
}

func TestWithBackoff_NonRetryableAbortsImmediately(t *testing.T) {
	permanent := errors.New("bad input")
	calls := 0
	err := retry.WithBackoff(context.Background(), fastConfig(5), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := retry.Config{
		MaxAttempts:    5,
		InitialDelay:   time.Hour,
		MaxDelay:       time.Hour,
		Multiplier:     2.0,
		JitterFraction: 0,
	}

	done := make(chan error, 1)
	go func() {
		done <- retry.WithBackoff(ctx, cfg, func() error {
			return syscall.ETIMEDOUT
		})
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not abort on context cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"network unreachable", syscall.ENETUNREACH, true},
		{"generic error", errors.New("oops"), false},
		{"http 500", &retry.HTTPError{StatusCode: 500, Message: "server error"}, true},
		{"http 503", &retry.HTTPError{StatusCode: 503, Message: "unavailable"}, true},
		{"http 429", &retry.HTTPError{StatusCode: 429, Message: "too many requests"}, true},
		{"http 408", &retry.HTTPError{StatusCode: 408, Message: "request timeout"}, true},
		{"http 404", &retry.HTTPError{StatusCode: 404, Message: "not found"}, false},
		{"http 400", &retry.HTTPError{StatusCode: 400, Message: "bad request"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retry.IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &retry.HTTPError{StatusCode: 502, Message: "bad gateway"}
	want := "HTTP 502: bad gateway"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
