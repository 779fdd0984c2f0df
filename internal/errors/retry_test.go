package errors

import (
	"context"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %v, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 500*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 500ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 15*time.Second {
		t.Errorf("MaxBackoff = %v, want 15s", config.MaxBackoff)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", config.Multiplier)
	}
	if config.RetryableErrors == nil {
		t.Error("RetryableErrors function is nil")
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
		RetryableErrors: func(err error) bool {
			return IsRetryable(err)
		},
	}

	attemptCount := 0
	err := RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		if attemptCount < 3 {
			return NewNetworkError("temporary failure", nil)
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if attemptCount != 3 {
		t.Errorf("Expected 3 attempts, got %d", attemptCount)
	}
}

func TestRetryWithBackoff_MaxRetriesExceeded(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
		RetryableErrors: func(err error) bool {
			return IsRetryable(err)
		},
	}

	attemptCount := 0
	err := RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		return NewNetworkError("persistent failure", nil)
	})

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if attemptCount != 3 { // Initial attempt + 2 retries
		t.Errorf("Expected 3 attempts, got %d", attemptCount)
	}
}

func TestRetryWithBackoff_NonRetryableError(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
		RetryableErrors: func(err error) bool {
			return IsRetryable(err)
		},
	}

	attemptCount := 0
	err := RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		return NewNotFoundError("no results found")
	})

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if attemptCount != 1 {
		t.Errorf("Expected 1 attempt (no retries), got %d", attemptCount)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	config := RetryConfig{
		MaxRetries:     10,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		Multiplier:     2.0,
		RetryableErrors: func(err error) bool {
			return IsRetryable(err)
		},
	}

	err := RetryWithBackoff(ctx, config, func() error {
		return NewNetworkError("failure", nil)
	})

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if ctx.Err() == nil {
		t.Error("Expected context to be cancelled")
	}
}

func TestRetryWithBackoff_ImmediateSuccess(t *testing.T) {
	ctx := context.Background()
	config := DefaultRetryConfig()

	attemptCount := 0
	err := RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		return nil
	})

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if attemptCount != 1 {
		t.Errorf("Expected 1 attempt, got %d", attemptCount)
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name       string
		attempt    int
		initial    time.Duration
		max        time.Duration
		multiplier float64
		expected   time.Duration
	}{
		{
			name:       "first retry",
			attempt:    0,
			initial:    1 * time.Second,
			max:        30 * time.Second,
			multiplier: 2.0,
			expected:   1 * time.Second,
		},
		{
			name:       "second retry",
			attempt:    1,
			initial:    1 * time.Second,
			max:        30 * time.Second,
			multiplier: 2.0,
			expected:   2 * time.Second,
		},
		{
			name:       "third retry",
			attempt:    2,
			initial:    1 * time.Second,
			max:        30 * time.Second,
			multiplier: 2.0,
			expected:   4 * time.Second,
		},
		{
			name:       "capped at max",
			attempt:    10,
			initial:    1 * time.Second,
			max:        30 * time.Second,
			multiplier: 2.0,
			expected:   30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.attempt, tt.initial, tt.max, tt.multiplier); got != tt.expected {
				t.Errorf("calculateBackoff() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRetryWithBackoff_RateLimitError(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
		RetryableErrors: func(err error) bool {
			return IsRetryable(err)
		},
	}

	attemptCount := 0
	startTime := time.Now()

	err := RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		if attemptCount == 1 {
			return NewRateLimitError("rate limited", 1)
		}
		return nil
	})

	duration := time.Since(startTime)

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if attemptCount != 2 {
		t.Errorf("Expected 2 attempts, got %d", attemptCount)
	}
	// Should wait for MaxBackoff on rate limit
	if duration < config.MaxBackoff {
		t.Errorf("Expected to wait at least %v, waited %v", config.MaxBackoff, duration)
	}
}

func TestRetryWithBackoff_CustomRetryableCheck(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
		RetryableErrors: func(err error) bool {
			// Only retry network errors
			return IsNetworkError(err)
		},
	}

	// Network error should retry
	attemptCount := 0
	err := RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		if attemptCount < 2 {
			return NewNetworkError("network failure", nil)
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if attemptCount != 2 {
		t.Errorf("Expected 2 attempts, got %d", attemptCount)
	}

	// Auth error should not retry with this config
	attemptCount = 0
	err = RetryWithBackoff(ctx, config, func() error {
		attemptCount++
		return NewAuthError("auth failure", nil)
	})

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if attemptCount != 1 {
		t.Errorf("Expected 1 attempt (no retries), got %d", attemptCount)
	}
}
