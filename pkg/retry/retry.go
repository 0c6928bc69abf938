// Package retry implements bounded retry with a fixed delay between
// attempts, for calls against the archive portal.
package retry

import (
	"context"
	"strings"
	"time"
)

// Config defines the retry budget: a maximum attempt count and a fixed
// delay between attempts. No backoff multiplier; the portal rate-limits
// by concurrency, not request rate, so pacing is constant.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultConfig matches the portal defaults: 4 attempts, 30s apart.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 4,
		Delay:       30 * time.Second,
	}
}

// RetryableError is implemented by errors that explicitly declare their
// retryability. Portal transport errors implement this so that protocol
// errors are never retried while network failures and 5xx responses are.
type RetryableError interface {
	error
	IsRetryable() bool
}

// IsRetryable reports whether an error is transient and worth retrying.
// Errors implementing RetryableError decide for themselves; anything else
// is pattern-matched against common transport failure strings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r, ok := err.(RetryableError); ok {
		return r.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"timeout",
		"timed out",
		"temporary failure",
		"network is unreachable",
		"500", "502", "503", "504",
		"service unavailable",
		"too many requests",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Do executes fn up to cfg.MaxAttempts times, sleeping cfg.Delay between
// attempts. Non-retryable errors are returned immediately. Respects
// context cancellation during wait periods.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn up to cfg.MaxAttempts times and returns its
// result. Non-retryable errors are returned immediately; otherwise the
// last error is returned once the budget is exhausted.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result = r
		lastErr = err

		if !IsRetryable(err) {
			return result, err
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	return result, lastErr
}
