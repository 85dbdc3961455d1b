package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Caller wraps a Client with the retry policy: up to maxAttempts calls,
// sleeping baseDelay, 2*baseDelay, ... between them. Quota exhaustion and
// non-transient endpoint errors fail on the spot.
type Caller struct {
	client      Client
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type CallerOption func(*Caller)

func WithMaxAttempts(n int) CallerOption {
	return func(c *Caller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithBaseDelay(d time.Duration) CallerOption {
	return func(c *Caller) {
		if d >= 0 {
			c.baseDelay = d
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to record delays instead of sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) CallerOption {
	return func(c *Caller) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

func NewCaller(client Client, opts ...CallerOption) *Caller {
	c := &Caller{
		client:      client,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Caller) Model() string {
	return c.client.Model()
}

// Complete returns the raw model text, retrying transient failures.
func (c *Caller) Complete(ctx context.Context, req Request) (string, error) {
	model := c.client.Model()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.client.Complete(ctx, req)
		if err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "llm call succeeded after retry", "model", model, "attempt", attempt)
			}
			return text, nil
		}
		lastErr = err

		if errors.Is(err, ErrQuotaExhausted) {
			slog.ErrorContext(ctx, "llm quota exhausted, not retrying", "model", model, "error", err)
			return "", fmt.Errorf("model %s: %w", model, err)
		}
		if !retryable(ctx, err) {
			slog.ErrorContext(ctx, "llm error not retryable", "model", model, "attempt", attempt, "error", err)
			return "", fmt.Errorf("%w: model %s: %w", ErrGenerationFailed, model, err)
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := c.baseDelay << (attempt - 1)
		slog.WarnContext(ctx, "llm call failed, will retry",
			"model", model,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"delay", delay,
			"error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: model %s: waiting to retry: %w", ErrGenerationFailed, model, err)
		}
	}

	return "", fmt.Errorf("%w after %d attempts: model %s: %w", ErrGenerationFailed, c.maxAttempts, model, lastErr)
}

// Generate completes req and decodes the text into a T, enforcing T's required fields.
func Generate[T any](ctx context.Context, c *Caller, req Request) (*T, error) {
	text, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return Decode[T](text)
}

// GenerateList is Generate for calls that may answer with one object or an array.
func GenerateList[T any](ctx context.Context, c *Caller, req Request) ([]T, error) {
	text, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return DecodeList[T](text)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	// Network errors (no API response) are generally retryable
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
