package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrorKind classifies embedding failures.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "timeout"
	KindProviderFailure   ErrorKind = "provider_failure"
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
)

// Error is a classified embedding failure.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("embedding %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Defaults for the reliability wrapper.
const (
	defaultBatchTimeout = 300 * time.Second
	defaultMaxAttempts  = 3
)

// Delay returns the exponential backoff delay before retrying after the
// given zero-based attempt: 2^attempt seconds.
func Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// Client wraps a Provider with a hard per-batch timeout, bounded retries with
// exponential backoff, and dimension validation of every returned vector.
type Client struct {
	provider     Provider
	batchTimeout time.Duration
	maxAttempts  int
	delay        func(attempt int) time.Duration
	logger       *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBatchTimeout overrides the hard timeout around one whole batch call.
func WithBatchTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.batchTimeout = d }
}

// WithMaxAttempts overrides the number of attempts on provider failure.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithDelay overrides the backoff policy (used in tests).
func WithDelay(fn func(int) time.Duration) ClientOption {
	return func(c *Client) { c.delay = fn }
}

// WithLogger sets a logger for retry and failure events.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a reliability wrapper around provider.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:     provider,
		batchTimeout: defaultBatchTimeout,
		maxAttempts:  defaultMaxAttempts,
		delay:        Delay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dimensions returns the expected vector dimension for the active model.
func (c *Client) Dimensions() int {
	return ModelDimensions(c.provider.Model(), c.provider.Dimensions())
}

// Model returns the active embedding model name.
func (c *Client) Model() string { return c.provider.Model() }

// Embed embeds texts as one batch. The whole operation, retries included, is
// bounded by the batch timeout; hitting it returns an Error of kind timeout
// without consuming remaining retries. Persistent provider failure after all
// attempts returns kind provider_failure. The provider must return exactly
// one vector per input, each matching the model's declared dimension.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.delay(attempt-1)); err != nil {
				return nil, &Error{Kind: KindTimeout, Cause: err}
			}
		}
		vectors, err := c.provider.EmbedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &Error{Kind: KindTimeout, Cause: ctx.Err()}
			}
			lastErr = err
			if c.logger != nil {
				c.logger.Warn("embedding attempt failed",
					zap.Int("attempt", attempt+1),
					zap.Int("max_attempts", c.maxAttempts),
					zap.Error(err),
				)
			}
			continue
		}
		if len(vectors) != len(texts) {
			lastErr = fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(texts))
			continue
		}
		dims := c.Dimensions()
		for i, v := range vectors {
			if len(v) != dims {
				return nil, &Error{
					Kind:  KindDimensionMismatch,
					Cause: fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dims),
				}
			}
		}
		return vectors, nil
	}
	if ctx.Err() != nil {
		return nil, &Error{Kind: KindTimeout, Cause: ctx.Err()}
	}
	return nil, &Error{Kind: KindProviderFailure, Cause: lastErr}
}

// EmbedOne embeds a single text without the batch retry loop.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return c.provider.EmbedOne(ctx, text)
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
