package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vetmais/payments/internal/domain"
)

// RetryPolicy bounds a retry sequence.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Backoff returns the delay before the next attempt: min(base*2^(n-1), cap).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// RetryExecutor wraps provider operations with bounded exponential-backoff
// retry. Every attempt waits on the rate limiter first; terminal failure
// classes propagate without retrying.
type RetryExecutor struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

func NewRetryExecutor(limiter *RateLimiter, logger *slog.Logger) *RetryExecutor {
	return &RetryExecutor{limiter: limiter, logger: logger}
}

// Execute runs op under policy, logging each attempt with the correlation id
// so one logical payment attempt can be traced across N physical calls.
func Execute[T any](
	ctx context.Context,
	e *RetryExecutor,
	key string,
	policy RetryPolicy,
	correlationID string,
	op func(ctx context.Context) (*T, error),
) (*T, error) {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := e.limiter.AwaitSlot(ctx, key); err != nil {
			return nil, err
		}

		resp, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				e.logger.Info("provider call recovered",
					"correlation_id", correlationID,
					"attempt", attempt,
				)
			}
			return resp, nil
		}

		lastErr = err
		e.logger.Warn("provider call failed",
			"correlation_id", correlationID,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"error", Sanitize(err.Error()),
		)

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < policy.MaxAttempts {
			timer := time.NewTimer(policy.Backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// isRetryable branches on the error tag, never on message text. Validation,
// auth and not-found failures are terminal; provider 4xx is terminal; 5xx,
// timeouts and plain network failures are retryable.
func isRetryable(err error) bool {
	if _, ok := domain.IsValidationError(err); ok {
		return false
	}
	if _, ok := domain.IsAuthError(err); ok {
		return false
	}
	if _, ok := domain.IsNotFoundError(err); ok {
		return false
	}
	if gwErr, ok := domain.IsGatewayError(err); ok {
		return gwErr.StatusCode >= 500
	}
	if _, ok := domain.IsTimeoutError(err); ok {
		return true
	}
	return true
}
