// Package retry provides bounded retries and request throttling for
// generator adapters.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts  = 3
	DefaultDelay        = 60 * time.Second
	DefaultSafetyMargin = 5 * time.Second
	DefaultBaseBackoff  = 2 * time.Second
)

// Retry reasons reported to OnRetry.
const (
	ReasonRateLimited = "rate_limited"
	ReasonTransient   = "transient"
)

// QuotaExceededMessage is surfaced when rate limiting outlasts the retry budget.
const QuotaExceededMessage = "API quota exceeded. The free tier has limited requests per day. " +
	"Please wait a few minutes and try again, or consider upgrading to a paid plan for higher limits."

// RateLimitError reports a 429 response.
type RateLimitError struct {
	// RetryAfter is the delay requested by the server. Zero means unknown.
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limited"
	}
	return "rate limited: " + e.Message
}

// Is matches domain.ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// TransientError marks a failure worth retrying, such as a network error
// or a 5xx response.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Policy decides how often and how long to wait between attempts.
// The zero value is usable and applies the defaults.
type Policy struct {
	MaxAttempts  int
	DefaultDelay time.Duration
	SafetyMargin time.Duration
	BaseBackoff  time.Duration

	// Limiter throttles every attempt when set.
	Limiter *Limiter

	// OnRetry is called before each wait.
	OnRetry func(reason string, attempt int, wait time.Duration)

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the standard generator policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		DefaultDelay: DefaultDelay,
		SafetyMargin: DefaultSafetyMargin,
		BaseBackoff:  DefaultBaseBackoff,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.DefaultDelay <= 0 {
		p.DefaultDelay = DefaultDelay
	}
	if p.SafetyMargin < 0 {
		p.SafetyMargin = 0
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = DefaultBaseBackoff
	}
	if p.Sleep == nil {
		p.Sleep = sleep
	}
	return p
}

// RateLimitWait returns how long to wait after a rate-limit response.
func (p Policy) RateLimitWait(retryAfter time.Duration) time.Duration {
	p = p.withDefaults()
	if retryAfter <= 0 {
		return p.DefaultDelay
	}
	return retryAfter + p.SafetyMargin
}

// Backoff returns the wait after the given failed attempt (1-based):
// BaseBackoff, 2*BaseBackoff, 3*BaseBackoff, ...
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	return time.Duration(attempt) * p.BaseBackoff
}

// Do runs fn until it succeeds, fails permanently or the attempt budget
// is spent. Every returned error wraps domain.ErrGenerationFailed.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, ctx.Err())
		}

		var rl *RateLimitError
		var te *TransientError
		var wait time.Duration
		var reason string
		switch {
		case errors.As(err, &rl):
			wait = p.RateLimitWait(rl.RetryAfter)
			reason = ReasonRateLimited
			if p.Limiter != nil {
				p.Limiter.Backoff(wait)
			}
		case errors.As(err, &te):
			wait = p.Backoff(attempt)
			reason = ReasonTransient
		default:
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}

		if attempt == p.MaxAttempts {
			break
		}

		logger.Warn("generator %s, retrying in %s (attempt %d/%d)", reason, wait, attempt, p.MaxAttempts)
		if p.OnRetry != nil {
			p.OnRetry(reason, attempt, wait)
		}
		if err := p.Sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
	}

	if errors.Is(lastErr, domain.ErrRateLimited) {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrGenerationFailed, QuotaExceededMessage, lastErr)
	}
	return "", fmt.Errorf("%w: after %d attempts: %w", domain.ErrGenerationFailed, p.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
