// Package retry provides an opt-in retry policy for callers of the fetch
// client that must back off from rate-limited endpoints.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"agrilink/pkg/fetch"
	"agrilink/pkg/log"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts = 2
	defaultWaitMin     = 1 * time.Second
	defaultWaitMax     = 30 * time.Second
)

// ErrExhausted is returned when every attempt hit a retryable status.
var ErrExhausted = errors.New("retries exhausted")

// Policy describes when and how long to wait before repeating a request.
type Policy struct {
	// MaxAttempts counts the first try; 1 disables retries.
	MaxAttempts int
	WaitMin     time.Duration
	WaitMax     time.Duration
	// Backoff computes the wait before the next attempt. The response passed
	// in carries the failed status and headers, so Retry-After is visible.
	Backoff retryablehttp.Backoff
	// RetryStatuses lists the HTTP statuses worth retrying.
	RetryStatuses []int
	// Limiter, when set, paces every attempt.
	Limiter *rate.Limiter
}

// DefaultPolicy retries once on HTTP 429, honouring Retry-After.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   defaultMaxAttempts,
		WaitMin:       defaultWaitMin,
		WaitMax:       defaultWaitMax,
		Backoff:       retryablehttp.DefaultBackoff,
		RetryStatuses: []int{http.StatusTooManyRequests},
	}
}

// NewLimiter returns a limiter allowing perSecond attempts, or nil when
// perSecond is not positive.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.WaitMin <= 0 {
		p.WaitMin = defaultWaitMin
	}
	if p.WaitMax < p.WaitMin {
		p.WaitMax = p.WaitMin
	}
	if p.Backoff == nil {
		p.Backoff = retryablehttp.DefaultBackoff
	}
	return p
}

// retryable reports whether err carries one of the policy's statuses.
func (p Policy) retryable(err error) (*fetch.HTTPStatusError, bool) {
	var statusErr *fetch.HTTPStatusError
	if !errors.As(err, &statusErr) {
		return nil, false
	}
	return statusErr, slices.Contains(p.RetryStatuses, statusErr.StatusCode)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. Waits never exceed WaitMax: a longer computed
// backoff is clamped, and a Retry-After beyond WaitMax ends the retries at once.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	policy = policy.normalized()

	var lastErr error
	attempts := 0
	for attempts < policy.MaxAttempts {
		if policy.Limiter != nil {
			if err := policy.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attempts++
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}

		statusErr, ok := policy.retryable(err)
		if !ok {
			return nil, err
		}
		lastErr = err

		if attempts == policy.MaxAttempts {
			break
		}

		wait := policy.Backoff(policy.WaitMin, policy.WaitMax, attempts-1, statusErr.Response())
		if wait > policy.WaitMax {
			if retryAfter := statusErr.Header.Get("Retry-After"); retryAfter != "" {
				log.Warn().
					Int("status", statusErr.StatusCode).
					Str("retry_after", retryAfter).
					Dur("wait_max", policy.WaitMax).
					Str("url", statusErr.URL).
					Msg("Retry-After exceeds maximum wait, giving up")
				break
			}
			wait = policy.WaitMax
		}

		log.Warn().
			Int("status", statusErr.StatusCode).
			Int("attempt", attempts).
			Dur("wait", wait).
			Str("url", statusErr.URL).
			Msg("Backing off before retry")

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}

func sleep(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
