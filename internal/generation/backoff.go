package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
)

// Policy controls CallWithBackoff. Delays double from InitialDelay on every
// retry, so retries=3 and 1s gives 1s, 2s, 4s.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Retryable    func(error) bool

	// OnRetry is called before each scheduled retry with the delay about to be slept.
	OnRetry func(attempt int, delay time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Retryable:    IsRateLimited,
	}
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func (p Policy) retryable() func(error) bool {
	if p.Retryable == nil {
		return IsRateLimited
	}
	return p.Retryable
}

func newRetryPolicy[T any](p Policy) retrypolicy.RetryPolicy[T] {
	retryable := p.retryable()
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	builder := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return err != nil && retryable(err)
		}).
		WithMaxRetries(retries).
		ReturnLastFailure()

	if retries > 1 && p.InitialDelay > 0 {
		builder = builder.WithBackoff(p.InitialDelay, p.InitialDelay<<(retries-1))
	} else {
		builder = builder.WithDelay(p.InitialDelay)
	}

	onRetry := p.OnRetry
	builder = builder.OnRetryScheduled(func(e failsafe.ExecutionScheduledEvent[T]) {
		slog.Warn("upstream rate limited, retrying", "attempt", e.Attempts(), "delay", e.Delay)
		if onRetry != nil {
			onRetry(e.Attempts(), e.Delay)
		}
	})

	return builder.Build()
}

// CallWithBackoff runs operation, retrying retryable failures with doubling
// delays. Exhausted retries surface as apperr.ErrUpstreamRateLimited, any other
// failure as apperr.ErrUpstream without retrying.
func CallWithBackoff[T any](ctx context.Context, policy Policy, operation func(context.Context) (T, error)) (T, error) {
	var zero T

	result, err := failsafe.With[T](newRetryPolicy[T](policy)).
		WithContext(ctx).
		Get(func() (T, error) {
			return operation(ctx)
		})
	if err != nil {
		if policy.retryable()(err) {
			return zero, fmt.Errorf("%w: %v", apperr.ErrUpstreamRateLimited, err)
		}
		return zero, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	return result, nil
}
