// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"routeopt/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retry loop. Attempts counts the first call. A zero
// MaxElapsed means only Attempts limits the loop.
type Policy struct {
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// Do calls op until it succeeds, returns a permanent error or the policy is
// exhausted. It returns the number of calls made and the last error.
//
// Example:
//
//	policy := retry.Policy{Attempts: 3, InitialInterval: 100 * time.Millisecond}
//	attempts, err := policy.Do(ctx, func(ctx context.Context) error {
//	    return repo.Add(ctx, task)
//	})
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	b := p.exponential()
	b.MaxElapsedTime = p.MaxElapsed

	var policy backoff.BackOff = b
	if p.Attempts > 0 {
		policy = backoff.WithMaxRetries(b, uint64(p.Attempts-1))
	}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		opErr := op(ctx)
		if opErr != nil && IsPermanent(opErr) {
			return backoff.Permanent(opErr)
		}
		return opErr
	}, backoff.WithContext(policy, ctx))

	return attempts, err
}

// Delay is the wait after the given failed attempt, without jitter. It is
// used where the wait happens outside the process, e.g. a broker redelivery.
func (p Policy) Delay(attempt int) time.Duration {
	b := p.exponential()
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.InitialInterval
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (p Policy) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// IsPermanent reports errors that another attempt cannot fix: rejected input,
// missing or duplicate objects and cancellation.
func IsPermanent(err error) bool {
	for _, target := range []error{
		errs.ErrValueIsInvalid,
		errs.ErrValueIsRequired,
		errs.ErrValueIsOutOfRange,
		errs.ErrObjectNotFound,
		errs.ErrObjectAlreadyExists,
		context.Canceled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
