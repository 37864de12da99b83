package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// RetryPolicy bounds the optimistic-concurrency retry loop. Attempt n waits
// n×Backoff before running again.
type RetryPolicy struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 25 * time.Millisecond}
}

// Do runs fn until it returns something other than a concurrency conflict,
// or the attempts are used up. Only conflicts are retried.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(1, p.Attempts)

	var err error
	for i := 1; i <= attempts; i++ {
		err = fn(ctx)
		if !errors.Is(err, entities.ErrConcurrencyConflict) {
			return err
		}
		if i == attempts {
			break
		}

		timer := time.NewTimer(time.Duration(i) * p.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}

// sentinels are passed through unwrapped by persistenceError.
var sentinels = []error{
	entities.ErrInvalidRating,
	entities.ErrCardNotFound,
	entities.ErrUserNotFound,
	entities.ErrUnauthorized,
	entities.ErrConcurrencyConflict,
	entities.ErrPersistenceFailure,
	entities.ErrCorruptState,
	context.Canceled,
	context.DeadlineExceeded,
}

// persistenceError adds op to err and marks storage failures that are not
// one of the domain errors with ErrPersistenceFailure.
func persistenceError(op string, err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", entities.ErrPersistenceFailure, op, err)
}
