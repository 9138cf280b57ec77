package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when a remote backend cannot be reached.
	ErrUnavailable = errors.New("cache backend unavailable")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

type transientError struct{ cause error }

func (e transientError) Error() string { return e.cause.Error() }
func (e transientError) Unwrap() error { return e.cause }

// Transient marks err as a failure that may go away on a later attempt,
// such as a dropped connection or a timeout. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{cause: err}
}

// IsTransient reports whether err, or an error it wraps, was marked with
// [Transient].
func IsTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

// Backoff is the retry policy of the remote backends.
type Backoff struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Delay is the pause after the first failure. It doubles after each
	// further failure.
	Delay time.Duration
}

// DefaultBackoff tries three times over roughly 600ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 200 * time.Millisecond}

func (b Backoff) orDefault() Backoff {
	if b.Attempts <= 0 {
		return DefaultBackoff
	}
	return b
}

// Do calls op until it succeeds, returns an error not marked [Transient],
// or the attempts are used up. Cancelling ctx during a pause returns the
// context error.
func (b Backoff) Do(ctx context.Context, op func(context.Context) error) error {
	b = b.orDefault()
	pause := b.Delay
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || !IsTransient(err) || attempt >= b.Attempts {
			return err
		}
		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		pause *= 2
	}
}
