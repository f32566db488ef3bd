// Package retry runs a remote call a bounded number of times, sleeping an
// exponentially growing backoff after every failure.
//
// The schedule is computed with k8s.io/apimachinery's wait.Backoff; the
// sleeping itself goes through a Sleeper so callers (and tests) decide how
// time passes.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/rhuss/lorasampler/pkg/debug"
)

var (
	// ErrExhausted is returned when every attempt failed.
	ErrExhausted = errors.New("retry: attempts exhausted")

	// ErrAbandoned is returned when a strict policy meets an error that is
	// not worth retrying.
	ErrAbandoned = errors.New("retry: non-retryable error")
)

// Policy controls how many times a call is attempted and how long to wait
// between attempts.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// InitialBackoff is the sleep after the first failure.
	InitialBackoff time.Duration

	// Factor multiplies the backoff after every failure.
	Factor float64

	// Strict stops retrying as soon as an error reports Retryable() == false.
	// When unset every error is retried.
	Strict bool
}

// DefaultPolicy returns 5 attempts with backoffs of 1s, 2s, 4s, 8s and 16s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		Factor:         2,
	}
}

// Validate checks the policy for usable values.
func (p Policy) Validate() error {
	var errs []error
	if p.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be >= 1, got %d", p.MaxAttempts))
	}
	if p.InitialBackoff < 0 {
		errs = append(errs, fmt.Errorf("initial_backoff must be >= 0, got %s", p.InitialBackoff))
	}
	if p.Factor < 1 {
		errs = append(errs, fmt.Errorf("factor must be >= 1, got %g", p.Factor))
	}
	return errors.Join(errs...)
}

// backoff returns a fresh wait.Backoff for one Do invocation. wait.Backoff
// is mutated by Step, so it must never be shared between calls.
func (p Policy) backoff() wait.Backoff {
	return wait.Backoff{
		Duration: p.InitialBackoff,
		Factor:   p.Factor,
		Steps:    p.MaxAttempts,
	}
}

// Schedule returns the sleep that follows each failed attempt, in order.
func Schedule(p Policy) []time.Duration {
	b := p.backoff()
	out := make([]time.Duration, 0, p.MaxAttempts)
	for i := 0; i < p.MaxAttempts; i++ {
		out = append(out, b.Step())
	}
	return out
}

// Attempt performs one try. attempt starts at 1.
type Attempt func(ctx context.Context, attempt int) error

// FailureFunc is called after a failed attempt, before sleeping.
type FailureFunc func(attempt int, backoff time.Duration, err error)

// retryable is implemented by errors that know whether they are transient.
type retryable interface {
	Retryable() bool
}

// Do calls fn until it succeeds or the policy's attempts are used up.
//
// Every failure is reported to onFailure and followed by its backoff sleep,
// including the last one, before the attempt cap is checked. On exhaustion
// the returned error wraps both ErrExhausted and the last failure. If ctx is
// cancelled while sleeping, ctx's error is returned.
func Do(ctx context.Context, p Policy, s Sleeper, fn Attempt, onFailure FailureFunc) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	if s == nil {
		s = TimerSleeper{}
	}

	b := p.backoff()
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				debug.Attempt(attempt, p.MaxAttempts, 0, nil)
			}
			return nil
		}
		lastErr = err

		if p.Strict && !isRetryable(err) {
			debug.Log(debug.Retry, "abandoning non-retryable error", "attempt", attempt, "error", err.Error())
			return fmt.Errorf("%w: %w", ErrAbandoned, err)
		}

		delay := b.Step()
		debug.Attempt(attempt, p.MaxAttempts, delay, err)
		if onFailure != nil {
			onFailure(attempt, delay, err)
		}

		if err := s.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}

func isRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
