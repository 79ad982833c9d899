/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package retry implements the bounded retry helper of the control plane:
// a classification-aware wrapper around github.com/cenkalti/backoff/v4 used
// by every reconciler and service that performs a suspending call.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hortator-ai/cellforge/internal/cferrors"
)

// Kind selects the delay growth function for attempt i.
type Kind string

const (
	Constant    Kind = "constant"
	Linear      Kind = "linear"
	Exponential Kind = "exponential"
)

// Strategy mirrors the source's {maxRetries, backoff, baseDelayMs, maxDelayMs}.
type Strategy struct {
	MaxRetries  int
	Backoff     Kind
	BaseDelayMs int64
	MaxDelayMs  int64
}

// Op is a unit of work that may fail. Implementations should wrap failures
// likely to succeed on a later attempt with cferrors.Transient.
type Op func(ctx context.Context) error

// Do runs op, retrying up to strategy.MaxRetries times for errors classified
// retryable (see cferrors.Retryable), backing off per strategy.Backoff. Any
// other error terminates immediately. On exhaustion the last error is
// returned unwrapped.
func Do(ctx context.Context, strategy Strategy, op Op) error {
	b := newBackOff(strategy)
	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !cferrors.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bctx)
}

func newBackOff(s Strategy) backoff.BackOff {
	base := time.Duration(s.BaseDelayMs) * time.Millisecond
	maxDelay := time.Duration(s.MaxDelayMs) * time.Millisecond
	if maxDelay <= 0 {
		maxDelay = base
	}

	var b backoff.BackOff
	switch s.Backoff {
	case Linear:
		b = &linearBackOff{base: base, max: maxDelay}
	case Exponential:
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = base
		eb.MaxInterval = maxDelay
		eb.MaxElapsedTime = 0 // bounded by MaxRetries below, not elapsed time
		b = eb
	default: // Constant
		b = backoff.NewConstantBackOff(capDuration(base, maxDelay))
	}

	if s.MaxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(s.MaxRetries))
	}
	return b
}

func capDuration(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// linearBackOff grows its delay by one base unit per attempt, capped at max.
type linearBackOff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	d := time.Duration(l.attempt) * l.base
	return capDuration(d, l.max)
}

func (l *linearBackOff) Reset() { l.attempt = 0 }

// Delay computes the delay for attempt i (0-based) without invoking any
// operation — used by tests and by callers that schedule work themselves
// (e.g. the Mission reconciler's next-retry timestamp).
func Delay(s Strategy, attempt int) time.Duration {
	base := time.Duration(s.BaseDelayMs) * time.Millisecond
	maxDelay := time.Duration(s.MaxDelayMs) * time.Millisecond
	if maxDelay <= 0 {
		maxDelay = base
	}
	switch s.Backoff {
	case Linear:
		return capDuration(time.Duration(attempt+1)*base, maxDelay)
	case Exponential:
		d := base
		for i := 0; i < attempt; i++ {
			d *= 2
		}
		return capDuration(d, maxDelay)
	default:
		return capDuration(base, maxDelay)
	}
}
