// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry: repeated runs of a fallible effect.
//
// Only expected failures are retried. Defects and interruptions are
// terminal: a panic means the code is broken, and a canceled run must
// stop, so both pass through on the first occurrence.

type retryConfig struct {
	policy      backoff.BackOff
	maxAttempts uint
	maxElapsed  time.Duration
}

// RetryOption configures [Retry].
type RetryOption func(*retryConfig)

// WithPolicy sets the wait policy between attempts. Defaults to
// exponential backoff. Waits run on the process clock, not the ambient
// [Clock].
func WithPolicy(policy backoff.BackOff) RetryOption {
	return func(c *retryConfig) {
		c.policy = policy
	}
}

// WithMaxAttempts caps the total number of runs. Zero means no cap.
func WithMaxAttempts(n uint) RetryOption {
	return func(c *retryConfig) {
		c.maxAttempts = n
	}
}

// WithMaxElapsed caps the total time spent retrying. Zero means no cap.
func WithMaxElapsed(d time.Duration) RetryOption {
	return func(c *retryConfig) {
		c.maxElapsed = d
	}
}

// Retry runs e until it succeeds or the configured limits are exhausted,
// returning the last failure. Defects and interrupted-only failures stop
// the loop immediately and propagate unchanged.
func Retry[A any](e Effect[A], opts ...RetryOption) Effect[A] {
	cfg := retryConfig{policy: backoff.NewExponentialBackOff()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(ctx context.Context) (A, error) {
		op := func() (A, error) {
			a, err := e(ctx)
			if err != nil {
				c := CauseOf(err)
				if c.HasDefect() || c.IsInterruptedOnly() {
					return a, backoff.Permanent(err)
				}
			}
			return a, err
		}
		return backoff.Retry(ctx, op,
			backoff.WithBackOff(cfg.policy),
			backoff.WithMaxTries(cfg.maxAttempts),
			backoff.WithMaxElapsedTime(cfg.maxElapsed),
		)
	}
}
