// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"code.hybscloud.com/eff"
)

// DefaultFlakyTimeout is the elapsed-time ceiling [Flaky] applies when
// given a non-positive timeout.
const DefaultFlakyTimeout = 30 * time.Second

const flakyMaxAttempts = 10

// Flaky reruns e until it succeeds, within two independent bounds: at
// most ten attempts, and at most timeout of elapsed wall-clock time
// since the first attempt. Defects are reclassified as ordinary
// failures so the retry loop can count them like any other attempt.
// Once both chances are spent, the residual failure escalates to a
// defect: a test that never managed to pass must fail loudly even if
// the caller handles expected errors.
//
// Interruption is not retried; a canceled run propagates immediately.
// The effect's environment passes through unchanged, so Flaky composes
// with any tester variant.
func Flaky(e eff.Effect[eff.Unit], timeout time.Duration) eff.Effect[eff.Unit] {
	if timeout <= 0 {
		timeout = DefaultFlakyTimeout
	}
	return func(ctx context.Context) (eff.Unit, error) {
		op := func() (eff.Unit, error) {
			x := eff.RunExit(ctx, e)
			if x.IsSuccess() {
				return eff.Unit{}, nil
			}
			cause := x.Cause()
			if cause.IsInterruptedOnly() {
				return eff.Unit{}, backoff.Permanent(cause.AsError())
			}
			return eff.Unit{}, cause.AsError()
		}
		_, err := backoff.Retry(ctx, op,
			backoff.WithBackOff(&backoff.ZeroBackOff{}),
			backoff.WithMaxTries(flakyMaxAttempts),
			backoff.WithMaxElapsedTime(timeout),
		)
		if err == nil {
			return eff.Unit{}, nil
		}
		cause := eff.CauseOf(err)
		if cause.IsInterruptedOnly() || cause.HasDefect() {
			return eff.Unit{}, err
		}
		return eff.Unit{}, eff.NewDefect(err)
	}
}
