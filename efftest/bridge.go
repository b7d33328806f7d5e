// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"code.hybscloud.com/eff"
)

// Outcome bridge: one effect run translated into one test verdict.
//
// The effect runtime reports failure as a cause that may hold several
// concurrent events; the host runner surfaces exactly one fatal error
// per test. The bridge renders the cause in order, logs every event
// after the first, and fails the test with the first.

// ErrInterrupted is the verdict for a run whose failure events are all
// interruptions: nothing went wrong in the test's own terms, but the run
// was canceled before finishing, and that must not pass silently.
var ErrInterrupted = errors.New("all fibers interrupted without errors")

// Run executes the effect produced by thunk under t's context and
// reports the outcome on t. The thunk is evaluated at run time, not at
// registration, so building the effect cannot leak side effects into
// the registration phase.
func Run(t T, thunk func() eff.Effect[eff.Unit]) {
	t.Helper()
	RunContext(t.Context(), t, thunk)
}

// RunContext is [Run] with an explicit context.
func RunContext(ctx context.Context, t T, thunk func() eff.Effect[eff.Unit]) {
	t.Helper()
	x := eff.RunExit(ctx, eff.Suspend(thunk))
	if x.IsSuccess() {
		return
	}
	reportCause(t, x.Cause())
}

func reportCause(t T, cause eff.Cause) {
	t.Helper()
	errs := cause.Failures()
	if len(errs) == 0 {
		t.Fatal(ErrInterrupted)
		return
	}
	if len(errs) > 1 {
		logger := zaptest.NewLogger(t)
		defer func() {
			_ = logger.Sync()
		}()
		for _, err := range errs[1:] {
			logger.Error("additional concurrent failure", zap.Error(err))
		}
	}
	t.Fatal(errs[0])
}
