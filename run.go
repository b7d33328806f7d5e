// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "context"

// RunExit executes an effect to completion and classifies its terminal
// state. Panics raised by the effect are recovered as defects, so RunExit
// itself never panics; errors matching the context cancellation sentinels
// are classified as interruption. ctx must be non-nil.
func RunExit[A any](ctx context.Context, e Effect[A]) (exit Exit[A]) {
	defer func() {
		if r := recover(); r != nil {
			exit = FailCause[A](recoveredCause(r))
		}
	}()
	a, err := e(ctx)
	if err != nil {
		return FailCause[A](CauseOf(err))
	}
	return Succeed(a)
}

// Run executes an effect and returns its value, or its cause rendered as
// an error. For a single expected failure the original error is returned
// unchanged, so errors.Is works across a run boundary.
func Run[A any](ctx context.Context, e Effect[A]) (A, error) {
	x := RunExit(ctx, e)
	if x.IsFailure() {
		var zero A
		return zero, x.Cause().AsError()
	}
	return x.Value(), nil
}
