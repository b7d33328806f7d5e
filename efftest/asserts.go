// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"code.hybscloud.com/eff"
)

// Assertions as effects. Each returns an effect that fails with a
// descriptive error instead of stopping the test directly, so they
// compose in Bind chains, invert under [Tester.Failing], retry under
// [Flaky], and shrink under the property bridge.

// ExpectEqual fails with a diff when got differs from want.
func ExpectEqual[A any](got, want A, opts ...cmp.Option) eff.Effect[eff.Unit] {
	return func(context.Context) (eff.Unit, error) {
		if diff := cmp.Diff(want, got, opts...); diff != "" {
			return eff.Unit{}, fmt.Errorf("values differ (-want +got):\n%s", diff)
		}
		return eff.Unit{}, nil
	}
}

// ExpectTrue fails with the formatted message when cond is false.
func ExpectTrue(cond bool, format string, args ...any) eff.Effect[eff.Unit] {
	return func(context.Context) (eff.Unit, error) {
		if !cond {
			return eff.Unit{}, fmt.Errorf(format, args...)
		}
		return eff.Unit{}, nil
	}
}

// ExpectNoError fails with err when err is non-nil.
func ExpectNoError(err error) eff.Effect[eff.Unit] {
	return func(context.Context) (eff.Unit, error) {
		if err != nil {
			return eff.Unit{}, fmt.Errorf("unexpected error: %w", err)
		}
		return eff.Unit{}, nil
	}
}

// ExpectFails runs e and succeeds exactly when e fails with an error
// matching target.
func ExpectFails[A any](e eff.Effect[A], target error) eff.Effect[eff.Unit] {
	return func(ctx context.Context) (eff.Unit, error) {
		x := eff.RunExit(ctx, e)
		if x.IsSuccess() {
			return eff.Unit{}, fmt.Errorf("expected failure %v, but the effect succeeded", target)
		}
		if err := x.Cause().AsError(); !errors.Is(err, target) {
			return eff.Unit{}, fmt.Errorf("expected failure %v, got %v", target, err)
		}
		return eff.Unit{}, nil
	}
}

// ExpectDies runs e and succeeds exactly when e fails with a defect,
// a panic included.
func ExpectDies[A any](e eff.Effect[A]) eff.Effect[eff.Unit] {
	return func(ctx context.Context) (eff.Unit, error) {
		x := eff.RunExit(ctx, e)
		if x.IsSuccess() {
			return eff.Unit{}, errors.New("expected a defect, but the effect succeeded")
		}
		if !x.Cause().HasDefect() {
			return eff.Unit{}, fmt.Errorf("expected a defect, got %v", x.Cause().AsError())
		}
		return eff.Unit{}, nil
	}
}
