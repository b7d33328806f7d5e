// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "context"

// Monad operations for effects.
//
// Minimal definition: Pure (unit) and Bind are necessary and sufficient.
// Map and Then are derived operations kept as optimizations to avoid
// intermediate effect allocations.

// Bind sequences two effects (monadic bind).
// It runs m, then passes the result to f to get the next effect.
// A failure of m short-circuits: f is never called.
func Bind[A, B any](m Effect[A], f func(A) Effect[B]) Effect[B] {
	return func(ctx context.Context) (B, error) {
		a, err := m(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a)(ctx)
	}
}

// Map applies a pure function to the result of an effect.
//
// Allocation note: Map is equivalent to Bind(m, compose(Pure, f)) but
// avoids the intermediate Pure effect, making it the preferred choice
// when the transformation is pure (does not produce effects).
func Map[A, B any](m Effect[A], f func(A) B) Effect[B] {
	return func(ctx context.Context) (B, error) {
		a, err := m(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a), nil
	}
}

// Then sequences two effects, discarding the first result.
// This is more efficient than Bind when the second computation
// does not depend on the first result.
func Then[A, B any](m Effect[A], n Effect[B]) Effect[B] {
	return func(ctx context.Context) (B, error) {
		if _, err := m(ctx); err != nil {
			var zero B
			return zero, err
		}
		return n(ctx)
	}
}
