// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "context"

// Core effect type and constructors.
//
// An Effect is an inert description of a computation: nothing happens until
// it is applied to a context. Running the same effect twice yields two
// independent runs.

// Unit is the canonical success type for effects whose value is discarded.
type Unit = struct{}

// Effect describes a computation that, when run, either succeeds with an A
// or terminates with an error. The error channel carries all three failure
// modes of the runtime: expected failures, defects ([Defect]) and
// interruption (context cancellation). Effects observe interruption
// cooperatively through ctx.
type Effect[A any] func(ctx context.Context) (A, error)

// Noop is the effect that succeeds immediately with no value.
var Noop Effect[Unit] = Pure(Unit{})

// Pure lifts a value into an effect that succeeds immediately.
func Pure[A any](a A) Effect[A] {
	return func(context.Context) (A, error) {
		return a, nil
	}
}

// Fail constructs an effect that fails immediately with err
// through the expected-failure channel.
func Fail[A any](err error) Effect[A] {
	return func(context.Context) (A, error) {
		var zero A
		return zero, err
	}
}

// Die constructs an effect that terminates immediately with a defect.
// Use it for states that code should never reach; unlike [Fail], the
// resulting error is not caught by [CatchAll] and is not retried by [Retry].
func Die[A any](v any) Effect[A] {
	return func(context.Context) (A, error) {
		var zero A
		return zero, NewDefect(v)
	}
}

// Func adapts a plain Go function to an effect.
func Func[A any](f func(ctx context.Context) (A, error)) Effect[A] {
	return f
}

// Suspend defers effect construction until run time. The thunk is invoked
// once per run, so side effects of building the description do not happen
// at composition time.
func Suspend[A any](f func() Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		return f()(ctx)
	}
}

// Discard runs e and replaces its value with Unit.
func Discard[A any](e Effect[A]) Effect[Unit] {
	return func(ctx context.Context) (Unit, error) {
		_, err := e(ctx)
		return Unit{}, err
	}
}

// CatchAll recovers from expected failures by running h with the failure.
// Defects and interruption are not caught; they pass through unchanged.
func CatchAll[A any](e Effect[A], h func(error) Effect[A]) Effect[A] {
	return func(ctx context.Context) (A, error) {
		a, err := e(ctx)
		if err == nil {
			return a, nil
		}
		c := CauseOf(err)
		if c.HasDefect() || c.IsInterruptedOnly() {
			return a, err
		}
		return h(c.AsError())(ctx)
	}
}

// MapError transforms the expected failure of e. Defects and interruption
// pass through unchanged.
func MapError[A any](e Effect[A], f func(error) error) Effect[A] {
	return CatchAll(e, func(err error) Effect[A] {
		return Fail[A](f(err))
	})
}

// Ignore runs e and succeeds with Unit whether or not e failed.
// Interruption still propagates: a canceled run is not a success.
func Ignore[A any](e Effect[A]) Effect[Unit] {
	return func(ctx context.Context) (Unit, error) {
		_, err := e(ctx)
		if err != nil && CauseOf(err).IsInterruptedOnly() {
			return Unit{}, err
		}
		return Unit{}, nil
	}
}
