// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// Exit is the terminal outcome of running an effect: success with a value
// or failure with a [Cause].
type Exit[A any] struct {
	value  A
	cause  Cause
	failed bool
}

// Succeed creates a successful exit.
func Succeed[A any](a A) Exit[A] {
	return Exit[A]{value: a}
}

// FailCause creates a failed exit carrying cause.
func FailCause[A any](cause Cause) Exit[A] {
	return Exit[A]{cause: cause, failed: true}
}

// IsSuccess reports whether the run succeeded.
func (x Exit[A]) IsSuccess() bool {
	return !x.failed
}

// IsFailure reports whether the run failed.
func (x Exit[A]) IsFailure() bool {
	return x.failed
}

// Value returns the success value, or the zero value for failed exits.
func (x Exit[A]) Value() A {
	return x.value
}

// Cause returns the failure cause, empty for successful exits.
func (x Exit[A]) Cause() Cause {
	return x.cause
}

// MatchExit pattern matches on the exit, calling onFailure or onSuccess.
func MatchExit[A, B any](x Exit[A], onFailure func(Cause) B, onSuccess func(A) B) B {
	if x.failed {
		return onFailure(x.cause)
	}
	return onSuccess(x.value)
}

// FromExit converts a terminal outcome back into an effect that
// immediately reproduces it.
func FromExit[A any](x Exit[A]) Effect[A] {
	if x.failed {
		return Fail[A](x.cause.AsError())
	}
	return Pure(x.value)
}
