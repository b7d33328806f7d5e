// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package eff provides direct-style structured effects for Go: values
// that describe computations, composed before any of them runs, then
// executed against a context that carries their dependencies.
//
// An [Effect] is a description. Building one performs no work; running
// it with [Run] or [RunExit] does. Descriptions compose with [Bind],
// [Map] and [Then], acquire resources through scopes that guarantee
// release, and pull dependencies from an environment assembled by
// layers. The package is the runtime under the efftest helpers, and is
// usable on its own wherever deferred, inspectable computations pay off.
//
// # Effects
//
// [Effect] is a function from a run context to a value or an error.
// [Pure] lifts a value, [Fail] lifts an error, [Func] lifts an existing
// context-taking function, and [Suspend] defers the decision of which
// effect to run:
//
//	fetch := eff.Func(func(ctx context.Context) (*User, error) {
//		return client.Lookup(ctx, id)
//	})
//	greet := eff.Map(fetch, func(u *User) string {
//		return "hello, " + u.Name
//	})
//
// Composition is sequencing: [Bind] feeds a value into the next effect,
// [Map] transforms a value in place, [Then] ignores it. Nothing runs
// until the composed description reaches [Run].
//
// # Failure
//
// Failures travel on three channels, all multiplexed over error:
//
//   - expected failures, made with [Fail] and handled with [CatchAll]
//   - defects, panics or [Die] escalations wrapped in [*Defect]
//   - interruption, a context ending before the effect settles
//
// [CauseOf] classifies any error back into a [Cause], an ordered record
// of what went wrong. Causes from concurrent branches concatenate, so a
// parallel failure renders every underlying event. [Cause.AsError] is
// the inverse: a cause travels as an error without losing entries.
//
// [CatchAll] and [MapError] handle only the first channel. Defects and
// interruption pass through handlers untouched; recovery that swallowed
// a panic or a cancellation would hide a bug, not handle a failure.
//
// # Running
//
// [RunExit] executes an effect and settles it into an [Exit]: a value
// or a cause. Panics inside the effect are caught there and become
// defects carrying their stack. [Run] is the error-shaped convenience
// over it.
//
//	switch x := eff.RunExit(ctx, e); {
//	case x.IsSuccess():
//		use(x.Value())
//	default:
//		log.Print(x.Cause())
//	}
//
// # Environment
//
// Effects read dependencies from an [Env] carried by the run context.
// A [Key] names a service; [Ask] and [Service] look one up, failing
// with [ErrServiceMissing] when absent. [Provide] overlays an
// environment on the ambient one for the duration of an effect, later
// additions shadowing earlier ones.
//
// # Layers
//
// A [Layer] is a recipe for services: how to build them, what they need,
// and how to release them. [Merge] composes layers side by side, and
// [Layer.Then] feeds one layer's output into the next. Builds memoize
// by layer identity through a [MemoMap], so a layer mentioned by many
// composites constructs once and every mention shares the result, a
// failed result included. [ProvideLayer] builds a layer fresh around a
// single effect, releasing its resources when the effect finishes.
//
// # Scopes
//
// [Scoped] delimits a region. Resources acquired inside it with
// [AcquireRelease] register finalizers on the region's [Scope]; the
// scope closes when the region ends, running finalizers in reverse
// order even when the region fails, panics, or is interrupted.
// [Bracket] is the single-resource form, and [OnError] attaches
// failure-only cleanup.
//
// # Test services
//
// Time and output are capabilities. [Sleep] and [Now] go through the
// ambient [Clock]; [Log] goes through the ambient [Console]. Under
// [TestServices] those become a [TestClock], advanced manually and
// instantly, and a [TestConsole], capturing entries in memory:
//
//	tc, _ := eff.TestClockOf(ctx)
//	tc.Advance(5 * time.Minute)
//
// Production runs need not provide either: absent an environment the
// clock is the system clock and the console writes to stderr.
//
// # Fibers
//
// [Fork] starts an effect on its own goroutine under the ambient scope,
// returning a [Fiber]. Fibers are structured: closing the scope
// interrupts every fiber forked in it and waits for each to settle, so
// no run leaks past its region. [Fiber.Join] propagates the fiber's
// outcome; [Par] is the applicative form, running effects concurrently
// and failing with the combined cause when any fail.
//
// # Retrying
//
// [Retry] reruns an effect under a backoff policy until it succeeds or
// its attempt and time caps run out, then surfaces the last failure.
// Only expected failures retry; defects and interruption are terminal
// on first occurrence.
package eff
