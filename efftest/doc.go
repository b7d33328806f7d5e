// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package efftest runs effect-based tests on the standard testing
// package. Test bodies are effect descriptions; the package registers
// them as subtests, executes them through the eff runtime, and
// translates each run's outcome into the verdict testing expects.
//
// # Testers
//
// A tester is a registration surface bound to one environment
// transform. The four entry points cover the canonical transforms:
//
//   - [Test]: fresh test services and a fresh scope per test
//   - [TestServices]: fresh test services, no scope
//   - [TestScopedLive]: live services, a fresh scope per test
//   - [TestLive]: live services, no scope
//
// Each collects registrations from a body and flushes them as subtests:
//
//	func TestAccounts(t *testing.T) {
//		efftest.Test(t, func(s *efftest.Tester) {
//			s.Run("opens with zero balance", func(t efftest.T) eff.Effect[eff.Unit] {
//				return eff.Bind(openAccount(), func(a *Account) eff.Effect[eff.Unit] {
//					return efftest.ExpectEqual(a.Balance, 0)
//				})
//			})
//		})
//	}
//
// Modifiers mirror the host runner's and add some: [Tester.Skip],
// [Tester.Only], [Tester.SkipIf], [Tester.If] (alias [Tester.RunIf]),
// [Tester.Failing] (alias [Tester.Fails]), and [Each] for one
// registration per case. Every modifier wraps the body the same way:
// suspend, apply the tester's transform, run through the outcome
// bridge. [Make] builds a tester from a custom [Transform] when the
// four entry points do not fit.
//
// # Outcome bridge
//
// [Run] and [RunContext] execute one effect and report on the test:
// success passes; a failure cause renders in order, events after the
// first become log lines, and the first fails the test. A run whose
// failure is interruption alone fails with [ErrInterrupted] rather than
// passing silently. [WithTimeout] bounds a single test by canceling its
// run context, which still lets scope finalizers run before the verdict.
//
// # Shared layers
//
// [Layer] builds a service graph once for a group of tests and tears it
// down after the group:
//
//	efftest.Layer(t, databaseLayer).Group("queries", func(s *efftest.Tester) {
//		s.Run("finds by id", ...)
//		s.Run("misses gracefully", ...)
//	})
//
// The graph builds lazily on first use, memoized through a
// [eff.MemoMap]; nested layers created with [Tester.Layer] share the
// memo map and build on top of the outer environment, so a sub-graph
// used by several groups constructs exactly once. Teardown runs through
// the host runner's cleanup, innermost groups first. Unless
// [ExcludeTestServices] is given the graph builds on top of the test
// services, so one test clock and console are shared by the graph and
// every test in the group.
//
// # Flake suppression
//
// [Flaky] wraps a body in a bounded retry: at most ten attempts, at
// most a wall-clock ceiling, whichever ends first. Defects retry like
// ordinary failures; a residual failure after exhaustion escalates to a
// defect so it cannot be mistaken for a pass.
//
// # Properties
//
// [Forall1], [Forall2] and [Forall3] register plain predicate
// properties; [Prop1], [Prop2] and [Prop3] register effect-valued ones
// that run each generated tuple through the tester's transform. Failure
// reports carry the property library's minimal shrunk counterexample.
// [WithParameters] forwards check parameters, seed included.
//
// # Assertions
//
// The Expect helpers ([ExpectEqual], [ExpectTrue], [ExpectNoError],
// [ExpectFails], [ExpectDies]) are assertions as effects: they fail by
// returning errors, which keeps them composable and lets Failing,
// Flaky, and the property shrinker observe the failure instead of an
// aborted test. Assertion libraries that report through the test handle
// work too; anything accepting a testing.T-shaped value accepts a [T].
package efftest
