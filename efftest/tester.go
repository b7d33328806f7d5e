// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"fmt"
	"strings"
	"testing"

	"code.hybscloud.com/eff"
)

// Tester factory: one registration surface per environment transform.
//
// Every modifier funnels through the same pipeline: suspend the body,
// apply the tester's transform, run through the outcome bridge. A new
// tester variant is a new transform, never new modifier logic.

// Body is a test body. It receives the test handle for assertions and
// subordinate runs and returns the effect the test executes.
type Body func(t T) eff.Effect[eff.Unit]

// Transform decorates a test body's effect with environment and scoping
// behavior. A tester applies its transform to every body it registers.
type Transform func(eff.Effect[eff.Unit]) eff.Effect[eff.Unit]

// LiveTransform leaves the body untouched: live services, no scope.
func LiveTransform() Transform {
	return func(e eff.Effect[eff.Unit]) eff.Effect[eff.Unit] {
		return e
	}
}

// ScopedLiveTransform delimits the body in a fresh scope, keeping live
// services.
func ScopedLiveTransform() Transform {
	return eff.Scoped[eff.Unit]
}

// ServicesTransform provides fresh test services to the body: a
// [eff.TestClock] at the epoch and a capturing [eff.TestConsole], built
// anew for every run so tests never share them.
func ServicesTransform() Transform {
	return func(e eff.Effect[eff.Unit]) eff.Effect[eff.Unit] {
		return eff.ProvideLayer(e, eff.TestServices())
	}
}

// ScopedTransform provides fresh test services and delimits the body in
// a fresh scope. This is what [Test] uses.
func ScopedTransform() Transform {
	return func(e eff.Effect[eff.Unit]) eff.Effect[eff.Unit] {
		return eff.ProvideLayer(eff.Scoped(e), eff.TestServices())
	}
}

type runMode uint8

const (
	modeRun runMode = iota
	modeSkip
	modeOnly
	modeFailing
	modeGroup
)

type spec struct {
	name   string
	mode   runMode
	reason string
	run    func(t T)
}

// group collects specs while the registration body runs and flushes them
// to the host runner afterwards. Collecting first is what makes Only
// work on a runner that has no native notion of it.
type group struct {
	t       T
	specs   []*spec
	hasOnly bool
}

func (g *group) add(sp *spec) {
	if sp.mode == modeOnly {
		g.hasOnly = true
	}
	g.specs = append(g.specs, sp)
}

func (g *group) flush() {
	for _, sp := range g.specs {
		g.dispatch(sp)
	}
}

func (g *group) dispatch(sp *spec) {
	mode := sp.mode
	reason := sp.reason
	if g.hasOnly && mode != modeOnly && mode != modeGroup {
		mode = modeSkip
		reason = "another test is registered with Only"
	}
	switch mode {
	case modeSkip:
		if reason == "" {
			reason = "skipped"
		}
		g.t.Run(sp.name, func(t T) {
			t.Skipf("%s", reason)
		})
	case modeFailing:
		g.t.Run(sp.name, func(t T) {
			t.Helper()
			probe := newProbe(t)
			probe.observe(sp.run)
			switch {
			case probe.wasSkipped():
				t.Skipf("%s", probe.failure())
			case probe.Failed():
				t.Logf("failed as expected: %s", probe.failure())
			default:
				t.Fatalf("expected the test to fail, but it passed")
			}
		})
	case modeGroup:
		if sp.name == "" {
			sp.run(g.t)
			return
		}
		g.t.Run(sp.name, sp.run)
	default:
		g.t.Run(sp.name, sp.run)
	}
}

// Tester registers effect-based tests through one environment transform.
// A tester is immutable: deriving a variant returns a new value, and
// registering tests touches nothing but its group's pending list.
type Tester struct {
	g  *group
	tf Transform
	lc *layerContext
}

// Make builds a tester from an environment transform, passes it to body
// for registrations, and then flushes them to the host runner. Most
// callers want one of [Test], [TestServices], [TestLive], or
// [TestScopedLive] instead.
func Make(t T, tf Transform, body func(s *Tester)) {
	g := &group{t: t}
	body(&Tester{g: g, tf: tf})
	g.flush()
}

// Test registers effect tests with fresh test services and a fresh scope
// per test.
func Test(t *testing.T, body func(s *Tester)) {
	t.Helper()
	Make(Wrap(t), ScopedTransform(), body)
}

// TestServices registers effect tests with fresh test services per test
// and no scope.
func TestServices(t *testing.T, body func(s *Tester)) {
	t.Helper()
	Make(Wrap(t), ServicesTransform(), body)
}

// TestLive registers effect tests against live services, unscoped.
func TestLive(t *testing.T, body func(s *Tester)) {
	t.Helper()
	Make(Wrap(t), LiveTransform(), body)
}

// TestScopedLive registers effect tests against live services with a
// fresh scope per test.
func TestScopedLive(t *testing.T, body func(s *Tester)) {
	t.Helper()
	Make(Wrap(t), ScopedLiveTransform(), body)
}

// Scoped derives a tester that additionally delimits each body in a
// fresh scope. The derived tester registers into the same group.
func (s *Tester) Scoped() *Tester {
	base := s.tf
	return &Tester{
		g: s.g,
		tf: func(e eff.Effect[eff.Unit]) eff.Effect[eff.Unit] {
			return base(eff.Scoped(e))
		},
		lc: s.lc,
	}
}

func (s *Tester) register(name string, mode runMode, body Body, opts []Option) {
	cfg := newConfig(opts)
	tf := s.tf
	s.g.add(&spec{
		name: name,
		mode: mode,
		run: func(t T) {
			t.Helper()
			ctx, cancel := cfg.runContext(t)
			defer cancel()
			RunContext(ctx, t, func() eff.Effect[eff.Unit] {
				return tf(body(t))
			})
		},
	})
}

// Run registers a test.
func (s *Tester) Run(name string, body Body, opts ...Option) {
	s.register(name, modeRun, body, opts)
}

// Skip registers a test that is reported as skipped without running.
func (s *Tester) Skip(name string, body Body, opts ...Option) {
	s.register(name, modeSkip, body, opts)
}

// Only registers a test and demotes every sibling registration in the
// same group that is not itself marked Only to skipped.
func (s *Tester) Only(name string, body Body, opts ...Option) {
	s.register(name, modeOnly, body, opts)
}

// SkipIf returns a registrar that skips the test when cond holds.
// The condition is evaluated at registration time.
func (s *Tester) SkipIf(cond bool) func(name string, body Body, opts ...Option) {
	return func(name string, body Body, opts ...Option) {
		if cond {
			s.Skip(name, body, opts...)
			return
		}
		s.Run(name, body, opts...)
	}
}

// If returns a registrar that runs the test only when cond holds,
// skipping it otherwise. The condition is evaluated at registration
// time. RunIf is the same registrar under its other name.
func (s *Tester) If(cond bool) func(name string, body Body, opts ...Option) {
	return s.SkipIf(!cond)
}

// RunIf is an alias for [Tester.If].
func (s *Tester) RunIf(cond bool) func(name string, body Body, opts ...Option) {
	return s.If(cond)
}

// Failing registers a test that is expected to fail: the body runs
// against a recording handle, and the registration passes exactly when
// the body failed. A body that passes fails the registration. Fails is
// the same registrar under its other name.
func (s *Tester) Failing(name string, body Body, opts ...Option) {
	s.register(name, modeFailing, body, opts)
}

// Fails is an alias for [Tester.Failing].
func (s *Tester) Fails(name string, body Body, opts ...Option) {
	s.register(name, modeFailing, body, opts)
}

// Each returns a registrar that registers one independent test per case.
// A name containing a fmt verb is formatted with the case; otherwise the
// case's default formatting is appended after a slash. An empty case
// list registers nothing.
func Each[C any](s *Tester, cases []C) func(name string, body func(t T, c C) eff.Effect[eff.Unit], opts ...Option) {
	return func(name string, body func(t T, c C) eff.Effect[eff.Unit], opts ...Option) {
		for _, c := range cases {
			s.Run(eachName(name, c), func(t T) eff.Effect[eff.Unit] {
				return body(t, c)
			}, opts...)
		}
	}
}

func eachName[C any](name string, c C) string {
	if strings.ContainsRune(name, '%') {
		return fmt.Sprintf(name, c)
	}
	return fmt.Sprintf("%s/%v", name, c)
}
