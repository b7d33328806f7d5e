// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"

	"code.hybscloud.com/eff"
)

// Property bridge: generated inputs through the effect pipeline.
//
// Forall registers plain predicates; Prop registers effect-valued
// bodies that run through the tester's transform, so every generated
// tuple still sees test services, scoping, and interruption semantics.
// Generation, shrinking, and counterexample minimization belong to the
// property library and pass through unmodified.
//
// Inside a property body, report failure by returning it rather than
// calling t.Fatal: a fatal stops the whole test at the first failing
// tuple, before the shrinker can minimize it.

type propRun struct {
	t      T
	ctx    context.Context
	params *gopter.TestParameters

	mu   sync.Mutex
	last eff.Cause
}

func (r *propRun) run(e eff.Effect[eff.Unit]) bool {
	x := eff.RunExit(r.ctx, e)
	if x.IsSuccess() {
		return true
	}
	r.mu.Lock()
	r.last = x.Cause()
	r.mu.Unlock()
	return false
}

func (r *propRun) lastCause() eff.Cause {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func registerProp(s *Tester, name string, opts []Option, check func(r *propRun) *gopter.TestResult) {
	cfg := newConfig(opts)
	s.g.add(&spec{
		name: name,
		mode: modeRun,
		run: func(t T) {
			t.Helper()
			ctx, cancel := cfg.runContext(t)
			defer cancel()
			params := cfg.params
			if params == nil {
				params = gopter.DefaultTestParameters()
			}
			r := &propRun{t: t, ctx: ctx, params: params}
			reportProp(t, check(r), r.lastCause())
		},
	})
}

func reportProp(t T, res *gopter.TestResult, last eff.Cause) {
	t.Helper()
	if res.Passed() {
		t.Logf("property %v: %d passed, %d discarded (%v)",
			res.Status, res.Succeeded, res.Discarded, res.Time)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "property %v after %d passed tests", res.Status, res.Succeeded)
	shrinks := 0
	for _, arg := range res.Args {
		shrinks += arg.Shrinks
	}
	if shrinks > 0 {
		fmt.Fprintf(&b, ", %d shrinks", shrinks)
	}
	for i, arg := range res.Args {
		fmt.Fprintf(&b, "\n  arg %d: %v", i, arg)
	}
	if res.Error != nil {
		fmt.Fprintf(&b, "\n  error: %v", res.Error)
	}
	if !last.IsEmpty() {
		fmt.Fprintf(&b, "\n  last failure: %v", last.AsError())
	}
	t.Fatalf("%s", b.String())
}

// Forall1 registers a property test asserting condition holds for every
// generated value.
func Forall1[A any](s *Tester, name string, genA gopter.Gen, condition func(A) bool, opts ...Option) {
	registerProp(s, name, opts, func(r *propRun) *gopter.TestResult {
		return prop.ForAll(condition, genA).Check(r.params)
	})
}

// Forall2 registers a property test over two generators.
func Forall2[A, B any](s *Tester, name string, genA, genB gopter.Gen, condition func(A, B) bool, opts ...Option) {
	registerProp(s, name, opts, func(r *propRun) *gopter.TestResult {
		return prop.ForAll(condition, genA, genB).Check(r.params)
	})
}

// Forall3 registers a property test over three generators.
func Forall3[A, B, C any](s *Tester, name string, genA, genB, genC gopter.Gen, condition func(A, B, C) bool, opts ...Option) {
	registerProp(s, name, opts, func(r *propRun) *gopter.TestResult {
		return prop.ForAll(condition, genA, genB, genC).Check(r.params)
	})
}

// Prop1 registers a property test whose body is an effect. Each
// generated value runs through the tester's transform; a tuple passes
// when its run succeeds.
func Prop1[A any](s *Tester, name string, genA gopter.Gen, body func(t T, a A) eff.Effect[eff.Unit], opts ...Option) {
	tf := s.tf
	registerProp(s, name, opts, func(r *propRun) *gopter.TestResult {
		return prop.ForAll(func(a A) bool {
			return r.run(tf(body(r.t, a)))
		}, genA).Check(r.params)
	})
}

// Prop2 registers an effect property test over two generators.
func Prop2[A, B any](s *Tester, name string, genA, genB gopter.Gen, body func(t T, a A, b B) eff.Effect[eff.Unit], opts ...Option) {
	tf := s.tf
	registerProp(s, name, opts, func(r *propRun) *gopter.TestResult {
		return prop.ForAll(func(a A, b B) bool {
			return r.run(tf(body(r.t, a, b)))
		}, genA, genB).Check(r.params)
	})
}

// Prop3 registers an effect property test over three generators.
func Prop3[A, B, C any](s *Tester, name string, genA, genB, genC gopter.Gen, body func(t T, a A, b B, c C) eff.Effect[eff.Unit], opts ...Option) {
	tf := s.tf
	registerProp(s, name, opts, func(r *propRun) *gopter.TestResult {
		return prop.ForAll(func(a A, b B, c C) bool {
			return r.run(tf(body(r.t, a, b, c)))
		}, genA, genB, genC).Check(r.params)
	})
}
