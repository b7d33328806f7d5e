// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/eff"
)

// Shared layer lifecycle: build a service graph once, share it across
// every test in a group, release it after the group.
//
// The registrar owns a scope and a memo map. The graph builds lazily,
// exactly once, when the first group needs it; the scope closes through
// the host runner's cleanup once the owning test and all its subtests
// finish. Nested registrars share the memo map, so a sub-graph common
// to several groups still constructs a single time.

// LayerOption configures a [LayerRegistrar].
type LayerOption func(*layerConfig)

type layerConfig struct {
	memo    *eff.MemoMap
	timeout time.Duration
	exclude bool
}

// WithMemo shares an existing memo map instead of allocating a fresh
// one, so separate registrars reuse each other's builds.
func WithMemo(memo *eff.MemoMap) LayerOption {
	return func(c *layerConfig) {
		c.memo = memo
	}
}

// WithBuildTimeout bounds the graph build and the teardown.
func WithBuildTimeout(d time.Duration) LayerOption {
	return func(c *layerConfig) {
		c.timeout = d
	}
}

// ExcludeTestServices builds the graph exactly as given. By default the
// graph is fed by the test services, so its layers build against a test
// clock and console and the tests it serves see them too.
func ExcludeTestServices() LayerOption {
	return func(c *layerConfig) {
		c.exclude = true
	}
}

// layerContext is what a layer-backed tester passes to nested layers:
// the shared memo map and the environment already built.
type layerContext struct {
	memo *eff.MemoMap
	env  eff.Env
}

// LayerRegistrar registers groups of tests that share one built service
// graph.
type LayerRegistrar struct {
	t       T
	parent  *group
	graph   *eff.Layer
	memo    *eff.MemoMap
	scope   *eff.Scope
	timeout time.Duration
	build   func() (eff.Env, error)
}

// Layer creates a registrar for graph. The graph builds on top of the
// test services unless [ExcludeTestServices] is given, builds when the
// first registered group runs, and tears down after t and its subtests
// finish.
func Layer(t *testing.T, graph *eff.Layer, opts ...LayerOption) *LayerRegistrar {
	return newRegistrar(Wrap(t), nil, graph, opts)
}

func newRegistrar(t T, parent *group, graph *eff.Layer, opts []LayerOption) *LayerRegistrar {
	var cfg layerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.exclude {
		graph = eff.TestServices().Then(graph)
	}
	memo := cfg.memo
	if memo == nil {
		memo = eff.NewMemoMap()
	}
	r := &LayerRegistrar{
		t:       t,
		parent:  parent,
		graph:   graph,
		memo:    memo,
		scope:   eff.NewScope(),
		timeout: cfg.timeout,
	}
	r.build = sync.OnceValues(r.buildGraph)
	t.Cleanup(r.close)
	return r
}

func (r *LayerRegistrar) buildGraph() (eff.Env, error) {
	ctx := r.t.Context()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.graph.Build(ctx, r.memo, r.scope)
}

func (r *LayerRegistrar) close() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.scope.Close(ctx); err != nil {
		r.t.Errorf("layer teardown failed: %v", err)
	}
}

// Memo returns the registrar's memo map, for sharing with other
// registrars through [WithMemo].
func (r *LayerRegistrar) Memo() *eff.MemoMap {
	return r.memo
}

// Group registers a named subgroup whose tests share the layer's
// services. A failed build fails the whole subgroup before any of its
// tests register.
func (r *LayerRegistrar) Group(name string, body func(s *Tester)) {
	sp := &spec{name: name, mode: modeGroup, run: func(t T) {
		r.runGroup(t, body)
	}}
	if r.parent != nil {
		r.parent.add(sp)
		return
	}
	r.t.Run(sp.name, sp.run)
}

// Run registers the layer's tests directly in the enclosing group,
// without a named subgroup.
func (r *LayerRegistrar) Run(body func(s *Tester)) {
	if r.parent != nil {
		r.parent.add(&spec{mode: modeGroup, run: func(t T) {
			r.runGroup(t, body)
		}})
		return
	}
	r.runGroup(r.t, body)
}

func (r *LayerRegistrar) runGroup(t T, body func(s *Tester)) {
	t.Helper()
	env, err := r.build()
	if err != nil {
		t.Fatalf("layer build failed: %v", err)
	}
	g := &group{t: t}
	body(&Tester{
		g: g,
		tf: func(e eff.Effect[eff.Unit]) eff.Effect[eff.Unit] {
			return eff.Provide(e, env)
		},
		lc: &layerContext{memo: r.memo, env: env},
	})
	g.flush()
}

// Layer creates a registrar nested under this tester. When the tester is
// itself backed by a layer, the nested graph builds on top of the outer
// environment and shares the outer memo map, so common sub-graphs are
// not rebuilt. Registration order relative to sibling tests is kept.
func (s *Tester) Layer(graph *eff.Layer, opts ...LayerOption) *LayerRegistrar {
	if s.lc != nil {
		graph = eff.FromEnv(s.lc.env).Then(graph)
		opts = append([]LayerOption{WithMemo(s.lc.memo), ExcludeTestServices()}, opts...)
	}
	return newRegistrar(s.g.t, s.g, graph, opts)
}
