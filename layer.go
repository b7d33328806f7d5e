// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Layers: recipes for building service environments.
//
// A layer describes how to construct services, possibly from other
// services and possibly acquiring resources into the ambient scope.
// Layers compose horizontally ([Merge]) and vertically ([Layer.Then]),
// and build at most once per [MemoMap] regardless of how many
// composites mention them.

// Layer builds an [Env] fragment. Each layer has a distinct identity;
// memoization is by identity, not by structure.
type Layer struct {
	id    uuid.UUID
	build func(ctx context.Context, memo *MemoMap) (Env, error)
}

func newLayer(build func(ctx context.Context, memo *MemoMap) (Env, error)) *Layer {
	return &Layer{id: uuid.New(), build: build}
}

// FromFunc builds a layer whose single service comes from f. The function
// receives the build context, which carries the input environment and the
// ambient scope, so it can look up dependencies and register finalizers.
func FromFunc[S any](key Key[S], f func(ctx context.Context) (S, error)) *Layer {
	return newLayer(func(ctx context.Context, _ *MemoMap) (Env, error) {
		s, err := f(ctx)
		if err != nil {
			return Env{}, err
		}
		return Add(Env{}, key, s), nil
	})
}

// FromEffect builds a layer whose single service comes from running e.
func FromEffect[S any](key Key[S], e Effect[S]) *Layer {
	return FromFunc(key, func(ctx context.Context) (S, error) {
		return e(ctx)
	})
}

// FromValue builds a layer providing an already-constructed service.
func FromValue[S any](key Key[S], service S) *Layer {
	return FromFunc(key, func(context.Context) (S, error) {
		return service, nil
	})
}

// FromEnv builds a layer providing a fixed environment.
func FromEnv(env Env) *Layer {
	return newLayer(func(context.Context, *MemoMap) (Env, error) {
		return env, nil
	})
}

// Merge builds all layers against the same input environment, concurrently,
// and unions their outputs. Later layers win on conflicting services. A nil
// layer contributes nothing. Any build failure fails the merge.
func Merge(layers ...*Layer) *Layer {
	return newLayer(func(ctx context.Context, memo *MemoMap) (Env, error) {
		outs := make([]Env, len(layers))
		g, gctx := errgroup.WithContext(ctx)
		for i, l := range layers {
			if l == nil {
				continue
			}
			g.Go(func() error {
				env, err := runLayer(gctx, memo, l)
				if err != nil {
					return err
				}
				outs[i] = env
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Env{}, err
		}
		var env Env
		for _, out := range outs {
			env = env.Merge(out)
		}
		return env, nil
	})
}

// Then feeds l's output into next's input and unions both outputs;
// next wins on conflicts.
func (l *Layer) Then(next *Layer) *Layer {
	return newLayer(func(ctx context.Context, memo *MemoMap) (Env, error) {
		out, err := runLayer(ctx, memo, l)
		if err != nil {
			return Env{}, err
		}
		nextOut, err := runLayer(WithEnv(ctx, EnvOf(ctx).Merge(out)), memo, next)
		if err != nil {
			return Env{}, err
		}
		return out.Merge(nextOut), nil
	})
}

// Build constructs the layer's environment. The input environment is taken
// from ctx. A non-nil memo shares builds by layer identity; a non-nil scope
// receives the layer's finalizers. Callers own closing the scope.
func (l *Layer) Build(ctx context.Context, memo *MemoMap, scope *Scope) (Env, error) {
	if scope != nil {
		ctx = WithScope(ctx, scope)
	}
	return runLayer(ctx, memo, l)
}

func runLayer(ctx context.Context, memo *MemoMap, l *Layer) (Env, error) {
	if memo == nil {
		return l.build(ctx, nil)
	}
	return memo.build(ctx, l)
}

type memoResult struct {
	env Env
	err error
}

// MemoMap shares layer builds. Each layer identity builds at most once per
// map; concurrent requests for the same layer coalesce, and both successes
// and failures are remembered.
type MemoMap struct {
	mu   sync.Mutex
	done map[uuid.UUID]memoResult
	sf   singleflight.Group
}

// NewMemoMap returns an empty memo map.
func NewMemoMap() *MemoMap {
	return &MemoMap{done: make(map[uuid.UUID]memoResult)}
}

func (m *MemoMap) lookup(id uuid.UUID) (memoResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.done[id]
	return res, ok
}

func (m *MemoMap) build(ctx context.Context, l *Layer) (Env, error) {
	if res, ok := m.lookup(l.id); ok {
		return res.env, res.err
	}
	v, err, _ := m.sf.Do(l.id.String(), func() (any, error) {
		if res, ok := m.lookup(l.id); ok {
			return res.env, res.err
		}
		env, buildErr := l.build(ctx, m)
		m.mu.Lock()
		m.done[l.id] = memoResult{env: env, err: buildErr}
		m.mu.Unlock()
		return env, buildErr
	})
	if err != nil {
		return Env{}, err
	}
	return v.(Env), nil
}

// ProvideLayer runs e with the services built from l layered over the
// ambient environment. The layer builds fresh on every run, in a private
// scope that closes when e finishes; close errors join e's failure cause.
func ProvideLayer[A any](e Effect[A], l *Layer) Effect[A] {
	return func(ctx context.Context) (a A, err error) {
		s := NewScope()
		defer func() {
			closeErr := s.Close(context.WithoutCancel(ctx))
			if r := recover(); r != nil {
				panic(r)
			}
			err = combineErrors(err, closeErr)
		}()
		env, buildErr := l.Build(ctx, nil, s)
		if buildErr != nil {
			var zero A
			return zero, buildErr
		}
		return Provide(e, env)(ctx)
	}
}
