// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"fmt"
	"maps"
)

// Environment: the read-only service collection effects draw on.
//
// Services are identified by typed keys, carried through the run context,
// and supplied either directly ([Provide]) or by building a [Layer].

// Key identifies a service of type S in an [Env]. Two keys name the same
// service exactly when their names and type parameters agree.
type Key[S any] struct {
	name string
}

// NewKey creates a service key. Name collisions between keys of the same
// type alias the same service; pick package-qualified names.
func NewKey[S any](name string) Key[S] {
	return Key[S]{name: name}
}

func (k Key[S]) String() string {
	return k.name
}

// Env is an immutable mapping from service identity to instance.
// The zero value is the empty environment.
type Env struct {
	m map[any]any
}

// Add returns a copy of env extended with service under key.
func Add[S any](env Env, key Key[S], service S) Env {
	m := make(map[any]any, len(env.m)+1)
	maps.Copy(m, env.m)
	m[key] = service
	return Env{m: m}
}

// Get returns the service stored under key.
func Get[S any](env Env, key Key[S]) (S, bool) {
	v, ok := env.m[key]
	if !ok {
		var zero S
		return zero, false
	}
	s, ok := v.(S)
	return s, ok
}

// Merge returns the union of e and other; other wins on conflicts.
func (e Env) Merge(other Env) Env {
	if len(other.m) == 0 {
		return e
	}
	if len(e.m) == 0 {
		return other
	}
	m := make(map[any]any, len(e.m)+len(other.m))
	maps.Copy(m, e.m)
	maps.Copy(m, other.m)
	return Env{m: m}
}

// Len returns the number of services in the environment.
func (e Env) Len() int {
	return len(e.m)
}

type envCtxKey struct{}

// WithEnv returns a context carrying env, replacing any previous
// environment. Most callers want [Provide], which layers instead of
// replacing.
func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envCtxKey{}, env)
}

// EnvOf returns the environment carried by ctx, empty when absent.
func EnvOf(ctx context.Context) Env {
	if env, ok := ctx.Value(envCtxKey{}).(Env); ok {
		return env
	}
	return Env{}
}

// Service retrieves the service under key from the ambient environment.
// Fails with [ErrServiceMissing] when the environment does not provide it.
func Service[S any](ctx context.Context, key Key[S]) (S, error) {
	if s, ok := Get(EnvOf(ctx), key); ok {
		return s, nil
	}
	var zero S
	return zero, fmt.Errorf("%w: %v", ErrServiceMissing, key)
}

// Ask is the effect form of [Service].
func Ask[S any](key Key[S]) Effect[S] {
	return func(ctx context.Context) (S, error) {
		return Service(ctx, key)
	}
}

// Provide runs e with env layered over the ambient environment;
// env wins on conflicts.
func Provide[A any](e Effect[A], env Env) Effect[A] {
	return func(ctx context.Context) (A, error) {
		return e(WithEnv(ctx, EnvOf(ctx).Merge(env)))
	}
}

// ProvideService runs e with a single additional service.
func ProvideService[A, S any](e Effect[A], key Key[S], service S) Effect[A] {
	return func(ctx context.Context) (A, error) {
		return e(WithEnv(ctx, Add(EnvOf(ctx), key, service)))
	}
}
