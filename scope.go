// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
)

// Scopes: deferred finalization for resource-acquiring effects.
//
// A scope collects finalizers as resources are acquired and runs them in
// reverse order when the scope closes. [Scoped] delimits a region whose
// resources live exactly as long as the region; [AcquireRelease] ties a
// single resource to the ambient scope.

// ErrScopeClosed reports a finalizer added after the scope closed.
var ErrScopeClosed = errors.New("eff: scope already closed")

// Finalizer releases a resource. The context passed to [Scope.Close] is
// never the already-canceled run context, so releases still get a live
// deadline-free context by default.
type Finalizer func(ctx context.Context) error

// Scope owns a stack of finalizers. Safe for concurrent use.
type Scope struct {
	mu     sync.Mutex
	closed bool
	fins   []Finalizer
}

// NewScope returns an open scope with no finalizers.
func NewScope() *Scope {
	return &Scope{}
}

// AddFinalizer registers f to run when the scope closes. Finalizers run
// in reverse registration order. Returns [ErrScopeClosed] after Close.
func (s *Scope) AddFinalizer(f Finalizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrScopeClosed
	}
	s.fins = append(s.fins, f)
	return nil
}

// Close runs all finalizers in reverse registration order and returns
// their combined error. Every finalizer runs even when earlier ones fail.
// Closing an already-closed scope is a no-op.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	fins := s.fins
	s.fins = nil
	s.mu.Unlock()

	var err error
	for i := len(fins) - 1; i >= 0; i-- {
		err = multierr.Append(err, fins[i](ctx))
	}
	return err
}

type scopeCtxKey struct{}

// WithScope returns a context carrying s as the ambient scope.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, s)
}

// ScopeOf returns the ambient scope, or nil when ctx carries none.
func ScopeOf(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeCtxKey{}).(*Scope)
	return s
}

// AddFinalizer registers f with the ambient scope. Fails with [ErrNoScope]
// outside a scoped region.
func AddFinalizer(f Finalizer) Effect[Unit] {
	return func(ctx context.Context) (Unit, error) {
		s := ScopeOf(ctx)
		if s == nil {
			return Unit{}, ErrNoScope
		}
		return Unit{}, s.AddFinalizer(f)
	}
}

// Scoped runs e inside a fresh scope and closes the scope when e finishes,
// whether by value, error, or panic. Finalizers run with a context that
// survives cancellation of the run context, so interruption does not skip
// release. Close errors join e's own failure cause.
func Scoped[A any](e Effect[A]) Effect[A] {
	return func(ctx context.Context) (a A, err error) {
		s := NewScope()
		defer func() {
			closeErr := s.Close(context.WithoutCancel(ctx))
			if r := recover(); r != nil {
				panic(r)
			}
			err = combineErrors(err, closeErr)
		}()
		return e(WithScope(ctx, s))
	}
}

// AcquireRelease acquires a resource and ties its release to the ambient
// scope. Fails with [ErrNoScope] outside a scoped region. If the scope
// closed between acquisition and registration the resource is released
// immediately and the registration error returned.
func AcquireRelease[A any](acquire Effect[A], release func(A) Finalizer) Effect[A] {
	return func(ctx context.Context) (A, error) {
		var zero A
		s := ScopeOf(ctx)
		if s == nil {
			return zero, ErrNoScope
		}
		a, err := acquire(ctx)
		if err != nil {
			return zero, err
		}
		if regErr := s.AddFinalizer(release(a)); regErr != nil {
			relErr := release(a)(context.WithoutCancel(ctx))
			return zero, combineErrors(regErr, relErr)
		}
		return a, nil
	}
}

// Bracket runs use with the acquired resource and guarantees release runs
// afterwards, whether use returns, fails, or panics. No scope is required;
// the release is immediate rather than deferred to a region boundary.
func Bracket[R, A any](acquire Effect[R], release func(R) Finalizer, use func(R) Effect[A]) Effect[A] {
	return func(ctx context.Context) (a A, err error) {
		r, acqErr := acquire(ctx)
		if acqErr != nil {
			var zero A
			return zero, acqErr
		}
		defer func() {
			relErr := release(r)(context.WithoutCancel(ctx))
			if rec := recover(); rec != nil {
				panic(rec)
			}
			err = combineErrors(err, relErr)
		}()
		return use(r)(ctx)
	}
}

// OnError runs cleanup with the failure cause when body fails or panics.
// The cleanup effect observes the cause but cannot cancel the failure:
// body's error, combined with any cleanup error, still propagates. Panics
// resume after cleanup runs.
func OnError[A any](body Effect[A], cleanup func(Cause) Effect[Unit]) Effect[A] {
	return func(ctx context.Context) (a A, err error) {
		defer func() {
			var cause Cause
			rec := recover()
			switch {
			case rec != nil:
				cause = recoveredCause(rec)
			case err != nil:
				cause = CauseOf(err)
			default:
				return
			}
			_, cleanupErr := cleanup(cause)(context.WithoutCancel(ctx))
			if rec != nil {
				panic(rec)
			}
			err = combineErrors(err, cleanupErr)
		}()
		return body(ctx)
	}
}
