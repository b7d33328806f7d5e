// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Fibers: lightweight concurrent runs of effects.
//
// A forked fiber runs on its own goroutine under the ambient scope, so a
// fiber never outlives the region that forked it: closing the scope
// interrupts the fiber and waits for it to settle.

// Fiber is a running effect. Its exit becomes available once the fiber
// settles.
type Fiber[A any] struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
	exit   Exit[A]
}

// Fork starts e on a new goroutine and returns its fiber. Requires an
// ambient scope; the scope's close interrupts the fiber and awaits it.
// The fiber inherits the caller's environment.
func Fork[A any](e Effect[A]) Effect[*Fiber[A]] {
	return func(ctx context.Context) (*Fiber[A], error) {
		s := ScopeOf(ctx)
		if s == nil {
			return nil, ErrNoScope
		}
		fctx, cancel := context.WithCancel(ctx)
		f := &Fiber[A]{id: uuid.New(), cancel: cancel, done: make(chan struct{})}
		if err := s.AddFinalizer(func(context.Context) error {
			cancel()
			<-f.done
			return nil
		}); err != nil {
			cancel()
			return nil, err
		}
		go func() {
			defer close(f.done)
			f.exit = RunExit(fctx, e)
		}()
		return f, nil
	}
}

// ID returns the fiber's unique identity.
func (f *Fiber[A]) ID() uuid.UUID {
	return f.id
}

// Await waits until the fiber settles and returns its exit. Awaiting does
// not propagate the fiber's failure; see [Fiber.Join] for that.
func (f *Fiber[A]) Await() Effect[Exit[A]] {
	return func(ctx context.Context) (Exit[A], error) {
		select {
		case <-f.done:
			return f.exit, nil
		case <-ctx.Done():
			return Exit[A]{}, ctx.Err()
		}
	}
}

// Join waits for the fiber and propagates its exit: the fiber's value
// becomes Join's value, the fiber's cause becomes Join's failure.
func (f *Fiber[A]) Join() Effect[A] {
	return Bind(f.Await(), FromExit)
}

// Interrupt cancels the fiber and waits for it to settle.
func (f *Fiber[A]) Interrupt() Effect[Exit[A]] {
	return func(ctx context.Context) (Exit[A], error) {
		f.cancel()
		return f.Await()(ctx)
	}
}

// Par runs all effects concurrently and collects their values in input
// order. The first real failure interrupts the remaining runs; the
// combined cause keeps every real failure in input order and drops the
// sibling interruptions that cancellation itself produced.
func Par[A any](effects ...Effect[A]) Effect[[]A] {
	return func(ctx context.Context) ([]A, error) {
		if len(effects) == 0 {
			return []A{}, nil
		}
		pctx, cancel := context.WithCancel(ctx)
		defer cancel()

		exits := make([]Exit[A], len(effects))
		var wg sync.WaitGroup
		for i, e := range effects {
			wg.Add(1)
			go func() {
				defer wg.Done()
				exits[i] = RunExit(pctx, e)
				if exits[i].IsFailure() && !exits[i].Cause().IsInterruptedOnly() {
					cancel()
				}
			}()
		}
		wg.Wait()

		var failure, interrupted Cause
		values := make([]A, len(effects))
		for i, x := range exits {
			if x.IsSuccess() {
				values[i] = x.Value()
				continue
			}
			if x.Cause().IsInterruptedOnly() {
				interrupted = interrupted.With(x.Cause())
				continue
			}
			failure = failure.With(x.Cause())
		}
		if !failure.IsEmpty() {
			return nil, failure.AsError()
		}
		if !interrupted.IsEmpty() {
			return nil, interrupted.AsError()
		}
		return values, nil
	}
}
