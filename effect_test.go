// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff_test

import (
	"context"
	"errors"
	"testing"

	"code.hybscloud.com/eff"
)

func TestPureSucceeds(t *testing.T) {
	got, err := eff.Run(context.Background(), eff.Pure(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestFailFails(t *testing.T) {
	boom := errors.New("boom")
	_, err := eff.Run(context.Background(), eff.Fail[int](boom))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}

func TestNoopSucceeds(t *testing.T) {
	_, err := eff.Run(context.Background(), eff.Noop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDieProducesDefect(t *testing.T) {
	_, err := eff.Run(context.Background(), eff.Die[int]("broken invariant"))
	var d *eff.Defect
	if !errors.As(err, &d) {
		t.Fatalf("got %T, want *eff.Defect", err)
	}
	if d.Value != "broken invariant" {
		t.Fatalf("got defect value %v, want %q", d.Value, "broken invariant")
	}
}

func TestEffectIsInertUntilRun(t *testing.T) {
	var runs int
	e := eff.Func(func(context.Context) (int, error) {
		runs++
		return runs, nil
	})
	if runs != 0 {
		t.Fatal("effect ran during construction")
	}

	// Two runs are two independent executions.
	first, _ := eff.Run(context.Background(), e)
	second, _ := eff.Run(context.Background(), e)
	if first != 1 || second != 2 {
		t.Fatalf("got runs %d and %d, want 1 and 2", first, second)
	}
}

func TestSuspendDefersThunk(t *testing.T) {
	var built int
	e := eff.Suspend(func() eff.Effect[int] {
		built++
		return eff.Pure(built)
	})
	if built != 0 {
		t.Fatal("thunk evaluated at composition time")
	}
	_, _ = eff.Run(context.Background(), e)
	_, _ = eff.Run(context.Background(), e)
	if built != 2 {
		t.Fatalf("thunk evaluated %d times, want 2", built)
	}
}

func TestDiscardDropsValue(t *testing.T) {
	_, err := eff.Run(context.Background(), eff.Discard(eff.Pure("ignored")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	_, err = eff.Run(context.Background(), eff.Discard(eff.Fail[string](boom)))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}

func TestCatchAllRecoversExpectedFailure(t *testing.T) {
	boom := errors.New("boom")
	e := eff.CatchAll(eff.Fail[int](boom), func(err error) eff.Effect[int] {
		if !errors.Is(err, boom) {
			t.Fatalf("handler got %v, want %v", err, boom)
		}
		return eff.Pure(7)
	})
	got, err := eff.Run(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestCatchAllSkipsDefect(t *testing.T) {
	var handled bool
	e := eff.CatchAll(eff.Die[int]("bug"), func(error) eff.Effect[int] {
		handled = true
		return eff.Pure(0)
	})
	_, err := eff.Run(context.Background(), e)
	var d *eff.Defect
	if !errors.As(err, &d) {
		t.Fatalf("got %T, want *eff.Defect", err)
	}
	if handled {
		t.Fatal("handler ran for a defect")
	}
}

func TestCatchAllSkipsInterruption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var handled bool
	e := eff.CatchAll(eff.Func(func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	}), func(error) eff.Effect[int] {
		handled = true
		return eff.Pure(0)
	})
	_, err := eff.Run(ctx, e)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if handled {
		t.Fatal("handler ran for an interruption")
	}
}

func TestMapErrorTransformsFailure(t *testing.T) {
	wrapped := errors.New("wrapped")
	e := eff.MapError(eff.Fail[int](errors.New("inner")), func(err error) error {
		return wrapped
	})
	_, err := eff.Run(context.Background(), e)
	if !errors.Is(err, wrapped) {
		t.Fatalf("got %v, want %v", err, wrapped)
	}
}

func TestMapErrorLeavesSuccess(t *testing.T) {
	e := eff.MapError(eff.Pure(3), func(err error) error {
		t.Fatal("mapper ran on success")
		return err
	})
	got, err := eff.Run(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestIgnoreSwallowsFailure(t *testing.T) {
	_, err := eff.Run(context.Background(), eff.Ignore(eff.Fail[int](errors.New("boom"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIgnorePropagatesInterruption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := eff.Ignore(eff.Func(func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	}))
	_, err := eff.Run(ctx, e)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestBindSequences(t *testing.T) {
	e := eff.Bind(eff.Pure(20), func(x int) eff.Effect[int] {
		return eff.Pure(x + 22)
	})
	got, err := eff.Run(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestBindShortCircuitsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var continued bool
	e := eff.Bind(eff.Fail[int](boom), func(int) eff.Effect[int] {
		continued = true
		return eff.Pure(0)
	})
	_, err := eff.Run(context.Background(), e)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if continued {
		t.Fatal("continuation ran after failure")
	}
}

func TestMapTransforms(t *testing.T) {
	e := eff.Map(eff.Pure(21), func(x int) int { return x * 2 })
	got, err := eff.Run(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestThenDiscardsFirstValue(t *testing.T) {
	e := eff.Then(eff.Pure("first"), eff.Pure(2))
	got, err := eff.Run(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestThenPropagatesFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	var second bool
	e := eff.Then(eff.Fail[int](boom), eff.Func(func(context.Context) (int, error) {
		second = true
		return 0, nil
	}))
	_, err := eff.Run(context.Background(), e)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if second {
		t.Fatal("second effect ran after failure")
	}
}
