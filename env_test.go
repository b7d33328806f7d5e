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

type greeter interface {
	Greet() string
}

type stubGreeter struct{ msg string }

func (g stubGreeter) Greet() string { return g.msg }

var greeterKey = eff.NewKey[greeter]("eff_test.greeter")

func TestEnvAddGet(t *testing.T) {
	env := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "hi"}))
	g, ok := eff.Get(env, greeterKey)
	if !ok {
		t.Fatal("service not found")
	}
	if g.Greet() != "hi" {
		t.Fatalf("got %q, want %q", g.Greet(), "hi")
	}
}

func TestEnvAddDoesNotMutate(t *testing.T) {
	base := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "base"}))
	derived := eff.Add(base, greeterKey, greeter(stubGreeter{msg: "derived"}))

	g, _ := eff.Get(base, greeterKey)
	if g.Greet() != "base" {
		t.Fatalf("base env mutated: got %q", g.Greet())
	}
	g, _ = eff.Get(derived, greeterKey)
	if g.Greet() != "derived" {
		t.Fatalf("derived env wrong: got %q", g.Greet())
	}
}

func TestEnvMergeOtherWins(t *testing.T) {
	left := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "left"}))
	right := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "right"}))

	g, ok := eff.Get(left.Merge(right), greeterKey)
	if !ok {
		t.Fatal("service not found after merge")
	}
	if g.Greet() != "right" {
		t.Fatalf("got %q, want %q", g.Greet(), "right")
	}
}

func TestEnvLen(t *testing.T) {
	var env eff.Env
	if env.Len() != 0 {
		t.Fatalf("got %d, want 0", env.Len())
	}
	env = eff.Add(env, greeterKey, greeter(stubGreeter{}))
	if env.Len() != 1 {
		t.Fatalf("got %d, want 1", env.Len())
	}
}

func TestServiceMissing(t *testing.T) {
	_, err := eff.Service(context.Background(), greeterKey)
	if !errors.Is(err, eff.ErrServiceMissing) {
		t.Fatalf("got %v, want ErrServiceMissing", err)
	}
}

func TestAskReadsAmbientEnv(t *testing.T) {
	e := eff.Bind(eff.Ask(greeterKey), func(g greeter) eff.Effect[string] {
		return eff.Pure(g.Greet())
	})
	env := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "ambient"}))

	got, err := eff.Run(context.Background(), eff.Provide(e, env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ambient" {
		t.Fatalf("got %q, want %q", got, "ambient")
	}
}

func TestProvideShadowsOuterEnv(t *testing.T) {
	outer := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "outer"}))
	inner := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "inner"}))

	e := eff.Provide(eff.Bind(eff.Ask(greeterKey), func(g greeter) eff.Effect[string] {
		return eff.Pure(g.Greet())
	}), inner)

	got, err := eff.Run(context.Background(), eff.Provide(e, outer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inner" {
		t.Fatalf("got %q, want %q", got, "inner")
	}
}

func TestProvideKeepsUnrelatedServices(t *testing.T) {
	numberKey := eff.NewKey[int]("eff_test.number")
	outer := eff.Add(eff.Env{}, numberKey, 7)
	inner := eff.Add(eff.Env{}, greeterKey, greeter(stubGreeter{msg: "hi"}))

	e := eff.Provide(eff.Bind(eff.Ask(numberKey), func(n int) eff.Effect[int] {
		return eff.Pure(n)
	}), inner)

	got, err := eff.Run(context.Background(), eff.Provide(e, outer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestProvideService(t *testing.T) {
	got, err := eff.Run(context.Background(), eff.ProvideService(
		eff.Ask(greeterKey), greeterKey, greeter(stubGreeter{msg: "single"}),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Greet() != "single" {
		t.Fatalf("got %q, want %q", got.Greet(), "single")
	}
}

func TestKeysAreTypedAndNamed(t *testing.T) {
	intKey := eff.NewKey[int]("eff_test.shared-name")
	otherIntKey := eff.NewKey[int]("eff_test.shared-name")
	env := eff.Add(eff.Env{}, intKey, 1)

	// Same name and type alias the same service.
	if v, ok := eff.Get(env, otherIntKey); !ok || v != 1 {
		t.Fatalf("got (%d, %v), want (1, true)", v, ok)
	}

	if greeterKey.String() != "eff_test.greeter" {
		t.Fatalf("got %q, want %q", greeterKey.String(), "eff_test.greeter")
	}
}
