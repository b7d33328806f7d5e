// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// T is the slice of the host runner the helpers drive: reporting,
// logging, cleanup, subtests, and the run context. *testing.T satisfies
// it through [Wrap]; fakes satisfy it directly, which is how the
// helpers test themselves.
type T interface {
	Cleanup(func())
	Context() context.Context
	Error(args ...any)
	Errorf(format string, args ...any)
	Fail()
	FailNow()
	Failed() bool
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Helper()
	Logf(format string, args ...any)
	Name() string
	Run(name string, f func(t T)) bool
	SkipNow()
	Skipf(format string, args ...any)
}

// Wrap adapts a *testing.T to [T].
func Wrap(t *testing.T) T {
	return wrapT{T: t}
}

type wrapT struct {
	*testing.T
}

func (w wrapT) Run(name string, f func(t T)) bool {
	return w.T.Run(name, func(t *testing.T) {
		f(Wrap(t))
	})
}

// probeT observes a test body without failing the real test. Failure
// calls are recorded, and the fatal ones stop the body's goroutine the
// way *testing.T stops a test. Logs, cleanup, and context pass through
// to the real t.
type probeT struct {
	t T

	mu      sync.Mutex
	failed  bool
	skipped bool
	msgs    []string
}

func newProbe(t T) *probeT {
	return &probeT{t: t}
}

// observe runs body on its own goroutine so the probe's fatal calls can
// stop it, and waits for it to finish.
func (p *probeT) observe(body func(t T)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		body(p)
	}()
	<-done
}

func (p *probeT) record(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *probeT) failure() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.msgs, "; ")
}

func (p *probeT) Cleanup(f func()) { p.t.Cleanup(f) }

func (p *probeT) Context() context.Context { return p.t.Context() }

func (p *probeT) Helper() {}

func (p *probeT) Logf(format string, args ...any) { p.t.Logf(format, args...) }

func (p *probeT) Name() string { return p.t.Name() }

func (p *probeT) Error(args ...any) {
	p.record(fmt.Sprint(args...))
	p.Fail()
}

func (p *probeT) Errorf(format string, args ...any) {
	p.record(fmt.Sprintf(format, args...))
	p.Fail()
}

func (p *probeT) Fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = true
}

func (p *probeT) FailNow() {
	p.Fail()
	runtime.Goexit()
}

func (p *probeT) Failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

func (p *probeT) Fatal(args ...any) {
	p.record(fmt.Sprint(args...))
	p.FailNow()
}

func (p *probeT) Fatalf(format string, args ...any) {
	p.record(fmt.Sprintf(format, args...))
	p.FailNow()
}

func (p *probeT) Run(name string, f func(t T)) bool {
	f(p)
	return !p.Failed()
}

func (p *probeT) SkipNow() {
	p.mu.Lock()
	p.skipped = true
	p.mu.Unlock()
	runtime.Goexit()
}

func (p *probeT) Skipf(format string, args ...any) {
	p.record(fmt.Sprintf(format, args...))
	p.SkipNow()
}

func (p *probeT) wasSkipped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}
