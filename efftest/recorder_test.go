// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest_test

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"code.hybscloud.com/eff/efftest"
)

// recorder is an in-memory [efftest.T]. It captures verdicts, logs,
// cleanups, and subtests so the helpers' behavior can be asserted
// without failing the real test.
type recorder struct {
	name string
	ctx  context.Context

	mu       sync.Mutex
	failed   bool
	skipped  bool
	logs     []string
	verdicts []string
	cleanups []func()
	subs     []*recorder
}

func newRecorder(name string) *recorder {
	return &recorder{name: name, ctx: context.Background()}
}

// exec runs f on its own goroutine so that FailNow and SkipNow, which
// stop the calling goroutine, cannot take the real test down with them.
func (r *recorder) exec(f func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	<-done
}

func (r *recorder) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, msg)
}

// message joins everything reported through the failure and skip calls.
func (r *recorder) message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.verdicts, "; ")
}

func (r *recorder) logged() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

func (r *recorder) wasSkipped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// sub returns the direct subtest with the given short name.
func (r *recorder) sub(name string) *recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.name == r.name+"/"+name {
			return s
		}
	}
	return nil
}

func (r *recorder) subNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.subs))
	for i, s := range r.subs {
		names[i] = strings.TrimPrefix(s.name, r.name+"/")
	}
	return names
}

// finish runs the recorder's cleanups in reverse registration order, the
// way the host runner does after a test and its subtests complete.
func (r *recorder) finish() {
	r.mu.Lock()
	cleanups := r.cleanups
	r.cleanups = nil
	r.mu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (r *recorder) Cleanup(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanups = append(r.cleanups, f)
}

func (r *recorder) Context() context.Context { return r.ctx }

func (r *recorder) Error(args ...any) {
	r.record(fmt.Sprint(args...))
	r.Fail()
}

func (r *recorder) Errorf(format string, args ...any) {
	r.record(fmt.Sprintf(format, args...))
	r.Fail()
}

func (r *recorder) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
}

func (r *recorder) FailNow() {
	r.Fail()
	runtime.Goexit()
}

func (r *recorder) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *recorder) Fatal(args ...any) {
	r.record(fmt.Sprint(args...))
	r.FailNow()
}

func (r *recorder) Fatalf(format string, args ...any) {
	r.record(fmt.Sprintf(format, args...))
	r.FailNow()
}

func (r *recorder) Helper() {}

func (r *recorder) Logf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

func (r *recorder) Name() string { return r.name }

// Run executes f as a subtest: on its own goroutine, with its own
// verdict, cleanups run when it finishes, and failure propagated to r.
func (r *recorder) Run(name string, f func(t efftest.T)) bool {
	child := &recorder{name: r.name + "/" + name, ctx: r.ctx}
	r.mu.Lock()
	r.subs = append(r.subs, child)
	r.mu.Unlock()

	child.exec(func() { f(child) })
	child.finish()
	if child.Failed() {
		r.Fail()
	}
	return !child.Failed()
}

func (r *recorder) SkipNow() {
	r.mu.Lock()
	r.skipped = true
	r.mu.Unlock()
	runtime.Goexit()
}

func (r *recorder) Skipf(format string, args ...any) {
	r.record(fmt.Sprintf(format, args...))
	r.SkipNow()
}

func TestRecorderRunPropagatesFailure(t *testing.T) {
	rec := newRecorder("root")
	ok := rec.Run("failing", func(t efftest.T) {
		t.Fatalf("boom %d", 1)
	})
	if ok {
		t.Fatal("Run reported a failed subtest as passing")
	}
	if !rec.Failed() {
		t.Fatal("subtest failure did not propagate to the parent")
	}
	sub := rec.sub("failing")
	if sub == nil || sub.message() != "boom 1" {
		t.Fatalf("got %q, want boom 1", sub.message())
	}
}

func TestRecorderSkipDoesNotFail(t *testing.T) {
	rec := newRecorder("root")
	ok := rec.Run("skipped", func(t efftest.T) {
		t.Skipf("not today")
	})
	if !ok {
		t.Fatal("a skipped subtest must not count as failed")
	}
	if rec.Failed() {
		t.Fatal("skip propagated as failure")
	}
	if sub := rec.sub("skipped"); !sub.wasSkipped() {
		t.Fatal("skip was not recorded")
	}
}

func TestRecorderCleanupRunsInReverseOrder(t *testing.T) {
	rec := newRecorder("root")
	var order []int
	rec.Run("sub", func(t efftest.T) {
		t.Cleanup(func() { order = append(order, 1) })
		t.Cleanup(func() { order = append(order, 2) })
	})
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("got order %v, want [2 1]", order)
	}
}
