// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Failure model.
//
// A run terminates through one of three channels: expected failure
// (an ordinary error), defect (a [Defect] wrapping a programming error or
// recovered panic), or interruption (context cancellation). [Cause]
// records every terminal event of a run in order, so concurrent failures
// are never collapsed to the first one observed.

// ErrServiceMissing reports a service lookup against an environment that
// does not provide it.
var ErrServiceMissing = errors.New("eff: service not found")

// ErrNoScope reports a finalizer registration without an ambient scope.
var ErrNoScope = errors.New("eff: no scope in context")

// Defect is an unrecoverable failure: a programming error rather than an
// expected error condition. Panics recovered during a run are wrapped as
// defects, as are failures escalated through [Die]. Defects are not caught
// by [CatchAll] and not retried by [Retry].
type Defect struct {
	// Value is the panic value or escalated error.
	Value any
	// Stack is the stack captured at recovery, when available.
	Stack []byte
}

// NewDefect wraps v as a defect. An existing defect is returned unchanged.
func NewDefect(v any) *Defect {
	if d, ok := v.(*Defect); ok {
		return d
	}
	return &Defect{Value: v}
}

func (d *Defect) Error() string {
	return fmt.Sprintf("defect: %v", d.Value)
}

// Unwrap exposes a wrapped error value to errors.Is and errors.As.
func (d *Defect) Unwrap() error {
	if err, ok := d.Value.(error); ok {
		return err
	}
	return nil
}

// CauseKind tags one terminal event inside a [Cause].
type CauseKind uint8

const (
	// KindFail marks an expected failure from the error channel.
	KindFail CauseKind = iota
	// KindDie marks an unrecoverable defect.
	KindDie
	// KindInterrupt marks cooperative cancellation.
	KindInterrupt
)

func (k CauseKind) String() string {
	switch k {
	case KindFail:
		return "fail"
	case KindDie:
		return "die"
	case KindInterrupt:
		return "interrupt"
	}
	return "unknown"
}

// CauseEntry is one terminal event of a run.
type CauseEntry struct {
	Kind CauseKind
	Err  error
}

// Cause is the ordered collection of events that terminated a run.
// The zero value is the empty cause of a successful run.
type Cause struct {
	entries []CauseEntry
}

// NewCause builds a cause from entries in order.
func NewCause(entries ...CauseEntry) Cause {
	return Cause{entries: entries}
}

// FailureCause is a cause of a single expected failure.
func FailureCause(err error) Cause {
	return Cause{entries: []CauseEntry{{Kind: KindFail, Err: err}}}
}

// DefectCause is a cause of a single defect.
func DefectCause(v any) Cause {
	return Cause{entries: []CauseEntry{{Kind: KindDie, Err: NewDefect(v)}}}
}

// InterruptCause is a cause of a single interruption event.
func InterruptCause(err error) Cause {
	return Cause{entries: []CauseEntry{{Kind: KindInterrupt, Err: err}}}
}

// IsEmpty reports whether the cause records no events.
func (c Cause) IsEmpty() bool {
	return len(c.entries) == 0
}

// Entries returns the recorded events in order.
func (c Cause) Entries() []CauseEntry {
	out := make([]CauseEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Failures returns the errors of the failure and defect events in order.
// Interruption events carry no user error and are excluded.
func (c Cause) Failures() []error {
	var out []error
	for _, e := range c.entries {
		if e.Kind == KindFail || e.Kind == KindDie {
			out = append(out, e.Err)
		}
	}
	return out
}

// HasDefect reports whether any event is a defect.
func (c Cause) HasDefect() bool {
	for _, e := range c.entries {
		if e.Kind == KindDie {
			return true
		}
	}
	return false
}

// IsInterruptedOnly reports whether the run terminated solely through
// interruption: at least one event, none of them a failure or defect.
func (c Cause) IsInterruptedOnly() bool {
	return len(c.entries) > 0 && len(c.Failures()) == 0
}

// With appends the events of other, preserving order.
func (c Cause) With(other Cause) Cause {
	if other.IsEmpty() {
		return c
	}
	if c.IsEmpty() {
		return other
	}
	entries := make([]CauseEntry, 0, len(c.entries)+len(other.entries))
	entries = append(entries, c.entries...)
	entries = append(entries, other.entries...)
	return Cause{entries: entries}
}

// Error renders every event, one per line for multi-event causes.
func (c Cause) Error() string {
	switch len(c.entries) {
	case 0:
		return "empty cause"
	case 1:
		return c.entries[0].Err.Error()
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d concurrent events:", len(c.entries)))
	for _, e := range c.entries {
		b.WriteString("\n\t[")
		b.WriteString(e.Kind.String())
		b.WriteString("] ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes every event error to errors.Is and errors.As.
func (c Cause) Unwrap() []error {
	errs := make([]error, len(c.entries))
	for i, e := range c.entries {
		errs[i] = e.Err
	}
	return errs
}

// AsError renders the cause in its canonical error form: nil when empty,
// the single event's error when there is exactly one, the cause itself
// otherwise. [CauseOf] inverts AsError, so causes survive a trip through
// the error channel.
func (c Cause) AsError() error {
	switch len(c.entries) {
	case 0:
		return nil
	case 1:
		return c.entries[0].Err
	}
	return c
}

// CauseOf classifies an error from the effect channel into a cause.
// Defects dominate interruption: a defect wrapping a cancellation sentinel
// stays a defect. An error merely matching context.Canceled or
// context.DeadlineExceeded is classified as interruption, so a test that
// returns one of those sentinels as an ordinary failure is
// indistinguishable from a canceled run.
func CauseOf(err error) Cause {
	if err == nil {
		return Cause{}
	}
	var c Cause
	if errors.As(err, &c) {
		return c
	}
	var d *Defect
	if errors.As(err, &d) {
		return Cause{entries: []CauseEntry{{Kind: KindDie, Err: d}}}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cause{entries: []CauseEntry{{Kind: KindInterrupt, Err: err}}}
	}
	return Cause{entries: []CauseEntry{{Kind: KindFail, Err: err}}}
}

// recoveredCause classifies a recovered panic value, capturing the stack.
func recoveredCause(v any) Cause {
	d := NewDefect(v)
	if d.Stack == nil {
		d.Stack = debug.Stack()
	}
	return Cause{entries: []CauseEntry{{Kind: KindDie, Err: d}}}
}

// combineErrors merges a primary and a secondary error cause-wise,
// keeping the primary's events first. Either side may be nil.
func combineErrors(primary, secondary error) error {
	switch {
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	}
	return CauseOf(primary).With(CauseOf(secondary)).AsError()
}
