// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock service: time as a capability.
//
// Effects that read or wait on time go through the ambient [Clock], so a
// test environment can substitute a [TestClock] and make timed code run
// instantly and deterministically.

// Clock reads the current time and sleeps. Sleep returns early with the
// context's error when ctx is done first.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

var clockKey = NewKey[Clock]("eff.Clock")

// ClockLayer provides c as the ambient clock.
func ClockLayer(c Clock) *Layer {
	return FromValue(clockKey, c)
}

// ClockOf returns the ambient clock, falling back to the system clock.
func ClockOf(ctx context.Context) Clock {
	if c, ok := Get(EnvOf(ctx), clockKey); ok {
		return c
	}
	return systemClock{}
}

// Now reads the ambient clock.
func Now() Effect[time.Time] {
	return func(ctx context.Context) (time.Time, error) {
		return ClockOf(ctx).Now(), nil
	}
}

// Sleep pauses for d on the ambient clock. Under a [TestClock] the pause
// completes only when the clock is advanced past it.
func Sleep(d time.Duration) Effect[Unit] {
	return func(ctx context.Context) (Unit, error) {
		return Unit{}, ClockOf(ctx).Sleep(ctx, d)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type sleeper struct {
	deadline time.Time
	fired    chan struct{}
}

// TestClock is a manually driven [Clock]. Time starts at the Unix epoch
// and moves only through [TestClock.Advance] or [TestClock.SetTime].
// Sleeps block until the clock passes their deadline.
type TestClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*sleeper
}

// NewTestClock returns a test clock set to the Unix epoch.
func NewTestClock() *TestClock {
	return &TestClock{now: time.Unix(0, 0).UTC()}
}

// Now returns the clock's current time.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep blocks until the clock advances past d from now, or ctx is done.
func (c *TestClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	c.mu.Lock()
	w := &sleeper{deadline: c.now.Add(d), fired: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case <-w.fired:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		removed := c.removeLocked(w)
		c.mu.Unlock()
		if !removed {
			// Fired concurrently with cancellation; the sleep completed.
			return nil
		}
		return ctx.Err()
	}
}

// Advance moves the clock forward by d, waking every sleep whose deadline
// is reached.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(c.now.Add(d))
}

// SetTime moves the clock to t. Moving backwards wakes nothing.
func (c *TestClock) SetTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(t)
}

// Sleepers reports how many sleeps are currently blocked on the clock.
// Tests use it to wait for a fiber to park before advancing.
func (c *TestClock) Sleepers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *TestClock) setLocked(t time.Time) {
	if t.After(c.now) {
		c.now = t
	}
	rest := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			close(w.fired)
			continue
		}
		rest = append(rest, w)
	}
	c.waiters = rest
}

func (c *TestClock) removeLocked(w *sleeper) bool {
	for i, x := range c.waiters {
		if x == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// TestClockOf returns the ambient clock as a [TestClock]. Fails when no
// clock is provided or when the ambient clock is a real one.
func TestClockOf(ctx context.Context) (*TestClock, error) {
	c, err := Service(ctx, clockKey)
	if err != nil {
		return nil, err
	}
	tc, ok := c.(*TestClock)
	if !ok {
		return nil, fmt.Errorf("eff: ambient clock is %T, not a test clock", c)
	}
	return tc, nil
}

// AdvanceClock advances the ambient [TestClock] by d.
func AdvanceClock(d time.Duration) Effect[Unit] {
	return func(ctx context.Context) (Unit, error) {
		tc, err := TestClockOf(ctx)
		if err != nil {
			return Unit{}, err
		}
		tc.Advance(d)
		return Unit{}, nil
	}
}
