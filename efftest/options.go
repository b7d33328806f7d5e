// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package efftest

import (
	"context"
	"time"

	"github.com/leanovate/gopter"
)

// Option configures one registered test.
type Option func(*config)

type config struct {
	timeout time.Duration
	params  *gopter.TestParameters
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithTimeout bounds the test's run. When it expires the run context is
// canceled, the effect's interruption machinery runs its finalizers, and
// the test fails with the generic interruption error.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithParameters replaces the property-check parameters of a property
// test: iteration count, seed, size bounds. Ignored by non-property
// registrations.
func WithParameters(params *gopter.TestParameters) Option {
	return func(c *config) {
		c.params = params
	}
}

func (c config) runContext(t T) (context.Context, context.CancelFunc) {
	ctx := t.Context()
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
