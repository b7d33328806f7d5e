// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Console service: structured output as a capability.
//
// Effects log through the ambient [Console] so tests can capture output
// with a [TestConsole] instead of writing to the process stderr.

// Console exposes a structured logger.
type Console interface {
	Logger() *zap.Logger
}

var consoleKey = NewKey[Console]("eff.Console")

type liveConsole struct {
	logger *zap.Logger
}

func (c *liveConsole) Logger() *zap.Logger {
	return c.logger
}

var defaultConsole = sync.OnceValue(func() Console {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel,
	)
	return &liveConsole{logger: zap.New(core)}
})

// ConsoleLayer provides logger as the ambient console.
func ConsoleLayer(logger *zap.Logger) *Layer {
	return FromValue[Console](consoleKey, &liveConsole{logger: logger})
}

// ConsoleOf returns the ambient console, falling back to a process-wide
// stderr console.
func ConsoleOf(ctx context.Context) Console {
	if c, ok := Get(EnvOf(ctx), consoleKey); ok {
		return c
	}
	return defaultConsole()
}

// Log writes an info-level entry to the ambient console.
func Log(msg string, fields ...zap.Field) Effect[Unit] {
	return func(ctx context.Context) (Unit, error) {
		ConsoleOf(ctx).Logger().Info(msg, fields...)
		return Unit{}, nil
	}
}

// TestConsole is a [Console] that records entries in memory.
type TestConsole struct {
	logger *zap.Logger
	logs   *observer.ObservedLogs
}

// NewTestConsole returns a console capturing all levels.
func NewTestConsole() *TestConsole {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestConsole{logger: zap.New(core), logs: logs}
}

func (c *TestConsole) Logger() *zap.Logger {
	return c.logger
}

// Entries returns everything logged so far, in order.
func (c *TestConsole) Entries() []observer.LoggedEntry {
	return c.logs.All()
}

// Messages returns the logged messages so far, in order.
func (c *TestConsole) Messages() []string {
	entries := c.logs.All()
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
	}
	return msgs
}

// TestConsoleOf returns the ambient console as a [TestConsole]. Fails when
// no console is provided or when the ambient console is a live one.
func TestConsoleOf(ctx context.Context) (*TestConsole, error) {
	c, err := Service(ctx, consoleKey)
	if err != nil {
		return nil, err
	}
	tc, ok := c.(*TestConsole)
	if !ok {
		return nil, fmt.Errorf("eff: ambient console is %T, not a test console", c)
	}
	return tc, nil
}

// TestServices builds fresh test implementations of the runtime services:
// a [TestClock] at the epoch and a [TestConsole] capturing output. Each
// build constructs new instances, so runs sharing a build share a clock
// and runs with separate builds stay isolated.
func TestServices() *Layer {
	return Merge(
		FromFunc(clockKey, func(context.Context) (Clock, error) {
			return NewTestClock(), nil
		}),
		FromFunc(consoleKey, func(context.Context) (Console, error) {
			return NewTestConsole(), nil
		}),
	)
}
