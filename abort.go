// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultAbortReason is the reason recorded when Abort is called without one.
const DefaultAbortReason = "Aborted"

// AbortError is the failure an invocation settles with when its cancellation
// signal fires after arming. It is produced only by the engine's cancellation
// controller; classification matches it by type, not by message.
type AbortError struct {
	Reason string // Human-readable reason passed to Abort
}

// Error returns the abort reason, or DefaultAbortReason when none was given.
func (e *AbortError) Error() string {
	if e.Reason == "" {
		return DefaultAbortReason
	}
	return e.Reason
}

// Name identifies the error kind to the default normalizer.
func (e *AbortError) Name() string {
	return "AbortError"
}

// noCancellationWarn guards the process-wide diagnostic emitted the first
// time an abort is requested on a task built WithoutCancellation.
// It is set once and never reset for the life of the process.
var noCancellationWarn sync.Once

// abortController owns one invocation's cancellation signal and armed flag.
// The signal fires at most once; while unarmed, abort requests are ignored.
// A disabled controller (WithoutCancellation) has a nil signal channel, so
// anything selecting on it simply never observes an abort.
type abortController struct {
	mu     sync.Mutex
	armed  bool
	fired  bool
	reason string

	signal chan struct{}      // Closed exactly once on abort; nil when disabled
	cancel context.CancelFunc // Cancels the operation context
	logger *slog.Logger
}

// newAbortController creates the controller for one invocation. cancel is
// invoked when the signal fires so a cooperating operation unwinds through
// its context.
func newAbortController(cancel context.CancelFunc, enabled bool, logger *slog.Logger) *abortController {
	c := &abortController{
		cancel: cancel,
		logger: logger,
	}
	if enabled {
		c.signal = make(chan struct{})
	}
	return c
}

// arm enables abort requests. For gateless tasks this happens at Start;
// otherwise once the condition gate passes. Arming twice is harmless.
func (c *abortController) arm() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
}

// abort requests cancellation. It is a no-op while unarmed or after the
// signal already fired; on a disabled controller it is accepted silently
// apart from the one-time process-wide warning.
func (c *abortController) abort(reason string) {
	if c.signal == nil {
		noCancellationWarn.Do(func() {
			if c.logger != nil {
				c.logger.Warn("abort requested on a task built without cancellation support; the request is ignored")
			}
		})
		return
	}

	c.mu.Lock()
	if !c.armed || c.fired {
		armed := c.armed
		c.mu.Unlock()
		if !armed && c.logger != nil {
			c.logger.Debug("abort ignored: invocation not started", "reason", reason)
		}
		return
	}
	c.fired = true
	c.reason = reason
	c.mu.Unlock()

	close(c.signal)
	c.cancel()
}

// signalChan returns the one-shot abort signal. The nil channel of a
// disabled controller blocks forever in a select, which is exactly the
// inert behavior wanted there.
func (c *abortController) signalChan() <-chan struct{} {
	return c.signal
}

// err returns the AbortError for a fired signal.
func (c *abortController) err() *AbortError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &AbortError{Reason: c.reason}
}

// release cancels the operation context. Called once the final event is
// settled, regardless of outcome.
func (c *abortController) release() {
	if c.cancel != nil {
		c.cancel()
	}
}
