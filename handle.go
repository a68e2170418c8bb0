// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import (
	"context"

	"github.com/go-thunk/thunk/event"
)

// Handle is the caller's view of one running invocation. It resolves to
// the invocation's final event exactly once, including final events that
// were suppressed from the sink.
type Handle struct {
	requestID string
	input     interface{}
	abort     func(reason string)

	done  chan struct{}
	final event.Event // Written once before done is closed
}

// newHandle creates the handle the lifecycle goroutine resolves later.
func newHandle(requestID string, input interface{}, abort func(reason string)) *Handle {
	return &Handle{
		requestID: requestID,
		input:     input,
		abort:     abort,
		done:      make(chan struct{}),
	}
}

// RequestID returns the request id generated for this invocation.
func (h *Handle) RequestID() string {
	return h.requestID
}

// Input returns the input value the invocation was started with.
func (h *Handle) Input() interface{} {
	return h.input
}

// Abort requests cancellation of this invocation. An empty reason is
// recorded as DefaultAbortReason. Abort is a no-op while a condition gate
// is still deciding, after the invocation settled, and on tasks built
// WithoutCancellation.
func (h *Handle) Abort(reason string) {
	h.abort(reason)
}

// Done returns a channel that is closed once the invocation has settled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the invocation settles and returns its final event.
// The error is non-nil only when ctx ends first; the invocation's own
// outcome is never an error here, it is the event. A settled handle
// returns its event even when ctx is already cancelled.
func (h *Handle) Wait(ctx context.Context) (event.Event, error) {
	select {
	case <-h.done:
		return h.final, nil
	default:
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-h.done:
		return h.final, nil
	case <-ctx.Done():
		return event.Event{}, ctx.Err()
	}
}

// Unwrap waits for settlement and converts the final event into a plain
// (value, error) pair. See the package-level Unwrap for the mapping.
func (h *Handle) Unwrap(ctx context.Context) (interface{}, error) {
	e, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return Unwrap(e)
}

// resolve records the final event and releases all waiters.
func (h *Handle) resolve(e event.Event) {
	h.final = e
	close(h.done)
}

// Unwrap converts a lifecycle event, as produced by a task's creators,
// into a plain (value, error) pair. Succeeded events return their payload;
// so do pending events, whose payload is nil. Failed events return a typed
// error matching their classification: a *Rejection carrying the rejection
// payload, an *AbortError carrying the abort reason, a *ConditionError, or
// the event's error info for plain failures. The returned error is the
// caller's to mutate; it never aliases the event's own metadata or error.
func Unwrap(e event.Event) (interface{}, error) {
	m, ok := e.Meta.(Meta)
	if !ok || m.Status != StatusFailed {
		return e.Payload, nil
	}

	switch {
	case m.FailedWithValue:
		return nil, &Rejection{Payload: e.Payload, Meta: copyMeta(m.Extra)}
	case m.Aborted:
		var reason string
		if info, ok := e.Error.(*ErrorInfo); ok && info != nil {
			reason = info.Message
		}
		return nil, &AbortError{Reason: reason}
	case m.ConditionRejected:
		return nil, &ConditionError{}
	}

	if info, ok := e.Error.(*ErrorInfo); ok && info != nil {
		c := *info
		return nil, &c
	}
	return nil, &ErrorInfo{Message: "Rejected"}
}
