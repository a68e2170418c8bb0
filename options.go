// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import "log/slog"

// Option configures a Task at construction time.
type Option func(*Task)

// PendingMeta builds extra metadata for the pending event of one
// invocation. It runs after the condition gate passes and before the
// pending event is emitted.
type PendingMeta func(requestID string, input interface{}, api API) map[string]interface{}

// WithCondition sets the pre-execution gate. When the gate returns false
// the invocation settles as condition-rejected and the operation never
// runs.
func WithCondition(cond Condition) Option {
	return func(t *Task) {
		if cond != nil {
			t.condition = cond
		}
	}
}

// WithDispatchConditionRejection dispatches condition-rejected failed
// events to the sink. By default they are suppressed: resolved into the
// Handle but never dispatched.
func WithDispatchConditionRejection() Option {
	return func(t *Task) {
		t.dispatchConditionRejection = true
	}
}

// WithErrorNormalizer replaces the default error normalizer used for
// failed-with-error classification.
func WithErrorNormalizer(n ErrorNormalizer) Option {
	return func(t *Task) {
		if n != nil {
			t.normalizeError = n
		}
	}
}

// WithIDGenerator replaces the default UUID request-id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(t *Task) {
		if gen != nil {
			t.generateID = gen
		}
	}
}

// WithPendingMeta sets the pending-metadata builder.
func WithPendingMeta(fn PendingMeta) Option {
	return func(t *Task) {
		if fn != nil {
			t.pendingMeta = fn
		}
	}
}

// WithoutCancellation disables cancellation plumbing for all invocations of
// the task: no signal is created, the operation context is cancelled only
// by the caller's parent context, and Abort is accepted but ignored. The
// first ignored abort logs a one-time process-wide warning.
func WithoutCancellation() Option {
	return func(t *Task) {
		t.cancellation = false
	}
}

// WithLogger configures the engine logger for the task. Passing nil
// disables engine logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Task) {
		t.logger = logger
	}
}
