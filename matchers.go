// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import "github.com/go-thunk/thunk/event"

// Matchers classify lifecycle events by the engine metadata the creators
// attach, so a sink can route them without knowing which task produced
// them. They are false for events of foreign origin. To match one specific
// task instead, use its creators: t.Failed().Match(e).

// IsLifecycle reports whether e carries engine lifecycle metadata.
func IsLifecycle(e event.Event) bool {
	_, ok := e.Meta.(Meta)
	return ok
}

// IsPending reports whether e is a pending event.
func IsPending(e event.Event) bool {
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusPending
}

// IsSucceeded reports whether e is a succeeded event.
func IsSucceeded(e event.Event) bool {
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusSucceeded
}

// IsFailed reports whether e is a failed event of any classification.
func IsFailed(e event.Event) bool {
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusFailed
}

// IsFailedWithValue reports whether e is a failed event carrying an
// explicit rejection payload.
func IsFailedWithValue(e event.Event) bool {
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusFailed && m.FailedWithValue
}

// IsAborted reports whether e is a failed event caused by cancellation.
func IsAborted(e event.Event) bool {
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusFailed && m.Aborted
}

// IsConditionRejected reports whether e is a failed event caused by the
// condition gate declining the invocation.
func IsConditionRejected(e event.Event) bool {
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusFailed && m.ConditionRejected
}
