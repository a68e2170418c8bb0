// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

// Status identifies the lifecycle phase an event belongs to.
type Status string

const (
	StatusPending   Status = "pending"   // Operation accepted, not yet settled
	StatusSucceeded Status = "succeeded" // Operation settled with a value
	StatusFailed    Status = "failed"    // Operation settled with a failure
)

// Meta is the metadata the engine attaches to every lifecycle event.
// RequestID, Input and Status are always set. The three flags are set only
// on failed events and describe how the failure was classified. Extra holds
// caller-supplied metadata from the pending-meta builder or from the
// result wrappers; it is copied, never aliased.
type Meta struct {
	RequestID         string                 `json:"requestId"`
	Input             interface{}            `json:"input"`
	Status            Status                 `json:"status"`
	Aborted           bool                   `json:"aborted,omitempty"`
	ConditionRejected bool                   `json:"conditionRejected,omitempty"`
	FailedWithValue   bool                   `json:"failedWithValue,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// copyMeta returns a copy of m, or nil if m is empty.
func copyMeta(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
