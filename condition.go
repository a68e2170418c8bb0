// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import "context"

// Condition decides whether an invocation should run at all. It is
// evaluated before anything is dispatched and before aborts are armed.
// Returning false rejects the invocation; returning an error fails it like
// an operation error would. The predicate may block: an immediate and a
// deferred decision are handled the same way. ctx is the invocation's
// context, which during gating can only be ended by the caller's parent
// context.
type Condition func(ctx context.Context, input interface{}, api API) (bool, error)

// API bundles the collaborator accessors available outside the operation
// itself, i.e. to the condition gate and the pending-meta builder.
type API struct {
	GetState GetState    // State accessor from the launch environment (may be nil)
	Extra    interface{} // Opaque shared dependency from the launch environment
}

// ConditionError is the failure an invocation settles with when the
// condition gate returns false. Like AbortError it is produced only by the
// engine and matched by type.
type ConditionError struct{}

// Error returns the fixed condition-rejection message.
func (e *ConditionError) Error() string {
	return "Aborted due to condition callback returning false."
}

// Name identifies the error kind to the default normalizer.
func (e *ConditionError) Name() string {
	return "ConditionError"
}
