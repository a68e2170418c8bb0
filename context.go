// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

// Request is the per-invocation context bundle handed to the wrapped
// operation. It lives for exactly one invocation. The cancellation signal
// itself travels as the operation's context.Context, which is cancelled
// when the invocation is aborted.
type Request struct {
	RequestID string              // Identifier generated for this invocation
	Input     interface{}         // The value the task was started with
	Dispatch  Dispatch            // Event sink from the launch environment (never nil; may be a no-op)
	GetState  GetState            // State accessor from the launch environment (may be nil)
	Extra     interface{}         // Opaque shared dependency from the launch environment
	Abort     func(reason string) // Aborts this invocation, same as Handle.Abort
}

// RejectWithValue returns the explicit-failure wrapper carrying a
// caller-chosen payload. An operation returns it as its error to settle as
// failed-with-value instead of failed-with-error.
func (r *Request) RejectWithValue(payload interface{}) error {
	return &Rejection{Payload: payload}
}

// RejectWithValueMeta is RejectWithValue with additional event metadata.
func (r *Request) RejectWithValueMeta(payload interface{}, meta map[string]interface{}) error {
	return &Rejection{Payload: payload, Meta: copyMeta(meta)}
}

// FulfillWithValue wraps a success value with additional event metadata.
// An operation returns the wrapper in place of the plain value; the engine
// unwraps the payload and merges the metadata into the succeeded event.
func (r *Request) FulfillWithValue(v interface{}, meta map[string]interface{}) interface{} {
	return &fulfilledValue{payload: v, meta: copyMeta(meta)}
}

// Rejection is the explicit-failure wrapper created by RejectWithValue.
// It doubles as the error Unwrap returns for a failed-with-value event, so
// callers can recover the payload with errors.As.
type Rejection struct {
	Payload interface{}            // Caller-chosen failure payload
	Meta    map[string]interface{} // Optional event metadata
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return "Rejected"
}

// fulfilledValue marks a success value carrying extra event metadata. It is
// constructible only through Request.FulfillWithValue, keeping the set of
// recognized wrappers closed.
type fulfilledValue struct {
	payload interface{}
	meta    map[string]interface{}
}
