// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

// Package thunk wraps arbitrary asynchronous operations into an observably
// ordered lifecycle: a pending event when an invocation starts, then exactly
// one succeeded or failed event once it settles. Settlement races the
// operation against an external abort signal, failures are classified into
// a closed taxonomy (explicit rejection, abort, condition rejection, plain
// error), and every invocation yields a Handle whose future always resolves
// to the final event. Events flow to a caller-supplied dispatch sink; the
// engine stores no state of its own.
package thunk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-thunk/thunk/event"
)

// Dispatch delivers one event to the caller's sink. Return values are not
// part of the contract; the engine ignores everything a sink does.
type Dispatch func(event.Event)

// GetState reads the caller's state store. The engine never calls it
// itself; it only passes it through to the condition gate, the
// pending-meta builder and the operation.
type GetState func() interface{}

// Env is the set of dispatch-capable collaborators an invocation runs
// against. The zero value is usable: a nil Dispatch drops events.
type Env struct {
	Dispatch Dispatch    // Event sink (nil for none)
	GetState GetState    // State accessor (nil for none)
	Extra    interface{} // Opaque shared dependency handed through to callbacks
}

// Operation is the wrapped work of a task. ctx is cancelled when the
// invocation is aborted or the caller's parent context ends; a cooperating
// operation should unwind then. The returned value settles the invocation
// as succeeded unless the error is non-nil; Request.RejectWithValue and
// Request.FulfillWithValue produce the explicit result wrappers.
type Operation func(ctx context.Context, req *Request) (interface{}, error)

// Task is one configured wrapped-operation definition: a type prefix, the
// operation, and options. It is immutable after New and safe for
// concurrent invocations, which share nothing but the Task itself.
type Task struct {
	prefix                     string
	op                         Operation
	condition                  Condition
	dispatchConditionRejection bool
	normalizeError             ErrorNormalizer
	generateID                 IDGenerator
	pendingMeta                PendingMeta
	cancellation               bool
	logger                     *slog.Logger

	pending   *event.Creator
	succeeded *event.Creator
	failed    *event.Creator
}

// New creates a Task with the given type prefix and operation. The prefix
// tags the three event types ("<prefix>/pending", "<prefix>/succeeded",
// "<prefix>/failed").
func New(prefix string, op Operation, opts ...Option) (*Task, error) {
	if prefix == "" {
		return nil, fmt.Errorf("type prefix must not be empty")
	}
	if op == nil {
		return nil, fmt.Errorf("operation must be provided")
	}

	t := &Task{
		prefix:         prefix,
		op:             op,
		normalizeError: NormalizeError,
		generateID:     defaultIDGenerator,
		cancellation:   true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.pending = event.NewCreator(prefix+"/pending", preparePending)
	t.succeeded = event.NewCreator(prefix+"/succeeded", prepareSucceeded)
	t.failed = event.NewCreator(prefix+"/failed", t.prepareFailed)

	return t, nil
}

// Prefix returns the task's type prefix.
func (t *Task) Prefix() string {
	return t.prefix
}

// Pending returns the constructor for the task's pending events. Its
// arguments are (requestID string, input interface{}, extra map[string]interface{}).
func (t *Task) Pending() *event.Creator {
	return t.pending
}

// Succeeded returns the constructor for the task's succeeded events. Its
// arguments are (payload interface{}, requestID string, input interface{},
// extra map[string]interface{}).
func (t *Task) Succeeded() *event.Creator {
	return t.succeeded
}

// Failed returns the constructor for the task's failed events. Its
// arguments are (err error, requestID string, input interface{}, payload
// interface{}, extra map[string]interface{}). Trailing arguments may be
// omitted.
func (t *Task) Failed() *event.Creator {
	return t.failed
}

// With binds an input value, returning the invocation to start later.
// Nothing happens until Start: no request id is generated and nothing is
// dispatched.
func (t *Task) With(input interface{}) *Invocation {
	return &Invocation{task: t, input: input}
}

// Start is shorthand for With(input).Start(ctx, env).
func (t *Task) Start(ctx context.Context, env Env, input interface{}) *Handle {
	return t.With(input).Start(ctx, env)
}

// preparePending shapes (requestID, input, extra) into a pending event.
func preparePending(args ...interface{}) event.Prepared {
	requestID, input, rest := splitIDInput(args, 0)
	return event.Prepared{
		Meta: Meta{
			RequestID: requestID,
			Input:     input,
			Status:    StatusPending,
			Extra:     extraArg(rest, 0),
		},
	}
}

// prepareSucceeded shapes (payload, requestID, input, extra) into a
// succeeded event.
func prepareSucceeded(args ...interface{}) event.Prepared {
	var payload interface{}
	if len(args) > 0 {
		payload = args[0]
	}
	requestID, input, rest := splitIDInput(args, 1)
	return event.Prepared{
		Payload: payload,
		Meta: Meta{
			RequestID: requestID,
			Input:     input,
			Status:    StatusSucceeded,
			Extra:     extraArg(rest, 0),
		},
	}
}

// prepareFailed shapes (err, requestID, input, payload, extra) into a
// failed event. The classification flags come from the closed error types;
// everything else goes through the task's normalizer.
func (t *Task) prepareFailed(args ...interface{}) event.Prepared {
	var err error
	if len(args) > 0 {
		err, _ = args[0].(error)
	}
	requestID, input, rest := splitIDInput(args, 1)

	var payload interface{}
	if len(rest) > 0 {
		payload = rest[0]
	}

	var abortErr *AbortError
	var condErr *ConditionError
	var rejection *Rejection
	meta := Meta{
		RequestID:         requestID,
		Input:             input,
		Status:            StatusFailed,
		Aborted:           err != nil && errors.As(err, &abortErr),
		ConditionRejected: err != nil && errors.As(err, &condErr),
		FailedWithValue:   err != nil && errors.As(err, &rejection),
		Extra:             extraArg(rest, 1),
	}

	normErr := err
	if normErr == nil {
		normErr = errRejected
	}
	info := t.normalizeError(normErr)
	return event.Prepared{
		Payload: payload,
		Meta:    meta,
		Error:   &info,
	}
}

// splitIDInput extracts the requestID/input pair starting at offset and
// returns the remaining arguments.
func splitIDInput(args []interface{}, offset int) (string, interface{}, []interface{}) {
	var requestID string
	var input interface{}
	if len(args) > offset {
		requestID, _ = args[offset].(string)
	}
	if len(args) > offset+1 {
		input = args[offset+1]
	}
	if len(args) > offset+2 {
		return requestID, input, args[offset+2:]
	}
	return requestID, input, nil
}

// extraArg reads an optional metadata map at position i.
func extraArg(rest []interface{}, i int) map[string]interface{} {
	if len(rest) > i {
		if m, ok := rest[i].(map[string]interface{}); ok {
			return copyMeta(m)
		}
	}
	return nil
}
