// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-thunk/thunk/event"
)

// Invocation is one prepared launch of a task: the task plus its bound
// input. Start may be called any number of times; each call is an
// independent invocation with its own request id.
type Invocation struct {
	task  *Task
	input interface{}
}

// opResult carries the operation's return pair across the goroutine
// boundary.
type opResult struct {
	value interface{}
	err   error
}

// Start launches the invocation against env and returns immediately; the
// lifecycle runs on its own goroutine. The operation context is derived
// from ctx, so ending ctx unwinds a cooperating operation without
// classifying the invocation as aborted. A nil ctx means
// context.Background().
func (inv *Invocation) Start(ctx context.Context, env Env) *Handle {
	t := inv.task
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := t.generateID(inv.input)
	opCtx, cancel := context.WithCancel(ctx)
	ctrl := newAbortController(cancel, t.cancellation, t.logger)
	h := newHandle(requestID, inv.input, ctrl.abort)

	// Without a gate the invocation is abortable as soon as Start returns.
	// With one, arming waits until the gate passes.
	if t.condition == nil {
		ctrl.arm()
	}

	if t.logger != nil {
		t.logger.Debug("invocation starting",
			"type", t.prefix,
			"requestId", requestID)
	}

	go inv.run(opCtx, env, requestID, ctrl, h)
	return h
}

// run drives one invocation to settlement and resolves its handle. The
// final event always exists, even when dispatching it is suppressed or the
// sink panics.
func (inv *Invocation) run(ctx context.Context, env Env, requestID string, ctrl *abortController, h *Handle) {
	t := inv.task
	defer ctrl.release()

	final := inv.settle(ctx, env, requestID, ctrl)

	if !t.suppressed(final) {
		dispatchFinal(env.Dispatch, final, t.logger)
	}

	if t.logger != nil {
		t.logger.Debug("invocation settled",
			"type", t.prefix,
			"requestId", requestID,
			"event", final.Type)
	}

	h.resolve(final)
}

// settle produces the final event. Every failure inside it, including
// panics from the gate, the meta builder, the pending dispatch or the
// operation, is classified into a failed event rather than escaping.
func (inv *Invocation) settle(ctx context.Context, env Env, requestID string, ctrl *abortController) (final event.Event) {
	t := inv.task

	defer func() {
		if r := recover(); r != nil {
			if t.logger != nil {
				t.logger.Error("panic during invocation",
					"type", t.prefix,
					"requestId", requestID,
					"error", r)
			}
			final = t.failed.New(&panicError{value: r}, requestID, inv.input)
		}
	}()

	// Gate first: a rejected or failing condition settles the invocation
	// before anything is dispatched or abortable.
	if t.condition != nil {
		ok, err := t.condition(ctx, inv.input, API{GetState: env.GetState, Extra: env.Extra})
		if err != nil {
			return t.failed.New(err, requestID, inv.input)
		}
		if !ok {
			return t.failed.New(&ConditionError{}, requestID, inv.input)
		}
	}

	// The invocation is observable from here on: aborts are accepted.
	ctrl.arm()

	dispatch := env.Dispatch
	if dispatch == nil {
		dispatch = noopDispatch
	}

	var extra map[string]interface{}
	if t.pendingMeta != nil {
		extra = t.pendingMeta(requestID, inv.input, API{GetState: env.GetState, Extra: env.Extra})
	}
	dispatch(t.pending.New(requestID, inv.input, extra))

	req := &Request{
		RequestID: requestID,
		Input:     inv.input,
		Dispatch:  dispatch,
		GetState:  env.GetState,
		Extra:     env.Extra,
		Abort:     ctrl.abort,
	}

	resultCh := make(chan opResult, 1) // Buffered so an abandoned operation never blocks
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- opResult{err: &panicError{value: r}}
			}
		}()
		value, err := t.op(ctx, req)
		resultCh <- opResult{value: value, err: err}
	}()

	var res opResult
	select {
	case <-ctrl.signalChan():
		return t.failed.New(ctrl.err(), requestID, inv.input)
	case res = <-resultCh:
	}

	// An abort that fired while the result was in flight still takes
	// precedence over the operation's own outcome.
	select {
	case <-ctrl.signalChan():
		return t.failed.New(ctrl.err(), requestID, inv.input)
	default:
	}

	return inv.classify(res, requestID)
}

// classify maps the operation's return pair onto the closed outcome set:
// explicit rejection, plain failure, annotated success or plain success.
func (inv *Invocation) classify(res opResult, requestID string) event.Event {
	t := inv.task

	if res.err != nil {
		var rej *Rejection
		if errors.As(res.err, &rej) {
			return t.failed.New(rej, requestID, inv.input, rej.Payload, rej.Meta)
		}
		return t.failed.New(res.err, requestID, inv.input)
	}

	if fv, ok := res.value.(*fulfilledValue); ok {
		return t.succeeded.New(fv.payload, requestID, inv.input, fv.meta)
	}
	return t.succeeded.New(res.value, requestID, inv.input)
}

// suppressed reports whether the final event is a condition rejection the
// task keeps out of the sink.
func (t *Task) suppressed(e event.Event) bool {
	if t.dispatchConditionRejection {
		return false
	}
	m, ok := e.Meta.(Meta)
	return ok && m.Status == StatusFailed && m.ConditionRejected
}

// dispatchFinal delivers the final event. The invocation is already
// settled, so a panicking sink is logged and the panic contained.
func dispatchFinal(d Dispatch, e event.Event, logger *slog.Logger) {
	if d == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("event sink panicked on final event",
					"event", e.Type,
					"error", r)
			}
		}
	}()
	d(e)
}

// noopDispatch backs Request.Dispatch when the environment has no sink.
func noopDispatch(event.Event) {}
