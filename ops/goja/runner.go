// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

// Package gojaop adapts a JavaScript function as a task operation. The
// function is compiled once on a dedicated event loop and invoked as
// (input, api) => result for every invocation; api mirrors the Go-side
// Request, so scripts can read state, dispatch events, abort, and settle
// through rejectWithValue / fulfillWithValue. A returned promise settles
// the operation asynchronously; any other return value settles it
// immediately.
package gojaop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/go-thunk/thunk"
	"github.com/go-thunk/thunk/event"
)

// Runner owns one compiled JavaScript operation and the event loop it runs
// on. Invocations serialize on the loop: a hung script blocks the runner
// until its invocation's context ends and the interpreter is interrupted.
// Create one Runner per parallel lane when throughput matters.
type Runner struct {
	loop *eventloop.EventLoop
	vm   *goja.Runtime // For Interrupt only; all other access stays on the loop
	fn   goja.Callable
	opMu sync.Mutex
}

// outcome carries one settlement across the loop boundary.
type outcome struct {
	value interface{}
	err   error
}

// rejectMarker is the JS-side result of api.rejectWithValue. A script may
// return it, throw it, or reject a promise with it; all three settle the
// invocation as failed-with-value.
type rejectMarker struct {
	payload interface{}
	meta    map[string]interface{}
}

// fulfillMarker is the JS-side result of api.fulfillWithValue.
type fulfillMarker struct {
	payload interface{}
	meta    map[string]interface{}
}

// New compiles source, which must evaluate to a function, on a fresh event
// loop. The loop keeps running until Close.
func New(source string, opts ...Option) (*Runner, error) {
	loop := eventloop.NewEventLoop()
	r := &Runner{loop: loop}

	loop.Start()

	initCh := make(chan error, 1)
	loop.RunOnLoop(func(vm *goja.Runtime) {
		r.vm = vm
		vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

		v, err := vm.RunScript("operation.js", "("+source+")")
		if err != nil {
			initCh <- fmt.Errorf("failed to compile operation: %w", err)
			return
		}
		fn, ok := goja.AssertFunction(v)
		if !ok {
			initCh <- fmt.Errorf("operation source did not evaluate to a function")
			return
		}
		r.fn = fn
		initCh <- nil
	})
	if err := <-initCh; err != nil {
		loop.Stop()
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			loop.Stop()
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return r, nil
}

// Operation returns the thunk.Operation backed by the compiled function.
// The same Operation value may be shared by any number of tasks.
func (r *Runner) Operation() thunk.Operation {
	return func(ctx context.Context, req *thunk.Request) (interface{}, error) {
		r.opMu.Lock()
		defer r.opMu.Unlock()

		resultCh := make(chan outcome, 1) // Buffered: late settlements are dropped, not blocked on

		r.loop.RunOnLoop(func(vm *goja.Runtime) {
			r.invoke(vm, req, resultCh)
		})

		select {
		case out := <-resultCh:
			return out.value, out.err
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
			// Wait for the interrupted job to unwind before clearing,
			// so the next invocation starts on a clean interpreter.
			cleared := make(chan struct{})
			r.loop.RunOnLoop(func(vm *goja.Runtime) {
				vm.ClearInterrupt()
				close(cleared)
			})
			<-cleared
			return nil, ctx.Err()
		}
	}
}

// Close stops the event loop and releases associated resources.
func (r *Runner) Close() error {
	if r.loop != nil {
		r.loop.Stop()
	}
	return nil
}

// invoke calls the compiled function on the loop and arranges for exactly
// one settlement on resultCh.
func (r *Runner) invoke(vm *goja.Runtime, req *thunk.Request, resultCh chan<- outcome) {
	res, err := r.fn(goja.Undefined(), vm.ToValue(req.Input), vm.ToValue(r.apiObject(vm, req)))
	if err != nil {
		resultCh <- settleThrown(req, err)
		return
	}

	// A plain (non promise-like) return settles synchronously.
	if goja.IsUndefined(res) || goja.IsNull(res) {
		resultCh <- outcome{}
		return
	}
	promiseObj := res.ToObject(vm)
	then, ok := goja.AssertFunction(promiseObj.Get("then"))
	if !ok {
		resultCh <- settleValue(req, res.Export())
		return
	}

	onSuccess := func(call goja.FunctionCall) goja.Value {
		resultCh <- settleValue(req, call.Argument(0).Export())
		return goja.Undefined()
	}
	onError := func(call goja.FunctionCall) goja.Value {
		resultCh <- settleRejected(req, call.Argument(0))
		return goja.Undefined()
	}
	if _, err := then(promiseObj, vm.ToValue(onSuccess), vm.ToValue(onError)); err != nil {
		resultCh <- outcome{err: fmt.Errorf("failed to invoke promise.then: %w", err)}
	}
}

// apiObject builds the per-invocation api argument visible to the script.
func (r *Runner) apiObject(vm *goja.Runtime, req *thunk.Request) map[string]interface{} {
	return map[string]interface{}{
		"requestId": req.RequestID,
		"extra":     req.Extra,
		"getState": func(call goja.FunctionCall) goja.Value {
			if req.GetState == nil {
				return goja.Undefined()
			}
			return vm.ToValue(req.GetState())
		},
		"dispatch": func(call goja.FunctionCall) goja.Value {
			arg := call.Argument(0)
			if obj, ok := arg.(*goja.Object); ok {
				var e event.Event
				if err := vm.ExportTo(obj, &e); err == nil && e.Type != "" {
					req.Dispatch(e)
				}
			}
			return goja.Undefined()
		},
		"abort": func(call goja.FunctionCall) goja.Value {
			var reason string
			if arg := call.Argument(0); !goja.IsUndefined(arg) {
				reason = arg.String()
			}
			req.Abort(reason)
			return goja.Undefined()
		},
		"rejectWithValue": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(&rejectMarker{
				payload: call.Argument(0).Export(),
				meta:    exportMeta(call.Argument(1)),
			})
		},
		"fulfillWithValue": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(&fulfillMarker{
				payload: call.Argument(0).Export(),
				meta:    exportMeta(call.Argument(1)),
			})
		},
	}
}

// settleValue maps a settled JS value, which may be one of the api
// markers, onto the operation's return pair.
func settleValue(req *thunk.Request, v interface{}) outcome {
	switch m := v.(type) {
	case *rejectMarker:
		return outcome{err: req.RejectWithValueMeta(m.payload, m.meta)}
	case *fulfillMarker:
		return outcome{value: req.FulfillWithValue(m.payload, m.meta)}
	default:
		return outcome{value: v}
	}
}

// exportMeta reads an optional metadata object argument.
func exportMeta(v goja.Value) map[string]interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if m, ok := v.Export().(map[string]interface{}); ok {
		return m
	}
	return nil
}

// settleThrown maps a failed function call onto the operation's return
// pair, unwrapping a thrown JS value when there is one.
func settleThrown(req *thunk.Request, err error) outcome {
	var soe *goja.StackOverflowError
	if errors.As(err, &soe) {
		return settleRejected(req, soe.Value())
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return settleRejected(req, exc.Value())
	}
	return outcome{err: err}
}

// settleRejected maps a thrown or promise-rejected JS value onto the
// operation's return pair. A thrown rejection marker settles as
// failed-with-value, exactly like a returned one.
func settleRejected(req *thunk.Request, v goja.Value) outcome {
	if v != nil {
		if m, ok := v.Export().(*rejectMarker); ok {
			return outcome{err: req.RejectWithValueMeta(m.payload, m.meta)}
		}
	}
	return outcome{err: jsErrorFromValue(v)}
}

// jsError carries a JavaScript error's name, message and stack across the
// Go boundary in a shape the default error normalizer recognizes.
type jsError struct {
	name    string
	message string
	stack   string
}

func (e *jsError) Error() string {
	if e.message != "" {
		return e.message
	}
	if e.name != "" {
		return e.name
	}
	return "javascript error"
}

func (e *jsError) Name() string { return e.name }

func (e *jsError) Stack() string { return e.stack }

// jsErrorFromValue extracts name, message and stack from a thrown JS
// value. Non-object values become the message alone.
func jsErrorFromValue(v goja.Value) error {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return &jsError{message: "javascript error"}
	}
	e := &jsError{message: v.String()}
	if obj, ok := v.(*goja.Object); ok {
		if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
			e.name = name.String()
		}
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			e.message = msg.String()
		}
		if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
			e.stack = stack.String()
		}
	}
	return e
}
