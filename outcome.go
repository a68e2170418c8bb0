// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import (
	"errors"
	"fmt"
)

// ErrorInfo is the normalized form of an operation failure carried by a
// failed event. Only string-valued data survives normalization; any other
// shape of the original error is dropped.
type ErrorInfo struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface so an ErrorInfo taken from an event
// can be returned directly to callers.
func (e *ErrorInfo) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Name != "" {
		return e.Name
	}
	return "thunk: failed"
}

// ErrorNormalizer converts an operation failure into its event form.
// Configure a custom one with WithErrorNormalizer.
type ErrorNormalizer func(err error) ErrorInfo

// errRejected stands in when a failed event is built without an error, so
// the event still carries the generic rejection message.
var errRejected = errors.New("Rejected")

// Optional error interfaces probed by NormalizeError. Errors may expose any
// subset; only string-returning methods are recognized.
type namedError interface {
	Name() string
}

type codedError interface {
	Code() string
}

type stackedError interface {
	Stack() string
}

// NormalizeError is the default ErrorNormalizer. It copies the error's
// message and, when the error (or anything it wraps) exposes them, its
// string-typed name, code and stack. A recovered panic value that is not an
// error is rendered through fmt.
func NormalizeError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	var pe *panicError
	if errors.As(err, &pe) {
		if inner, ok := pe.value.(error); ok {
			return NormalizeError(inner)
		}
		return ErrorInfo{Message: fmt.Sprint(pe.value)}
	}

	info := ErrorInfo{Message: err.Error()}
	var named namedError
	if errors.As(err, &named) {
		info.Name = named.Name()
	}
	var coded codedError
	if errors.As(err, &coded) {
		info.Code = coded.Code()
	}
	var stacked stackedError
	if errors.As(err, &stacked) {
		info.Stack = stacked.Stack()
	}
	return info
}

// panicError wraps a value recovered from a panicking operation or gate so
// it can travel the error path. Unwrap exposes the value when it is itself
// an error, keeping errors.As checks working across the recovery.
type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", p.value)
}

func (p *panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}
