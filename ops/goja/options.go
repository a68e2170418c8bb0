// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package gojaop

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

// Option configures a Runner at construction time. Options run after the
// operation is compiled; each one blocks until the loop has applied it.
type Option func(*Runner) error

// WithMaxCallStackSize sets the maximum call stack size for the runtime.
// A value of 0 or less means no limit.
func WithMaxCallStackSize(size int) Option {
	return func(r *Runner) error {
		done := make(chan struct{})
		r.loop.RunOnLoop(func(vm *goja.Runtime) {
			vm.SetMaxCallStackSize(size)
			close(done)
		})
		<-done
		return nil
	}
}

// WithConsole enables the console object (console.log, etc.) in the JS
// runtime.
func WithConsole() Option {
	return func(r *Runner) error {
		done := make(chan struct{})
		r.loop.RunOnLoop(func(vm *goja.Runtime) {
			console.Enable(vm)
			close(done)
		})
		<-done
		return nil
	}
}

// WithRequire enables the require() function for loading CommonJS modules.
func WithRequire() Option {
	return func(r *Runner) error {
		done := make(chan struct{})
		r.loop.RunOnLoop(func(vm *goja.Runtime) {
			// Creates a new module registry and enables require()
			new(require.Registry).Enable(vm)
			close(done)
		})
		<-done
		return nil
	}
}

// WithFieldNameMapper replaces the default json-tag field name mapper used
// for Go-to-JS struct conversions.
func WithFieldNameMapper(mapper goja.FieldNameMapper) Option {
	return func(r *Runner) error {
		if mapper == nil {
			return nil
		}
		done := make(chan struct{})
		r.loop.RunOnLoop(func(vm *goja.Runtime) {
			vm.SetFieldNameMapper(mapper)
			close(done)
		})
		<-done
		return nil
	}
}
