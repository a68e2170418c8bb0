// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import (
	"context"
	"errors"
	"testing"
)

// TestCondition_FalseSuppressed tests that a declined invocation dispatches
// nothing and never runs the operation, while the handle still resolves.
func TestCondition_FalseSuppressed(t *testing.T) {
	opRan := false
	task, err := New("user/fetch", func(ctx context.Context, req *Request) (interface{}, error) {
		opRan = true
		return nil, nil
	}, WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
		return false, nil
	}))
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	rec := &recorder{}
	h := task.Start(context.Background(), rec.env(), 1)
	final, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if opRan {
		t.Error("Operation must not run when the gate declines")
	}
	if got := len(rec.all()); got != 0 {
		t.Errorf("Expected no dispatched events, got %d", got)
	}

	if final.Type != "user/fetch/failed" {
		t.Errorf("Unexpected final event type: %q", final.Type)
	}
	m := metaOf(t, final)
	if !m.ConditionRejected {
		t.Error("Final event should be flagged conditionRejected")
	}
	if m.Aborted || m.FailedWithValue {
		t.Errorf("Unexpected failure flags: %+v", m)
	}
	info, ok := final.Error.(*ErrorInfo)
	if !ok {
		t.Fatalf("Final event error has unexpected shape: %+v", final.Error)
	}
	if info.Name != "ConditionError" {
		t.Errorf("Unexpected error name: %q", info.Name)
	}
	if info.Message != "Aborted due to condition callback returning false." {
		t.Errorf("Unexpected error message: %q", info.Message)
	}
}

// TestCondition_FalseDispatched tests the opt-in that sends condition
// rejections to the sink.
func TestCondition_FalseDispatched(t *testing.T) {
	task, err := New("user/fetch", echoOperation,
		WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
			return false, nil
		}),
		WithDispatchConditionRejection(),
	)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	rec := &recorder{}
	h := task.Start(context.Background(), rec.env(), 1)
	if _, err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("Expected exactly the failed event, got %d: %+v", len(events), events)
	}
	if events[0].Type != "user/fetch/failed" {
		t.Errorf("Unexpected event type: %q", events[0].Type)
	}
	if !metaOf(t, events[0]).ConditionRejected {
		t.Error("Dispatched event should be flagged conditionRejected")
	}
}

// TestCondition_StateDriven tests that the gate sees the launch
// environment's state accessor.
func TestCondition_StateDriven(t *testing.T) {
	task, err := New("user/fetch", echoOperation,
		WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
			return !api.GetState().(bool), nil
		}),
	)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	alreadyLoading := false
	env := Env{GetState: func() interface{} { return alreadyLoading }}

	h := task.Start(context.Background(), env, 1)
	final, _ := h.Wait(context.Background())
	if metaOf(t, final).Status != StatusSucceeded {
		t.Errorf("First invocation should pass the gate: %+v", final)
	}

	alreadyLoading = true
	h = task.Start(context.Background(), env, 1)
	final, _ = h.Wait(context.Background())
	if !metaOf(t, final).ConditionRejected {
		t.Errorf("Second invocation should be declined: %+v", final)
	}
}

// TestCondition_Error tests that a failing gate settles the invocation as
// a plain failure, dispatched and without a preceding pending event.
func TestCondition_Error(t *testing.T) {
	task, err := New("user/fetch", echoOperation,
		WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
			return false, errors.New("session lookup failed")
		}),
	)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	rec := &recorder{}
	h := task.Start(context.Background(), rec.env(), 1)
	final, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	events := rec.all()
	if len(events) != 1 || events[0].Type != "user/fetch/failed" {
		t.Fatalf("Expected only the failed event, got %+v", events)
	}
	m := metaOf(t, final)
	if m.ConditionRejected || m.Aborted || m.FailedWithValue {
		t.Errorf("Gate errors must not set classification flags: %+v", m)
	}
	info, _ := final.Error.(*ErrorInfo)
	if info == nil || info.Message != "session lookup failed" {
		t.Errorf("Unexpected error info: %+v", final.Error)
	}
}

// TestCondition_Panic tests panic containment in the gate.
func TestCondition_Panic(t *testing.T) {
	task, err := New("user/fetch", echoOperation,
		WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
			panic("gate exploded")
		}),
		WithLogger(nil),
	)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	h := task.Start(context.Background(), Env{}, 1)
	final, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if metaOf(t, final).Status != StatusFailed {
		t.Fatalf("Expected failed settlement, got %+v", final)
	}
	info, _ := final.Error.(*ErrorInfo)
	if info == nil || info.Message != "gate exploded" {
		t.Errorf("Unexpected error info: %+v", final.Error)
	}
}

// TestCondition_Deferred tests that a blocking gate delays the whole
// lifecycle instead of being treated as a rejection.
func TestCondition_Deferred(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	task, err := New("user/fetch", echoOperation,
		WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
			close(entered)
			<-release
			return true, nil
		}),
	)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	rec := &recorder{}
	h := task.Start(context.Background(), rec.env(), "in")

	<-entered
	if got := len(rec.all()); got != 0 {
		t.Fatalf("Nothing should be dispatched while the gate is deciding, got %d events", got)
	}

	close(release)
	final, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if metaOf(t, final).Status != StatusSucceeded {
		t.Errorf("Expected success after the gate released: %+v", final)
	}
	if got := len(rec.all()); got != 2 {
		t.Errorf("Expected pending and succeeded, got %d events", got)
	}
}

// TestCondition_AbortWhileGating tests that abort requests arriving before
// the invocation starts executing are ignored for good.
func TestCondition_AbortWhileGating(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	task, err := New("user/fetch", func(ctx context.Context, req *Request) (interface{}, error) {
		return "ok", nil
	}, WithCondition(func(ctx context.Context, input interface{}, api API) (bool, error) {
		close(entered)
		<-release
		return true, nil
	}))
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	rec := &recorder{}
	h := task.Start(context.Background(), rec.env(), 1)

	<-entered
	h.Abort("too early")
	close(release)

	final, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	m := metaOf(t, final)
	if m.Status != StatusSucceeded || m.Aborted {
		t.Errorf("Pre-start abort must not affect the outcome: %+v", final)
	}
}
