// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

// Package event defines the tagged event objects produced by the lifecycle
// engine and the constructor factory used to build them. A downstream
// reducer or sink layer branches on an event's Type field; this package
// knows nothing about task lifecycles itself.
package event

// Event is a tagged value delivered to a dispatch sink.
type Event struct {
	Type    string      `json:"type"`              // Discriminant, e.g. "fetchUser/pending"
	Payload interface{} `json:"payload,omitempty"` // Event payload (may be nil)
	Meta    interface{} `json:"meta,omitempty"`    // Metadata attached by the producer
	Error   interface{} `json:"error,omitempty"`   // Error details (failed events only)
}

// Prepared holds the shaped fields of an event, minus its type.
// A PrepareFunc returns one to describe the event being built.
type Prepared struct {
	Payload interface{} // Event payload
	Meta    interface{} // Event metadata
	Error   interface{} // Event error details
}

// PrepareFunc shapes a creator's arguments into event fields.
// The argument list is whatever the creator's callers pass to New.
type PrepareFunc func(args ...interface{}) Prepared

// Creator builds events of a single fixed type.
type Creator struct {
	eventType string      // Type stamped on every produced event
	prepare   PrepareFunc // Optional shaping function
}

// NewCreator returns a Creator producing events of the given type.
// If prepare is nil, the first argument passed to New becomes the payload
// and the remaining fields stay empty.
func NewCreator(eventType string, prepare PrepareFunc) *Creator {
	return &Creator{
		eventType: eventType,
		prepare:   prepare,
	}
}

// Type returns the event type this creator produces.
func (c *Creator) Type() string {
	return c.eventType
}

// New builds an event, shaping args through the prepare function if one
// was configured.
func (c *Creator) New(args ...interface{}) Event {
	if c.prepare == nil {
		var payload interface{}
		if len(args) > 0 {
			payload = args[0]
		}
		return Event{Type: c.eventType, Payload: payload}
	}
	p := c.prepare(args...)
	return Event{
		Type:    c.eventType,
		Payload: p.Payload,
		Meta:    p.Meta,
		Error:   p.Error,
	}
}

// Match reports whether e was produced by this creator.
func (c *Creator) Match(e Event) bool {
	return e.Type == c.eventType
}
