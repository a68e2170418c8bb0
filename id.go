// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

package thunk

import "github.com/google/uuid"

// IDGenerator produces the request identifier for one invocation. It
// receives the invocation's input so callers can derive deterministic ids;
// the default ignores it and returns a random UUID.
type IDGenerator func(input interface{}) string

// defaultIDGenerator is collision-resistant without coordination.
func defaultIDGenerator(interface{}) string {
	return uuid.New().String()
}
