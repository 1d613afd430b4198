// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhandledEventKind is returned if the driver delivers an event kind
	// the loop has no case for.
	ErrUnhandledEventKind = errors.New("unhandled event kind")

	// ErrInvalidPollTimeout is returned for a negative poll timeout.
	ErrInvalidPollTimeout = errors.New("invalid poll timeout")
)

// Op is a step of a loop iteration.
type Op string

// Loop steps.
const (
	OpPoll     Op = "poll"
	OpClassify Op = "classify"
	OpReply    Op = "reply"
)

// LoopError is a fatal error of the event loop.
type LoopError struct {
	Op      Op
	VCPU    uint32
	EventID uint64
	Err     error
}

// Error implements the [error] interface.
func (e *LoopError) Error() string {
	if e.Op == OpPoll {
		return fmt.Sprintf("event loop: %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("event loop: %s event %d of vcpu %d: %v",
		e.Op, e.EventID, e.VCPU, e.Err)
}

// Is implements the [errors.Is] interface.
func (*LoopError) Is(other error) bool {
	_, ok := other.(*LoopError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *LoopError) Unwrap() error {
	return e.Err
}
