// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

// ReplyType tells the [Driver] how a VCPU paused on an event proceeds.
type ReplyType int

const (
	// ReplyContinue lets the VCPU continue with the trapped operation.
	ReplyContinue ReplyType = iota
)

// String implements [fmt.Stringer].
func (r ReplyType) String() string {
	if r == ReplyContinue {
		return "Continue"
	}

	return "Unknown"
}

// Event is a single trapped operation of a VCPU.
type Event struct {
	// VCPU that caused the event. It is blocked until the event is replied
	// to.
	VCPU uint32

	// ID is assigned by the driver and used to match the reply.
	ID uint64

	// Kind carries the event specific data.
	Kind EventKind
}

// EventKind is the closed set of event payloads.
//
// Consumers are expected to handle every implementation in a type switch and
// treat unknown ones as a defect.
type EventKind interface {
	isEventKind()
}

// CrEvent is the payload of a control register write.
type CrEvent struct {
	Type CrType
	New  uint64
	Old  uint64
}

func (CrEvent) isEventKind() {}
