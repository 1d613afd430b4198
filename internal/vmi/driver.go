// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

import (
	"context"
	"time"
)

// Driver is the capability interface of an introspection backend.
//
// A Driver is not safe for concurrent use. It is owned by a single session for
// its whole lifetime.
type Driver interface {
	// Pause stops all VCPUs of the VM.
	Pause() error

	// Resume continues all VCPUs of the VM.
	Resume() error

	// VCPUCount returns the number of VCPUs of the VM.
	VCPUCount() (uint32, error)

	// ToggleIntercept enables or disables the given intercept for a VCPU.
	ToggleIntercept(vcpu uint32, intercept Intercept, enabled bool) error

	// PollEvent waits up to timeout for the next event. It returns a nil
	// event and no error if none arrived in time. It returns early with the
	// context's error if ctx is done.
	PollEvent(ctx context.Context, timeout time.Duration) (*Event, error)

	// ReplyEvent acknowledges an event received by PollEvent and lets the
	// VCPU proceed as requested by reply.
	ReplyEvent(event *Event, reply ReplyType) error

	// ReadRegisters returns the register state of a VCPU. The VM should be
	// paused for a consistent snapshot.
	ReadRegisters(vcpu uint32) (*Registers, error)

	// Close releases the backend.
	Close() error
}

// DriverType selects a [Driver] implementation.
type DriverType string

// Known driver types.
const (
	// DriverTypeAuto picks a driver based on the given parameters.
	DriverTypeAuto DriverType = "auto"
	// DriverTypeSim is the in-process simulated VM.
	DriverTypeSim DriverType = "sim"
	// DriverTypeQMP talks to a QEMU instance via its QMP socket.
	DriverTypeQMP DriverType = "qmp"
)

// DriverTypes returns all selectable driver types.
func DriverTypes() []DriverType {
	return []DriverType{DriverTypeAuto, DriverTypeSim, DriverTypeQMP}
}

// String implements [fmt.Stringer] and [pflag.Value].
func (d *DriverType) String() string {
	return string(*d)
}

// Set implements [pflag.Value].
func (d *DriverType) Set(s string) error {
	switch DriverType(s) {
	case DriverTypeAuto, DriverTypeSim, DriverTypeQMP:
		*d = DriverType(s)
	default:
		return ErrDriverTypeInvalid
	}

	return nil
}

// Type implements [pflag.Value].
func (*DriverType) Type() string {
	return "driver"
}
