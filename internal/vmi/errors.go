// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is returned if a driver does not implement an
	// operation.
	ErrNotSupported = errors.New("operation not supported by driver")

	// ErrInvalidVCPU is returned for VCPU indices outside of the VM's range.
	ErrInvalidVCPU = errors.New("invalid vcpu")

	// ErrEventNotPending is returned if an event is replied to that is not
	// waiting for a reply, e.g. because it has been replied to already.
	ErrEventNotPending = errors.New("event is not pending")

	// ErrClosed is returned if a closed driver is used.
	ErrClosed = errors.New("driver closed")

	// ErrInvalidCrType is returned for unknown control register selectors.
	ErrInvalidCrType = errors.New(
		"not a valid/interceptable control register (possible values: 0 3 4)",
	)

	// ErrDriverTypeInvalid is returned for unknown driver types.
	ErrDriverTypeInvalid = errors.New("unknown driver type")
)

// DriverError wraps any error returned by the backend of a [Driver].
type DriverError struct {
	Op  string
	Err error
}

// Error implements the [error] interface.
func (e *DriverError) Error() string {
	return fmt.Sprintf("driver %s: %v", e.Op, e.Err)
}

// Is implements the [errors.Is] interface.
func (*DriverError) Is(other error) bool {
	_, ok := other.(*DriverError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *DriverError) Unwrap() error {
	return e.Err
}
