// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package intercept

import (
	"errors"
	"fmt"

	"github.com/aibor/vmimon/internal/vmi"
)

// ErrNoRegisters is returned if a [Controller] is created without registers.
var ErrNoRegisters = errors.New("no control registers given")

// Op is a step of an intercept bracket.
type Op string

// Bracket steps.
const (
	OpVCPUCount Op = "vcpu count"
	OpPause     Op = "pause"
	OpToggle    Op = "toggle"
	OpResume    Op = "resume"
)

// BracketError wraps any error occurring during an intercept bracket.
type BracketError struct {
	Op       Op
	Enabled  bool
	Register vmi.CrType
	VCPU     uint32
	Err      error
}

// Error implements the [error] interface.
func (e *BracketError) Error() string {
	if e.Op == OpToggle {
		return fmt.Sprintf("%s %s intercept on vcpu %d: %v",
			e.direction(), e.Register, e.VCPU, e.Err)
	}

	return fmt.Sprintf("%s intercepts: %s: %v", e.direction(), e.Op, e.Err)
}

func (e *BracketError) direction() string {
	if e.Enabled {
		return "enable"
	}

	return "disable"
}

// Is implements the [errors.Is] interface.
func (*BracketError) Is(other error) bool {
	_, ok := other.(*BracketError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BracketError) Unwrap() error {
	return e.Err
}

// IsPauseError returns true if err is a [BracketError] that happened before
// any intercept has been touched.
func IsPauseError(err error) bool {
	var bracketErr *BracketError
	if !errors.As(err, &bracketErr) {
		return false
	}

	return bracketErr.Op == OpPause || bracketErr.Op == OpVCPUCount
}

// IsResumeError returns true if err contains a [BracketError] for a failed
// resume, which means the VM might still be paused.
func IsResumeError(err error) bool {
	for _, e := range flatten(err) {
		var bracketErr *BracketError
		if errors.As(e, &bracketErr) && bracketErr.Op == OpResume {
			return true
		}
	}

	return false
}

// flatten returns err and all errors joined into it.
func flatten(err error) []error {
	if err == nil {
		return nil
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}

	var errs []error
	for _, e := range joined.Unwrap() {
		errs = append(errs, flatten(e)...)
	}

	return errs
}
