// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package intercept

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/aibor/vmimon/internal/vmi"
)

// Controller toggles the intercepts of a fixed set of control registers on
// all VCPUs of a VM.
type Controller struct {
	driver    vmi.Driver
	registers []vmi.CrType
	vcpuCount uint32
	status    io.Writer
}

// NewController creates a new [Controller] for the given registers.
//
// Duplicate registers are ignored. The VCPU count is queried once and used
// for the lifetime of the controller. A status line for each register is
// written to status on every change. It may be nil.
func NewController(
	driver vmi.Driver,
	registers []vmi.CrType,
	status io.Writer,
) (*Controller, error) {
	unique := make([]vmi.CrType, 0, len(registers))

	for _, cr := range registers {
		if !cr.Valid() {
			return nil, fmt.Errorf("%s: %w", cr, vmi.ErrInvalidCrType)
		}

		if !slices.Contains(unique, cr) {
			unique = append(unique, cr)
		}
	}

	if len(unique) == 0 {
		return nil, ErrNoRegisters
	}

	vcpuCount, err := driver.VCPUCount()
	if err != nil {
		return nil, &BracketError{Op: OpVCPUCount, Enabled: true, Err: err}
	}

	if status == nil {
		status = io.Discard
	}

	return &Controller{
		driver:    driver,
		registers: unique,
		vcpuCount: vcpuCount,
		status:    status,
	}, nil
}

// Enable enables all intercepts.
//
// It stops at the first failing toggle. Intercepts enabled up to this point
// stay enabled. Callers are expected to run [Controller.Disable] in this case.
func (c *Controller) Enable() error {
	return c.set(true)
}

// Disable disables all intercepts.
//
// It tries all VCPU and register pairs, even if some of them fail, and
// returns all errors joined.
func (c *Controller) Disable() error {
	return c.set(false)
}

func (c *Controller) set(enabled bool) error {
	err := c.driver.Pause()
	if err != nil {
		return &BracketError{Op: OpPause, Enabled: enabled, Err: err}
	}

	toggleErr := c.toggleAll(enabled)

	err = c.driver.Resume()
	if err != nil {
		slog.Error("Failed to resume VM, it might be left paused",
			slog.Any("error", err))

		resumeErr := &BracketError{Op: OpResume, Enabled: enabled, Err: err}

		return errors.Join(toggleErr, resumeErr)
	}

	return toggleErr
}

func (c *Controller) toggleAll(enabled bool) error {
	var errs []error

	for _, cr := range c.registers {
		statusStr := "Disabling"
		if enabled {
			statusStr = "Enabling"
		}

		fmt.Fprintf(c.status, "%s intercept on %s\n", statusStr, cr)

		intercept := vmi.InterceptCr(cr)

		for vcpu := range c.vcpuCount {
			err := c.driver.ToggleIntercept(vcpu, intercept, enabled)
			if err == nil {
				slog.Debug("Toggled intercept",
					slog.String("register", cr.String()),
					slog.Uint64("vcpu", uint64(vcpu)),
					slog.Bool("enabled", enabled))

				continue
			}

			toggleErr := &BracketError{
				Op:       OpToggle,
				Enabled:  enabled,
				Register: cr,
				VCPU:     vcpu,
				Err:      err,
			}

			if enabled {
				return toggleErr
			}

			slog.Warn("Failed to disable intercept",
				slog.String("register", cr.String()),
				slog.Uint64("vcpu", uint64(vcpu)),
				slog.Any("error", err))

			errs = append(errs, toggleErr)
		}
	}

	return errors.Join(errs...)
}
