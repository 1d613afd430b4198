// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aibor/vmimon/internal/intercept"
	"github.com/aibor/vmimon/internal/monitor"
	"github.com/aibor/vmimon/internal/vmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRunError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedExitCode int
		expectedOutput   string
	}{
		{
			name: "no error",
		},
		{
			name: "parse args error",
			err: &ParseArgsError{
				msg: "flag parse",
				err: vmi.ErrInvalidCrType,
			},
			expectedExitCode: -1,
			expectedOutput: "Error [vmimon]: flag parse: " +
				vmi.ErrInvalidCrType.Error() + "\n" +
				"Run 'vmimon --help' for usage.\n",
		},
		{
			name: "bracket error",
			err: &intercept.BracketError{
				Op:       intercept.OpToggle,
				Enabled:  true,
				Register: vmi.Cr4,
				VCPU:     1,
				Err:      vmi.ErrNotSupported,
			},
			expectedExitCode: -1,
			expectedOutput: "Error [vmimon]: enable Cr4 intercept on vcpu 1: " +
				"operation not supported by driver\n",
		},
		{
			name: "loop error",
			err: &monitor.LoopError{
				Op:  monitor.OpPoll,
				Err: &vmi.DriverError{Op: "poll event", Err: vmi.ErrClosed},
			},
			expectedExitCode: -1,
			expectedOutput: "Error [vmimon]: event loop: poll: " +
				"driver poll event: driver closed\n",
		},
		{
			name: "resume error",
			err: errors.Join(
				&intercept.BracketError{
					Op:       intercept.OpToggle,
					Register: vmi.Cr3,
					Err:      vmi.ErrInvalidVCPU,
				},
				&intercept.BracketError{
					Op:  intercept.OpResume,
					Err: assert.AnError,
				},
			),
			expectedExitCode: -1,
			expectedOutput: "Error [vmimon]: disable Cr3 intercept on vcpu 0: " +
				"invalid vcpu\n" +
				"disable intercepts: resume: " +
				"assert.AnError general error for testing\n" +
				"Warning [vmimon]: the VM may still be paused, resume it manually\n",
		},
		{
			name:             "any error",
			err:              assert.AnError,
			expectedExitCode: -1,
			expectedOutput: "Error [vmimon]: " +
				"assert.AnError general error for testing\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdErr bytes.Buffer
			actualExitCode := handleRunError(tt.err, &stdErr)

			assert.Equal(t, tt.expectedExitCode, actualExitCode,
				"exit code should be as expected")
			assert.Equal(t, tt.expectedOutput, stdErr.String(),
				"stderr output should be as expected")
		})
	}
}

func TestParseArgsErrorIs(t *testing.T) {
	//nolint:testifylint
	assert.ErrorIs(t, error(&ParseArgsError{}), &ParseArgsError{})
}

func TestDriverOptions_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		opts     driverOptions
		expected vmi.DriverType
	}{
		{
			name:     "empty",
			expected: vmi.DriverTypeSim,
		},
		{
			name:     "auto without socket",
			opts:     driverOptions{driverType: vmi.DriverTypeAuto},
			expected: vmi.DriverTypeSim,
		},
		{
			name: "auto with socket",
			opts: driverOptions{
				driverType: vmi.DriverTypeAuto,
				socket:     "/tmp/qmp.sock",
			},
			expected: vmi.DriverTypeQMP,
		},
		{
			name: "explicit sim with socket",
			opts: driverOptions{
				driverType: vmi.DriverTypeSim,
				socket:     "/tmp/qmp.sock",
			},
			expected: vmi.DriverTypeSim,
		},
		{
			name:     "explicit qmp",
			opts:     driverOptions{driverType: vmi.DriverTypeQMP},
			expected: vmi.DriverTypeQMP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opts.resolve())
		})
	}

	opts := driverOptions{}
	assert.Equal(t, "/var/run/qemu/myvm.sock", opts.socketPath("myvm"))

	opts.socket = "/tmp/other.sock"
	assert.Equal(t, "/tmp/other.sock", opts.socketPath("myvm"))
}

func TestCrListValue(t *testing.T) {
	registers := []vmi.CrType{vmi.Cr3}
	value := &crListValue{values: &registers}

	assert.Equal(t, "[3]", value.String())
	assert.Equal(t, "cr", value.Type())

	require.NoError(t, value.Set("0"))
	assert.Equal(t, []vmi.CrType{vmi.Cr0}, registers, "default replaced")

	require.NoError(t, value.Set("CR4"))
	require.NoError(t, value.Set("3"))
	assert.Equal(t, []vmi.CrType{vmi.Cr0, vmi.Cr4, vmi.Cr3}, registers)
	assert.Equal(t, "[0,4,3]", value.String())

	err := value.Set("2")
	require.ErrorIs(t, err, vmi.ErrInvalidCrType)
	assert.Len(t, registers, 3)
}

func TestColorEnabled(t *testing.T) {
	assert.False(t, colorEnabled(&bytes.Buffer{}, false), "no terminal")
	assert.False(t, colorEnabled(&bytes.Buffer{}, true), "disabled")
}
