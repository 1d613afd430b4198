// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package intercept_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/aibor/vmimon/internal/intercept"
	"github.com/aibor/vmimon/internal/vmi"
	"github.com/aibor/vmimon/internal/vmi/vmitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// subsets returns all non-empty subsets of the known control registers.
func subsets() [][]vmi.CrType {
	all := vmi.CrTypes()
	result := [][]vmi.CrType{}

	for mask := 1; mask < 1<<len(all); mask++ {
		subset := []vmi.CrType{}

		for idx, cr := range all {
			if mask&(1<<idx) != 0 {
				subset = append(subset, cr)
			}
		}

		result = append(result, subset)
	}

	return result
}

func TestController_EnableDisable(t *testing.T) {
	for _, registers := range subsets() {
		for vcpus := uint32(1); vcpus <= 4; vcpus++ {
			name := fmt.Sprintf("%v/%d vcpus", registers, vcpus)
			t.Run(name, func(t *testing.T) {
				driver := vmitest.New(vcpus)

				ctrl, err := intercept.NewController(driver, registers, nil)
				require.NoError(t, err)

				require.NoError(t, ctrl.Enable())

				expectedEnabled := len(registers) * int(vcpus)
				assert.Equal(t, expectedEnabled, driver.EnabledIntercepts())
				assert.False(t, driver.Paused(), "vm must be running")

				require.NoError(t, ctrl.Disable())

				state := driver.Intercepts()
				assert.Len(t, state, expectedEnabled)

				for pair, enabled := range state {
					assert.False(t, enabled, "intercept %v", pair)
				}

				assert.False(t, driver.Paused(), "vm must be running")
				assert.Equal(t, 1, driver.VCPUQueries())
			})
		}
	}
}

func TestController_StatusLines(t *testing.T) {
	var status bytes.Buffer

	driver := vmitest.New(2)

	ctrl, err := intercept.NewController(
		driver,
		[]vmi.CrType{vmi.Cr3, vmi.Cr0, vmi.Cr3},
		&status,
	)
	require.NoError(t, err)

	require.NoError(t, ctrl.Enable())
	require.NoError(t, ctrl.Disable())

	expected := "Enabling intercept on Cr3\n" +
		"Enabling intercept on Cr0\n" +
		"Disabling intercept on Cr3\n" +
		"Disabling intercept on Cr0\n"
	assert.Equal(t, expected, status.String())

	expectedCalls := []string{
		"pause",
		"toggle 0 Cr3 true",
		"toggle 1 Cr3 true",
		"toggle 0 Cr0 true",
		"toggle 1 Cr0 true",
		"resume",
		"pause",
		"toggle 0 Cr3 false",
		"toggle 1 Cr3 false",
		"toggle 0 Cr0 false",
		"toggle 1 Cr0 false",
		"resume",
	}
	assert.Equal(t, expectedCalls, driver.Calls())
}

func TestNewController(t *testing.T) {
	t.Run("no registers", func(t *testing.T) {
		_, err := intercept.NewController(vmitest.New(1), nil, nil)
		require.ErrorIs(t, err, intercept.ErrNoRegisters)
	})

	t.Run("invalid register", func(t *testing.T) {
		_, err := intercept.NewController(
			vmitest.New(1),
			[]vmi.CrType{vmi.CrType(8)},
			nil,
		)
		require.ErrorIs(t, err, vmi.ErrInvalidCrType)
	})

	t.Run("vcpu count fails", func(t *testing.T) {
		driver := vmitest.New(1)
		driver.VCPUCountErr = assert.AnError

		_, err := intercept.NewController(driver, []vmi.CrType{vmi.Cr3}, nil)
		require.ErrorIs(t, err, assert.AnError)
		assert.True(t, intercept.IsPauseError(err))
		assert.Empty(t, driver.Calls())
	})
}

func TestController_Errors(t *testing.T) {
	failOn := func(failVCPU uint32, failEnabled bool) func(uint32, vmi.CrType, bool) error {
		return func(vcpu uint32, _ vmi.CrType, enabled bool) error {
			if vcpu == failVCPU && enabled == failEnabled {
				return assert.AnError
			}

			return nil
		}
	}

	t.Run("pause fails", func(t *testing.T) {
		driver := vmitest.New(2)
		driver.PauseErr = assert.AnError

		ctrl, err := intercept.NewController(driver, []vmi.CrType{vmi.Cr3}, nil)
		require.NoError(t, err)

		err = ctrl.Enable()
		require.ErrorIs(t, err, assert.AnError)
		assert.True(t, intercept.IsPauseError(err))
		assert.Equal(t, []string{"pause"}, driver.Calls(), "no toggle, no resume")
	})

	t.Run("toggle fails on enable", func(t *testing.T) {
		driver := vmitest.New(3)
		driver.ToggleErr = failOn(1, true)

		ctrl, err := intercept.NewController(
			driver,
			[]vmi.CrType{vmi.Cr3, vmi.Cr4},
			nil,
		)
		require.NoError(t, err)

		err = ctrl.Enable()
		require.ErrorIs(t, err, assert.AnError)

		var bracketErr *intercept.BracketError
		require.ErrorAs(t, err, &bracketErr)
		assert.Equal(t, intercept.OpToggle, bracketErr.Op)
		assert.Equal(t, vmi.Cr3, bracketErr.Register)
		assert.Equal(t, uint32(1), bracketErr.VCPU)
		assert.Equal(t,
			"enable Cr3 intercept on vcpu 1: "+
				"assert.AnError general error for testing",
			bracketErr.Error(),
		)

		assert.Equal(t, 1, driver.EnabledIntercepts(), "no rollback")
		assert.Equal(t, 1, driver.CallCount("resume"), "resumed")
		assert.False(t, driver.Paused())
		assert.False(t, intercept.IsPauseError(err))
		assert.False(t, intercept.IsResumeError(err))

		require.NoError(t, ctrl.Disable())
		assert.Zero(t, driver.EnabledIntercepts())
	})

	t.Run("toggle fails on disable", func(t *testing.T) {
		driver := vmitest.New(3)
		driver.ToggleErr = failOn(1, false)

		ctrl, err := intercept.NewController(
			driver,
			[]vmi.CrType{vmi.Cr0, vmi.Cr4},
			nil,
		)
		require.NoError(t, err)
		require.NoError(t, ctrl.Enable())

		err = ctrl.Disable()
		require.ErrorIs(t, err, assert.AnError)

		assert.Equal(t, 2, driver.EnabledIntercepts(),
			"only the failing pairs stay enabled")
		assert.Equal(t, 2, driver.CallCount("resume"))
		assert.False(t, driver.Paused())
	})

	t.Run("resume fails", func(t *testing.T) {
		driver := vmitest.New(1)
		driver.ResumeErr = assert.AnError

		ctrl, err := intercept.NewController(driver, []vmi.CrType{vmi.Cr3}, nil)
		require.NoError(t, err)

		err = ctrl.Enable()
		require.ErrorIs(t, err, assert.AnError)
		assert.True(t, intercept.IsResumeError(err))
		assert.Contains(t, err.Error(), "enable intercepts: resume")
	})

	t.Run("toggle and resume fail", func(t *testing.T) {
		driver := vmitest.New(2)
		driver.ToggleErr = failOn(0, true)
		driver.ResumeErr = assert.AnError

		ctrl, err := intercept.NewController(driver, []vmi.CrType{vmi.Cr3}, nil)
		require.NoError(t, err)

		err = ctrl.Enable()
		assert.True(t, intercept.IsResumeError(err))

		var bracketErr *intercept.BracketError
		require.ErrorAs(t, err, &bracketErr)
		assert.Equal(t, intercept.OpToggle, bracketErr.Op, "first is toggle")
	})
}

func TestBracketErrorIs(t *testing.T) {
	//nolint:testifylint
	assert.ErrorIs(t, error(&intercept.BracketError{}), &intercept.BracketError{})
	assert.NotErrorIs(t, assert.AnError, &intercept.BracketError{})
}
