// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor_test

import (
	"testing"

	"github.com/aibor/vmimon/internal/monitor"
	"github.com/stretchr/testify/assert"
)

func TestLoopError(t *testing.T) {
	//nolint:testifylint
	assert.ErrorIs(t, error(&monitor.LoopError{}), &monitor.LoopError{})

	tests := []struct {
		name     string
		err      *monitor.LoopError
		expected string
	}{
		{
			name:     "poll",
			err:      &monitor.LoopError{Op: monitor.OpPoll, Err: assert.AnError},
			expected: "event loop: poll: " + assert.AnError.Error(),
		},
		{
			name: "reply",
			err: &monitor.LoopError{
				Op:      monitor.OpReply,
				VCPU:    2,
				EventID: 9,
				Err:     assert.AnError,
			},
			expected: "event loop: reply event 9 of vcpu 2: " + assert.AnError.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, assert.AnError)
		})
	}
}
