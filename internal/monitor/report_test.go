// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor_test

import (
	"math"
	"testing"
	"time"

	"github.com/aibor/vmimon/internal/monitor"
	"github.com/aibor/vmimon/internal/vmi"
	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	tests := []struct {
		name         string
		report       monitor.Report
		expectedRate float64
		expectedOK   bool
		expectedStr  string
	}{
		{
			name:         "100 events in 10 seconds",
			report:       monitor.Report{Events: 100, Elapsed: 10 * time.Second},
			expectedRate: 10,
			expectedOK:   true,
			expectedStr:  "Caught 100 events in 10.00 seconds (10.00 events/sec)",
		},
		{
			name:         "fraction",
			report:       monitor.Report{Events: 1, Elapsed: 3 * time.Second},
			expectedRate: 1.0 / 3,
			expectedOK:   true,
			expectedStr:  "Caught 1 events in 3.00 seconds (0.33 events/sec)",
		},
		{
			name:         "no events",
			report:       monitor.Report{Elapsed: 1500 * time.Millisecond},
			expectedRate: 0,
			expectedOK:   true,
			expectedStr:  "Caught 0 events in 1.50 seconds (0.00 events/sec)",
		},
		{
			name:        "zero elapsed",
			report:      monitor.Report{Events: 5},
			expectedStr: "Caught 5 events in 0.00 seconds (rate undefined)",
		},
		{
			name:        "negative elapsed",
			report:      monitor.Report{Events: 5, Elapsed: -time.Second},
			expectedStr: "Caught 5 events in -1.00 seconds (rate undefined)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, ok := tt.report.Rate()

			assert.Equal(t, tt.expectedOK, ok)
			assert.InDelta(t, tt.expectedRate, rate, 1e-9)
			assert.False(t, math.IsNaN(rate))
			assert.False(t, math.IsInf(rate, 0))
			assert.Equal(t, tt.expectedStr, tt.report.String())
		})
	}
}

func TestReportKeys(t *testing.T) {
	report := monitor.Report{
		PerRegister: map[vmi.CrType]uint64{vmi.Cr4: 1, vmi.Cr0: 2},
		PerVCPU:     map[uint32]uint64{3: 1, 0: 1, 1: 1},
	}

	assert.Equal(t, []vmi.CrType{vmi.Cr0, vmi.Cr4}, report.Registers())
	assert.Equal(t, []uint32{0, 1, 3}, report.VCPUs())
	assert.Empty(t, monitor.Report{}.Registers())
}
