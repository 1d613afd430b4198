// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/aibor/vmimon/internal/vmi"
)

// Report is the summary of a finished session.
type Report struct {
	// Events is the number of acknowledged events.
	Events uint64

	// EmptyPolls is the number of polls that timed out without event.
	EmptyPolls uint64

	// Elapsed is the duration of the listening phase.
	Elapsed time.Duration

	PerRegister map[vmi.CrType]uint64
	PerVCPU     map[uint32]uint64
}

// Rate returns the events per second. It returns false if no time has
// elapsed and the rate is undefined.
func (r Report) Rate() (float64, bool) {
	seconds := r.Elapsed.Seconds()
	if seconds <= 0 {
		return 0, false
	}

	return float64(r.Events) / seconds, true
}

// String implements [fmt.Stringer].
func (r Report) String() string {
	summary := fmt.Sprintf("Caught %d events in %.2f seconds",
		r.Events, r.Elapsed.Seconds())

	rate, ok := r.Rate()
	if !ok {
		return summary + " (rate undefined)"
	}

	return fmt.Sprintf("%s (%.2f events/sec)", summary, rate)
}

// Registers returns the registers with at least one event in ascending order.
func (r Report) Registers() []vmi.CrType {
	return slices.Sorted(maps.Keys(r.PerRegister))
}

// VCPUs returns the VCPUs with at least one event in ascending order.
func (r Report) VCPUs() []uint32 {
	return slices.Sorted(maps.Keys(r.PerVCPU))
}

// stats are the session counters. They are owned by the loop.
type stats struct {
	start       time.Time
	events      uint64
	emptyPolls  uint64
	perRegister map[vmi.CrType]uint64
	perVCPU     map[uint32]uint64
}

func newStats(start time.Time) *stats {
	return &stats{
		start:       start,
		perRegister: make(map[vmi.CrType]uint64),
		perVCPU:     make(map[uint32]uint64),
	}
}

func (s *stats) recordCr(vcpu uint32, cr vmi.CrType) {
	s.events++
	s.perRegister[cr]++
	s.perVCPU[vcpu]++
}

func (s *stats) recordEmpty() {
	s.emptyPolls++
}

func (s *stats) report(end time.Time) Report {
	return Report{
		Events:      s.events,
		EmptyPolls:  s.emptyPolls,
		Elapsed:     end.Sub(s.start),
		PerRegister: maps.Clone(s.perRegister),
		PerVCPU:     maps.Clone(s.perVCPU),
	}
}
