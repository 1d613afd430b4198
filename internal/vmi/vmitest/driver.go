// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmitest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aibor/vmimon/internal/vmi"
)

// Pair identifies the intercept state of a single register on a single VCPU.
type Pair struct {
	VCPU uint32
	Cr   vmi.CrType
}

// PollResult is a single scripted result of [Driver.PollEvent]. A zero value
// is a poll that timed out without an event.
type PollResult struct {
	Event *vmi.Event
	Err   error
}

// Driver is a [vmi.Driver] that records all calls and returns scripted poll
// results.
//
// Once the script is exhausted, PollEvent behaves like an idle VM: it blocks
// until the timeout expires or the context is done.
type Driver struct {
	// NumVCPUs is returned by VCPUCount.
	NumVCPUs uint32

	// Script is consumed by PollEvent in order.
	Script []PollResult

	// OnReply is called after each successful reply.
	OnReply func(event *vmi.Event)

	// OnIdle is called by PollEvent once the script is exhausted, before it
	// blocks.
	OnIdle func()

	// Injected errors.
	PauseErr     error
	ResumeErr    error
	VCPUCountErr error
	ReplyErr     error
	ToggleErr    func(vcpu uint32, cr vmi.CrType, enabled bool) error

	mu          sync.Mutex
	paused      bool
	closed      bool
	intercepts  map[Pair]bool
	replies     map[uint64]int
	calls       []string
	pollCount   int
	vcpuQueries int
}

var _ vmi.Driver = (*Driver)(nil)

// New creates a new [Driver] with the given number of VCPUs and poll script.
func New(vcpus uint32, script ...PollResult) *Driver {
	return &Driver{
		NumVCPUs: vcpus,
		Script:   script,
	}
}

// CrEvent returns a [PollResult] with a control register write event.
func CrEvent(id uint64, vcpu uint32, cr vmi.CrType, value uint64) PollResult {
	return PollResult{
		Event: &vmi.Event{
			VCPU: vcpu,
			ID:   id,
			Kind: vmi.CrEvent{Type: cr, New: value},
		},
	}
}

// Timeout returns a [PollResult] of a poll without event.
func Timeout() PollResult {
	return PollResult{}
}

func (d *Driver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// Pause implements [vmi.Driver].
func (d *Driver) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("pause")

	if d.PauseErr != nil {
		return d.PauseErr
	}

	d.paused = true

	return nil
}

// Resume implements [vmi.Driver].
func (d *Driver) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("resume")

	if d.ResumeErr != nil {
		return d.ResumeErr
	}

	d.paused = false

	return nil
}

// VCPUCount implements [vmi.Driver].
func (d *Driver) VCPUCount() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vcpuQueries++

	if d.VCPUCountErr != nil {
		return 0, d.VCPUCountErr
	}

	return d.NumVCPUs, nil
}

// ToggleIntercept implements [vmi.Driver].
func (d *Driver) ToggleIntercept(
	vcpu uint32,
	intercept vmi.Intercept,
	enabled bool,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	crIntercept, ok := intercept.(vmi.CrIntercept)
	if !ok {
		return vmi.ErrNotSupported
	}

	d.record("toggle %d %s %t", vcpu, crIntercept.Type, enabled)

	if vcpu >= d.NumVCPUs {
		return vmi.ErrInvalidVCPU
	}

	if !d.paused {
		return fmt.Errorf("toggle while running: %w", vmi.ErrNotSupported)
	}

	if d.ToggleErr != nil {
		err := d.ToggleErr(vcpu, crIntercept.Type, enabled)
		if err != nil {
			return err
		}
	}

	if d.intercepts == nil {
		d.intercepts = make(map[Pair]bool)
	}

	d.intercepts[Pair{vcpu, crIntercept.Type}] = enabled

	return nil
}

// PollEvent implements [vmi.Driver].
func (d *Driver) PollEvent(
	ctx context.Context,
	timeout time.Duration,
) (*vmi.Event, error) {
	d.mu.Lock()
	d.pollCount++

	if len(d.Script) > 0 {
		result := d.Script[0]
		d.Script = d.Script[1:]
		d.mu.Unlock()

		return result.Event, result.Err
	}

	onIdle := d.OnIdle
	d.mu.Unlock()

	if onIdle != nil {
		onIdle()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}

// ReplyEvent implements [vmi.Driver].
func (d *Driver) ReplyEvent(event *vmi.Event, reply vmi.ReplyType) error {
	d.mu.Lock()

	d.record("reply %d %s", event.ID, reply)

	if d.replies == nil {
		d.replies = make(map[uint64]int)
	}

	d.replies[event.ID]++

	if d.ReplyErr != nil {
		d.mu.Unlock()
		return d.ReplyErr
	}

	onReply := d.OnReply
	d.mu.Unlock()

	if onReply != nil {
		onReply(event)
	}

	return nil
}

// ReadRegisters implements [vmi.Driver].
func (d *Driver) ReadRegisters(vcpu uint32) (*vmi.Registers, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("read registers %d", vcpu)

	if vcpu >= d.NumVCPUs {
		return nil, vmi.ErrInvalidVCPU
	}

	return &vmi.Registers{RIP: 0xfff0}, nil
}

// Close implements [vmi.Driver].
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true

	return nil
}

// Intercepts returns a copy of the current intercept state.
func (d *Driver) Intercepts() map[Pair]bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := make(map[Pair]bool, len(d.intercepts))
	for pair, enabled := range d.intercepts {
		state[pair] = enabled
	}

	return state
}

// EnabledIntercepts returns the number of currently enabled intercepts.
func (d *Driver) EnabledIntercepts() int {
	count := 0

	for _, enabled := range d.Intercepts() {
		if enabled {
			count++
		}
	}

	return count
}

// Paused returns whether the VM is currently paused.
func (d *Driver) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.paused
}

// Closed returns whether Close has been called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closed
}

// Replies returns how often each event ID has been replied to.
func (d *Driver) Replies() map[uint64]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	replies := make(map[uint64]int, len(d.replies))
	for id, count := range d.replies {
		replies[id] = count
	}

	return replies
}

// Calls returns the recorded call log.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.calls...)
}

// CallCount returns how often the given call has been recorded.
func (d *Driver) CallCount(call string) int {
	count := 0

	for _, c := range d.Calls() {
		if c == call {
			count++
		}
	}

	return count
}

// PollCount returns the number of PollEvent calls.
func (d *Driver) PollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pollCount
}

// VCPUQueries returns the number of VCPUCount calls.
func (d *Driver) VCPUQueries() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.vcpuQueries
}
