// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/aibor/vmimon/internal/vmi"
	"golang.org/x/sync/errgroup"
)

// Config is the configuration of a simulated VM.
type Config struct {
	// Name of the VM. Only used for logging.
	Name string

	// VCPUs is the number of VCPUs of the VM.
	VCPUs uint32

	// Rate is the number of control register writes per second and VCPU.
	// Zero results in an idle VM.
	Rate float64

	// Seed for the write generator. Zero picks a random seed.
	Seed uint64
}

type interceptKey struct {
	vcpu uint32
	cr   vmi.CrType
}

// Driver is a simulated VM.
type Driver struct {
	config Config

	mu         sync.Mutex
	paused     bool
	closed     bool
	intercepts map[interceptKey]bool
	registers  []vmi.Registers
	nextID     uint64
	rand       *rand.Rand

	// pending is the unacknowledged event per VCPU. Its VCPU is blocked.
	pending []*vmi.Event

	// queue holds pending events not yet returned by PollEvent.
	queue []*vmi.Event

	ready  chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	group  *errgroup.Group
}

var _ vmi.Driver = (*Driver)(nil)

// New creates a new simulated VM and starts its VCPUs.
//
// The VM runs until [Driver.Close] is called or ctx is done.
func New(ctx context.Context, config Config) (*Driver, error) {
	if config.VCPUs == 0 {
		return nil, ErrNoVCPUs
	}

	if config.Rate < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, config.Rate)
	}

	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	rng := rand.New(rand.NewPCG(seed, uint64(config.VCPUs)))

	registers := make([]vmi.Registers, config.VCPUs)
	for idx := range registers {
		registers[idx] = initialRegisters(rng)
	}

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	driver := &Driver{
		config:     config,
		intercepts: make(map[interceptKey]bool),
		registers:  registers,
		pending:    make([]*vmi.Event, config.VCPUs),
		rand:       rng,
		ready:      make(chan struct{}, 1),
		done:       make(chan struct{}),
		cancel: cancel,
		group:  group,
	}

	slog.Debug("Start simulated VM",
		slog.String("name", config.Name),
		slog.Uint64("vcpus", uint64(config.VCPUs)),
		slog.Float64("rate", config.Rate),
		slog.Uint64("seed", seed))

	if config.Rate > 0 {
		interval := time.Duration(
			float64(time.Second) / (config.Rate * float64(config.VCPUs)),
		)
		group.Go(func() error {
			driver.generate(ctx, max(interval, time.Microsecond))
			return nil
		})
	}

	return driver, nil
}

func initialRegisters(rng *rand.Rand) vmi.Registers {
	return vmi.Registers{
		RIP:    0xffffffff81000000 + rng.Uint64N(1<<20),
		RSP:    0xffffc90000000000 + rng.Uint64N(1<<20)&^0xf,
		RFLAGS: 0x246,
		CR0:    0x80050033,
		CR3:    randomPageTable(rng),
		CR4:    0x3506f0,
		EFER:   0xd01,
	}
}

func randomPageTable(rng *rand.Rand) uint64 {
	return (rng.Uint64N(1<<20) + 1) << 12
}

// generate produces a register write on a random VCPU every interval.
func (d *Driver) generate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.step()
		}
	}
}

func (d *Driver) step() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.paused || d.closed {
		return
	}

	vcpu := d.rand.Uint32N(d.config.VCPUs)
	if d.pending[vcpu] != nil {
		// Blocked on an unacknowledged event.
		return
	}

	crTypes := vmi.CrTypes()
	cr := crTypes[d.rand.IntN(len(crTypes))]
	regs := &d.registers[vcpu]
	value := d.nextValue(cr, regs.Cr(cr))

	if !d.intercepts[interceptKey{vcpu, cr}] {
		regs.SetCr(cr, value)
		return
	}

	d.nextID++
	event := &vmi.Event{
		VCPU: vcpu,
		ID:   d.nextID,
		Kind: vmi.CrEvent{Type: cr, New: value, Old: regs.Cr(cr)},
	}
	d.pending[vcpu] = event
	d.queue = append(d.queue, event)
	d.notify()
}

// notify wakes up a waiting PollEvent. It must be called with d.mu held.
func (d *Driver) notify() {
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

// release continues a VCPU blocked on an event for cr as if the event had
// been acknowledged. It must be called with d.mu held.
func (d *Driver) release(vcpu uint32, cr vmi.CrType) {
	event := d.pending[vcpu]
	if event == nil {
		return
	}

	crEvent, ok := event.Kind.(vmi.CrEvent)
	if !ok || crEvent.Type != cr {
		return
	}

	d.registers[vcpu].SetCr(cr, crEvent.New)
	d.pending[vcpu] = nil
	d.queue = slices.DeleteFunc(d.queue, func(e *vmi.Event) bool {
		return e == event
	})

	slog.Debug("Release pending event",
		slog.Uint64("id", event.ID),
		slog.Uint64("vcpu", uint64(vcpu)),
		slog.String("register", cr.String()))
}

// nextValue returns a plausible new value for the register.
func (d *Driver) nextValue(cr vmi.CrType, current uint64) uint64 {
	flags := cr.Flags()
	if len(flags) == 0 {
		return randomPageTable(d.rand)
	}

	flag := flags[d.rand.IntN(len(flags))]

	return current ^ 1<<flag.Bit
}

// Pause implements [vmi.Driver].
func (d *Driver) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &vmi.DriverError{Op: "pause", Err: vmi.ErrClosed}
	}

	d.paused = true

	return nil
}

// Resume implements [vmi.Driver].
func (d *Driver) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &vmi.DriverError{Op: "resume", Err: vmi.ErrClosed}
	}

	d.paused = false

	return nil
}

// VCPUCount implements [vmi.Driver].
func (d *Driver) VCPUCount() (uint32, error) {
	return d.config.VCPUs, nil
}

// ToggleIntercept implements [vmi.Driver].
func (d *Driver) ToggleIntercept(
	vcpu uint32,
	intercept vmi.Intercept,
	enabled bool,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &vmi.DriverError{Op: "toggle intercept", Err: vmi.ErrClosed}
	}

	if vcpu >= d.config.VCPUs {
		return &vmi.DriverError{Op: "toggle intercept", Err: vmi.ErrInvalidVCPU}
	}

	switch intercept := intercept.(type) {
	case vmi.CrIntercept:
		d.intercepts[interceptKey{vcpu, intercept.Type}] = enabled

		if !enabled {
			d.release(vcpu, intercept.Type)
		}
	default:
		return &vmi.DriverError{
			Op:  "toggle intercept",
			Err: fmt.Errorf("%T: %w", intercept, vmi.ErrNotSupported),
		}
	}

	return nil
}

// PollEvent implements [vmi.Driver].
func (d *Driver) PollEvent(
	ctx context.Context,
	timeout time.Duration,
) (*vmi.Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if event := d.dequeue(); event != nil {
			return event, nil
		}

		select {
		case <-d.ready:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-d.done:
			return nil, &vmi.DriverError{Op: "poll event", Err: vmi.ErrClosed}
		}
	}
}

func (d *Driver) dequeue() *vmi.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || len(d.queue) == 0 {
		return nil
	}

	event := d.queue[0]
	d.queue = d.queue[1:]

	if len(d.queue) > 0 {
		d.notify()
	}

	return event
}

// ReplyEvent implements [vmi.Driver].
//
// The new register value is applied and the VCPU continues.
func (d *Driver) ReplyEvent(event *vmi.Event, reply vmi.ReplyType) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if event.VCPU >= d.config.VCPUs {
		return &vmi.DriverError{Op: "reply event", Err: vmi.ErrInvalidVCPU}
	}

	pending := d.pending[event.VCPU]
	if pending == nil || pending.ID != event.ID {
		return &vmi.DriverError{
			Op:  "reply event",
			Err: fmt.Errorf("event %d: %w", event.ID, vmi.ErrEventNotPending),
		}
	}

	if reply != vmi.ReplyContinue {
		return &vmi.DriverError{
			Op:  "reply event",
			Err: fmt.Errorf("reply %s: %w", reply, vmi.ErrNotSupported),
		}
	}

	if crEvent, ok := pending.Kind.(vmi.CrEvent); ok {
		d.registers[event.VCPU].SetCr(crEvent.Type, crEvent.New)
	}

	d.pending[event.VCPU] = nil

	return nil
}

// ReadRegisters implements [vmi.Driver].
func (d *Driver) ReadRegisters(vcpu uint32) (*vmi.Registers, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if vcpu >= d.config.VCPUs {
		return nil, &vmi.DriverError{Op: "read registers", Err: vmi.ErrInvalidVCPU}
	}

	regs := d.registers[vcpu]

	return &regs, nil
}

// Close stops the simulated VM and waits for it to terminate.
//
// It implements [vmi.Driver]. It is safe to call more than once.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}

	d.closed = true
	close(d.done)
	d.mu.Unlock()

	d.cancel()

	return d.group.Wait()
}
