// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aibor/vmimon/internal/vmi"
	goqmp "github.com/digitalocean/go-qemu/qmp"
)

// Driver is a [vmi.Driver] backed by a QMP monitor.
type Driver struct {
	monitor goqmp.Monitor
}

var _ vmi.Driver = (*Driver)(nil)

// NewDriver creates a new [Driver] on a connected monitor. The driver takes
// ownership of the monitor and disconnects it on [Driver.Close].
func NewDriver(monitor goqmp.Monitor) *Driver {
	return &Driver{monitor: monitor}
}

// Open connects to the QMP unix socket at path.
func Open(path string, timeout time.Duration) (*Driver, error) {
	monitor, err := goqmp.NewSocketMonitor("unix", path, timeout)
	if err != nil {
		return nil, &vmi.DriverError{Op: "open", Err: err}
	}

	err = monitor.Connect()
	if err != nil {
		_ = monitor.Disconnect()
		return nil, &vmi.DriverError{Op: "open", Err: fmt.Errorf("connect: %w", err)}
	}

	slog.Debug("Connected to QMP socket", slog.String("path", path))

	return NewDriver(monitor), nil
}

// execute runs a QMP command. If result is not nil, the return value is
// decoded into it.
func (d *Driver) execute(command string, arguments, result any) error {
	cmd, err := json.Marshal(goqmp.Command{Execute: command, Args: arguments})
	if err != nil {
		return fmt.Errorf("encode %s: %w", command, err)
	}

	raw, err := d.monitor.Run(cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	if result == nil {
		return nil
	}

	var resp struct {
		Return json.RawMessage `json:"return"`
	}

	err = json.Unmarshal(raw, &resp)
	if err != nil {
		return fmt.Errorf("decode %s: %w", command, err)
	}

	if resp.Return == nil {
		return fmt.Errorf("%s: %w", command, ErrUnexpectedResponse)
	}

	err = json.Unmarshal(resp.Return, result)
	if err != nil {
		return fmt.Errorf("decode %s return: %w", command, err)
	}

	return nil
}

// Pause implements [vmi.Driver].
func (d *Driver) Pause() error {
	err := d.execute("stop", nil, nil)
	if err != nil {
		return &vmi.DriverError{Op: "pause", Err: err}
	}

	return nil
}

// Resume implements [vmi.Driver].
func (d *Driver) Resume() error {
	err := d.execute("cont", nil, nil)
	if err != nil {
		return &vmi.DriverError{Op: "resume", Err: err}
	}

	return nil
}

type cpuInfo struct {
	CPUIndex int    `json:"cpu-index"`
	ThreadID int    `json:"thread-id"`
	Target   string `json:"target"`
}

// VCPUCount implements [vmi.Driver].
func (d *Driver) VCPUCount() (uint32, error) {
	var cpus []cpuInfo

	err := d.execute("query-cpus-fast", nil, &cpus)
	if err != nil {
		return 0, &vmi.DriverError{Op: "vcpu count", Err: err}
	}

	return uint32(len(cpus)), nil //nolint:gosec
}

// ToggleIntercept implements [vmi.Driver]. QMP has no intercepts.
func (d *Driver) ToggleIntercept(uint32, vmi.Intercept, bool) error {
	return &vmi.DriverError{Op: "toggle intercept", Err: vmi.ErrNotSupported}
}

// PollEvent implements [vmi.Driver]. QMP has no intercept events.
func (d *Driver) PollEvent(context.Context, time.Duration) (*vmi.Event, error) {
	return nil, &vmi.DriverError{Op: "poll event", Err: vmi.ErrNotSupported}
}

// ReplyEvent implements [vmi.Driver]. QMP has no intercept events.
func (d *Driver) ReplyEvent(*vmi.Event, vmi.ReplyType) error {
	return &vmi.DriverError{Op: "reply event", Err: vmi.ErrNotSupported}
}

type humanMonitorCommand struct {
	CommandLine string `json:"command-line"`
	CPUIndex    uint32 `json:"cpu-index"`
}

// ReadRegisters implements [vmi.Driver].
func (d *Driver) ReadRegisters(vcpu uint32) (*vmi.Registers, error) {
	var output string

	args := humanMonitorCommand{
		CommandLine: "info registers",
		CPUIndex:    vcpu,
	}

	err := d.execute("human-monitor-command", args, &output)
	if err != nil {
		return nil, &vmi.DriverError{Op: "read registers", Err: err}
	}

	regs, err := parseRegisters(output)
	if err != nil {
		return nil, &vmi.DriverError{
			Op:  "read registers",
			Err: fmt.Errorf("vcpu %d: %w", vcpu, err),
		}
	}

	return regs, nil
}

// Close implements [vmi.Driver].
func (d *Driver) Close() error {
	err := d.monitor.Disconnect()
	if err != nil {
		return &vmi.DriverError{Op: "close", Err: err}
	}

	return nil
}
