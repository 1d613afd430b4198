// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aibor/vmimon/internal/qmp"
	"github.com/aibor/vmimon/internal/sim"
	"github.com/aibor/vmimon/internal/vmi"
)

const (
	socketDir  = "/var/run/qemu"
	qmpTimeout = 5 * time.Second

	simVCPUsDefault = 2
	simVCPUsMin     = 1
	simVCPUsMax     = 64
	simRateDefault  = 50
)

type driverOptions struct {
	driverType vmi.DriverType
	socket     string

	simVCPUs uint64
	simRate  float64
	simSeed  uint64
}

func defaultSocketPath(vmName string) string {
	return filepath.Join(socketDir, vmName+".sock")
}

// resolve returns the concrete driver type. Auto picks QMP if a socket is
// given and the simulator otherwise.
func (o *driverOptions) resolve() vmi.DriverType {
	if o.driverType != vmi.DriverTypeAuto && o.driverType != "" {
		return o.driverType
	}

	if o.socket != "" {
		return vmi.DriverTypeQMP
	}

	return vmi.DriverTypeSim
}

func (o *driverOptions) socketPath(vmName string) string {
	if o.socket != "" {
		return o.socket
	}

	return defaultSocketPath(vmName)
}

func openDriver(
	ctx context.Context,
	opts *driverOptions,
	vmName string,
) (vmi.Driver, error) {
	driverType := opts.resolve()

	slog.Debug("Open driver",
		slog.String("type", string(driverType)),
		slog.String("vm", vmName))

	switch driverType {
	case vmi.DriverTypeSim:
		driver, err := sim.New(ctx, sim.Config{
			Name:  vmName,
			VCPUs: uint32(opts.simVCPUs), //nolint:gosec
			Rate:  opts.simRate,
			Seed:  opts.simSeed,
		})
		if err != nil {
			return nil, fmt.Errorf("simulator: %w", err)
		}

		return driver, nil
	case vmi.DriverTypeQMP:
		return qmp.Open(opts.socketPath(vmName), qmpTimeout) //nolint:wrapcheck
	default:
		return nil, fmt.Errorf("%s: %w", driverType, vmi.ErrDriverTypeInvalid)
	}
}

func closeDriver(driver vmi.Driver) {
	err := driver.Close()
	if err != nil {
		slog.Warn("Failed to close driver", slog.Any("error", err))
	}
}
