// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aibor/vmimon/internal/monitor"
	"github.com/aibor/vmimon/internal/sys"
	"github.com/aibor/vmimon/internal/vmi"
	"github.com/spf13/cobra"
)

const (
	timeoutDefault = 1000
	timeoutMin     = 1
	timeoutMax     = 60000
)

type crEventsOptions struct {
	registers []vmi.CrType
	timeoutMS uint64
	duration  time.Duration
	verbose   bool
}

func newCrEventsCommand(cfg IO, root *rootOptions) *cobra.Command {
	opts := &crEventsOptions{
		registers: []vmi.CrType{vmi.Cr3},
		timeoutMS: timeoutDefault,
	}

	command := &cobra.Command{
		Use:   "cr-events VM_NAME",
		Short: "Print control register writes of a VM until interrupted",
		Long: `Enable interception of control register writes on all VCPUs of the VM and
print every write until interrupted. The intercepts are disabled again on
exit, followed by a summary of the caught events.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrEvents(cmd.Context(), cfg, root, opts, args[0])
		},
	}

	flags := command.Flags()

	flags.VarP(
		&crListValue{values: &opts.registers},
		"register", "r",
		"control register to intercept: 0, 3, 4. Flag may be used more than once.",
	)

	flags.Var(
		&LimitedUintValue{
			Value: &opts.timeoutMS,
			Lower: timeoutMin,
			Upper: timeoutMax,
		},
		"timeout",
		"poll timeout in milliseconds, bounds the reaction time to interrupts",
	)

	flags.DurationVar(
		&opts.duration,
		"duration",
		opts.duration,
		"stop after the given duration (default: run until interrupted)",
	)

	flags.BoolVarP(
		&opts.verbose,
		"verbose", "v",
		opts.verbose,
		"print old values, changed flags and per register/VCPU counts",
	)

	return command
}

func runCrEvents(
	ctx context.Context,
	cfg IO,
	root *rootOptions,
	opts *crEventsOptions,
	vmName string,
) error {
	if root.driver.resolve() == vmi.DriverTypeQMP {
		return fmt.Errorf("%s: %w", vmi.DriverTypeQMP, ErrInterceptsNotSupported)
	}

	driver, err := openDriver(ctx, &root.driver, vmName)
	if err != nil {
		return err
	}
	defer closeDriver(driver)

	if opts.duration > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	printer := monitor.NewPrinter(
		cfg.Stdout,
		colorEnabled(cfg.Stdout, root.noColor),
		opts.verbose,
	)

	session, err := monitor.NewSession(
		driver,
		monitor.Config{
			Registers:   opts.registers,
			PollTimeout: time.Duration(opts.timeoutMS) * time.Millisecond, //nolint:gosec
		},
		printer,
	)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = session.Run(ctx)

	return err //nolint:wrapcheck
}

type regsDumpOptions struct {
	vcpu uint32
}

func newRegsDumpCommand(cfg IO, root *rootOptions) *cobra.Command {
	opts := &regsDumpOptions{}

	command := &cobra.Command{
		Use:   "regs-dump VM_NAME",
		Short: "Print the registers of a VCPU",
		Long: `Pause the VM, read the registers of a single VCPU, resume the VM and print
the registers.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegsDump(cmd.Context(), cfg, root, opts, args[0])
		},
	}

	command.Flags().Uint32Var(
		&opts.vcpu,
		"vcpu",
		opts.vcpu,
		"VCPU to read the registers of",
	)

	return command
}

func runRegsDump(
	ctx context.Context,
	cfg IO,
	root *rootOptions,
	opts *regsDumpOptions,
	vmName string,
) error {
	driver, err := openDriver(ctx, &root.driver, vmName)
	if err != nil {
		return err
	}
	defer closeDriver(driver)

	err = driver.Pause()
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	regs, readErr := driver.ReadRegisters(opts.vcpu)
	if readErr != nil {
		readErr = fmt.Errorf("vcpu %d: %w", opts.vcpu, readErr)
	}

	resumeErr := driver.Resume()
	if resumeErr != nil {
		resumeErr = fmt.Errorf("resume: %w", resumeErr)
	}

	if readErr == nil {
		fmt.Fprintf(cfg.Stdout, "VCPU %d:\n", opts.vcpu)

		_, err := regs.WriteTo(cfg.Stdout)
		if err != nil {
			return errors.Join(fmt.Errorf("write registers: %w", err), resumeErr)
		}
	}

	return errors.Join(readErr, resumeErr)
}

func newCheckCommand(cfg IO, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [VM_NAME]",
		Short: "Check host support and driver availability",
		Args:  maxArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			vmName := ""
			if len(args) > 0 {
				vmName = args[0]
			}

			runCheck(cfg, root, vmName)

			return nil
		},
	}
}

func runCheck(cfg IO, root *rootOptions, vmName string) {
	out := cfg.Stdout

	fmt.Fprintf(out, "host arch: %s (control registers: %v)\n",
		sys.Native, sys.Native.HasControlRegisters())

	if !sys.KVMAvailable() {
		fmt.Fprintf(out, "kvm: unavailable: %s not writable\n", sys.KVMDevice)
	} else if apiVersion, err := sys.KVMAPIVersion(sys.KVMDevice); err != nil {
		fmt.Fprintf(out, "kvm: unavailable: %v\n", err)
	} else {
		fmt.Fprintf(out, "kvm: available (API version %d)\n", apiVersion)
	}

	socket := root.driver.socket
	if socket == "" && vmName != "" {
		socket = defaultSocketPath(vmName)
	}

	if socket == "" {
		fmt.Fprintln(out, "qmp socket: not given")
	} else if err := sys.CheckSocket(socket); err != nil {
		fmt.Fprintf(out, "qmp socket: %v\n", err)
	} else {
		fmt.Fprintf(out, "qmp socket: %s ok\n", socket)
	}

	types := make([]string, 0, len(vmi.DriverTypes()))
	for _, driverType := range vmi.DriverTypes() {
		types = append(types, string(driverType))
	}

	fmt.Fprintf(out, "drivers: %s (selected: %s)\n",
		strings.Join(types, ", "), root.driver.resolve())
}
