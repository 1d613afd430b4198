// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/aibor/vmimon/internal/intercept"
	"github.com/aibor/vmimon/internal/vmi"
	"github.com/spf13/cobra"
)

const (
	name = "vmimon"

	usageMessage = `Monitor control register writes of a virtual machine.

Flags can also be provided via environment variable VMIMON_ARGS:
	VMIMON_ARGS="--driver=sim --debug" vmimon cr-events myvm

or via file ./.vmimon-args, with one argument per line. They are inserted right
after the subcommand.`
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type rootOptions struct {
	driver  driverOptions
	debug   bool
	noColor bool
}

func newRootCommand(cfg IO) *cobra.Command {
	opts := &rootOptions{
		driver: driverOptions{
			driverType: vmi.DriverTypeAuto,
			simVCPUs:   simVCPUsDefault,
			simRate:    simRateDefault,
		},
	}

	root := &cobra.Command{
		Use:           name,
		Short:         "Monitor control register writes of a virtual machine",
		Long:          usageMessage,
		Version:       version(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(cfg.Stderr, opts.debug)
		},
	}

	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)
	root.SetVersionTemplate("Version: {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ParseArgsError{msg: "flag parse", err: err}
	})

	flags := root.PersistentFlags()

	flags.Var(
		&opts.driver.driverType,
		"driver",
		"introspection driver: auto, sim, qmp. Auto uses qmp if a socket is "+
			"given, sim otherwise",
	)

	flags.StringVar(
		&opts.driver.socket,
		"socket",
		opts.driver.socket,
		"QMP socket path (default for qmp: "+defaultSocketPath("<VM_NAME>")+")",
	)

	flags.Var(
		&LimitedUintValue{
			Value: &opts.driver.simVCPUs,
			Lower: simVCPUsMin,
			Upper: simVCPUsMax,
		},
		"sim-vcpus",
		"number of VCPUs of the simulated VM",
	)

	flags.Float64Var(
		&opts.driver.simRate,
		"sim-rate",
		opts.driver.simRate,
		"control register writes per second and VCPU of the simulated VM",
	)

	flags.Uint64Var(
		&opts.driver.simSeed,
		"sim-seed",
		opts.driver.simSeed,
		"seed of the simulated VM (default random)",
	)

	flags.BoolVar(
		&opts.noColor,
		"no-color",
		opts.noColor,
		"disable colored output",
	)

	flags.BoolVar(
		&opts.debug,
		"debug",
		opts.debug,
		"enable debug output",
	)

	root.AddCommand(
		newCrEventsCommand(cfg, opts),
		newRegsDumpCommand(cfg, opts),
		newCheckCommand(cfg, opts),
	)

	return root
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := cobra.ExactArgs(n)(cmd, args)
		if err != nil {
			return &ParseArgsError{msg: cmd.Name(), err: err}
		}

		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := cobra.MaximumNArgs(n)(cmd, args)
		if err != nil {
			return &ParseArgsError{msg: cmd.Name(), err: err}
		}

		return nil
	}
}

func handleParseArgsError(err error, stderr io.Writer) int {
	fmt.Fprintf(stderr, "Error [%s]: %v\n", name, err)
	fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", name)

	return -1
}

func handleRunError(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, &ParseArgsError{}) {
		return handleParseArgsError(err, stderr)
	}

	fmt.Fprintf(stderr, "Error [%s]: %v\n", name, err)

	if intercept.IsResumeError(err) {
		fmt.Fprintf(stderr, "Warning [%s]: the VM may still be paused, "+
			"resume it manually\n", name)
	}

	return -1
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, false)

	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return handleRunError(&ParseArgsError{msg: "merge args", err: err}, cfg.Stderr)
	}

	root := newRootCommand(cfg)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)

	return handleRunError(err, cfg.Stderr)
}

func version() string {
	buildInfo, err := getBuildInfo()
	if err != nil {
		return "unknown"
	}

	if buildInfo.Main.Version == "" {
		return "(devel)"
	}

	return buildInfo.Main.Version
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}
