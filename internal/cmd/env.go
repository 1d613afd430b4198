// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
)

const (
	envArgsName     = "VMIMON_ARGS"
	localConfigFile = ".vmimon-args"
)

// EnvArgs returns vmimon arguments from the environment.
func EnvArgs() []string {
	return strings.Fields(os.Getenv(envArgsName))
}

// LocalConfigArgs returns vmimon arguments from a local config file.
//
// The file's format is one argument per line. Environment variables may be used
// and are expanded with [os.ExpandEnv].
func LocalConfigArgs(fsys fs.FS, file string) ([]string, error) {
	conf, err := fs.ReadFile(fsys, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read file: %w", err)
	}

	args := []string{}

	expandedConf := os.ExpandEnv(string(conf))
	for line := range strings.SplitSeq(expandedConf, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			args = append(args, line)
		}
	}

	return args, nil
}

// MergedArgs returns args with the arguments from the local config file and
// the environment added.
//
// They are inserted right after the subcommand, if args start with one, so
// subcommand flags can be given as well. Explicit arguments come last and
// win over the merged ones.
func MergedArgs(args []string, fsys fs.FS, file string) ([]string, error) {
	confArgs, err := LocalConfigArgs(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("local config %s: %w", file, err)
	}

	extra := slices.Concat(confArgs, EnvArgs())
	if len(extra) == 0 {
		return args, nil
	}

	pos := 0
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		pos = 1
	}

	return slices.Concat(args[:pos], extra, args[pos:]), nil
}
