// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/aibor/vmimon/internal/vmi"
)

//nolint:gochecknoglobals
var (
	registerRegexp = regexp.MustCompile(`\b([A-Z][A-Z0-9]*)\s*=([0-9a-f]+)\b`)
	segmentRegexp  = regexp.MustCompile(`(?m)^([FG]S)\s*=[0-9a-f]+ ([0-9a-f]+) `)
)

// parseRegisters parses the output of the "info registers" monitor command.
func parseRegisters(output string) (*vmi.Registers, error) {
	regs := &vmi.Registers{}

	fields := map[string]*uint64{
		"RAX": &regs.RAX, "RBX": &regs.RBX, "RCX": &regs.RCX, "RDX": &regs.RDX,
		"RSI": &regs.RSI, "RDI": &regs.RDI, "RSP": &regs.RSP, "RBP": &regs.RBP,
		"R8": &regs.R8, "R9": &regs.R9, "R10": &regs.R10, "R11": &regs.R11,
		"R12": &regs.R12, "R13": &regs.R13, "R14": &regs.R14, "R15": &regs.R15,
		"RIP": &regs.RIP, "RFL": &regs.RFLAGS,
		"CR0": &regs.CR0, "CR2": &regs.CR2, "CR3": &regs.CR3, "CR4": &regs.CR4,
		"EFER": &regs.EFER,
	}

	found := 0

	for _, match := range registerRegexp.FindAllStringSubmatch(output, -1) {
		field, exists := fields[match[1]]
		if !exists {
			continue
		}

		value, err := strconv.ParseUint(match[2], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRegisterParse, match[1], err)
		}

		*field = value
		found++
	}

	if found == 0 {
		return nil, fmt.Errorf("%w: no known register in output", ErrRegisterParse)
	}

	for _, match := range segmentRegexp.FindAllStringSubmatch(output, -1) {
		value, err := strconv.ParseUint(match[2], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s base: %w", ErrRegisterParse, match[1], err)
		}

		if match[1] == "FS" {
			regs.FSBase = value
		} else {
			regs.GSBase = value
		}
	}

	return regs, nil
}
