// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

// CrFlag is a named single bit of a control register.
type CrFlag struct {
	Name string
	Bit  uint8
}

//nolint:gochecknoglobals
var (
	cr0Flags = []CrFlag{
		{"PE", 0}, {"MP", 1}, {"EM", 2}, {"TS", 3}, {"ET", 4}, {"NE", 5},
		{"WP", 16}, {"AM", 18}, {"NW", 29}, {"CD", 30}, {"PG", 31},
	}
	cr4Flags = []CrFlag{
		{"VME", 0}, {"PVI", 1}, {"TSD", 2}, {"DE", 3}, {"PSE", 4},
		{"PAE", 5}, {"MCE", 6}, {"PGE", 7}, {"PCE", 8}, {"OSFXSR", 9},
		{"OSXMMEXCPT", 10}, {"UMIP", 11}, {"LA57", 12}, {"VMXE", 13},
		{"SMXE", 14}, {"FSGSBASE", 16}, {"PCIDE", 17}, {"OSXSAVE", 18},
		{"SMEP", 20}, {"SMAP", 21}, {"PKE", 22}, {"CET", 23},
	}
)

// Flags returns the named flag bits of the register. CR3 has no flags of
// interest and returns nil.
func (c CrType) Flags() []CrFlag {
	switch c {
	case Cr0:
		return cr0Flags
	case Cr4:
		return cr4Flags
	default:
		return nil
	}
}

// FlagChanges returns the names of the flags set and cleared by a write
// from old to new.
func (e CrEvent) FlagChanges() (set, cleared []string) {
	changed := e.Old ^ e.New

	for _, flag := range e.Type.Flags() {
		mask := uint64(1) << flag.Bit
		if changed&mask == 0 {
			continue
		}

		if e.New&mask != 0 {
			set = append(set, flag.Name)
		} else {
			cleared = append(cleared, flag.Name)
		}
	}

	return set, cleared
}
