// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

import (
	"fmt"
	"strings"
)

// CrType identifies an x86 control register whose writes can be intercepted.
type CrType uint8

// Interceptable control registers.
const (
	Cr0 CrType = iota
	Cr3
	Cr4
)

// CrTypes returns all known control registers.
func CrTypes() []CrType {
	return []CrType{Cr0, Cr3, Cr4}
}

// String implements [fmt.Stringer].
func (c CrType) String() string {
	switch c {
	case Cr0:
		return "Cr0"
	case Cr3:
		return "Cr3"
	case Cr4:
		return "Cr4"
	default:
		return fmt.Sprintf("CrType(%d)", uint8(c))
	}
}

// Valid returns true if c is one of the known control registers.
func (c CrType) Valid() bool {
	return c == Cr0 || c == Cr3 || c == Cr4
}

// ParseCrType parses a control register selector.
//
// Accepted are the register numbers "0", "3" and "4", optionally prefixed
// with "cr" in any case.
func ParseCrType(s string) (CrType, error) {
	switch strings.TrimPrefix(strings.ToLower(s), "cr") {
	case "0":
		return Cr0, nil
	case "3":
		return Cr3, nil
	case "4":
		return Cr4, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidCrType)
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (c CrType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrInvalidCrType
	}

	return []byte(strings.ToLower(c.String())), nil
}
