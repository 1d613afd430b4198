// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"strings"

	"github.com/aibor/vmimon/internal/vmi"
	"github.com/spf13/pflag"
)

var _ pflag.Value = (*crListValue)(nil)

// crListValue is a repeatable [pflag.Value] for control registers. The first
// Set replaces the default.
type crListValue struct {
	values  *[]vmi.CrType
	changed bool
}

func (c *crListValue) String() string {
	if c.values == nil {
		return "[]"
	}

	names := make([]string, 0, len(*c.values))
	for _, cr := range *c.values {
		text, _ := cr.MarshalText()
		names = append(names, strings.TrimPrefix(string(text), "cr"))
	}

	return "[" + strings.Join(names, ",") + "]"
}

func (c *crListValue) Set(s string) error {
	cr, err := vmi.ParseCrType(s)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if !c.changed {
		*c.values = nil
		c.changed = true
	}

	*c.values = append(*c.values, cr)

	return nil
}

func (*crListValue) Type() string {
	return "cr"
}
