// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/aibor/vmimon/internal/vmi"
	"github.com/fatih/color"
)

// Printer writes the human readable output of a session.
type Printer struct {
	out     io.Writer
	verbose bool

	seq      *color.Color
	vcpu     *color.Color
	register map[vmi.CrType]*color.Color
	faint    *color.Color
}

// NewPrinter creates a new [Printer] writing to out.
//
// If colored is false, no escape sequences are written, regardless of the
// global [color.NoColor] detection. If verbose is true, event records carry
// the old register value and the flags changed by the write.
func NewPrinter(out io.Writer, colored, verbose bool) *Printer {
	printer := &Printer{
		out:     out,
		verbose: verbose,
		seq:     color.New(color.FgCyan),
		vcpu:    color.New(color.FgYellow),
		register: map[vmi.CrType]*color.Color{
			vmi.Cr0: color.New(color.FgBlue),
			vmi.Cr3: color.New(color.FgGreen),
			vmi.Cr4: color.New(color.FgRed),
		},
		faint: color.New(color.Faint),
	}

	for _, c := range printer.colors() {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return printer
}

func (p *Printer) colors() []*color.Color {
	colors := []*color.Color{p.seq, p.vcpu, p.faint}
	for _, c := range p.register {
		colors = append(colors, c)
	}

	return colors
}

// Status returns the writer status lines are written to.
func (p *Printer) Status() io.Writer {
	return p.out
}

// CrEvent writes the record of a control register write.
func (p *Printer) CrEvent(seq uint64, vcpu uint32, event vmi.CrEvent) {
	crColor, exists := p.register[event.Type]
	if !exists {
		crColor = p.faint
	}

	var line strings.Builder

	fmt.Fprintf(&line, "[%s] %s - %s: 0x%x",
		p.seq.Sprint(seq),
		p.vcpu.Sprintf("VCPU %d", vcpu),
		crColor.Sprint(event.Type),
		event.New,
	)

	if p.verbose {
		fmt.Fprintf(&line, " %s", p.faint.Sprintf("(old 0x%x)", event.Old))

		set, cleared := event.FlagChanges()
		for _, name := range set {
			line.WriteString(" +" + name)
		}

		for _, name := range cleared {
			line.WriteString(" -" + name)
		}
	}

	fmt.Fprintln(p.out, line.String())
}

// Report writes the session summary. If verbose, the per register and per
// VCPU counters follow the summary line.
func (p *Printer) Report(report Report) {
	fmt.Fprintln(p.out, report.String())

	if !p.verbose {
		return
	}

	fmt.Fprintf(p.out, "  empty polls: %d\n", report.EmptyPolls)

	for _, cr := range report.Registers() {
		fmt.Fprintf(p.out, "  %s: %d\n", cr, report.PerRegister[cr])
	}

	for _, vcpu := range report.VCPUs() {
		fmt.Fprintf(p.out, "  VCPU %d: %d\n", vcpu, report.PerVCPU[vcpu])
	}
}
