// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Registers is the x86-64 register state of a single VCPU.
type Registers struct {
	RAX    uint64
	RBX    uint64
	RCX    uint64
	RDX    uint64
	RSI    uint64
	RDI    uint64
	RSP    uint64
	RBP    uint64
	R8     uint64
	R9     uint64
	R10    uint64
	R11    uint64
	R12    uint64
	R13    uint64
	R14    uint64
	R15    uint64
	RIP    uint64
	RFLAGS uint64
	CR0    uint64
	CR2    uint64
	CR3    uint64
	CR4    uint64
	EFER   uint64
	FSBase uint64
	GSBase uint64
}

// Cr returns the value of the given control register.
func (r *Registers) Cr(cr CrType) uint64 {
	switch cr {
	case Cr0:
		return r.CR0
	case Cr3:
		return r.CR3
	case Cr4:
		return r.CR4
	default:
		return 0
	}
}

// SetCr sets the value of the given control register.
func (r *Registers) SetCr(cr CrType, value uint64) {
	switch cr {
	case Cr0:
		r.CR0 = value
	case Cr3:
		r.CR3 = value
	case Cr4:
		r.CR4 = value
	}
}

// Fields returns name and value of all registers in a stable order.
func (r *Registers) Fields() []RegisterField {
	return []RegisterField{
		{"rax", r.RAX}, {"rbx", r.RBX}, {"rcx", r.RCX}, {"rdx", r.RDX},
		{"rsi", r.RSI}, {"rdi", r.RDI}, {"rsp", r.RSP}, {"rbp", r.RBP},
		{"r8", r.R8}, {"r9", r.R9}, {"r10", r.R10}, {"r11", r.R11},
		{"r12", r.R12}, {"r13", r.R13}, {"r14", r.R14}, {"r15", r.R15},
		{"rip", r.RIP}, {"rflags", r.RFLAGS},
		{"cr0", r.CR0}, {"cr2", r.CR2}, {"cr3", r.CR3}, {"cr4", r.CR4},
		{"efer", r.EFER}, {"fs_base", r.FSBase}, {"gs_base", r.GSBase},
	}
}

// RegisterField is a single named register value.
type RegisterField struct {
	Name  string
	Value uint64
}

// WriteTo writes all registers as aligned hex values to w. It implements
// [io.WriterTo].
func (r *Registers) WriteTo(w io.Writer) (int64, error) {
	counter := &countingWriter{w: w}
	tw := tabwriter.NewWriter(counter, 0, 0, 1, ' ', 0)

	for _, field := range r.Fields() {
		_, err := fmt.Fprintf(tw, "%s:\t%#018x\n", field.Name, field.Value)
		if err != nil {
			return counter.n, fmt.Errorf("write: %w", err)
		}
	}

	err := tw.Flush()
	if err != nil {
		return counter.n, fmt.Errorf("flush: %w", err)
	}

	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err //nolint:wrapcheck
}
