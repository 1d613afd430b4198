// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qmp implements a [vmi.Driver] on top of a QEMU Machine Protocol
// monitor.
//
// QMP can pause and resume a VM, count its VCPUs and read their registers.
// It cannot intercept control register writes, so the event related parts of
// the driver return [vmi.ErrNotSupported].
package qmp
