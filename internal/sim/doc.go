// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sim provides an in-process simulated VM as [vmi.Driver].
//
// The simulated VCPUs write their control registers at a configurable rate.
// A write is only reported if its intercept is enabled on that VCPU and the
// VM is running. Like with a real introspection backend, a VCPU with an
// unacknowledged event does not run until the event is replied to.
package sim
