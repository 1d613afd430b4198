// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package intercept enables and disables control register intercepts on all
// VCPUs of a VM.
//
// Every change is done in a bracket: the VM is paused, the intercepts are
// toggled and the VM is resumed again. Resume is attempted in any case once
// the VM has been paused, so the VM is never left paused by a failing toggle.
package intercept
