// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "errors"

var (
	// ErrNoVCPUs is returned if the simulated VM has no VCPUs.
	ErrNoVCPUs = errors.New("at least one vcpu required")

	// ErrInvalidRate is returned for a negative event rate.
	ErrInvalidRate = errors.New("event rate must not be negative")
)
