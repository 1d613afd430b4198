// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vmi

// Intercept selects the class of events a [Driver] traps for a VCPU.
//
// The set of implementations is closed. Use the constructor functions, like
// [InterceptCr], to create one.
type Intercept interface {
	isIntercept()
}

// CrIntercept traps writes to a control register.
type CrIntercept struct {
	Type CrType
}

func (CrIntercept) isIntercept() {}

// InterceptCr returns the [Intercept] for writes to the given register.
func InterceptCr(cr CrType) Intercept {
	return CrIntercept{Type: cr}
}
