// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vmitest provides a scriptable [vmi.Driver] for tests.
package vmitest
