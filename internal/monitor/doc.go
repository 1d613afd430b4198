// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package monitor runs a single control register monitoring session.
//
// A [Session] enables the intercepts, drains and acknowledges events until
// its context is cancelled or a fatal error occurs, disables the intercepts
// again and emits a [Report].
package monitor
