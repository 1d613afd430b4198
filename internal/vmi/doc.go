// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vmi defines the contract between vmimon and a virtual machine
// introspection backend.
//
// A [Driver] is exclusively owned by a single monitoring session. It provides
// VM control (pause, resume), per VCPU intercept configuration and the event
// primitives (poll, reply). Every event received with [Driver.PollEvent] must
// be acknowledged with [Driver.ReplyEvent] exactly once, or the VCPU that
// caused it stays blocked.
package vmi
