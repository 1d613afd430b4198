// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import "errors"

var (
	// ErrUnexpectedResponse is returned for a response without a return
	// value.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrRegisterParse is returned if register output can not be parsed.
	ErrRegisterParse = errors.New("failed to parse registers")
)
