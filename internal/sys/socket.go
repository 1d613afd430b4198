// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckSocket returns an error if path is not a unix socket the process may
// connect to.
func CheckSocket(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	var stat unix.Stat_t

	err := unix.Stat(path, &stat)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if stat.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return fmt.Errorf("%s: %w", path, ErrNotSocket)
	}

	err = unix.Access(path, unix.R_OK|unix.W_OK)
	if err != nil {
		return fmt.Errorf("access %s: %w", path, err)
	}

	return nil
}
