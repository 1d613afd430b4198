// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Arch is a CPU architecture.
type Arch string

// Known architectures.
const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

// Native is the architecture of the host.
const Native Arch = Arch(runtime.GOARCH)

// KVMDevice is the path of the KVM control device.
const KVMDevice = "/dev/kvm"

// kvmGetAPIVersion is the KVM_GET_API_VERSION ioctl request.
const kvmGetAPIVersion = 0xae00

// String implements [fmt.Stringer].
func (a Arch) String() string {
	return string(a)
}

// HasControlRegisters returns true if the architecture has the x86 control
// registers vmimon intercepts.
func (a Arch) HasControlRegisters() bool {
	return a == AMD64
}

// KVMAPIVersion opens the KVM device at path and returns its API version.
func KVMAPIVersion(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	version, err := unix.IoctlRetInt(fd, kvmGetAPIVersion)
	if err != nil {
		return 0, fmt.Errorf("get KVM API version: %w", err)
	}

	return version, nil
}

// KVMAvailable checks if the KVM device is present and writable.
func KVMAvailable() bool {
	return unix.Access(KVMDevice, unix.W_OK) == nil
}
