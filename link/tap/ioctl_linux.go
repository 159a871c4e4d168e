//go:build linux && !baremetal

package tap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctlIfreq issues an ifreq-shaped ioctl, the one piece of this driver
// golang.org/x/sys/unix has no typed wrapper for.
func ioctlIfreq(fd int, req uint, ifr *[ifReqSize]byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(unsafe.Pointer(ifr)))
	if errno != 0 {
		return errno
	}
	return nil
}
