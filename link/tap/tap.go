//go:build linux && !baremetal

// Package tap implements the [link.Driver] contract over a Linux TUN/TAP
// character device, the usual way to exercise an EtherCAT master against a
// software-simulated segment without owning a physical NIC.
package tap

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	ifNameSize = 16
	ifReqSize  = 40
	tunDevPath = "/dev/net/tun"
)

// Driver is a [link.Driver] backed by a Linux TAP device.
type Driver struct {
	fd   int
	name string
	hw   [6]byte
	mtu  int
}

// Open creates or attaches to the named TAP device (e.g. "ecat0"). The
// caller typically needs CAP_NET_ADMIN or root to succeed. hwAddr, if
// non-zero, is reported by HardwareAddress; a TAP device carries no
// hardware address of its own the way a physical NIC does.
func Open(name string, hwAddr [6]byte) (*Driver, error) {
	fd, err := unix.Open(tunDevPath, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("tap: open %s: %w", tunDevPath, err)
	}
	var ifr [ifReqSize]byte
	copy(ifr[:ifNameSize], name)
	// IFF_TAP | IFF_NO_PI: raw Ethernet frames, no additional packet info
	// header prepended by the kernel.
	flags := uint16(unix.IFF_TAP | unix.IFF_NO_PI)
	ifr[ifNameSize] = byte(flags)
	ifr[ifNameSize+1] = byte(flags >> 8)

	if err := ioctlIfreq(fd, unix.TUNSETIFF, &ifr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tap: TUNSETIFF: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tap: set nonblock: %w", err)
	}
	actualName := string(ifr[:ifNameSize])
	if i := indexByte(actualName, 0); i >= 0 {
		actualName = actualName[:i]
	}
	return &Driver{fd: fd, name: actualName, hw: hwAddr, mtu: 1514}, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func (d *Driver) Send(frame []byte) error {
	n, err := unix.Write(d.fd, frame)
	if err != nil {
		return fmt.Errorf("tap: write: %w", err)
	}
	if n != len(frame) {
		return errors.New("tap: short write")
	}
	return nil
}

func (d *Driver) Recv(buf []byte) (int, error) {
	n, err := unix.Read(d.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, nil
		}
		return 0, fmt.Errorf("tap: read: %w", err)
	}
	return n, nil
}

func (d *Driver) MTU() int { return d.mtu }

func (d *Driver) HardwareAddress() [6]byte { return d.hw }

func (d *Driver) Name() string { return d.name }

func (d *Driver) Close() error { return unix.Close(d.fd) }
