//go:build linux && !baremetal

// Package rawsock implements the [link.Driver] contract with an AF_PACKET
// raw socket bound to a named network interface, filtered to the EtherCAT
// EtherType so the kernel only ever hands the master EtherCAT traffic.
package rawsock

import (
	"errors"
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Driver is a [link.Driver] backed by an AF_PACKET socket bound to a real
// NIC, the transport EtherCAT masters use in production.
type Driver struct {
	fd    int
	name  string
	index int
	hwook [6]byte
	mtu   int
}

// htons converts a uint16 from host to network byte order.
func htons(i uint16) uint16 { return (i<<8)&0xff00 | i>>8 }

const etherTypeEtherCAT = 0x88A4

// Open binds a new Driver to the named network interface (e.g. "eth0").
// The caller typically needs CAP_NET_RAW or root to succeed.
func Open(name string) (*Driver, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("rawsock: %w", err)
	}
	proto := htons(etherTypeEtherCAT)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("rawsock: socket: %w", err)
	}
	sa := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: bind: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: nonblock: %w", err)
	}
	var hw [6]byte
	copy(hw[:], iface.HardwareAddr)
	mtu := iface.MTU
	if mtu < 1514 {
		mtu = 1514
	}
	return &Driver{fd: fd, name: iface.Name, index: iface.Index, hwook: hw, mtu: mtu}, nil
}

func (d *Driver) Send(frame []byte) error {
	n, err := unix.Write(d.fd, frame)
	if err != nil {
		return fmt.Errorf("rawsock: write: %w", err)
	}
	if n != len(frame) {
		return errors.New("rawsock: short write")
	}
	return nil
}

func (d *Driver) Recv(buf []byte) (int, error) {
	n, err := unix.Read(d.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, nil
		}
		return 0, fmt.Errorf("rawsock: read: %w", err)
	}
	return n, nil
}

func (d *Driver) MTU() int { return d.mtu }

func (d *Driver) HardwareAddress() [6]byte { return d.hwook }

func (d *Driver) Close() error { return unix.Close(d.fd) }

// ensure ifreq-sized struct availability check compiles on every linux arch;
// this codebase avoids ioctl entirely for this driver by sourcing MTU and
// hardware address from the standard library's net.Interface instead.
var _ = unsafe.Sizeof(unix.SockaddrLinklayer{})
