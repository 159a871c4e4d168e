// Package loopback provides an in-memory [link.Driver] pair with no
// underlying OS device, used to exercise the master against a simulated
// slave segment in tests without root privileges or a real NIC.
package loopback

import "errors"

var errClosed = errors.New("loopback: driver closed")

// Pair returns two connected Driver ends: frames sent on a are received on
// b and vice versa, in FIFO order.
func Pair(hwA, hwB [6]byte, mtu int) (a, b *Driver) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a = &Driver{send: ab, recv: ba, hw: hwA, mtu: mtu}
	b = &Driver{send: ba, recv: ab, hw: hwB, mtu: mtu}
	return a, b
}

// Driver is one end of an in-memory loopback link.
type Driver struct {
	send   chan []byte
	recv   chan []byte
	hw     [6]byte
	mtu    int
	closed bool
}

func (d *Driver) Send(frame []byte) error {
	if d.closed {
		return errClosed
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	select {
	case d.send <- cp:
		return nil
	default:
		return errors.New("loopback: send queue full")
	}
}

func (d *Driver) Recv(buf []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	select {
	case frame := <-d.recv:
		n := copy(buf, frame)
		return n, nil
	default:
		return 0, nil
	}
}

func (d *Driver) MTU() int { return d.mtu }

func (d *Driver) HardwareAddress() [6]byte { return d.hw }

func (d *Driver) Close() error {
	d.closed = true
	return nil
}
