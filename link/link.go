// Package link specifies the raw layer-2 send/receive device contract the
// PDU interface drives, and is the home for concrete link driver
// implementations in its sub-packages (rawsock, tap, loopback).
package link

// Driver is the external collaborator that moves whole Ethernet frames to
// and from the wire. Implementations never block longer than their
// underlying transport does; Recv returning (0, nil) means "no frame
// available right now", not an error.
type Driver interface {
	// Send transmits frame verbatim. It must write exactly len(frame)
	// bytes or return a non-nil error.
	Send(frame []byte) error
	// Recv reads the next available frame into buf, returning the number
	// of bytes written. It returns (0, nil) if no frame is currently
	// available rather than blocking indefinitely, so the master's single
	// suspension point stays bounded.
	Recv(buf []byte) (n int, err error)
	// MTU returns the maximum frame size this driver can carry, at least
	// 1514 for standard Ethernet.
	MTU() int
	// HardwareAddress returns the driver's own MAC address, used as the
	// Ethernet source address the master stamps on outgoing frames.
	HardwareAddress() [6]byte
	// Close releases any underlying OS resources.
	Close() error
}
