//go:build !linux || tinygo || baremetal

package tap

import "errors"

// Driver is a stub on platforms without a Linux TUN/TAP device; it compiles
// everywhere so code importing package tap builds on any host, but Open
// always fails.
type Driver struct{}

func Open(name string, hwAddr [6]byte) (*Driver, error) {
	return nil, errors.ErrUnsupported
}

func (d *Driver) Send(frame []byte) error        { return errors.ErrUnsupported }
func (d *Driver) Recv(buf []byte) (int, error)   { return 0, errors.ErrUnsupported }
func (d *Driver) MTU() int                        { return 0 }
func (d *Driver) HardwareAddress() [6]byte        { return [6]byte{} }
func (d *Driver) Name() string                    { return "" }
func (d *Driver) Close() error                    { return errors.ErrUnsupported }
