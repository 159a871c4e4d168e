package ecatsim

import (
	"errors"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/ethernet"
	"github.com/ecat-io/ethercat/pdu"
)

// Link is an in-memory link.Driver standing in for the physical segment: it
// decodes every outgoing frame's PDU datagrams, hands each to every
// attached Slave in turn (mirroring how a real segment's daisy chain lets
// every slave see every datagram), and queues the resulting frame for the
// next Recv, all within Send so no goroutine or real timing is involved.
type Link struct {
	slaves  []*Slave
	hwAddr  [6]byte
	mtu     int
	pending [][]byte
	closed  bool
}

// NewLink builds a Link serving slaves, in segment order (slaves[0] is
// first in the ring, matching its NewSlave position argument).
func NewLink(hwAddr [6]byte, mtu int, slaves ...*Slave) *Link {
	return &Link{slaves: slaves, hwAddr: hwAddr, mtu: mtu}
}

func (l *Link) MTU() int                 { return l.mtu }
func (l *Link) HardwareAddress() [6]byte { return l.hwAddr }
func (l *Link) Close() error             { l.closed = true; return nil }

var errClosed = errors.New("ecatsim: link closed")

// Send processes frame's PDU datagrams against every attached slave,
// setting each datagram's WKC to the sum of slave contributions, and
// queues the mutated frame for the next Recv call.
func (l *Link) Send(frame []byte) error {
	if l.closed {
		return errClosed
	}
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		return err
	}
	if efrm.EtherTypeOrSize() != ethernet.TypeEtherCAT {
		return nil // not ours, drop silently as real hardware would
	}
	body := efrm.Payload()[pdu.HeaderSize:]
	it := pdu.NewIterator(body)
	for {
		dg, ok := it.Next()
		if !ok {
			break
		}
		l.applyDatagram(dg)
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	l.pending = append(l.pending, out)
	return nil
}

func (l *Link) applyDatagram(dg pdu.Datagram) {
	cmd := dg.CommandInfo()
	payload := dg.Payload()
	isWrite := writesData(cmd.Type)
	var wkc uint16
	for _, s := range l.slaves {
		if s.matches(cmd) {
			wkc += s.apply(cmd, payload, isWrite)
		}
	}
	dg.SetWkc(wkc)
}

// writesData reports whether cmd's payload should be deposited into slave
// memory; the remaining command types only ever read.
func writesData(t ethercat.CommandType) bool {
	switch t {
	case ethercat.CmdAPWR, ethercat.CmdFPWR, ethercat.CmdBWR, ethercat.CmdLWR:
		return true
	default:
		return false
	}
}

// Recv returns the oldest queued reply frame, or (0, nil) if none is ready.
func (l *Link) Recv(buf []byte) (int, error) {
	if l.closed {
		return 0, errClosed
	}
	if len(l.pending) == 0 {
		return 0, nil
	}
	frame := l.pending[0]
	l.pending = l.pending[1:]
	return copy(buf, frame), nil
}
