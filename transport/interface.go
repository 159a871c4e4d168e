package transport

import (
	"errors"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/ethernet"
	"github.com/ecat-io/ethercat/link"
	"github.com/ecat-io/ethercat/pdu"
)

// ErrTooLarge is returned by AddPDU when the requested datagram would not
// fit within the current frame's MTU budget.
var ErrTooLarge = ethercat.ErrTooLarge

// Interface owns the single transmit buffer and round-robins the socket
// pool into it once per Poll call, the only suspension point in a cycle.
type Interface struct {
	link    link.Driver
	src     [6]byte
	mtu     int
	txbuf   []byte // whole ethernet frame, reused every cycle
	rxbuf   []byte
	used    int // bytes of ecat payload filled so far
	lastDG  int // buf offset of the last-written datagram header, -1 if none
	sockets []*Socket
	index   uint8
}

const ethernetHeaderLen = 14

// New constructs an Interface driving the given link with up to maxSockets
// sockets. The transmit and receive buffers are sized to the link's MTU.
func New(l link.Driver, maxSockets int) *Interface {
	mtu := l.MTU()
	iface := &Interface{
		link:  l,
		src:   l.HardwareAddress(),
		mtu:   mtu,
		txbuf: make([]byte, mtu),
		rxbuf: make([]byte, mtu),
	}
	iface.sockets = make([]*Socket, maxSockets)
	for i := range iface.sockets {
		iface.sockets[i] = &Socket{handle: uint8(i), buf: make([]byte, mtu)}
	}
	iface.reset()
	return iface
}

// Socket returns the socket at the given handle (0-indexed, < maxSockets).
func (ifc *Interface) Socket(handle int) *Socket { return ifc.sockets[handle] }

// NumSockets returns the size of the socket pool.
func (ifc *Interface) NumSockets() int { return len(ifc.sockets) }

func (ifc *Interface) reset() {
	ifc.used = 0
	ifc.lastDG = -1
	bcast := ethernet.BroadcastAddr()
	copy(ifc.txbuf[0:6], bcast[:])
	copy(ifc.txbuf[6:12], ifc.src[:])
	fr, _ := ethernet.NewFrame(ifc.txbuf)
	fr.SetEtherType(ethernet.TypeEtherCAT)
	hdr, _ := pdu.NewHeader(ifc.txbuf[ethernetHeaderLen:])
	hdr.SetType(pdu.TypePDU)
	hdr.SetLength(0)
}

// AddPDU reserves a datagram of dataLen bytes for the given command, tagged
// with the owning socket's handle, and fills its payload via fill (which may
// be nil for the initial write of a read-only command). It returns
// ErrTooLarge if the datagram would not fit within the frame's MTU budget.
func (ifc *Interface) AddPDU(handle uint8, cmd ethercat.Command, dataLen int, fill func([]byte)) error {
	total := pdu.DatagramHeaderSize + dataLen + pdu.WkcSize
	avail := ifc.mtu - ethernetHeaderLen - pdu.HeaderSize - ifc.used
	if total > avail {
		return ErrTooLarge
	}
	off := ethernetHeaderLen + pdu.HeaderSize + ifc.used
	dg, err := pdu.NewDatagram(ifc.txbuf[off : off+total])
	if err != nil {
		return err
	}
	dg.SetCommand(cmd.Type)
	dg.SetIndex(handle)
	dg.SetAdp(cmd.Adp)
	dg.SetAdo(cmd.Ado)
	dg.SetPayloadLength(uint16(dataLen))
	dg.SetHasNext(false)
	clear(dg.Payload())
	if fill != nil {
		fill(dg.Payload())
	}

	if ifc.lastDG >= 0 {
		prev, _ := pdu.NewDatagram(ifc.txbuf[ifc.lastDG:off])
		prev.SetHasNext(true)
	}
	ifc.lastDG = off
	ifc.used += total

	hdr, _ := pdu.NewHeader(ifc.txbuf[ethernetHeaderLen:])
	hdr.SetLength(uint16(ifc.used))
	return nil
}

// Poll packs every pending socket's request into the frame (round-robin,
// skipping any that don't fit this cycle), transmits if the frame is
// non-empty, and receives one reply frame, demultiplexing each returned PDU
// back into the socket matching its index. It returns false if there was
// nothing to send and nothing arrived.
func (ifc *Interface) Poll() (bool, error) {
	packed := false
	for _, s := range ifc.sockets {
		if !s.pending {
			continue
		}
		if err := ifc.AddPDU(s.handle, s.cmd, s.dataLen, s.fill); err != nil {
			if errors.Is(err, ErrTooLarge) {
				continue // backpressure: retry next cycle
			}
			return false, err
		}
		packed = true
	}
	if ifc.used == 0 {
		return false, nil
	}
	frameLen := ethernetHeaderLen + pdu.HeaderSize + ifc.used
	if err := ifc.link.Send(ifc.txbuf[:frameLen]); err != nil {
		ifc.reset()
		return false, err
	}
	ifc.reset()

	n, err := ifc.link.Recv(ifc.rxbuf)
	if err != nil {
		return packed, err
	}
	if n == 0 {
		return packed, nil
	}
	ifc.demux(ifc.rxbuf[:n])
	return true, nil
}

func (ifc *Interface) demux(frame []byte) {
	if len(frame) < ethernetHeaderLen+pdu.HeaderSize {
		return
	}
	fr, err := ethernet.NewFrame(frame)
	if err != nil || fr.EtherTypeOrSize() != ethernet.TypeEtherCAT {
		return
	}
	it := pdu.NewIterator(frame[ethernetHeaderLen+pdu.HeaderSize:])
	for {
		dg, ok := it.Next()
		if !ok {
			break
		}
		idx := int(dg.Index())
		if idx < 0 || idx >= len(ifc.sockets) {
			continue // unknown index, silently dropped
		}
		s := ifc.sockets[idx]
		if !s.pending || s.cmd.Type != dg.Command() {
			continue
		}
		s.deposit(dg.Payload(), dg.Wkc())
	}
}
