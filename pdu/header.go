// Package pdu implements the bit-exact codec for the EtherCAT header and
// the PDU datagram headers embedded within an EtherCAT frame, plus an
// iterator over a frame's embedded datagrams.
package pdu

import (
	"encoding/binary"
	"errors"

	"github.com/ecat-io/ethercat"
)

// HeaderSize is the size in bytes of the EtherCAT frame header.
const HeaderSize = 2

// DatagramHeaderSize is the size in bytes of one PDU datagram header,
// excluding payload and trailing WKC.
const DatagramHeaderSize = 10

// WkcSize is the size in bytes of a PDU datagram's trailing working counter.
const WkcSize = 2

var errShort = errors.New("pdu: buffer too short")

// Header is a 2-byte view of the EtherCAT frame header: an 11-bit length
// field (the byte count of everything following the header), 1 reserved
// bit, and a 4-bit type field (1 for PDU frames).
type Header struct {
	buf []byte
}

// NewHeader wraps buf as an EtherCAT Header. buf must be at least
// HeaderSize bytes.
func NewHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errShort
	}
	return Header{buf: buf[:HeaderSize]}, nil
}

func (h Header) raw() uint16 { return binary.LittleEndian.Uint16(h.buf) }

// Length returns the 11-bit length field.
func (h Header) Length() uint16 { return h.raw() & 0x07FF }

// Type returns the 4-bit frame type field (1 = PDU frame).
func (h Header) Type() uint8 { return uint8(h.raw() >> 12) }

// SetLength sets the 11-bit length field, leaving type and reserved bits
// untouched.
func (h Header) SetLength(length uint16) {
	v := h.raw()
	v = v&^0x07FF | (length & 0x07FF)
	binary.LittleEndian.PutUint16(h.buf, v)
}

// SetType sets the 4-bit frame type field.
func (h Header) SetType(typ uint8) {
	v := h.raw()
	v = v&0x0FFF | uint16(typ)<<12
	binary.LittleEndian.PutUint16(h.buf, v)
}

// TypePDU is the EtherCAT frame type value for PDU frames.
const TypePDU uint8 = 1

// Datagram is a view over one PDU datagram: its 10-byte header, its payload,
// and its trailing 2-byte working counter.
type Datagram struct {
	buf []byte // header + payload + wkc
}

// NewDatagram wraps buf, which must hold exactly DatagramHeaderSize+payloadLen+WkcSize bytes.
func NewDatagram(buf []byte) (Datagram, error) {
	if len(buf) < DatagramHeaderSize+WkcSize {
		return Datagram{}, errShort
	}
	return Datagram{buf: buf}, nil
}

// Size returns the total size in bytes of this datagram (header+payload+wkc).
func (d Datagram) Size() int { return len(d.buf) }

// Command returns the EtherCAT command type.
func (d Datagram) Command() ethercat.CommandType { return ethercat.CommandType(d.buf[0]) }

// SetCommand sets the EtherCAT command type.
func (d Datagram) SetCommand(c ethercat.CommandType) { d.buf[0] = byte(c) }

// Index returns the 8-bit index field, used by the master to route replies
// back to the socket that issued the request.
func (d Datagram) Index() uint8 { return d.buf[1] }

// SetIndex sets the 8-bit index field.
func (d Datagram) SetIndex(idx uint8) { d.buf[1] = idx }

// Adp returns the first 16-bit address parameter.
func (d Datagram) Adp() uint16 { return binary.LittleEndian.Uint16(d.buf[2:4]) }

// SetAdp sets the first 16-bit address parameter.
func (d Datagram) SetAdp(v uint16) { binary.LittleEndian.PutUint16(d.buf[2:4], v) }

// Ado returns the second 16-bit address parameter.
func (d Datagram) Ado() uint16 { return binary.LittleEndian.Uint16(d.buf[4:6]) }

// SetAdo sets the second 16-bit address parameter.
func (d Datagram) SetAdo(v uint16) { binary.LittleEndian.PutUint16(d.buf[4:6], v) }

func (d Datagram) lengthField() uint16 { return binary.LittleEndian.Uint16(d.buf[6:8]) }

// PayloadLength returns the 11-bit payload length field.
func (d Datagram) PayloadLength() uint16 { return d.lengthField() & 0x07FF }

// SetPayloadLength sets the 11-bit payload length field.
func (d Datagram) SetPayloadLength(n uint16) {
	v := d.lengthField()
	v = v&^0x07FF | (n & 0x07FF)
	binary.LittleEndian.PutUint16(d.buf[6:8], v)
}

// Circulated reports whether the frame has circulated the full ring once.
func (d Datagram) Circulated() bool { return d.lengthField()&(1<<14) != 0 }

// SetCirculated sets the circulated flag.
func (d Datagram) SetCirculated(v bool) { d.setLenFlag(1<<14, v) }

// HasNext reports whether another datagram follows this one in the frame.
func (d Datagram) HasNext() bool { return d.lengthField()&(1<<15) != 0 }

// SetHasNext sets the has-next flag.
func (d Datagram) SetHasNext(v bool) { d.setLenFlag(1<<15, v) }

func (d Datagram) setLenFlag(mask uint16, v bool) {
	val := d.lengthField()
	if v {
		val |= mask
	} else {
		val &^= mask
	}
	binary.LittleEndian.PutUint16(d.buf[6:8], val)
}

// Irq returns the 16-bit interrupt request field.
func (d Datagram) Irq() uint16 { return binary.LittleEndian.Uint16(d.buf[8:10]) }

// SetIrq sets the 16-bit interrupt request field.
func (d Datagram) SetIrq(v uint16) { binary.LittleEndian.PutUint16(d.buf[8:10], v) }

// Payload returns the datagram's payload slice, whose length is PayloadLength().
func (d Datagram) Payload() []byte {
	n := int(d.PayloadLength())
	return d.buf[DatagramHeaderSize : DatagramHeaderSize+n]
}

// Wkc returns the trailing working counter.
func (d Datagram) Wkc() uint16 {
	n := int(d.PayloadLength())
	return binary.LittleEndian.Uint16(d.buf[DatagramHeaderSize+n : DatagramHeaderSize+n+2])
}

// SetWkc sets the trailing working counter.
func (d Datagram) SetWkc(wkc uint16) {
	n := int(d.PayloadLength())
	binary.LittleEndian.PutUint16(d.buf[DatagramHeaderSize+n:DatagramHeaderSize+n+2], wkc)
}

// CommandInfo returns the addressing triple (type, adp, ado) as an
// [ethercat.Command], the form tasks compare replies against.
func (d Datagram) CommandInfo() ethercat.Command {
	return ethercat.Command{Type: d.Command(), Adp: d.Adp(), Ado: d.Ado()}
}
