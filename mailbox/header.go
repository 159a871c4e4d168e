// Package mailbox implements the bit-exact codec for the EtherCAT mailbox
// header: the envelope carrying CoE/AoE/EoE/FoE/SoE/VoE payloads between
// master and slave over a sync-manager-backed acyclic channel.
package mailbox

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the size in bytes of the mailbox header.
const HeaderSize = 6

var errShort = errors.New("mailbox: buffer too short")

// Type enumerates the mailbox protocol carried in a mailbox frame's payload.
type Type uint8

const (
	TypeError Type = 0
	TypeAoE   Type = 1
	TypeEoE   Type = 2
	TypeCoE   Type = 3
	TypeFoE   Type = 4
	TypeSoE   Type = 5
	TypeVoE   Type = 0xF
)

func (t Type) String() string {
	switch t {
	case TypeError:
		return "Error"
	case TypeAoE:
		return "AoE"
	case TypeEoE:
		return "EoE"
	case TypeCoE:
		return "CoE"
	case TypeFoE:
		return "FoE"
	case TypeSoE:
		return "SoE"
	case TypeVoE:
		return "VoE"
	default:
		return "Type(unknown)"
	}
}

// Header is a 6-byte view of the mailbox header.
type Header struct {
	buf []byte
}

// NewHeader wraps buf, which must be at least HeaderSize bytes.
func NewHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errShort
	}
	return Header{buf: buf[:HeaderSize]}, nil
}

// Length returns the mailbox payload length (bytes following the header).
func (h Header) Length() uint16 { return binary.LittleEndian.Uint16(h.buf[0:2]) }

// SetLength sets the mailbox payload length.
func (h Header) SetLength(n uint16) { binary.LittleEndian.PutUint16(h.buf[0:2], n) }

// Address returns the mailbox source/destination station address.
func (h Header) Address() uint16 { return binary.LittleEndian.Uint16(h.buf[2:4]) }

// SetAddress sets the mailbox source/destination station address.
func (h Header) SetAddress(v uint16) { binary.LittleEndian.PutUint16(h.buf[2:4], v) }

// Priority returns the 2-bit priority field.
func (h Header) Priority() uint8 { return h.buf[4] >> 6 }

// SetPriority sets the 2-bit priority field.
func (h Header) SetPriority(p uint8) { h.buf[4] = h.buf[4]&0x3F | (p&0x3)<<6 }

// MailboxType returns the 4-bit protocol type field.
func (h Header) MailboxType() Type { return Type(h.buf[5] & 0x0F) }

// SetMailboxType sets the 4-bit protocol type field.
func (h Header) SetMailboxType(t Type) { h.buf[5] = h.buf[5]&0xF0 | uint8(t)&0x0F }

// Count returns the 3-bit monotonic toggle count, in [0,7]. A count of 0
// observed on the wire denotes "not yet used"; valid in-use counts cycle
// 1..7.
func (h Header) Count() uint8 { return (h.buf[5] >> 4) & 0x07 }

// SetCount sets the 3-bit monotonic toggle count.
func (h Header) SetCount(c uint8) { h.buf[5] = h.buf[5]&0x8F | (c&0x07)<<4 }

// NextCount returns the next toggle count following c, wrapping 7 back to 1.
// The count is never 0 once a mailbox exchange is underway.
func NextCount(c uint8) uint8 {
	if c == 0 || c >= 7 {
		return 1
	}
	return c + 1
}

// Payload returns the mailbox payload slice following the header, sized by
// buf's remaining length (callers size buf to Length()+HeaderSize before
// calling this).
func (h Header) Payload(buf []byte) []byte { return buf[HeaderSize:] }

// ErrorResponse is a 4-byte payload carried by a mailbox frame whose type
// is TypeError.
type ErrorResponse struct {
	buf []byte
}

// ErrorResponseSize is the size in bytes of an ErrorResponse payload.
const ErrorResponseSize = 4

// NewErrorResponse wraps buf, which must be at least ErrorResponseSize bytes.
func NewErrorResponse(buf []byte) (ErrorResponse, error) {
	if len(buf) < ErrorResponseSize {
		return ErrorResponse{}, errShort
	}
	return ErrorResponse{buf: buf[:ErrorResponseSize]}, nil
}

// ServiceType returns the mailbox service type the error refers to.
func (e ErrorResponse) ServiceType() uint16 { return binary.LittleEndian.Uint16(e.buf[0:2]) }

// Detail returns the 16-bit error detail code.
func (e ErrorResponse) Detail() uint16 { return binary.LittleEndian.Uint16(e.buf[2:4]) }

// Detail codes for mailbox ErrorResponse, per ETG.1000.
const (
	DetailUnspecified        uint16 = 0x0000
	DetailSyntax             uint16 = 0x0001
	DetailUnsupportedProtocol uint16 = 0x0002
	DetailInvalidChannel     uint16 = 0x0003
	DetailServiceNotSupported uint16 = 0x0004
	DetailInvalidHeader      uint16 = 0x0005
	DetailSizeTooShort       uint16 = 0x0006
	DetailNoMoreMemory       uint16 = 0x0007
	DetailInvalidSize        uint16 = 0x0008
)
