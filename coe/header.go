// Package coe implements the bit-exact codec for the CANopen-over-EtherCAT
// mailbox sub-header and the SDO request/response header it wraps.
package coe

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the size in bytes of the CoE header.
const HeaderSize = 2

var errShort = errors.New("coe: buffer too short")

// ServiceType enumerates the CoE service carried after the CoE header.
type ServiceType uint8

const (
	ServiceEmergency       ServiceType = 1
	ServiceSdoRequest      ServiceType = 2
	ServiceSdoResponse     ServiceType = 3
	ServiceTxPdo           ServiceType = 4
	ServiceRxPdo           ServiceType = 5
	ServiceTxPdoRemoteReq  ServiceType = 6
	ServiceRxPdoRemoteReq  ServiceType = 7
	ServiceSdoInfo         ServiceType = 8
)

// Header is a 2-byte view of the CoE header.
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

func (h Header) raw() uint16 { return binary.LittleEndian.Uint16(h.buf) }

// Number returns the 9-bit PDO/SDO number field (used by PDO services; zero
// for SDO request/response).
func (h Header) Number() uint16 { return h.raw() & 0x01FF }

// SetNumber sets the 9-bit number field.
func (h Header) SetNumber(n uint16) {
	v := h.raw()
	binary.LittleEndian.PutUint16(h.buf, v&^0x01FF|(n&0x01FF))
}

// Service returns the 4-bit CoE service type field.
func (h Header) Service() ServiceType { return ServiceType(h.raw() >> 12) }

// SetService sets the 4-bit CoE service type field.
func (h Header) SetService(s ServiceType) {
	v := h.raw()
	binary.LittleEndian.PutUint16(h.buf, v&0x0FFF|uint16(s)<<12)
}

// SdoHeaderSize is the size in bytes of the SDO request/response header.
const SdoHeaderSize = 4

// CommandSpecifier enumerates the SDO command/response kind carried in the
// top 3 bits of the SDO header's first byte.
type CommandSpecifier uint8

const (
	SdoDownloadSegment CommandSpecifier = 0
	SdoDownload        CommandSpecifier = 1
	SdoUpload          CommandSpecifier = 2
	SdoUploadSegment   CommandSpecifier = 3
	SdoAbort           CommandSpecifier = 4

	// SdoDownloadResponse is the server's success reply to an initiate
	// download request, numerically 3. The 3-bit specifier field is
	// direction-overloaded: as a client request, 3 means "upload segment
	// request" (SdoUploadSegment); as a server response, it means
	// "initiate download response". Check against this name, not
	// SdoDownload (1, the request-side specifier), when validating a
	// download's success reply.
	SdoDownloadResponse CommandSpecifier = 3
)

// SdoHeader is a 4-byte view of the SDO request/response header: 1-bit
// size_indicator, 1-bit transfer_type (expedited), 2-bit data_set_size,
// 1-bit complete_access, 3-bit command_specifier, 16-bit index, 8-bit
// sub_index.
type SdoHeader struct {
	buf []byte
}

// NewSdoHeader wraps buf, which must be at least SdoHeaderSize bytes.
func NewSdoHeader(buf []byte) (SdoHeader, error) {
	if len(buf) < SdoHeaderSize {
		return SdoHeader{}, errShort
	}
	return SdoHeader{buf: buf[:SdoHeaderSize]}, nil
}

// SizeIndicator reports whether the data_set_size field is meaningful
// (expedited transfer) or the complete size is carried in a separate
// 4-byte prefix (normal transfer).
func (s SdoHeader) SizeIndicator() bool { return s.buf[0]&0x01 != 0 }
func (s SdoHeader) SetSizeIndicator(v bool) { s.setFlagBit(0, 0x01, v) }

// TransferType reports whether the transfer is expedited (true, up to 4 data
// bytes in the field right after the SDO header, size given by DataSetSize) or normal
// (false, complete size is a 4-byte prefix followed by the payload).
func (s SdoHeader) TransferType() bool { return s.buf[0]&0x02 != 0 }
func (s SdoHeader) SetTransferType(v bool) { s.setFlagBit(0, 0x02, v) }

// DataSetSize returns the 2-bit field; for an expedited upload/download the
// number of unused trailing bytes is DataSetSize, so payload length is 4-DataSetSize.
func (s SdoHeader) DataSetSize() uint8 { return (s.buf[0] >> 2) & 0x03 }
func (s SdoHeader) SetDataSetSize(n uint8) {
	s.buf[0] = s.buf[0]&^(0x03<<2) | (n&0x03)<<2
}

// CompleteAccess reports whether the request addresses every sub-index of
// the object at once.
func (s SdoHeader) CompleteAccess() bool { return s.buf[0]&0x10 != 0 }
func (s SdoHeader) SetCompleteAccess(v bool) { s.setFlagBit(0, 0x10, v) }

// CommandSpecifier returns the 3-bit command/response kind.
func (s SdoHeader) CommandSpecifier() CommandSpecifier {
	return CommandSpecifier(s.buf[0] >> 5)
}
func (s SdoHeader) SetCommandSpecifier(cs CommandSpecifier) {
	s.buf[0] = s.buf[0]&0x1F | uint8(cs)<<5
}

func (s SdoHeader) setFlagBit(byteIdx int, mask uint8, v bool) {
	if v {
		s.buf[byteIdx] |= mask
	} else {
		s.buf[byteIdx] &^= mask
	}
}

// Index returns the CANopen object index.
func (s SdoHeader) Index() uint16 { return binary.LittleEndian.Uint16(s.buf[1:3]) }
func (s SdoHeader) SetIndex(idx uint16) { binary.LittleEndian.PutUint16(s.buf[1:3], idx) }

// SubIndex returns the CANopen object sub-index.
func (s SdoHeader) SubIndex() uint8 { return s.buf[3] }
func (s SdoHeader) SetSubIndex(sub uint8) { s.buf[3] = sub }

// ExpeditedPayloadLen returns the number of valid data bytes for an
// expedited (TransferType()==true) transfer, satisfying the invariant
// len == 4-DataSetSize.
func (s SdoHeader) ExpeditedPayloadLen() int { return 4 - int(s.DataSetSize()) }

// DataSetSizeForLen returns the DataSetSize value encoding an expedited
// payload of n bytes (1<=n<=4).
func DataSetSizeForLen(n int) uint8 { return uint8(4 - n) }
