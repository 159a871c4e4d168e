package task

import (
	"encoding/binary"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/coe"
	"github.com/ecat-io/ethercat/mailbox"
)

// MailboxAddrs groups the four addresses a mailbox exchange needs: the
// mailbox-out (master writes, slave reads) and mailbox-in (slave writes,
// master reads) sync manager control blocks and buffer physical addresses.
type MailboxAddrs struct {
	SmOut, MbxOut uint16
	SmIn, MbxIn   uint16
}

const sdoHeaderFrameSize = mailbox.HeaderSize + coe.HeaderSize + coe.SdoHeaderSize

type sdoPhase uint8

const (
	sdoPhaseWrite sdoPhase = iota
	sdoPhaseRead
	sdoPhaseDone
)

// SdoUpload reads a CANopen object dictionary entry over CoE. It is a
// tagged union of a MailboxWrite sub-task (the request) followed by a
// MailboxRead sub-task (the response), never a dynamically dispatched
// interface value, so the whole task stays a fixed-size state machine.
type SdoUpload struct {
	addrs MailboxAddrs
	frame [sdoHeaderFrameSize]byte
	respBuf []byte

	phase sdoPhase
	write *MailboxWrite
	read  *MailboxRead

	data []byte
	err  error
}

// NewSdoUpload builds a task uploading index:subIndex from target. respBuf
// must be sized for the largest expected response (header+payload); a
// typical choice is 64 bytes for expedited/small SDOs.
func NewSdoUpload(target ethercat.TargetSlave, addrs MailboxAddrs, index uint16, subIndex uint8, count *uint8, respBuf []byte) *SdoUpload {
	t := &SdoUpload{addrs: addrs, respBuf: respBuf}
	hdr, _ := mailbox.NewHeader(t.frame[:])
	hdr.SetLength(coe.HeaderSize + coe.SdoHeaderSize)
	hdr.SetAddress(0)
	hdr.SetPriority(0)
	hdr.SetMailboxType(mailbox.TypeCoE)
	ch, _ := coe.NewHeader(t.frame[mailbox.HeaderSize:])
	ch.SetService(coe.ServiceSdoRequest)
	sh, _ := coe.NewSdoHeader(t.frame[mailbox.HeaderSize+coe.HeaderSize:])
	sh.SetCommandSpecifier(coe.SdoUpload)
	sh.SetSizeIndicator(false)
	sh.SetTransferType(false)
	sh.SetCompleteAccess(false)
	sh.SetIndex(index)
	sh.SetSubIndex(subIndex)
	t.write = NewMailboxWrite(target, addrs.SmOut, addrs.MbxOut, t.frame[:], count)
	t.read = NewMailboxRead(target, addrs.SmIn, addrs.MbxIn, respBuf)
	return t
}

// Data returns the uploaded object data once the task finishes successfully.
func (t *SdoUpload) Data() []byte { return t.data }

func (t *SdoUpload) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	switch t.phase {
	case sdoPhaseWrite:
		return t.write.NextPDU()
	case sdoPhaseRead:
		return t.read.NextPDU()
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *SdoUpload) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	switch t.phase {
	case sdoPhaseWrite:
		t.write.ReceiveAndProcess(data, wkc, now)
		if !t.write.IsFinished() {
			return
		}
		if err := t.write.Err(); err != nil {
			t.err = err
			t.phase = sdoPhaseDone
			return
		}
		t.phase = sdoPhaseRead
	case sdoPhaseRead:
		t.read.ReceiveAndProcess(data, wkc, now)
		if !t.read.IsFinished() {
			return
		}
		if err := t.read.Err(); err != nil {
			t.err = err
			t.phase = sdoPhaseDone
			return
		}
		t.finishRead()
	}
}

func (t *SdoUpload) finishRead() {
	t.phase = sdoPhaseDone
	resp := t.respBuf[:t.read.N()]
	sh, err := coe.NewSdoHeader(resp[mailbox.HeaderSize+coe.HeaderSize:])
	if err != nil {
		t.err = ethercat.ErrBufferSmall
		return
	}
	switch sh.CommandSpecifier() {
	case coe.SdoUpload:
		payload := resp[mailbox.HeaderSize+coe.HeaderSize+coe.SdoHeaderSize:]
		if sh.TransferType() {
			t.data = payload[:sh.ExpeditedPayloadLen()]
			return
		}
		if len(payload) < 4 {
			t.err = ethercat.ErrBufferSmall
			return
		}
		n := binary.LittleEndian.Uint32(payload[:4])
		t.data = payload[4 : 4+n]
	case coe.SdoAbort:
		payload := resp[mailbox.HeaderSize+coe.HeaderSize+coe.SdoHeaderSize:]
		t.err = &ethercat.AbortCodeError{Code: binary.LittleEndian.Uint32(payload[:4])}
	default:
		t.err = ethercat.ErrUnexpectedCommandSpecifier
	}
}

func (t *SdoUpload) IsFinished() bool { return t.phase == sdoPhaseDone }
func (t *SdoUpload) Err() error        { return t.err }

// SdoDownload writes a CANopen object dictionary entry over CoE, symmetric
// to SdoUpload: request is a normal transfer (a 4-byte complete size
// followed by the data) and the response's command specifier must be SdoDownloadResponse (3, not the
// request-side SdoDownload) to indicate success.
type SdoDownload struct {
	frame   []byte
	respBuf []byte

	phase sdoPhase
	write *MailboxWrite
	read  *MailboxRead

	err error
}

// NewSdoDownload builds a task downloading data (normal transfer) to
// index:subIndex on target.
func NewSdoDownload(target ethercat.TargetSlave, addrs MailboxAddrs, index uint16, subIndex uint8, data []byte, count *uint8, respBuf []byte) *SdoDownload {
	n := len(data)
	frame := make([]byte, sdoHeaderFrameSize+4+n)
	hdr, _ := mailbox.NewHeader(frame)
	hdr.SetLength(uint16(coe.HeaderSize + coe.SdoHeaderSize + 4 + n))
	hdr.SetAddress(0)
	hdr.SetPriority(0)
	hdr.SetMailboxType(mailbox.TypeCoE)
	ch, _ := coe.NewHeader(frame[mailbox.HeaderSize:])
	ch.SetService(coe.ServiceSdoRequest)
	sh, _ := coe.NewSdoHeader(frame[mailbox.HeaderSize+coe.HeaderSize:])
	sh.SetCommandSpecifier(coe.SdoDownload)
	sh.SetSizeIndicator(true)
	sh.SetTransferType(false)
	sh.SetCompleteAccess(false)
	sh.SetIndex(index)
	sh.SetSubIndex(subIndex)
	binary.LittleEndian.PutUint32(frame[sdoHeaderFrameSize:], uint32(n))
	copy(frame[sdoHeaderFrameSize+4:], data)

	t := &SdoDownload{frame: frame, respBuf: respBuf}
	t.write = NewMailboxWrite(target, addrs.SmOut, addrs.MbxOut, frame, count)
	t.read = NewMailboxRead(target, addrs.SmIn, addrs.MbxIn, respBuf)
	return t
}

func (t *SdoDownload) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	switch t.phase {
	case sdoPhaseWrite:
		return t.write.NextPDU()
	case sdoPhaseRead:
		return t.read.NextPDU()
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *SdoDownload) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	switch t.phase {
	case sdoPhaseWrite:
		t.write.ReceiveAndProcess(data, wkc, now)
		if !t.write.IsFinished() {
			return
		}
		if err := t.write.Err(); err != nil {
			t.err = err
			t.phase = sdoPhaseDone
			return
		}
		t.phase = sdoPhaseRead
	case sdoPhaseRead:
		t.read.ReceiveAndProcess(data, wkc, now)
		if !t.read.IsFinished() {
			return
		}
		if err := t.read.Err(); err != nil {
			t.err = err
			t.phase = sdoPhaseDone
			return
		}
		t.finishRead()
	}
}

func (t *SdoDownload) finishRead() {
	t.phase = sdoPhaseDone
	resp := t.respBuf[:t.read.N()]
	sh, err := coe.NewSdoHeader(resp[mailbox.HeaderSize+coe.HeaderSize:])
	if err != nil {
		t.err = ethercat.ErrBufferSmall
		return
	}
	switch sh.CommandSpecifier() {
	case coe.SdoDownloadResponse:
		// success
	case coe.SdoAbort:
		payload := resp[mailbox.HeaderSize+coe.HeaderSize+coe.SdoHeaderSize:]
		t.err = &ethercat.AbortCodeError{Code: binary.LittleEndian.Uint32(payload[:4])}
	default:
		t.err = ethercat.ErrUnexpectedCommandSpecifier
	}
}

func (t *SdoDownload) IsFinished() bool { return t.phase == sdoPhaseDone }
func (t *SdoDownload) Err() error        { return t.err }
