package task

import (
	"encoding/binary"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/register"
)

type siiStep uint8

const (
	siiCheckBusy siiStep = iota
	siiWriteAddr
	siiTriggerRead
	siiWaitBusy
	siiReadResult
	siiDone
)

// SiiRead reads one 4-byte word from a slave's SII (EEPROM) at wordAddr via
// the SII address/control/data registers, busy-polling between triggering
// the read and fetching the result. A request issued while the interface is
// already busy servicing something else fails with ErrSiiBusy rather than
// queuing.
type SiiRead struct {
	target   ethercat.TargetSlave
	wordAddr uint32

	step siiStep
	sent bool
	word [4]byte
	err  error
}

// NewSiiRead builds a task reading the EEPROM word at wordAddr on target.
func NewSiiRead(target ethercat.TargetSlave, wordAddr uint32) *SiiRead {
	return &SiiRead{target: target, wordAddr: wordAddr}
}

// Word returns the 4-byte result once the task finishes successfully.
func (t *SiiRead) Word() [4]byte { return t.word }

func (t *SiiRead) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == siiDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	switch t.step {
	case siiCheckBusy:
		return ethercat.NewReadCommand(t.target, register.SiiControlStatus), 2, nil, true
	case siiWriteAddr:
		return ethercat.NewWriteCommand(t.target, register.SiiAddress), 4, func(p []byte) {
			binary.LittleEndian.PutUint32(p, t.wordAddr)
		}, true
	case siiTriggerRead:
		var cs register.SiiControlStatusRegister
		cs.SetReadOperation()
		return ethercat.NewWriteCommand(t.target, register.SiiControlStatus), 2, func(p []byte) {
			copy(p, cs[:])
		}, true
	case siiWaitBusy:
		return ethercat.NewReadCommand(t.target, register.SiiControlStatus), 2, nil, true
	case siiReadResult:
		return ethercat.NewReadCommand(t.target, register.SiiData), 4, nil, true
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *SiiRead) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.step == siiDone {
		return
	}
	t.sent = false
	if wkc != t.target.ExpectedWkc() {
		t.err = &ethercat.UnexpectedWkcError{Expected: t.target.ExpectedWkc(), Got: wkc}
		t.step = siiDone
		return
	}
	switch t.step {
	case siiCheckBusy:
		var cs register.SiiControlStatusRegister
		copy(cs[:], data)
		if cs.Busy() {
			t.err = ethercat.ErrSiiBusy
			t.step = siiDone
			return
		}
		t.step = siiWriteAddr
	case siiWriteAddr:
		t.step = siiTriggerRead
	case siiTriggerRead:
		t.step = siiWaitBusy
	case siiWaitBusy:
		var cs register.SiiControlStatusRegister
		copy(cs[:], data)
		if cs.ReadAccessError() {
			t.err = ethercat.ErrSiiBusy
			t.step = siiDone
			return
		}
		if cs.Busy() {
			return // keep polling
		}
		t.step = siiReadResult
	case siiReadResult:
		copy(t.word[:], data)
		t.step = siiDone
	}
}

func (t *SiiRead) IsFinished() bool { return t.step == siiDone }
func (t *SiiRead) Err() error        { return t.err }
