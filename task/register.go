package task

import "github.com/ecat-io/ethercat"

// RegisterAccess reads or writes a fixed-size register on one slave or
// broadcast to all slaves, completing on the first reply whose working
// counter matches the target's expectation.
type RegisterAccess struct {
	target  ethercat.TargetSlave
	ado     uint16
	write   bool
	buf     []byte // caller-owned; read result deposited here, write source read from here
	sent    bool
	done    bool
	err     error
}

// NewRegisterRead builds a task that reads len(buf) bytes from register ado
// on target into buf once it completes successfully.
func NewRegisterRead(target ethercat.TargetSlave, ado uint16, buf []byte) *RegisterAccess {
	return &RegisterAccess{target: target, ado: ado, buf: buf}
}

// NewRegisterWrite builds a task that writes buf to register ado on target.
func NewRegisterWrite(target ethercat.TargetSlave, ado uint16, buf []byte) *RegisterAccess {
	return &RegisterAccess{target: target, ado: ado, buf: buf, write: true}
}

func (t *RegisterAccess) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.done || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	var cmd ethercat.Command
	if t.write {
		cmd = ethercat.NewWriteCommand(t.target, t.ado)
	} else {
		cmd = ethercat.NewReadCommand(t.target, t.ado)
	}
	fill := func(payload []byte) {
		if t.write {
			copy(payload, t.buf)
		}
	}
	t.sent = true
	return cmd, len(t.buf), fill, true
}

func (t *RegisterAccess) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.done {
		return
	}
	t.sent = false
	if wkc != t.target.ExpectedWkc() {
		t.err = &ethercat.UnexpectedWkcError{Expected: t.target.ExpectedWkc(), Got: wkc}
		t.done = true
		return
	}
	if !t.write {
		copy(t.buf, data)
	}
	t.done = true
}

func (t *RegisterAccess) IsFinished() bool { return t.done }
func (t *RegisterAccess) Err() error        { return t.err }
