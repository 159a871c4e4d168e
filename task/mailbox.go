package task

import (
	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/mailbox"
	"github.com/ecat-io/ethercat/register"
)

const mailboxWriteBudgetMs = 100
const mailboxReadBudgetMs = 2000

type mbWriteStep uint8

const (
	mbWriteCheckEmpty mbWriteStep = iota
	mbWriteSend
	mbWriteDone
)

// MailboxWrite writes a fully-formed mailbox frame (header+service payload,
// header.Count not yet set) into a slave's mailbox-out sync manager buffer,
// retrying the write itself for up to 100ms if the working counter comes
// back 0. count is the slave's mailbox toggle counter cell; it is advanced
// on a successful write.
type MailboxWrite struct {
	target   ethercat.TargetSlave
	smAddr   uint16 // mailbox-out sync manager's 8-byte control block address
	mbxAddr  uint16 // physical address of the mailbox-out buffer
	frame    []byte // header+payload, built by the caller; Count is set here
	count    *uint8

	step mbWriteStep
	sent bool
	dl   deadline
	err  error
}

// NewMailboxWrite builds a task writing frame (which must already carry a
// valid mailbox header with Count left unset) to the slave's mailbox-out
// buffer at mbxAddr, guarded by the sync manager control block at smAddr.
func NewMailboxWrite(target ethercat.TargetSlave, smAddr, mbxAddr uint16, frame []byte, count *uint8) *MailboxWrite {
	return &MailboxWrite{target: target, smAddr: smAddr, mbxAddr: mbxAddr, frame: frame, count: count}
}

func (t *MailboxWrite) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == mbWriteDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	switch t.step {
	case mbWriteCheckEmpty:
		return ethercat.NewReadCommand(t.target, t.smAddr), register.SyncManagerConfigSize, nil, true
	case mbWriteSend:
		hdr, _ := mailbox.NewHeader(t.frame)
		hdr.SetCount(mailbox.NextCount(*t.count))
		return ethercat.NewWriteCommand(t.target, t.mbxAddr), len(t.frame), func(p []byte) {
			copy(p, t.frame)
		}, true
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *MailboxWrite) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.step == mbWriteDone {
		return
	}
	t.sent = false
	switch t.step {
	case mbWriteCheckEmpty:
		if wkc != t.target.ExpectedWkc() {
			t.err = &ethercat.UnexpectedWkcError{Expected: t.target.ExpectedWkc(), Got: wkc}
			t.step = mbWriteDone
			return
		}
		var sm register.SyncManagerControl
		copy(sm[:], data)
		if sm.Status()&register.SmStatusMailboxFull != 0 {
			t.err = ethercat.ErrMailboxFull
			t.step = mbWriteDone
			return
		}
		t.step = mbWriteSend
		t.dl.arm(now, mailboxWriteBudgetMs)
	case mbWriteSend:
		if wkc != t.target.ExpectedWkc() {
			if t.dl.expired(now) {
				t.err = ethercat.ErrNoSlaveReaction
				t.step = mbWriteDone
				return
			}
			// retry the write PDU next cycle
			return
		}
		hdr, _ := mailbox.NewHeader(t.frame)
		*t.count = hdr.Count()
		t.step = mbWriteDone
	}
}

func (t *MailboxWrite) IsFinished() bool { return t.step == mbWriteDone }
func (t *MailboxWrite) Err() error        { return t.err }

type mbReadStep uint8

const (
	mbReadCheckFull mbReadStep = iota
	mbReadRead
	mbReadRequestRepeat
	mbReadWaitRepeatAck
	mbReadDone
)

// MailboxRead reads one mailbox frame from a slave's mailbox-in sync
// manager buffer into buf, retrying via the repeat/repeat_ack handshake if a
// read is ever "lost" (WKC≠1). Every read starts with a CheckMailboxFull
// poll; there is no option to skip it.
type MailboxRead struct {
	target  ethercat.TargetSlave
	smAddr  uint16
	mbxAddr uint16
	buf     []byte

	step mbReadStep
	sent bool
	dl   deadline
	n    int
	err  error
}

// NewMailboxRead builds a task reading into buf from the slave's mailbox-in
// buffer at mbxAddr, guarded by the sync manager control block at smAddr.
func NewMailboxRead(target ethercat.TargetSlave, smAddr, mbxAddr uint16, buf []byte) *MailboxRead {
	return &MailboxRead{target: target, smAddr: smAddr, mbxAddr: mbxAddr, buf: buf}
}

// N returns the number of bytes the last successful read deposited into buf.
func (t *MailboxRead) N() int { return t.n }

func (t *MailboxRead) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == mbReadDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	switch t.step {
	case mbReadCheckFull:
		return ethercat.NewReadCommand(t.target, t.smAddr), register.SyncManagerConfigSize, nil, true
	case mbReadRead:
		return ethercat.NewReadCommand(t.target, t.mbxAddr), len(t.buf), nil, true
	case mbReadRequestRepeat:
		return ethercat.NewWriteCommand(t.target, t.smAddr+6), 1, func(p []byte) {
			p[0] = register.SmActivationRepeat
		}, true
	case mbReadWaitRepeatAck:
		return ethercat.NewReadCommand(t.target, t.smAddr), register.SyncManagerConfigSize, nil, true
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *MailboxRead) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.step == mbReadDone {
		return
	}
	t.sent = false
	if !t.dl.started {
		t.dl.arm(now, mailboxReadBudgetMs)
	}
	switch t.step {
	case mbReadCheckFull:
		if wkc != t.target.ExpectedWkc() {
			t.fail(&ethercat.UnexpectedWkcError{Expected: t.target.ExpectedWkc(), Got: wkc}, now)
			return
		}
		var sm register.SyncManagerControl
		copy(sm[:], data)
		if sm.Status()&register.SmStatusMailboxFull == 0 {
			if t.dl.expired(now) {
				t.fail(ethercat.ErrMailboxEmpty, now)
				return
			}
			return // poll again next cycle
		}
		t.step = mbReadRead
	case mbReadRead:
		if wkc != t.target.ExpectedWkc() {
			// lost: kick off the repeat handshake
			t.step = mbReadRequestRepeat
			return
		}
		t.n = copy(t.buf, data)
		if hdr, err := mailbox.NewHeader(t.buf); err == nil && hdr.MailboxType() == mailbox.TypeError {
			if er, err := mailbox.NewErrorResponse(t.buf[mailbox.HeaderSize:]); err == nil {
				t.err = &ethercat.ErrorResponseError{Detail: er.Detail()}
			}
		}
		t.step = mbReadDone
	case mbReadRequestRepeat:
		if wkc != t.target.ExpectedWkc() {
			if t.dl.expired(now) {
				t.fail(ethercat.ErrNoSlaveReaction, now)
				return
			}
			return
		}
		t.step = mbReadWaitRepeatAck
	case mbReadWaitRepeatAck:
		if wkc != t.target.ExpectedWkc() {
			if t.dl.expired(now) {
				t.fail(ethercat.ErrNoSlaveReaction, now)
				return
			}
			return
		}
		var sm register.SyncManagerControl
		copy(sm[:], data)
		if sm.Activation()&register.SmActivationRepeat == sm.Status()&register.SmActivationRepeat {
			t.step = mbReadCheckFull
			return
		}
		if t.dl.expired(now) {
			t.fail(ethercat.ErrNoSlaveReaction, now)
			return
		}
	}
}

func (t *MailboxRead) fail(err error, now ethercat.SystemTime) {
	t.err = err
	t.step = mbReadDone
}

func (t *MailboxRead) IsFinished() bool { return t.step == mbReadDone }
func (t *MailboxRead) Err() error        { return t.err }
