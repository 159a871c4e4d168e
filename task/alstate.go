package task

import (
	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/register"
)

type alStep uint8

const (
	alStepReadCurrent alStep = iota
	alStepResetError
	alStepOffAck
	alStepResetSiiOwnership
	alStepRequest
	alStepPoll
	alStepDone
)

// AlStateTransfer drives a slave's AL Control register to request a state
// change and polls AL Status until the slave reports the target state, an
// error code, or the edge's timeout elapses.
type AlStateTransfer struct {
	target      ethercat.TargetSlave
	desired     ethercat.AlState
	budgetOverrideMs uint32

	step     alStep
	sent     bool
	dl       deadline
	observed ethercat.AlState
	err      error

	statusBuf [6]byte
	ctrlBuf   [2]byte
	siiBuf    [2]byte
}

// NewAlStateTransfer builds a task requesting desired on target, using the
// built-in per-edge timeout budget.
func NewAlStateTransfer(target ethercat.TargetSlave, desired ethercat.AlState) *AlStateTransfer {
	return &AlStateTransfer{target: target, desired: desired}
}

// NewAlStateTransferWithTimeout builds a task requesting desired on target,
// overriding the built-in per-edge timeout budget with budgetMs.
func NewAlStateTransferWithTimeout(target ethercat.TargetSlave, desired ethercat.AlState, budgetMs uint32) *AlStateTransfer {
	return &AlStateTransfer{target: target, desired: desired, budgetOverrideMs: budgetMs}
}

// Observed returns the AL state last read once the task finishes.
func (t *AlStateTransfer) Observed() ethercat.AlState { return t.observed }

func (t *AlStateTransfer) budgetMs() uint32 {
	if t.budgetOverrideMs != 0 {
		return t.budgetOverrideMs
	}
	return edgeBudgetMs(t.observed, t.desired)
}

func edgeBudgetMs(from, desired ethercat.AlState) uint32 {
	switch {
	case desired == ethercat.AlStateInit:
		return 5000
	case desired == ethercat.AlStateOperational:
		return 10000
	case desired == ethercat.AlStatePreOperational || desired == ethercat.AlStateBootstrap:
		return 3000
	case desired == ethercat.AlStateSafeOperational && from == ethercat.AlStateOperational:
		return 200
	case desired == ethercat.AlStateSafeOperational:
		return 10000
	default:
		return 3000
	}
}

func (t *AlStateTransfer) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == alStepDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	switch t.step {
	case alStepReadCurrent:
		return ethercat.NewReadCommand(t.target, register.AlStatus), 6, nil, true
	case alStepResetError:
		ctrl := (*register.AlControlRegister)(&t.ctrlBuf)
		ctrl.SetState(uint8(t.observed))
		ctrl.SetAcknowledge(true)
		return ethercat.NewWriteCommand(t.target, register.AlControl), 2, func(p []byte) {
			copy(p, t.ctrlBuf[:])
		}, true
	case alStepOffAck:
		ctrl := (*register.AlControlRegister)(&t.ctrlBuf)
		ctrl.SetState(uint8(t.observed))
		ctrl.SetAcknowledge(false)
		return ethercat.NewWriteCommand(t.target, register.AlControl), 2, func(p []byte) {
			copy(p, t.ctrlBuf[:])
		}, true
	case alStepResetSiiOwnership:
		sii := (*register.SiiAccessRegister)(&t.siiBuf)
		sii.SetOwner(true)
		sii.SetResetAccess(false)
		return ethercat.NewWriteCommand(t.target, register.SiiAccess), 2, func(p []byte) {
			copy(p, t.siiBuf[:])
		}, true
	case alStepRequest:
		ctrl := (*register.AlControlRegister)(&t.ctrlBuf)
		ctrl.SetState(uint8(t.desired))
		ctrl.SetAcknowledge(false)
		return ethercat.NewWriteCommand(t.target, register.AlControl), 2, func(p []byte) {
			copy(p, t.ctrlBuf[:])
		}, true
	case alStepPoll:
		return ethercat.NewReadCommand(t.target, register.AlStatus), 6, nil, true
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *AlStateTransfer) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.step == alStepDone {
		return
	}
	t.sent = false
	if wkc != t.target.ExpectedWkc() {
		t.err = &ethercat.UnexpectedWkcError{Expected: t.target.ExpectedWkc(), Got: wkc}
		t.step = alStepDone
		return
	}
	switch t.step {
	case alStepReadCurrent:
		copy(t.statusBuf[:], data)
		status := (*register.AlStatusRegister)(&t.statusBuf)
		t.observed = ethercat.AlStateFromRegister(status.State())
		switch {
		case t.observed == t.desired:
			t.step = alStepDone
		case status.ChangeErr():
			t.step = alStepResetError
		default:
			t.step = alStepResetSiiOwnership
		}
	case alStepResetError:
		t.step = alStepOffAck
	case alStepOffAck:
		// the slave only clears change_err once acknowledge drops back to
		// false; re-read status to confirm before touching SII ownership.
		t.step = alStepReadCurrent
	case alStepResetSiiOwnership:
		t.step = alStepRequest
		t.dl.arm(now, t.budgetMs())
	case alStepRequest:
		t.step = alStepPoll
	case alStepPoll:
		copy(t.statusBuf[:], data)
		status := (*register.AlStatusRegister)(&t.statusBuf)
		t.observed = ethercat.AlStateFromRegister(status.State())
		switch {
		case status.ChangeErr():
			t.err = &ethercat.AlStatusCodeError{State: t.observed, Code: ethercat.AlStatusCode(status.StatusCode())}
			t.step = alStepDone
		case t.observed == t.desired:
			t.step = alStepDone
		case t.dl.expired(now):
			t.err = ethercat.ErrTimeout
			t.step = alStepDone
		default:
			// stay in alStepPoll, request the next poll PDU
		}
	}
}

func (t *AlStateTransfer) IsFinished() bool { return t.step == alStepDone }
func (t *AlStateTransfer) Err() error        { return t.err }
