package task

import (
	"testing"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/register"
)

func TestAlStateTransitionSuccess(t *testing.T) {
	target := ethercat.SingleSlave(0x1001)
	tr := NewAlStateTransfer(target, ethercat.AlStatePreOperational)

	// Step 1: read current state (Init, no error).
	cmd, n, _, ok := tr.NextPDU()
	if !ok || cmd.Type != ethercat.CmdFPRD {
		t.Fatalf("expected initial read, got %+v", cmd)
	}
	status := make([]byte, n)
	var sr register.AlStatusRegister
	sr.SetState(uint8(ethercat.AlStateInit))
	_ = sr
	status[0] = uint8(ethercat.AlStateInit)
	tr.ReceiveAndProcess(status, 1, 0)

	// Step 2: reset SII ownership before requesting the new state.
	cmd, _, _, ok = tr.NextPDU()
	if !ok || cmd.Type != ethercat.CmdFPWR || cmd.Ado != register.SiiAccess {
		t.Fatalf("expected SII ownership reset write, got %+v", cmd)
	}
	tr.ReceiveAndProcess(nil, 1, 500)

	// Step 3: request PreOp.
	cmd, _, _, ok = tr.NextPDU()
	if !ok || cmd.Type != ethercat.CmdFPWR || cmd.Ado != register.AlControl {
		t.Fatalf("expected write request, got %+v", cmd)
	}
	tr.ReceiveAndProcess(nil, 1, 1000)

	// Step 4: poll, not yet transitioned.
	cmd, n, _, ok = tr.NextPDU()
	if !ok {
		t.Fatal("expected poll PDU")
	}
	stillInit := make([]byte, n)
	stillInit[0] = uint8(ethercat.AlStateInit)
	tr.ReceiveAndProcess(stillInit, 1, 1500)
	if tr.IsFinished() {
		t.Fatal("should not be finished yet")
	}

	// Step 5: poll again, now PreOp.
	cmd, n, _, ok = tr.NextPDU()
	if !ok {
		t.Fatal("expected second poll PDU")
	}
	preop := make([]byte, n)
	preop[0] = uint8(ethercat.AlStatePreOperational)
	tr.ReceiveAndProcess(preop, 1, 2000)

	if !tr.IsFinished() {
		t.Fatal("expected task to finish")
	}
	if tr.Err() != nil {
		t.Fatalf("unexpected error: %v", tr.Err())
	}
	if tr.Observed() != ethercat.AlStatePreOperational {
		t.Fatalf("observed = %v, want PreOperational", tr.Observed())
	}
}

func TestAlStateTransitionFailure(t *testing.T) {
	target := ethercat.SingleSlave(0x1001)
	tr := NewAlStateTransfer(target, ethercat.AlStatePreOperational)

	_, n, _, _ := tr.NextPDU()
	status := make([]byte, n)
	status[0] = uint8(ethercat.AlStateInit)
	tr.ReceiveAndProcess(status, 1, 0)

	tr.NextPDU() // reset SII ownership
	tr.ReceiveAndProcess(nil, 1, 50)

	tr.NextPDU() // request PreOp
	tr.ReceiveAndProcess(nil, 1, 100)

	_, n, _, _ = tr.NextPDU()
	errStatus := make([]byte, n)
	errStatus[0] = uint8(ethercat.AlStateInit) | 0x10 // change_err set
	errStatus[4] = byte(ethercat.AlStatusCodeInvalidRequestedStateChange)
	errStatus[5] = byte(ethercat.AlStatusCodeInvalidRequestedStateChange >> 8)
	tr.ReceiveAndProcess(errStatus, 1, 200)

	if !tr.IsFinished() {
		t.Fatal("expected finished on error")
	}
	ase, ok := tr.Err().(*ethercat.AlStatusCodeError)
	if !ok {
		t.Fatalf("expected AlStatusCodeError, got %v (%T)", tr.Err(), tr.Err())
	}
	if ase.Code != ethercat.AlStatusCodeInvalidRequestedStateChange {
		t.Fatalf("code = %v", ase.Code)
	}
}

// TestAlStateResetErrorLoop exercises the ResetError/OffAck loop a slave
// reporting change_err on its current state must go through before the
// task will touch SII ownership and request the new state.
func TestAlStateResetErrorLoop(t *testing.T) {
	target := ethercat.SingleSlave(0x1001)
	tr := NewAlStateTransfer(target, ethercat.AlStatePreOperational)

	_, n, _, ok := tr.NextPDU()
	if !ok {
		t.Fatal("expected initial read")
	}
	erring := make([]byte, n)
	erring[0] = uint8(ethercat.AlStateInit) | 0x10 // change_err set
	tr.ReceiveAndProcess(erring, 1, 0)

	cmd, _, _, ok := tr.NextPDU()
	if !ok || cmd.Type != ethercat.CmdFPWR || cmd.Ado != register.AlControl {
		t.Fatalf("expected ResetError write, got %+v", cmd)
	}
	tr.ReceiveAndProcess(nil, 1, 10)

	cmd, _, _, ok = tr.NextPDU()
	if !ok || cmd.Type != ethercat.CmdFPWR || cmd.Ado != register.AlControl {
		t.Fatalf("expected OffAck write, got %+v", cmd)
	}
	tr.ReceiveAndProcess(nil, 1, 20)

	cmd, n, _, ok = tr.NextPDU()
	if !ok || cmd.Type != ethercat.CmdFPRD {
		t.Fatalf("expected re-read after OffAck, got %+v", cmd)
	}
	clean := make([]byte, n)
	clean[0] = uint8(ethercat.AlStateInit)
	tr.ReceiveAndProcess(clean, 1, 30)

	cmd, _, _, ok = tr.NextPDU()
	if !ok || cmd.Ado != register.SiiAccess {
		t.Fatalf("expected SII ownership reset after error clears, got %+v", cmd)
	}
	tr.ReceiveAndProcess(nil, 1, 40)

	cmd, _, _, ok = tr.NextPDU()
	if !ok || cmd.Ado != register.AlControl {
		t.Fatalf("expected state request, got %+v", cmd)
	}
	tr.ReceiveAndProcess(nil, 1, 50)

	_, n, _, ok = tr.NextPDU()
	if !ok {
		t.Fatal("expected poll PDU")
	}
	preop := make([]byte, n)
	preop[0] = uint8(ethercat.AlStatePreOperational)
	tr.ReceiveAndProcess(preop, 1, 60)

	if !tr.IsFinished() {
		t.Fatal("expected task to finish")
	}
	if err := tr.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
