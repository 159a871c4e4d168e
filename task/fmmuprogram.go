package task

import (
	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/network"
	"github.com/ecat-io/ethercat/register"
)

type fmmuProgramStep uint8

const (
	fpWriteFmmu fmmuProgramStep = iota
	fpReadbackSm
	fpDone
)

// ProcessDataPhysAddr is the physical start address assigned to the first
// process-data FMMU, placed after the fixed mailbox-out/mailbox-in regions
// (0x1000/0x1100) slaveinit.go programs during discovery. Successive slaves'
// FMMUs are packed contiguously after it by the caller.
const ProcessDataPhysAddr uint16 = 0x1200

// ProcessDataSmIndex is the sync manager a process-data FMMU is assumed to
// drive. Its configuration is owned by PDO mapping outside this task; this
// task only reads its state back after programming the FMMU.
const ProcessDataSmIndex = 2

// FmmuProgram writes one FMMU's register block on a configured slave and
// reads back its process-data sync manager's control block, the two PDUs
// master.ConfigureSlaveSettings issues per slave: program the
// logical-to-physical mapping, then read the sync manager's state back for
// inspection through SmActivation. The task does not check that the sync
// manager is active; a readback with WKC 1 completes it successfully.
type FmmuProgram struct {
	target  ethercat.TargetSlave
	index   int
	cfg     network.FmmuConfig
	smIndex int

	step fmmuProgramStep
	sent bool
	err  error

	smBuf register.SyncManagerControl
}

// NewFmmuProgram builds a task programming index'th FMMU on target from
// cfg (its logical range, physical range, and direction), then reading
// back sync manager smIndex, the process-data sync manager it drives.
func NewFmmuProgram(target ethercat.TargetSlave, index int, cfg network.FmmuConfig, smIndex int) *FmmuProgram {
	return &FmmuProgram{target: target, index: index, cfg: cfg, smIndex: smIndex}
}

// SmActivation returns the process-data sync manager's activation byte
// observed during readback, 0 if the task has not finished successfully.
func (t *FmmuProgram) SmActivation() uint8 { return t.smBuf.Activation() }

func (t *FmmuProgram) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == fpDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	switch t.step {
	case fpWriteFmmu:
		t.sent = true
		return ethercat.NewWriteCommand(t.target, register.FmmuAddress(t.index)), register.FmmuConfigSize, func(p []byte) {
			var f register.FmmuConfigRegister
			f.SetLogicalStartAddress(t.cfg.LogicalStart)
			f.SetLength(t.cfg.Length)
			f.SetLogicalStartBit(0)
			f.SetLogicalEndBit(7)
			f.SetPhysicalStartAddress(t.cfg.PhysicalStart)
			f.SetPhysicalStartBit(0)
			switch t.cfg.Direction {
			case network.FmmuRead:
				f.SetReadEnable(true)
			case network.FmmuWrite:
				f.SetWriteEnable(true)
			case network.FmmuReadWrite:
				f.SetReadEnable(true)
				f.SetWriteEnable(true)
			}
			f.SetActivate(t.cfg.Active)
			copy(p, f[:])
		}, true
	case fpReadbackSm:
		t.sent = true
		return ethercat.NewReadCommand(t.target, register.SyncManagerAddress(t.smIndex)), register.SyncManagerConfigSize, nil, true
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *FmmuProgram) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	t.sent = false
	switch t.step {
	case fpWriteFmmu:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.step = fpReadbackSm
	case fpReadbackSm:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		copy(t.smBuf[:], data)
		t.step = fpDone
	}
}

func (t *FmmuProgram) fail(err error) {
	t.err = err
	t.step = fpDone
}

func (t *FmmuProgram) IsFinished() bool { return t.step == fpDone }
func (t *FmmuProgram) Err() error        { return t.err }
