package task

import (
	"encoding/binary"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/network"
	"github.com/ecat-io/ethercat/register"
)

// SII word addresses for the identity fields SlaveInit reads, per the SII
// EEPROM category 10 (general) layout.
const (
	siiWordVendorID   uint32 = 0x0008
	siiWordProductCode uint32 = 0x000A
	siiWordRevision   uint32 = 0x000C
)

type slaveInitStep uint8

const (
	siDlControl slaveInitStep = iota
	siReadFixedAddr
	siWriteConfiguredAddr
	siReadCaps
	siReadFeatures
	siSiiVendor
	siSiiProduct
	siSiiRevision
	siWriteMailboxOutSm
	siWriteMailboxInSm
	siResetFmmu
	siDone
)

// The fixed mailbox sync manager layout this master assigns every slave:
// SM0 for mailbox-out, SM1 for mailbox-in.
const (
	mailboxOutPhysAddr uint16 = 0x1000
	mailboxOutSize     uint16 = 256
	mailboxInPhysAddr  uint16 = 0x1100
	mailboxInSize      uint16 = 256
)

// SlaveInit drives one newly-discovered slave (addressed by its
// auto-increment position during discovery) through configuration: it sets
// the slave's DL forwarding rule and tx buffer size, assigns it a configured station
// address, reads its identity from the SII EEPROM, programs its mailbox
// sync managers, and resets its FMMUs, emitting a populated network.Slave
// record on success.
type SlaveInit struct {
	position        uint16 // auto-increment address used until reconfigured
	configuredAddr  uint16
	slave           *network.Slave

	step slaveInitStep
	sent bool
	sii  *SiiRead
	err  error

	dlBuf   [4]byte
	smBuf   register.SyncManagerControl
	capBuf  [2]byte
	featBuf [2]byte
}

// NewSlaveInit builds a task configuring the slave currently reachable at
// auto-increment position, assigning it configuredAddr, and filling out.
func NewSlaveInit(position, configuredAddr uint16, out *network.Slave) *SlaveInit {
	return &SlaveInit{position: position, configuredAddr: configuredAddr, slave: out}
}

func autoIncrementTarget(position uint16) ethercat.TargetSlave {
	// Auto-increment addressing uses a negative position encoded as the
	// address parameter; position 0 is the first slave in the ring.
	return ethercat.SingleSlave(0xFFFF - position)
}

func (t *SlaveInit) configuredTarget() ethercat.TargetSlave {
	return ethercat.SingleSlave(t.configuredAddr)
}

func (t *SlaveInit) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == siDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	switch t.step {
	case siDlControl:
		t.sent = true
		return ethercat.NewWriteCommand(autoIncrementTarget(t.position), register.DlControl), 4, func(p []byte) {
			var dl register.DlControlRegister
			dl.SetForwardingRule(true)
			dl.SetTxBufferSize(7)
			copy(p, dl[:])
		}, true
	case siReadFixedAddr:
		t.sent = true
		return ethercat.NewReadCommand(autoIncrementTarget(t.position), register.StationAddress), 2, nil, true
	case siWriteConfiguredAddr:
		t.sent = true
		return ethercat.NewWriteCommand(autoIncrementTarget(t.position), register.StationAddress), 2, func(p []byte) {
			binary.LittleEndian.PutUint16(p, t.configuredAddr)
		}, true
	case siReadCaps:
		t.sent = true
		return ethercat.NewReadCommand(t.configuredTarget(), register.FmmuCount), 2, nil, true
	case siReadFeatures:
		t.sent = true
		return ethercat.NewReadCommand(t.configuredTarget(), register.EscFeatures), 2, nil, true
	case siSiiVendor, siSiiProduct, siSiiRevision:
		cmd, n, fill, ok := t.sii.NextPDU()
		if ok {
			t.sent = true
		}
		return cmd, n, fill, ok
	case siWriteMailboxOutSm:
		t.sent = true
		return ethercat.NewWriteCommand(t.configuredTarget(), register.SyncManagerAddress(0)), register.SyncManagerConfigSize, func(p []byte) {
			var sm register.SyncManagerControl
			sm.SetPhysicalStartAddress(mailboxOutPhysAddr)
			sm.SetLength(mailboxOutSize)
			sm.SetControl(0x26) // mailbox, write direction, toggle buffering per ETG.1000
			sm.SetActivation(1)
			copy(p, sm[:])
		}, true
	case siWriteMailboxInSm:
		t.sent = true
		return ethercat.NewWriteCommand(t.configuredTarget(), register.SyncManagerAddress(1)), register.SyncManagerConfigSize, func(p []byte) {
			var sm register.SyncManagerControl
			sm.SetPhysicalStartAddress(mailboxInPhysAddr)
			sm.SetLength(mailboxInSize)
			sm.SetControl(0x22) // mailbox, read direction
			sm.SetActivation(1)
			copy(p, sm[:])
		}, true
	case siResetFmmu:
		t.sent = true
		var zero [register.FmmuConfigSize * 3]byte
		return ethercat.NewWriteCommand(t.configuredTarget(), register.FmmuAddress(0)), len(zero), func(p []byte) {
			copy(p, zero[:])
		}, true
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *SlaveInit) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.step == siDone {
		return
	}
	t.sent = false
	switch t.step {
	case siDlControl:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.step = siReadFixedAddr
	case siReadFixedAddr:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.step = siWriteConfiguredAddr
	case siWriteConfiguredAddr:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.step = siReadCaps
	case siReadCaps:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		copy(t.capBuf[:], data)
		t.slave.NumberOfFmmu = t.capBuf[0]
		t.slave.NumberOfSm = t.capBuf[1]
		t.step = siReadFeatures
	case siReadFeatures:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		copy(t.featBuf[:], data)
		t.slave.DcSupport = binary.LittleEndian.Uint16(t.featBuf[:])&register.EscFeatureDc != 0
		t.sii = NewSiiRead(t.configuredTarget(), siiWordVendorID)
		t.step = siSiiVendor
	case siSiiVendor:
		t.sii.ReceiveAndProcess(data, wkc, now)
		if !t.sii.IsFinished() {
			return
		}
		if err := t.sii.Err(); err != nil {
			t.fail(err)
			return
		}
		w := t.sii.Word()
		t.slave.ID.Vendor = binary.LittleEndian.Uint32(w[:])
		t.sii = NewSiiRead(t.configuredTarget(), siiWordProductCode)
		t.step = siSiiProduct
	case siSiiProduct:
		t.sii.ReceiveAndProcess(data, wkc, now)
		if !t.sii.IsFinished() {
			return
		}
		if err := t.sii.Err(); err != nil {
			t.fail(err)
			return
		}
		w := t.sii.Word()
		t.slave.ID.Product = binary.LittleEndian.Uint32(w[:])
		t.sii = NewSiiRead(t.configuredTarget(), siiWordRevision)
		t.step = siSiiRevision
	case siSiiRevision:
		t.sii.ReceiveAndProcess(data, wkc, now)
		if !t.sii.IsFinished() {
			return
		}
		if err := t.sii.Err(); err != nil {
			t.fail(err)
			return
		}
		w := t.sii.Word()
		t.slave.ID.Revision = binary.LittleEndian.Uint32(w[:])
		t.step = siWriteMailboxOutSm
	case siWriteMailboxOutSm:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.slave.MailboxOut = network.MailboxSyncManager{Number: 0, StartAddress: mailboxOutPhysAddr, Size: mailboxOutSize}
		t.step = siWriteMailboxInSm
	case siWriteMailboxInSm:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.slave.MailboxIn = network.MailboxSyncManager{Number: 1, StartAddress: mailboxInPhysAddr, Size: mailboxInSize}
		t.step = siResetFmmu
	case siResetFmmu:
		if wkc != 1 {
			t.fail(&ethercat.UnexpectedWkcError{Expected: 1, Got: wkc})
			return
		}
		t.slave.ConfiguredAddress = t.configuredAddr
		t.slave.MailboxCount = 1
		t.step = siDone
	}
}

func (t *SlaveInit) fail(err error) {
	t.err = err
	t.step = siDone
}

func (t *SlaveInit) IsFinished() bool { return t.step == siDone }
func (t *SlaveInit) Err() error        { return t.err }
