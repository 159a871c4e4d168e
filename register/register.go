// Package register names the fixed ESC (EtherCAT Slave Controller) register
// addresses and bitfields that the task state machines in package task read
// and write. Addresses below mirror the vendor-independent ESC register map;
// the AL control/status and distributed-clock register addresses are the
// same values used by this project's originating reference implementation.
package register

// Fixed ESC register addresses (byte offsets into a slave's register space).
const (
	Type              uint16 = 0x0000 // ESC type, 1 byte
	Revision          uint16 = 0x0001 // ESC revision, 1 byte
	Build             uint16 = 0x0002 // ESC build, 2 bytes
	FmmuCount         uint16 = 0x0004 // number of supported FMMUs, 1 byte
	SyncManagerCount  uint16 = 0x0005 // number of supported sync managers, 1 byte
	RamSizeKB         uint16 = 0x0006 // process data RAM size in KB, 1 byte
	PortDescriptor    uint16 = 0x0007 // port media descriptor, 1 byte
	EscFeatures       uint16 = 0x0008 // ESC feature flags, 2 bytes
	StationAddress    uint16 = 0x0010 // configured station address, 2 bytes
	StationAlias      uint16 = 0x0012 // configured station alias, 2 bytes
	DlControl         uint16 = 0x0100 // DL control, 4 bytes
	DlStatus          uint16 = 0x0110 // DL status, 2 bytes
	RxErrorCounter    uint16 = 0x0300 // RX error counters, 16 bytes
	FixedStationAddr  uint16 = 0x0010 // alias for StationAddress used during discovery
	SiiAccess         uint16 = 0x0500 // SII access/ownership, 2 bytes
	SiiControlStatus  uint16 = 0x0502 // SII control/status, 2 bytes
	SiiAddress        uint16 = 0x0504 // SII address, 4 bytes
	SiiData           uint16 = 0x0508 // SII data, 4 bytes
	fmmuBase          uint16 = 0x0600 // FMMU0 base address
	fmmuStride        uint16 = 0x0010 // bytes between FMMU register blocks
	syncManagerBase   uint16 = 0x0800 // SM0 base address
	syncManagerStride uint16 = 0x0008 // bytes between sync manager register blocks

	AlControl     uint16 = 0x0120 // AL control, 2 bytes
	AlStatus      uint16 = 0x0130 // AL status + AL status code, 6 bytes
	PdiControl    uint16 = 0x0140 // PDI control, 2 bytes
	PdiConfig     uint16 = 0x0150 // PDI configuration, 1 byte
	SyncConfig    uint16 = 0x0151 // sync signal configuration, 1 byte
	DcActivation  uint16 = 0x0981 // DC cyclic unit control, 1 byte
	DcSystemTime  uint16 = 0x0910 // DC system time, 8 bytes; target of ARMW
	DcSyncPulse   uint16 = 0x0982 // DC sync pulse length, 2 bytes
	DcStartTime   uint16 = 0x0990 // DC cyclic operation start time, 4 bytes
	DcSync0Cycle  uint16 = 0x09A0 // DC SYNC0 cycle time, 4 bytes
	DcSync1Cycle  uint16 = 0x09A4 // DC SYNC1 cycle time, 4 bytes
)

// EscFeatureDc is the "Distributed Clocks supported" bit of the 2-byte
// ESC Features register at EscFeatures.
const EscFeatureDc uint16 = 1 << 2

// FmmuAddress returns the base register address of the n'th (0-indexed)
// FMMU configuration block.
func FmmuAddress(n int) uint16 { return fmmuBase + uint16(n)*fmmuStride }

// SyncManagerAddress returns the base register address of the n'th
// (0-indexed) sync manager configuration block.
func SyncManagerAddress(n int) uint16 { return syncManagerBase + uint16(n)*syncManagerStride }

// FmmuConfigSize is the size in bytes of one FMMU configuration register block.
const FmmuConfigSize = 16

// SyncManagerConfigSize is the size in bytes of one sync manager configuration register block.
const SyncManagerConfigSize = 8

// AlControlRegister is a 2-byte read/write view of the AL Control register.
type AlControlRegister [2]byte

func (r *AlControlRegister) State() uint8        { return r[0] & 0x0F }
func (r *AlControlRegister) SetState(s uint8)    { r[0] = r[0]&^0x0F | s&0x0F }
func (r *AlControlRegister) Acknowledge() bool    { return r[0]&0x10 != 0 }
func (r *AlControlRegister) SetAcknowledge(v bool) {
	if v {
		r[0] |= 0x10
	} else {
		r[0] &^= 0x10
	}
}

// AlStatusRegister is a 6-byte view of the AL Status + AL Status Code
// registers. The master only reads it; SetState lets a simulated slave
// compose one.
type AlStatusRegister [6]byte

// SetState writes the 4-bit state field, leaving the other bits unchanged.
func (r *AlStatusRegister) SetState(s uint8) { r[0] = r[0]&^0x0F | s&0x0F }

func (r *AlStatusRegister) State() uint8 { return r[0] & 0x0F }
func (r *AlStatusRegister) ChangeErr() bool { return r[0]&0x10 != 0 }
func (r *AlStatusRegister) StatusCode() uint16 {
	return uint16(r[4]) | uint16(r[5])<<8
}

// SiiAccessRegister is a 2-byte view of the SII/EEPROM ownership register.
type SiiAccessRegister [2]byte

func (r *SiiAccessRegister) Owner() bool { return r[0]&0x01 != 0 }
func (r *SiiAccessRegister) SetOwner(v bool) {
	if v {
		r[0] |= 0x01
	} else {
		r[0] &^= 0x01
	}
}
func (r *SiiAccessRegister) ResetAccess() bool { return r[0]&0x02 != 0 }
func (r *SiiAccessRegister) SetResetAccess(v bool) {
	if v {
		r[0] |= 0x02
	} else {
		r[0] &^= 0x02
	}
}

// SiiControlStatusRegister is a 2-byte view of the SII control/status register.
type SiiControlStatusRegister [2]byte

func (r *SiiControlStatusRegister) Busy() bool          { return r[1]&0x02 != 0 }
func (r *SiiControlStatusRegister) ReadAccessError() bool { return r[1]&0x04 != 0 }
func (r *SiiControlStatusRegister) SetReadOperation() {
	r[0] = 0x01
}

// DlControlRegister is a 4-byte view of the Data Link Control register.
type DlControlRegister [4]byte

func (r *DlControlRegister) SetForwardingRule(v bool) {
	if v {
		r[0] |= 0x01
	} else {
		r[0] &^= 0x01
	}
}
func (r *DlControlRegister) SetTxBufferSize(n uint8) {
	r[2] = r[2]&^0x07 | n&0x07
}

// SyncManagerControl is an 8-byte register block for one sync manager.
type SyncManagerControl [8]byte

func (r *SyncManagerControl) SetPhysicalStartAddress(addr uint16) {
	r[0] = byte(addr)
	r[1] = byte(addr >> 8)
}
func (r *SyncManagerControl) SetLength(n uint16) {
	r[2] = byte(n)
	r[3] = byte(n >> 8)
}
func (r *SyncManagerControl) PhysicalStartAddress() uint16 {
	return uint16(r[0]) | uint16(r[1])<<8
}
func (r *SyncManagerControl) Length() uint16 {
	return uint16(r[2]) | uint16(r[3])<<8
}
func (r *SyncManagerControl) SetControl(c uint8) { r[4] = c }
func (r *SyncManagerControl) Status() uint8       { return r[5] }
func (r *SyncManagerControl) Activation() uint8   { return r[6] }
func (r *SyncManagerControl) SetActivation(a uint8) { r[6] = a }
func (r *SyncManagerControl) PdiControl() uint8   { return r[7] }

// Sync manager activation bits.
const (
	SmActivationRepeat uint8 = 1 << 1
)

// Sync manager status bits.
const (
	SmStatusMailboxFull uint8 = 1 << 0
	SmStatusRepeatAck   uint8 = 1 << 1
)

// FmmuConfigRegister is a 16-byte register block for one FMMU.
type FmmuConfigRegister [16]byte

func (r *FmmuConfigRegister) SetLogicalStartAddress(addr uint32) {
	r[0] = byte(addr)
	r[1] = byte(addr >> 8)
	r[2] = byte(addr >> 16)
	r[3] = byte(addr >> 24)
}
func (r *FmmuConfigRegister) SetLength(n uint16) {
	r[4] = byte(n)
	r[5] = byte(n >> 8)
}
func (r *FmmuConfigRegister) SetLogicalStartBit(b uint8)  { r[6] = b & 0x07 }
func (r *FmmuConfigRegister) SetLogicalEndBit(b uint8)    { r[7] = b & 0x07 }
func (r *FmmuConfigRegister) SetPhysicalStartAddress(addr uint16) {
	r[8] = byte(addr)
	r[9] = byte(addr >> 8)
}
func (r *FmmuConfigRegister) SetPhysicalStartBit(b uint8) { r[10] = b & 0x07 }

const (
	fmmuReadEnable  uint8 = 1 << 0
	fmmuWriteEnable uint8 = 1 << 1
)

func (r *FmmuConfigRegister) SetReadEnable(v bool)  { r.setBit(11, fmmuReadEnable, v) }
func (r *FmmuConfigRegister) SetWriteEnable(v bool) { r.setBit(11, fmmuWriteEnable, v) }
func (r *FmmuConfigRegister) SetActivate(v bool)    { r.setBit(12, 1, v) }

func (r *FmmuConfigRegister) setBit(idx int, mask uint8, v bool) {
	if v {
		r[idx] |= mask
	} else {
		r[idx] &^= mask
	}
}
