// Package ecatsim is an integration-test fixture: a simulated EtherCAT
// slave answering the DlControl/AL status/SII/sync-manager/mailbox register
// protocol over an in-memory link driver, letting master-facing tests
// exercise a full init-to-cyclic-exchange run with no real NIC or elevated
// privileges, the same role this codebase's examples/ directory fills with
// a Tap/Bridge wired to a protocol stack.
package ecatsim

import (
	"encoding/binary"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/coe"
	"github.com/ecat-io/ethercat/mailbox"
	"github.com/ecat-io/ethercat/register"
)

// Identity is the vendor/product/revision triple a Slave reports through
// its simulated SII EEPROM.
type Identity struct {
	Vendor, Product, Revision uint32
}

// Slave is one simulated ESC: a flat 64KB register/process-memory space
// (mirroring the real ESC's single address space for registers, sync
// manager buffers, and mailbox buffers), an SII EEPROM, and enough of the
// mailbox/CoE/SDO protocol to answer a real SdoUpload/SdoDownload task.
type Slave struct {
	position uint16
	identity Identity

	mem            [65536]byte
	configured     bool
	configuredAddr uint16

	siiPendingAddr uint32

	// sdoResponder is consulted whenever a complete mailbox-out frame has
	// been deposited; it builds the mailbox-in reply. Nil means
	// defaultSdoResponse (an expedited 4-byte zero for any upload, a success
	// reply for any download), fine for tests that only exercise the
	// process-data and AL-state paths.
	sdoResponder func(req []byte) (resp []byte)
}

// NewSlave builds a simulated slave reachable at auto-increment position
// (0 for the first slave in the segment) reporting identity. It reports a
// capability set typical of a small ESC: 3 FMMUs, 4 sync managers (2
// mailbox, 2 process-data), and distributed-clock support.
func NewSlave(position uint16, identity Identity) *Slave {
	s := &Slave{position: position, identity: identity}
	s.mem[register.FmmuCount] = 3
	s.mem[register.SyncManagerCount] = 4
	binary.LittleEndian.PutUint16(s.mem[register.EscFeatures:], register.EscFeatureDc)
	return s
}

// OnSdoRequest installs a callback invoked with a full mailbox-out frame
// (header+CoE+SDO) whenever one is written; its return value is deposited
// verbatim as the next mailbox-in frame. Used by tests that need specific
// SDO responses (aborts, multi-byte uploads) beyond the built-in default.
func (s *Slave) OnSdoRequest(fn func(req []byte) []byte) { s.sdoResponder = fn }

func (s *Slave) discoveryAddr() uint16 { return 0xFFFF - s.position }

func (s *Slave) matches(cmd ethercat.Command) bool {
	switch cmd.Type {
	case ethercat.CmdBRD, ethercat.CmdBWR, ethercat.CmdBRW:
		return true
	case ethercat.CmdFPRD, ethercat.CmdFPWR, ethercat.CmdFPRW, ethercat.CmdFRMW, ethercat.CmdARMW:
		return cmd.Adp == s.discoveryAddr() || (s.configured && cmd.Adp == s.configuredAddr)
	case ethercat.CmdLRD, ethercat.CmdLWR, ethercat.CmdLRW:
		return true
	default:
		return false
	}
}

// apply processes one PDU datagram addressed at (at least in part) this
// slave, mutating payload in place for reads and consuming it for writes,
// and returns the WKC contribution this slave adds.
func (s *Slave) apply(cmd ethercat.Command, payload []byte, isWrite bool) uint16 {
	switch cmd.Type {
	case ethercat.CmdLRD, ethercat.CmdLWR, ethercat.CmdLRW:
		return s.applyLogical(payload)
	}
	if isWrite {
		s.write(cmd.Ado, payload)
	} else {
		s.read(cmd.Ado, payload)
	}
	return 1
}

func (s *Slave) read(ado uint16, out []byte) {
	copy(out, s.mem[ado:])
}

func (s *Slave) write(ado uint16, in []byte) {
	copy(s.mem[ado:], in)
	switch ado {
	case register.StationAddress:
		s.configuredAddr = binary.LittleEndian.Uint16(s.mem[register.StationAddress:])
		s.configured = true
	case register.AlControl:
		s.applyAlControl()
	case register.SiiAddress:
		s.siiPendingAddr = binary.LittleEndian.Uint32(s.mem[register.SiiAddress:])
	case register.SiiControlStatus:
		s.applySiiTrigger()
	}
	if s.mailboxOutRange(ado, len(in)) {
		s.applyMailboxWrite()
	}
}

// applyAlControl mirrors a requested state into AL status immediately: the
// simulator has no slave-side delay to model, so it always answers a state
// request with change_err=false on the very next poll.
func (s *Slave) applyAlControl() {
	var ctrl register.AlControlRegister
	copy(ctrl[:], s.mem[register.AlControl:])
	var status register.AlStatusRegister
	status.SetState(ctrl.State())
	copy(s.mem[register.AlStatus:], status[:])
}

var siiWords = map[uint32]int{
	0x0008: 0, // vendor
	0x000A: 1, // product
	0x000C: 2, // revision
}

func (s *Slave) applySiiTrigger() {
	var cs register.SiiControlStatusRegister
	copy(cs[:], s.mem[register.SiiControlStatus:])
	var word [4]byte
	switch siiWords[s.siiPendingAddr] {
	case 0:
		binary.LittleEndian.PutUint32(word[:], s.identity.Vendor)
	case 1:
		binary.LittleEndian.PutUint32(word[:], s.identity.Product)
	case 2:
		binary.LittleEndian.PutUint32(word[:], s.identity.Revision)
	}
	copy(s.mem[register.SiiData:], word[:])
}

func (s *Slave) mailboxOutStart() uint16 { return binary.LittleEndian.Uint16(s.mem[register.SyncManagerAddress(0):]) }
func (s *Slave) mailboxOutLen() uint16 {
	return binary.LittleEndian.Uint16(s.mem[register.SyncManagerAddress(0)+2:])
}

// mailboxOutRange reports whether a write at ado is the whole mailbox-out
// frame: MailboxWrite always issues a single PDU starting exactly at the
// sync manager's configured physical address, never a sub-range write.
func (s *Slave) mailboxOutRange(ado uint16, n int) bool {
	start, length := s.mailboxOutStart(), s.mailboxOutLen()
	return length != 0 && ado == start && n > 0
}

func (s *Slave) applyMailboxWrite() {
	start, length := s.mailboxOutStart(), s.mailboxOutLen()
	req := s.mem[start : start+length]
	hdr, err := mailbox.NewHeader(req)
	if err != nil {
		return
	}
	frameLen := mailbox.HeaderSize + int(hdr.Length())
	if frameLen > len(req) {
		return
	}
	req = req[:frameLen]

	var resp []byte
	if s.sdoResponder != nil {
		resp = s.sdoResponder(req)
	} else {
		resp = defaultSdoResponse(req)
	}

	inStart := binary.LittleEndian.Uint16(s.mem[register.SyncManagerAddress(1):])
	copy(s.mem[inStart:], resp)
	smBlock := register.SyncManagerAddress(1)
	s.mem[smBlock+5] |= register.SmStatusMailboxFull
}

// defaultSdoResponse answers any SDO upload request with an expedited
// 4-byte zero value and any download with a success reply, a deliberately
// minimal default; tests wanting specific payloads install OnSdoRequest.
func defaultSdoResponse(req []byte) []byte {
	resp := make([]byte, mailbox.HeaderSize+coe.HeaderSize+coe.SdoHeaderSize+4)
	hdr, _ := mailbox.NewHeader(resp)
	hdr.SetLength(uint16(len(resp) - mailbox.HeaderSize))
	hdr.SetMailboxType(mailbox.TypeCoE)

	reqHdr, _ := mailbox.NewHeader(req)
	ch, _ := coe.NewHeader(resp[mailbox.HeaderSize:])
	ch.SetService(coe.ServiceSdoResponse)

	reqCh, _ := coe.NewHeader(req[mailbox.HeaderSize:])
	reqSdo, _ := coe.NewSdoHeader(req[mailbox.HeaderSize+coe.HeaderSize:])
	_ = reqCh
	_ = reqHdr

	sh, _ := coe.NewSdoHeader(resp[mailbox.HeaderSize+coe.HeaderSize:])
	if reqSdo.CommandSpecifier() == coe.SdoDownload {
		sh.SetCommandSpecifier(coe.SdoDownloadResponse)
	} else {
		sh.SetCommandSpecifier(coe.SdoUpload)
		sh.SetTransferType(true)
		sh.SetDataSetSize(coe.DataSetSizeForLen(4))
	}
	sh.SetIndex(reqSdo.Index())
	sh.SetSubIndex(reqSdo.SubIndex())
	return resp
}

// applyLogical serves LRD/LWR/LRW against a trivial process-image echo: the
// payload a master writes this cycle is what it reads back the next,
// matching ConfigureSlaveSettings' always-ReadWrite FMMU direction (which
// contributes +3 to the expected WKC).
func (s *Slave) applyLogical(payload []byte) uint16 {
	const logicalBase = 0x2000
	prev := make([]byte, len(payload))
	copy(prev, s.mem[logicalBase:logicalBase+len(payload)])
	copy(s.mem[logicalBase:], payload)
	copy(payload, prev)
	return 3
}
