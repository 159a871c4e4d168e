// Package network holds the in-memory model of a discovered EtherCAT
// segment: the slave chain, each slave's identity and mailbox/FMMU
// configuration, and the lifecycle operations (clear, populate) driven by
// network initialization.
package network

import "github.com/ecat-io/ethercat"

// MaxSlaves bounds the fixed-size slave record array; network
// initialization surfaces ErrTooManySlaves if discovery finds more.
const MaxSlaves = 64

// Identity is a slave's CoE identity object (index 0x1018).
type Identity struct {
	Vendor, Product, Revision, Serial uint32
}

// MailboxSyncManager describes one mailbox-carrying sync manager.
type MailboxSyncManager struct {
	Number        int
	StartAddress  uint16
	Size          uint16
}

// FmmuConfig records one FMMU's assigned logical-address mapping.
type FmmuConfig struct {
	LogicalStart  uint32
	Length        uint16
	PhysicalStart uint16
	Direction     FmmuDirection
	Active        bool
}

// FmmuDirection tags whether an FMMU maps a read, write, or read-write
// region, used to compute the expected working counter of a process-data
// exchange.
type FmmuDirection uint8

const (
	FmmuRead FmmuDirection = iota
	FmmuWrite
	FmmuReadWrite
)

// WkcContribution returns the amount a successfully-serviced FMMU of this
// direction adds to a process-data exchange's expected working counter.
func (d FmmuDirection) WkcContribution() uint16 {
	switch d {
	case FmmuRead:
		return 1
	case FmmuWrite:
		return 2
	case FmmuReadWrite:
		return 3
	default:
		return 0
	}
}

// Slave is the master's in-memory record for one discovered slave.
type Slave struct {
	ConfiguredAddress uint16
	ID                Identity

	RamSizeKB    uint8
	NumberOfFmmu uint8
	NumberOfSm   uint8

	MailboxOut MailboxSyncManager // master writes, slave reads
	MailboxIn  MailboxSyncManager // slave writes, master reads
	// MailboxCount is the monotonic toggle the master increments (wrapping
	// 7->1) before each outgoing mailbox frame to this slave. It is a plain
	// field owned by this record; task code mutates it through whatever
	// mutable borrow the master facade already holds.
	MailboxCount uint8

	DcSupport  bool
	CoeSupport bool

	AlState         ethercat.AlState
	LastAlStatus    ethercat.AlStatusCode
	InvalidWkcCount uint32

	Fmmu [3]FmmuConfig
}

// Network is the fixed-capacity slave chain the master discovers and
// configures during initialization.
type Network struct {
	slaves [MaxSlaves]Slave
	count  int
}

// Clear empties the network model, the first step of network
// initialization.
func (n *Network) Clear() { n.count = 0 }

// NumSlaves returns the number of slaves currently in the model.
func (n *Network) NumSlaves() int { return n.count }

// Add appends a new slave record, zeroed except for MailboxCount = 1, and
// returns a pointer to it, or
// ErrTooManySlaves if the fixed capacity is exhausted.
func (n *Network) Add() (*Slave, error) {
	if n.count >= MaxSlaves {
		return nil, ethercat.ErrTooManySlaves
	}
	s := &n.slaves[n.count]
	*s = Slave{MailboxCount: 1}
	n.count++
	return s, nil
}

// Slave returns the i'th slave record (0-indexed, i < NumSlaves()).
func (n *Network) Slave(i int) *Slave { return &n.slaves[i] }

// All returns the populated slave records.
func (n *Network) All() []Slave { return n.slaves[:n.count] }
