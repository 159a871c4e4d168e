package ecatsim

import (
	"testing"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/clock"
	"github.com/ecat-io/ethercat/master"
)

func TestFullCycleSingleSlave(t *testing.T) {
	slave := NewSlave(0, Identity{Vendor: 0xABCD, Product: 0x0001, Revision: 0x0003})
	link := NewLink([6]byte{0x02, 0, 0, 0, 0, 1}, 1514, slave)

	cfg := master.DefaultConfig()
	cfg.ProcessImageSize = 2
	m := master.New(link, cfg)

	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := m.Network().NumSlaves(); got != 1 {
		t.Fatalf("NumSlaves = %d, want 1", got)
	}
	slaveRec := m.Network().Slave(0)
	if slaveRec.ID.Vendor != 0xABCD || slaveRec.ID.Product != 0x0001 || slaveRec.ID.Revision != 0x0003 {
		t.Fatalf("identity = %+v", slaveRec.ID)
	}
	if slaveRec.MailboxCount != 1 {
		t.Fatalf("MailboxCount = %d, want 1", slaveRec.MailboxCount)
	}

	if err := m.ConfigureSlaveSettings(); err != nil {
		t.Fatalf("ConfigureSlaveSettings: %v", err)
	}

	broadcast := ethercat.BroadcastSlaves(1)
	for _, desired := range []ethercat.AlState{
		ethercat.AlStateInit,
		ethercat.AlStatePreOperational,
		ethercat.AlStateSafeOperational,
	} {
		observed, err := m.ChangeAlState(broadcast, desired)
		if err != nil {
			t.Fatalf("ChangeAlState(%v): %v", desired, err)
		}
		if observed != desired {
			t.Fatalf("observed = %v, want %v", observed, desired)
		}
	}

	target := ethercat.SingleSlave(slaveRec.ConfiguredAddress)
	data, err := m.ReadSdo(target, 0x1018, 1, slaveRec)
	if err != nil {
		t.Fatalf("ReadSdo: %v", err)
	}
	if len(data) != 4 {
		t.Fatalf("sdo data len = %d, want 4", len(data))
	}

	wall := clock.NewWall()
	for i := 0; i < 10; i++ {
		if err := m.ProcessOneCycle(wall.Now()); err != nil {
			t.Fatalf("ProcessOneCycle[%d]: %v", i, err)
		}
	}
}
