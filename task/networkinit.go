package task

import (
	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/network"
	"github.com/ecat-io/ethercat/register"
)

type netInitStep uint8

const (
	niCountSlaves netInitStep = iota
	niInitSlave
	niDone
)

// NetworkInit discovers the segment's slave count with a broadcast DL
// Control write, then drives a SlaveInit task per discovered slave in turn,
// populating net. The first configured station address handed out is
// baseAddress+1, baseAddress+2, and so on.
type NetworkInit struct {
	net         *network.Network
	baseAddress uint16

	step   netInitStep
	sent   bool
	count  int
	index  int
	cur    *SlaveInit
	err    error
}

// NewNetworkInit builds a task clearing and repopulating net, assigning
// configured addresses starting at baseAddress+1.
func NewNetworkInit(net *network.Network, baseAddress uint16) *NetworkInit {
	net.Clear()
	return &NetworkInit{net: net, baseAddress: baseAddress}
}

func (t *NetworkInit) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.step == niDone || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	switch t.step {
	case niCountSlaves:
		t.sent = true
		return ethercat.NewWriteCommand(ethercat.BroadcastSlaves(0), register.DlControl), 4, func(p []byte) {
			var dl register.DlControlRegister
			copy(p, dl[:])
		}, true
	case niInitSlave:
		cmd, n, fill, ok := t.cur.NextPDU()
		if ok {
			t.sent = true
		}
		return cmd, n, fill, ok
	}
	return ethercat.Command{}, 0, nil, false
}

func (t *NetworkInit) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	if t.step == niDone {
		return
	}
	t.sent = false
	switch t.step {
	case niCountSlaves:
		t.count = int(wkc)
		if t.count > network.MaxSlaves {
			t.err = ethercat.ErrTooManySlaves
			t.step = niDone
			return
		}
		if t.count == 0 {
			t.step = niDone
			return
		}
		t.startNextSlave()
	case niInitSlave:
		t.cur.ReceiveAndProcess(data, wkc, now)
		if !t.cur.IsFinished() {
			return
		}
		if err := t.cur.Err(); err != nil {
			t.err = err
			t.step = niDone
			return
		}
		t.index++
		if t.index >= t.count {
			t.step = niDone
			return
		}
		t.startNextSlave()
	}
}

func (t *NetworkInit) startNextSlave() {
	rec, err := t.net.Add()
	if err != nil {
		t.err = err
		t.step = niDone
		return
	}
	configuredAddr := t.baseAddress + uint16(t.index) + 1
	t.cur = NewSlaveInit(uint16(t.index), configuredAddr, rec)
	t.step = niInitSlave
}

func (t *NetworkInit) IsFinished() bool { return t.step == niDone }
func (t *NetworkInit) Err() error        { return t.err }
