package master

import (
	"log/slog"
	"time"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/diag"
	"github.com/ecat-io/ethercat/internal"
	"github.com/ecat-io/ethercat/link"
	"github.com/ecat-io/ethercat/network"
	"github.com/ecat-io/ethercat/register"
	"github.com/ecat-io/ethercat/task"
	"github.com/ecat-io/ethercat/transport"
)

// Master is the facade applications drive: it owns the transport, the
// network model, and the set of loop tasks running every cycle, and is not
// safe for concurrent use from multiple goroutines, matching the
// single-threaded cooperative model the whole engine is built on.
type Master struct {
	cfg     Config
	log     *slog.Logger
	metrics *diag.Metrics
	iface   *transport.Interface
	net     network.Network
	process *task.ProcessDataExchange
	alPoll  *task.AlStatePoll
	dc      *task.DcDriftCompensation
	rxErr   *task.RxErrorCounter
}

// New constructs a Master driving l, with the given Config and options.
func New(l link.Driver, cfg Config, opts ...Option) *Master {
	o := newOptions(opts)
	return &Master{
		cfg:     cfg,
		log:     o.logger,
		metrics: o.metrics,
		iface:   transport.New(l, cfg.SocketCount),
	}
}

// Network returns the master's discovered network model for introspection.
func (m *Master) Network() *network.Network { return &m.net }

// runToCompletion drives t against socket 0 until it finishes, polling the
// transport once per cycle. It is used by one-shot operations (Init,
// ChangeAlState, ReadSdo, WriteSdo) which block the caller until done,
// matching this codebase's single-in-flight-frame scheduling model.
func (m *Master) runToCompletion(t task.Task, now *ethercat.SystemTime) error {
	s := m.iface.Socket(0)
	bo := internal.NewBackoff(internal.BackoffCriticalPath)
	for !t.IsFinished() {
		if !s.Pending() {
			cmd, n, fill, ok := t.NextPDU()
			if ok {
				s.Request(cmd, n, fill)
			}
		}
		if _, err := m.iface.Poll(); err != nil {
			return err
		}
		*now += 1_000_000 // advance by 1ms of simulated budget per cycle
		if s.Ready() {
			bo.Hit()
			data, wkc := s.Reply()
			t.ReceiveAndProcess(data, wkc, *now)
		} else {
			bo.Miss()
		}
	}
	err := t.Err()
	if err == ethercat.ErrTimeout && m.metrics != nil {
		m.metrics.ObserveTaskTimeout(taskKind(t))
	}
	return err
}

// taskKind names t for the timeout metric's label, matching the concrete
// type rather than exposing a Name method every Task would otherwise need.
func taskKind(t task.Task) string {
	switch t.(type) {
	case *task.AlStateTransfer:
		return "al_state_transfer"
	case *task.SdoUpload:
		return "sdo_upload"
	case *task.SdoDownload:
		return "sdo_download"
	case *task.NetworkInit:
		return "network_init"
	default:
		return "other"
	}
}

// Init drives network discovery and slave configuration to completion.
func (m *Master) Init() error {
	var now ethercat.SystemTime
	t := task.NewNetworkInit(&m.net, 0x1000)
	err := m.runToCompletion(t, &now)
	if m.metrics != nil {
		m.metrics.SlavesOnline.Set(float64(m.net.NumSlaves()))
	}
	return err
}

// ChangeAlState drives target to desired and returns the AL state observed
// when the transition finishes (which may not be desired, on error).
func (m *Master) ChangeAlState(target ethercat.TargetSlave, desired ethercat.AlState) (ethercat.AlState, error) {
	var now ethercat.SystemTime
	var t *task.AlStateTransfer
	if budget, ok := m.cfg.AlStateTimeouts[desired.String()]; ok && !internal.IsZeroed(budget) {
		t = task.NewAlStateTransferWithTimeout(target, desired, budget)
	} else {
		t = task.NewAlStateTransfer(target, desired)
	}
	err := m.runToCompletion(t, &now)
	return t.Observed(), err
}

// ReadSdo uploads index:subIndex from target.
func (m *Master) ReadSdo(target ethercat.TargetSlave, index uint16, subIndex uint8, slave *network.Slave) ([]byte, error) {
	var now ethercat.SystemTime
	addrs := mailboxAddrsOf(slave)
	respBuf := make([]byte, 256)
	t := task.NewSdoUpload(target, addrs, index, subIndex, &slave.MailboxCount, respBuf)
	if err := m.runToCompletion(t, &now); err != nil {
		return nil, err
	}
	return t.Data(), nil
}

// WriteSdo downloads data to index:subIndex on target.
func (m *Master) WriteSdo(target ethercat.TargetSlave, index uint16, subIndex uint8, data []byte, slave *network.Slave) error {
	var now ethercat.SystemTime
	addrs := mailboxAddrsOf(slave)
	respBuf := make([]byte, 256)
	t := task.NewSdoDownload(target, addrs, index, subIndex, data, &slave.MailboxCount, respBuf)
	return m.runToCompletion(t, &now)
}

func mailboxAddrsOf(slave *network.Slave) task.MailboxAddrs {
	return task.MailboxAddrs{
		SmOut: register.SyncManagerAddress(slave.MailboxOut.Number), MbxOut: slave.MailboxOut.StartAddress,
		SmIn: register.SyncManagerAddress(slave.MailboxIn.Number), MbxIn: slave.MailboxIn.StartAddress,
	}
}

// ConfigureSlaveSettings allocates logical and physical process-data
// addresses for the first FMMU (Fmmu[0]) of every discovered slave that has
// one, programs that FMMU on the wire and reads back the sync manager it
// drives; a slave's further FMMUs are left unconfigured. It then prepares the
// cyclic exchange task and, for rings with at least one DC-capable slave,
// the distributed-clock drift compensation loop task. It must be called
// once after Init and before ProcessOneCycle.
func (m *Master) ConfigureSlaveSettings() error {
	var logical uint32
	physical := task.ProcessDataPhysAddr
	slaves := m.net.All()
	var fmmus []network.FmmuConfig
	var firstDc uint16
	for i := range slaves {
		s := &slaves[i]
		if s.DcSupport && firstDc == 0 {
			firstDc = s.ConfiguredAddress
		}
		if s.NumberOfFmmu == 0 {
			continue
		}
		f := &s.Fmmu[0]
		f.LogicalStart = logical
		f.Length = uint16(m.cfg.ProcessImageSize)
		f.PhysicalStart = physical
		f.Active = true
		f.Direction = network.FmmuReadWrite

		target := ethercat.SingleSlave(s.ConfiguredAddress)
		prog := task.NewFmmuProgram(target, 0, *f, task.ProcessDataSmIndex)
		var now ethercat.SystemTime
		if err := m.runToCompletion(prog, &now); err != nil {
			return err
		}

		logical += uint32(f.Length)
		physical += f.Length
		fmmus = append(fmmus, *f)
	}
	image := make([]byte, m.cfg.ProcessImageSize)
	expected := task.ExpectedWkc(fmmus)
	m.process = task.NewProcessDataExchange(0, image, expected)
	m.alPoll = task.NewAlStatePoll(ethercat.BroadcastSlaves(uint16(m.net.NumSlaves())))
	m.rxErr = task.NewRxErrorCounter(ethercat.BroadcastSlaves(uint16(m.net.NumSlaves())))
	if firstDc != 0 {
		m.dc = task.NewDcDriftCompensation(firstDc)
	}
	return nil
}

// ProcessOneCycle advances every registered loop task by exactly one frame.
func (m *Master) ProcessOneCycle(now ethercat.SystemTime) error {
	cycleStart := time.Now()
	var mismatchesBefore uint32
	if m.process != nil {
		mismatchesBefore = m.process.InvalidWkcCount()
	}
	defer func() {
		if m.metrics == nil {
			return
		}
		wkcMismatch := m.process != nil && m.process.InvalidWkcCount() != mismatchesBefore
		m.metrics.ObserveCycle(time.Since(cycleStart).Seconds(), wkcMismatch)
	}()
	sockets := []struct {
		s *transport.Socket
		t task.LoopTask
	}{}
	if m.process != nil {
		sockets = append(sockets, struct {
			s *transport.Socket
			t task.LoopTask
		}{m.iface.Socket(0), m.process})
	}
	if m.alPoll != nil && m.iface.NumSockets() > 1 {
		sockets = append(sockets, struct {
			s *transport.Socket
			t task.LoopTask
		}{m.iface.Socket(1), m.alPoll})
	}
	if m.rxErr != nil && m.iface.NumSockets() > 2 {
		sockets = append(sockets, struct {
			s *transport.Socket
			t task.LoopTask
		}{m.iface.Socket(2), m.rxErr})
	}
	if m.dc != nil && m.iface.NumSockets() > 3 {
		sockets = append(sockets, struct {
			s *transport.Socket
			t task.LoopTask
		}{m.iface.Socket(3), m.dc})
	}

	for _, e := range sockets {
		if e.t.IsFinished() {
			e.t.Rearm()
		}
		if !e.s.Pending() {
			cmd, n, fill, ok := e.t.NextPDU()
			if ok {
				e.s.Request(cmd, n, fill)
			}
		}
	}
	if _, err := m.iface.Poll(); err != nil {
		return err
	}
	for _, e := range sockets {
		if e.s.Ready() {
			data, wkc := e.s.Reply()
			e.t.ReceiveAndProcess(data, wkc, now)
		}
	}
	return nil
}
