package task

import (
	"math"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/network"
	"github.com/ecat-io/ethercat/register"
)

// LoopTask is a [Task] that completes every cycle and must be explicitly
// re-armed before it will propose another PDU; the master facade drives
// loop tasks by calling Rearm whenever IsFinished is true, rather than
// discarding them the way one-shot tasks are discarded.
type LoopTask interface {
	Task
	Rearm()
}

// AlStatePoll reads a target's AL Status once per cycle and records the
// observed state, status code, and a running count of WKC mismatches.
type AlStatePoll struct {
	target ethercat.TargetSlave
	sent   bool
	done   bool

	lastState  ethercat.AlState
	lastCode   ethercat.AlStatusCode
	lastWkc    uint16
	mismatches uint32
}

// NewAlStatePoll builds a loop task polling target's AL Status every cycle.
func NewAlStatePoll(target ethercat.TargetSlave) *AlStatePoll {
	return &AlStatePoll{target: target}
}

func (t *AlStatePoll) LastState() ethercat.AlState       { return t.lastState }
func (t *AlStatePoll) LastStatusCode() ethercat.AlStatusCode { return t.lastCode }
func (t *AlStatePoll) LastWkc() uint16                    { return t.lastWkc }
func (t *AlStatePoll) InvalidWkcCount() uint32             { return t.mismatches }

func (t *AlStatePoll) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.done || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	return ethercat.NewReadCommand(t.target, register.AlStatus), 6, nil, true
}

func (t *AlStatePoll) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	t.sent = false
	t.lastWkc = wkc
	if wkc != t.target.ExpectedWkc() {
		t.mismatches++
		t.done = true
		return
	}
	var sr register.AlStatusRegister
	copy(sr[:], data)
	t.lastState = ethercat.AlStateFromRegister(sr.State())
	t.lastCode = ethercat.AlStatusCode(sr.StatusCode())
	t.done = true
}

func (t *AlStatePoll) IsFinished() bool { return t.done }
func (t *AlStatePoll) Err() error        { return nil }
func (t *AlStatePoll) Rearm()            { t.done = false }

// DcDriftCompensation emits an ARMW on DC system time starting from the
// first DC-capable slave and computes the signed offset between the ring's
// distributed-clock system time and the master's local system time.
type DcDriftCompensation struct {
	firstDcSlave uint16
	sent         bool
	done         bool
	offset       int64
}

// NewDcDriftCompensation builds a loop task chaining ARMW reads of DC
// system time starting from firstDcSlave (the configured address of the
// first DC-capable slave in ring order).
func NewDcDriftCompensation(firstDcSlave uint16) *DcDriftCompensation {
	return &DcDriftCompensation{firstDcSlave: firstDcSlave}
}

// Offset returns dc_system_time - local_system_time from the last cycle.
func (t *DcDriftCompensation) Offset() int64 { return t.offset }

func (t *DcDriftCompensation) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.done || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	return ethercat.Command{Type: ethercat.CmdARMW, Adp: t.firstDcSlave, Ado: register.DcSystemTime}, 8, nil, true
}

func (t *DcDriftCompensation) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	t.sent = false
	t.done = true
	if wkc == 0 || len(data) < 8 {
		return
	}
	var dcTime uint64
	for i := 7; i >= 0; i-- {
		dcTime = dcTime<<8 | uint64(data[i])
	}
	t.offset = saturatingSub(int64(dcTime), int64(now))
}

// saturatingSub computes a-b clamped to the int64 range instead of
// wrapping, since dcTime and now are both unsigned 64-bit quantities
// reinterpreted as signed and their difference can overflow int64.
func saturatingSub(a, b int64) int64 {
	diff := a - b
	if b > 0 && diff > a {
		return math.MinInt64
	}
	if b < 0 && diff < a {
		return math.MaxInt64
	}
	return diff
}

func (t *DcDriftCompensation) IsFinished() bool { return t.done }
func (t *DcDriftCompensation) Err() error        { return nil }
func (t *DcDriftCompensation) Rearm()            { t.done = false }

// RxErrorCounter reads the RX error counter register block once per cycle
// and surfaces the raw counters without judgment.
type RxErrorCounter struct {
	target  ethercat.TargetSlave
	sent    bool
	done    bool
	counters [16]byte
}

// NewRxErrorCounter builds a loop task reading target's RX error counters.
func NewRxErrorCounter(target ethercat.TargetSlave) *RxErrorCounter {
	return &RxErrorCounter{target: target}
}

// Counters returns the raw 16-byte RX error counter block from the last cycle.
func (t *RxErrorCounter) Counters() [16]byte { return t.counters }

func (t *RxErrorCounter) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.done || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	return ethercat.NewReadCommand(t.target, register.RxErrorCounter), 16, nil, true
}

func (t *RxErrorCounter) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	t.sent = false
	t.done = true
	if wkc == 0 {
		return
	}
	copy(t.counters[:], data)
}

func (t *RxErrorCounter) IsFinished() bool { return t.done }
func (t *RxErrorCounter) Err() error        { return nil }
func (t *RxErrorCounter) Rearm()            { t.done = false }

// ProcessDataExchange issues one LRW per cycle over a contiguous logical
// address block, the cyclic process-data image shared by every configured
// FMMU. It never errors at the task level; WKC mismatches are counted for
// diagnostics and the exchange always rearms.
type ProcessDataExchange struct {
	logicalAddr uint32
	image       []byte // shared read/write process-data buffer
	expectedWkc uint16

	sent       bool
	done       bool
	lastWkc    uint16
	mismatches uint32
}

// NewProcessDataExchange builds a loop task exchanging image (read and
// written in place) at logicalAddr, expecting expectedWkc as computed from
// the sum of every configured FMMU's [network.FmmuDirection.WkcContribution].
func NewProcessDataExchange(logicalAddr uint32, image []byte, expectedWkc uint16) *ProcessDataExchange {
	return &ProcessDataExchange{logicalAddr: logicalAddr, image: image, expectedWkc: expectedWkc}
}

// LastWkc returns the working counter from the last cycle's exchange.
func (t *ProcessDataExchange) LastWkc() uint16 { return t.lastWkc }

// InvalidWkcCount returns the running count of WKC mismatches.
func (t *ProcessDataExchange) InvalidWkcCount() uint32 { return t.mismatches }

// ExpectedWkc computes the expected working counter for a set of FMMUs,
// summing each one's directional contribution.
func ExpectedWkc(fmmus []network.FmmuConfig) uint16 {
	var sum uint16
	for _, f := range fmmus {
		if f.Active {
			sum += f.Direction.WkcContribution()
		}
	}
	return sum
}

func (t *ProcessDataExchange) NextPDU() (ethercat.Command, int, func([]byte), bool) {
	if t.done || t.sent {
		return ethercat.Command{}, 0, nil, false
	}
	t.sent = true
	cmd := ethercat.Command{Type: ethercat.CmdLRW, Adp: uint16(t.logicalAddr), Ado: uint16(t.logicalAddr >> 16)}
	return cmd, len(t.image), func(p []byte) {
		copy(p, t.image)
	}, true
}

func (t *ProcessDataExchange) ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime) {
	t.sent = false
	t.done = true
	t.lastWkc = wkc
	if wkc != t.expectedWkc {
		t.mismatches++
	}
	copy(t.image, data)
}

func (t *ProcessDataExchange) IsFinished() bool { return t.done }
func (t *ProcessDataExchange) Err() error        { return nil }
func (t *ProcessDataExchange) Rearm()            { t.done = false }
