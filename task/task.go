// Package task implements the cyclic task contract and the concrete
// one-shot and loop tasks that drive an EtherCAT slave through network
// initialization, AL-state transitions, mailbox/SDO exchanges, and cyclic
// process-data exchange.
package task

import "github.com/ecat-io/ethercat"

// Task is the cyclic contract every state machine in this package
// implements. A task proposes at most one PDU per cycle, consumes at most
// one response per cycle, and reports when it is done.
type Task interface {
	// NextPDU returns the command, payload length, and payload-fill
	// function for the PDU this task wants sent this cycle. ok is false if
	// the task has nothing to send right now (already finished, or waiting
	// on a reply already in flight).
	NextPDU() (cmd ethercat.Command, length int, fill func([]byte), ok bool)
	// ReceiveAndProcess consumes one PDU reply and advances the task's
	// internal state. now is used to evaluate any pending deadline.
	ReceiveAndProcess(data []byte, wkc uint16, now ethercat.SystemTime)
	// IsFinished reports whether the task has completed or errored.
	IsFinished() bool
	// Err returns the terminal error, if any. Valid once IsFinished is true.
	Err() error
}

// deadline tracks a monotonic start time and a budget in milliseconds,
// following the regression-safe comparison used throughout this codebase:
// a clock that appears to have gone backwards never trips the deadline.
type deadline struct {
	start   ethercat.SystemTime
	started bool
	budget  uint32
}

func (d *deadline) arm(now ethercat.SystemTime, budgetMs uint32) {
	d.start = now
	d.started = true
	d.budget = budgetMs
}

func (d *deadline) expired(now ethercat.SystemTime) bool {
	if !d.started {
		return false
	}
	return ethercat.TimedOut(d.start, now, d.budget)
}
