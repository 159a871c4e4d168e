// Package ethercat implements the core of an EtherCAT fieldbus master: frame
// and PDU codecs, the cooperative cyclic task engine, the mailbox/CoE/SDO
// state machines, the in-memory network model, and the master facade that
// binds them together.
//
// The package only depends on the link driver and time source contracts
// described in sub-packages link and clock; it never allocates after a
// master has been constructed.
package ethercat

// SystemTime is a monotonic timestamp expressed in nanoseconds from an
// implementation-chosen epoch, matching the EtherCAT distributed-clock time
// base.
type SystemTime uint64

// TimedOut reports whether, starting the clock at start, more than
// budgetMs milliseconds have elapsed by now. If the clock appears to have
// regressed (now is not strictly after start) the task is never considered
// timed out: a regression means the timer has not meaningfully started yet
// from the caller's perspective.
func TimedOut(start, now SystemTime, budgetMs uint32) bool {
	if !(start < now) {
		return false
	}
	return uint64(budgetMs)*1_000_000 < uint64(now-start)
}
