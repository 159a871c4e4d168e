// Package clock supplies the monotonic time source the cyclic engine stamps
// tasks with. Tasks only ever see an ethercat.SystemTime, never a time.Time,
// so swapping the source for a fake one in tests requires no changes to task
// code.
package clock

import (
	"time"

	"github.com/ecat-io/ethercat"
)

// Source returns the current monotonic time as an ethercat.SystemTime.
type Source interface {
	Now() ethercat.SystemTime
}

// Wall is a Source backed by the runtime monotonic clock, zeroed at the
// instant it is constructed so SystemTime values stay small and comparisons
// never need to guard against overflow for the lifetime of a process.
type Wall struct {
	start time.Time
}

// NewWall returns a Wall clock epoched at the moment of the call.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// Now returns elapsed nanoseconds since the Wall clock's epoch.
func (w *Wall) Now() ethercat.SystemTime {
	return ethercat.SystemTime(time.Since(w.start).Nanoseconds())
}

// Fake is a Source a test advances explicitly, so task deadline logic can be
// exercised deterministically without real sleeps.
type Fake struct {
	now ethercat.SystemTime
}

// NewFake returns a Fake clock starting at t.
func NewFake(t ethercat.SystemTime) *Fake {
	return &Fake{now: t}
}

// Now returns the Fake clock's current value.
func (f *Fake) Now() ethercat.SystemTime { return f.now }

// Advance moves the Fake clock forward by d, which must be non-negative;
// callers needing to exercise monotonic-regression handling should construct
// a new Fake instead of calling Advance with a negative delta.
func (f *Fake) Advance(d time.Duration) {
	f.now += ethercat.SystemTime(d.Nanoseconds())
}

// Set pins the Fake clock to an arbitrary value, including one earlier than
// its current value, to exercise ethercat.TimedOut's clock-regression guard.
func (f *Fake) Set(t ethercat.SystemTime) {
	f.now = t
}
