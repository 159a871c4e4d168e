package clock

import (
	"testing"
	"time"

	"github.com/ecat-io/ethercat"
)

func TestFakeAdvance(t *testing.T) {
	f := NewFake(0)
	if f.Now() != 0 {
		t.Fatalf("Now() = %d, want 0", f.Now())
	}
	f.Advance(time.Millisecond)
	if f.Now() != ethercat.SystemTime(time.Millisecond.Nanoseconds()) {
		t.Fatalf("Now() = %d, want %d", f.Now(), time.Millisecond.Nanoseconds())
	}
}

func TestFakeRegression(t *testing.T) {
	f := NewFake(1000)
	f.Set(500)
	if f.Now() != 500 {
		t.Fatalf("Now() = %d, want 500", f.Now())
	}
	// TimedOut must treat a clock that went backwards as "not yet timed out".
	if ethercat.TimedOut(1000, f.Now(), 1) {
		t.Fatal("expected no timeout across a clock regression")
	}
}

func TestWallMonotonic(t *testing.T) {
	w := NewWall()
	a := w.Now()
	time.Sleep(time.Millisecond)
	b := w.Now()
	if b <= a {
		t.Fatalf("expected wall clock to advance, a=%d b=%d", a, b)
	}
}
