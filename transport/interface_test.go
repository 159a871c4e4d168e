package transport

import (
	"testing"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/link/loopback"
)

func TestPollRoundTrip(t *testing.T) {
	a, b := loopback.Pair([6]byte{1, 2, 3, 4, 5, 6}, [6]byte{6, 5, 4, 3, 2, 1}, 1514)
	master := New(a, 4)

	s := master.Socket(0)
	s.Request(ethercat.NewReadCommand(ethercat.SingleSlave(0x1001), 0x0130), 2, nil)

	sent, err := master.Poll()
	if err != nil {
		t.Fatal(err)
	}
	if !sent {
		t.Fatal("expected frame to be sent")
	}

	// Simulate a slave by echoing the frame back unchanged (its WKC stays
	// 0); routing the reply only needs its index and command type.
	buf := make([]byte, 1514)
	n, err := b.Recv(buf)
	if err != nil || n == 0 {
		t.Fatalf("expected to observe sent frame, err=%v n=%d", err, n)
	}
	if err := b.Send(buf[:n]); err != nil {
		t.Fatal(err)
	}

	if _, err := master.Poll(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Fatal("expected socket 0 to have a reply")
	}
}

func TestAddPDUTooLargeFails(t *testing.T) {
	a, _ := loopback.Pair([6]byte{1}, [6]byte{2}, 128)
	master := New(a, 1)
	err := master.AddPDU(0, ethercat.NewReadCommand(ethercat.SingleSlave(1), 0), 4096, nil)
	if err != ErrTooLarge {
		t.Fatalf("want ErrTooLarge, got %v", err)
	}
}

func TestUnknownIndexDropped(t *testing.T) {
	a, b := loopback.Pair([6]byte{1}, [6]byte{2}, 1514)
	master := New(a, 2)
	s := master.Socket(0)
	s.Request(ethercat.NewReadCommand(ethercat.SingleSlave(1), 0x10), 2, nil)
	master.Poll()

	buf := make([]byte, 1514)
	n, _ := b.Recv(buf)
	const indexOffset = 14 + 2 + 1 // ethernet header + ecat header + command byte
	buf[indexOffset] = 0xFF
	b.Send(buf[:n])
	master.Poll()
	if s.Ready() {
		t.Fatal("reply should not have been delivered to socket 0")
	}
}
