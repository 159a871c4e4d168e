package loopback

import "testing"

func TestPairRoundtrip(t *testing.T) {
	a, b := Pair([6]byte{1}, [6]byte{2}, 1514)
	if err := a.Send([]byte{0xDE, 0xAD}); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 64)
	n, err := b.Recv(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || buf[0] != 0xDE || buf[1] != 0xAD {
		t.Fatalf("got %x", buf[:n])
	}
}

func TestRecvEmptyIsNotError(t *testing.T) {
	a, _ := Pair([6]byte{1}, [6]byte{2}, 1514)
	buf := make([]byte, 64)
	n, err := a.Recv(buf)
	if err != nil || n != 0 {
		t.Fatalf("want (0, nil), got (%d, %v)", n, err)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	a, _ := Pair([6]byte{1}, [6]byte{2}, 1514)
	a.Close()
	if err := a.Send([]byte{1}); err == nil {
		t.Fatal("want error after close")
	}
}
