package mailbox

import "testing"

func TestHeaderRoundtrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	h, err := NewHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	h.SetLength(10)
	h.SetAddress(0x1001)
	h.SetPriority(2)
	h.SetMailboxType(TypeCoE)
	h.SetCount(5)

	if h.Length() != 10 {
		t.Fatalf("length roundtrip")
	}
	if h.Address() != 0x1001 {
		t.Fatalf("address roundtrip")
	}
	if h.Priority() != 2 {
		t.Fatalf("priority roundtrip")
	}
	if h.MailboxType() != TypeCoE {
		t.Fatalf("mailbox type roundtrip, got %v", h.MailboxType())
	}
	if h.Count() != 5 {
		t.Fatalf("count roundtrip, got %d", h.Count())
	}
}

func TestNextCountWraps(t *testing.T) {
	cases := []struct{ in, want uint8 }{
		{0, 1}, {1, 2}, {2, 3}, {6, 7}, {7, 1},
	}
	for _, c := range cases {
		if got := NextCount(c.in); got != c.want {
			t.Errorf("NextCount(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
