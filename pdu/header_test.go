package pdu

import (
	"testing"

	"github.com/ecat-io/ethercat"
)

func TestHeaderRoundtrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	h, err := NewHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	h.SetLength(1234)
	h.SetType(TypePDU)
	if h.Length() != 1234 {
		t.Fatalf("length roundtrip: got %d", h.Length())
	}
	if h.Type() != TypePDU {
		t.Fatalf("type roundtrip: got %d", h.Type())
	}
}

func TestDatagramRoundtrip(t *testing.T) {
	const payloadLen = 6
	buf := make([]byte, DatagramHeaderSize+payloadLen+WkcSize)
	dg, err := NewDatagram(buf)
	if err != nil {
		t.Fatal(err)
	}
	dg.SetCommand(ethercat.CmdFPRD)
	dg.SetIndex(7)
	dg.SetAdp(0x1001)
	dg.SetAdo(0x0130)
	dg.SetPayloadLength(payloadLen)
	dg.SetHasNext(false)
	dg.SetCirculated(false)
	dg.SetIrq(0)
	copy(dg.Payload(), []byte{1, 2, 3, 4, 5, 6})
	dg.SetWkc(1)

	if dg.Command() != ethercat.CmdFPRD {
		t.Fatalf("command roundtrip")
	}
	if dg.Index() != 7 {
		t.Fatalf("index roundtrip")
	}
	if dg.Adp() != 0x1001 || dg.Ado() != 0x0130 {
		t.Fatalf("adp/ado roundtrip")
	}
	if dg.PayloadLength() != payloadLen {
		t.Fatalf("payload length roundtrip")
	}
	if dg.HasNext() {
		t.Fatalf("has_next should be false")
	}
	if dg.Wkc() != 1 {
		t.Fatalf("wkc roundtrip")
	}
	// Quantified invariant: header+payload+wkc equals the reserved size.
	if dg.Size() != DatagramHeaderSize+payloadLen+WkcSize {
		t.Fatalf("size invariant violated")
	}
}

func TestIteratorStopsOnZeroLength(t *testing.T) {
	buf := make([]byte, DatagramHeaderSize+WkcSize)
	it := NewIterator(buf)
	if _, ok := it.Next(); ok {
		t.Fatal("expected no datagrams for zero-length payload")
	}
}

func TestIteratorMultipleDatagrams(t *testing.T) {
	const payloadLen = 2
	one := DatagramHeaderSize + payloadLen + WkcSize
	buf := make([]byte, one*2)

	dg1, _ := NewDatagram(buf[:one])
	dg1.SetCommand(ethercat.CmdBRD)
	dg1.SetPayloadLength(payloadLen)
	dg1.SetHasNext(true)

	dg2, _ := NewDatagram(buf[one:])
	dg2.SetCommand(ethercat.CmdFPRD)
	dg2.SetPayloadLength(payloadLen)
	dg2.SetHasNext(false)

	it := NewIterator(buf)
	first, ok := it.Next()
	if !ok || first.Command() != ethercat.CmdBRD {
		t.Fatalf("expected first datagram BRD, got ok=%v cmd=%v", ok, first.Command())
	}
	second, ok := it.Next()
	if !ok || second.Command() != ethercat.CmdFPRD {
		t.Fatalf("expected second datagram FPRD, got ok=%v cmd=%v", ok, second.Command())
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected iteration to stop after has_next=false")
	}
}
