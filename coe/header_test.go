package coe

import "testing"

func TestHeaderRoundtrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	h, err := NewHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	h.SetNumber(0x1AB)
	h.SetService(ServiceSdoRequest)
	if h.Number() != 0x1AB {
		t.Fatalf("number roundtrip, got %x", h.Number())
	}
	if h.Service() != ServiceSdoRequest {
		t.Fatalf("service roundtrip")
	}
}

func TestSdoHeaderExpeditedUpload(t *testing.T) {
	buf := make([]byte, SdoHeaderSize)
	s, err := NewSdoHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	s.SetCommandSpecifier(SdoUpload)
	s.SetTransferType(true)
	s.SetDataSetSize(DataSetSizeForLen(2))
	s.SetIndex(0x1018)
	s.SetSubIndex(1)

	if s.CommandSpecifier() != SdoUpload {
		t.Fatalf("command specifier roundtrip")
	}
	if !s.TransferType() {
		t.Fatalf("transfer type roundtrip")
	}
	if s.ExpeditedPayloadLen() != 2 {
		t.Fatalf("expedited payload len, got %d", s.ExpeditedPayloadLen())
	}
	if s.Index() != 0x1018 || s.SubIndex() != 1 {
		t.Fatalf("index/subindex roundtrip")
	}
}

func TestSdoHeaderAbort(t *testing.T) {
	buf := make([]byte, SdoHeaderSize)
	s, _ := NewSdoHeader(buf)
	s.SetCommandSpecifier(SdoAbort)
	if s.CommandSpecifier() != SdoAbort {
		t.Fatalf("abort command specifier roundtrip")
	}
}
