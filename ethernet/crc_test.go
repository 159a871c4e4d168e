package ethernet

import (
	"encoding/binary"
	"testing"
)

func TestCRC32(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	got := CRC32(data)
	if got == 0 {
		t.Fatal("expected non-zero CRC for non-empty data")
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], got)
	if CRC32(data) != binary.LittleEndian.Uint32(buf[:]) {
		t.Fatal("CRC32 is not deterministic")
	}
}

func TestCRC32Empty(t *testing.T) {
	if CRC32(nil) != 0 {
		t.Fatal("expected zero CRC for nil input")
	}
}
