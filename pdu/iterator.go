package pdu

// Iterator walks the PDU datagrams embedded in one EtherCAT frame's payload
// (the bytes following the 2-byte EtherCAT header), driven by each
// datagram's has_next bit and explicit length field. Iteration stops when a
// datagram's length is zero or the remaining buffer cannot hold a full
// datagram.
type Iterator struct {
	rest []byte
	done bool
}

// NewIterator returns an Iterator over the datagrams in payload, the slice
// immediately following the EtherCAT frame header.
func NewIterator(payload []byte) Iterator {
	return Iterator{rest: payload}
}

// Next returns the next datagram in the frame and advances the iterator. ok
// is false once iteration is exhausted.
func (it *Iterator) Next() (dg Datagram, ok bool) {
	if it.done || len(it.rest) < DatagramHeaderSize+WkcSize {
		it.done = true
		return Datagram{}, false
	}
	// Peek the length field to find this datagram's total size.
	peek, err := NewDatagram(it.rest)
	if err != nil {
		it.done = true
		return Datagram{}, false
	}
	n := int(peek.PayloadLength())
	total := DatagramHeaderSize + n + WkcSize
	if n == 0 || total > len(it.rest) {
		it.done = true
		return Datagram{}, false
	}
	dg, err = NewDatagram(it.rest[:total])
	if err != nil {
		it.done = true
		return Datagram{}, false
	}
	hasNext := dg.HasNext()
	it.rest = it.rest[total:]
	if !hasNext {
		it.done = true
	}
	return dg, true
}
