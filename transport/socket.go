// Package transport assembles PDU datagrams into EtherCAT frames, drives a
// link driver to exchange them, and demultiplexes replies back to the
// fixed-size pool of sockets that requested them.
package transport

import "github.com/ecat-io/ethercat"

// Socket holds at most one outbound PDU request and the eventual response it
// elicits. The transport round-robins through a pool of these, tagging each
// outbound request's index field with the socket's handle so replies can be
// routed back without a map lookup.
type Socket struct {
	handle  uint8
	pending bool
	cmd     ethercat.Command
	dataLen int
	fill    func([]byte)

	hasReply bool
	buf      []byte // fixed reply buffer, sized to the frame MTU at construction
	replyLen int
	wkc      uint16
}

// Handle returns the socket's fixed index, stamped into the PDU index field
// of every datagram it emits.
func (s *Socket) Handle() uint8 { return s.handle }

// Request marks the socket as having an outbound PDU to send next time the
// transport packs a frame. fill is called with a zeroed buffer of length n
// to populate the PDU's write payload (for read-only commands fill may be
// nil, and write is then pointless but harmless).
func (s *Socket) Request(cmd ethercat.Command, n int, fill func([]byte)) {
	s.pending = true
	s.cmd = cmd
	s.dataLen = n
	s.fill = fill
	s.hasReply = false
}

// Pending reports whether the socket has an outbound request not yet
// packed into a frame.
func (s *Socket) Pending() bool { return s.pending }

// Ready reports whether a reply has been deposited since the last Request.
func (s *Socket) Ready() bool { return s.hasReply }

// Reply returns the most recently received payload and working counter.
// Ready must be true. The returned slice aliases the socket's own fixed
// buffer and is only valid until the next Request.
func (s *Socket) Reply() (data []byte, wkc uint16) { return s.buf[:s.replyLen], s.wkc }

// deposit copies payload into the socket's own fixed buffer rather than
// retaining the caller's slice, so demultiplexing never allocates once the
// socket pool is built.
func (s *Socket) deposit(payload []byte, wkc uint16) {
	s.replyLen = copy(s.buf, payload)
	s.hasReply = true
	s.wkc = wkc
	s.pending = false
}
