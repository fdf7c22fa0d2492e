package serial

import "sync/atomic"

// RxBufferSize is the size of the receive staging buffer.
const RxBufferSize = 15

// Staging is the flat receive staging buffer.
//
// The write cursor belongs to the receive interrupt, the read cursor to the
// cooperative reader. It isn't circular: once full, incoming bytes are
// dropped until the reader drains everything and both cursors go back to
// zero. Only the reader resets the cursors.
type Staging struct {
	buf     []byte
	wr      atomic.Uint32
	rd      uint32
	dropped atomic.Uint32
}

// NewStaging creates a Staging buffer of the given size.
func NewStaging(size int) *Staging {
	return &Staging{buf: make([]byte, size)}
}

// Receive appends b, or drops it if the buffer is full.
// It is the receive interrupt side and returns false on drop.
func (s *Staging) Receive(b byte) bool {
	for {
		wr := s.wr.Load()
		if int(wr) >= len(s.buf) {
			s.dropped.Add(1)
			return false
		}
		s.buf[wr] = b
		// fails only if the reader reset the cursors meanwhile
		if s.wr.CompareAndSwap(wr, wr+1) {
			return true
		}
	}
}

// ReadByte pops the oldest byte. Both cursors are reset once the reader
// catches up with the writer.
func (s *Staging) ReadByte() (byte, bool) {
	wr := s.wr.Load()
	if s.rd >= wr {
		return 0, false
	}
	b := s.buf[s.rd]
	s.rd++
	if s.rd == wr && s.wr.CompareAndSwap(wr, 0) {
		s.rd = 0
	}
	return b, true
}

// Buffered returns the number of unread bytes.
func (s *Staging) Buffered() int {
	return int(s.wr.Load() - s.rd)
}

// Dropped returns the number of bytes dropped on overflow so far.
func (s *Staging) Dropped() uint32 {
	return s.dropped.Load()
}
