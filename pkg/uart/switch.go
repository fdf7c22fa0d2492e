package uart

import (
	"io"
	"sync"
)

// Switch is a serial.Port forwarding to the attached writer, for a UART
// whose peer comes and goes. Bytes written while detached are dropped.
// A peer stays attached until it detaches itself, so at most one peer
// feeds the receive side at a time when peers use TryAttach.
type Switch struct {
	lock sync.Mutex
	w    io.Writer
	one  [1]byte
}

// Attach replaces the attached writer.
func (s *Switch) Attach(w io.Writer) {
	s.lock.Lock()
	s.w = w
	s.lock.Unlock()
}

// TryAttach attaches w unless another writer is attached.
func (s *Switch) TryAttach(w io.Writer) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.w != nil {
		return false
	}
	s.w = w
	return true
}

// Detach removes w if it's still attached.
func (s *Switch) Detach(w io.Writer) {
	s.lock.Lock()
	if s.w == w {
		s.w = nil
	}
	s.lock.Unlock()
}

// TxReady implements serial.Port.
func (s *Switch) TxReady() bool {
	return true
}

// WriteByte implements serial.Port.
func (s *Switch) WriteByte(b byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.w == nil {
		return nil
	}
	s.one[0] = b
	_, err := s.w.Write(s.one[:])
	return err
}
