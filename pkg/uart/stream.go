// Package uart provides host backends for the board's UART.
package uart

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/blackmoon/servo.go/pkg/framework"
)

// Receiver takes bytes from the receive interrupt.
type Receiver interface {
	ReceiveEvent(byte)
}

// ReceiverFunc is func form of Receiver.
type ReceiverFunc func(byte)

// ReceiveEvent implements Receiver.
func (f ReceiverFunc) ReceiveEvent(b byte) {
	f(b)
}

// Stream is a UART backed by an io.ReadWriter.
// The transmit side implements serial.Port; Run feeds received bytes into
// the Receiver, one call per byte, like the receive interrupt.
type Stream struct {
	Receiver Receiver

	rw  io.ReadWriter
	one [1]byte
}

// NewStream creates a Stream.
func NewStream(rw io.ReadWriter, receiver Receiver) *Stream {
	return &Stream{rw: rw, Receiver: receiver}
}

// Name implements framework.Named.
func (s *Stream) Name() string {
	return "uart"
}

// TxReady implements serial.Port. Writes block until accepted, so the
// transmitter is always ready.
func (s *Stream) TxReady() bool {
	return true
}

// WriteByte implements serial.Port.
func (s *Stream) WriteByte(b byte) error {
	s.one[0] = b
	_, err := s.rw.Write(s.one[:])
	return err
}

// Run implements Runnable.
func (s *Stream) Run(ctx context.Context) error {
	if closer, ok := s.rw.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, s.receive)
	}
	return fx.RunWithContext(ctx, s.receive)
}

func (s *Stream) receive() error {
	var buf [64]byte
	for {
		n, err := s.rw.Read(buf[:])
		for _, b := range buf[:n] {
			s.Receiver.ReceiveEvent(b)
		}
		if err != nil {
			if err == io.EOF {
				glog.V(1).Info("uart closed")
				return nil
			}
			return err
		}
	}
}
