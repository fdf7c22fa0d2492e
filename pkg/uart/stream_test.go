package uart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackmoon/servo.go/pkg/serial"
)

type collector struct {
	lock sync.Mutex
	data []byte
}

func (c *collector) ReceiveEvent(b byte) {
	c.lock.Lock()
	c.data = append(c.data, b)
	c.lock.Unlock()
}

func (c *collector) bytes() []byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]byte(nil), c.data...)
}

type readWriter struct {
	io.Reader
	io.Writer
}

func TestStreamReceiveUntilEOF(t *testing.T) {
	var out bytes.Buffer
	rx := &collector{}
	in := []byte{0x30, 0x01, 0x00, 0x64, 0x35}
	s := NewStream(&readWriter{Reader: bytes.NewReader(in), Writer: &out}, rx)
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, in, rx.bytes())
}

func TestStreamAsPort(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(&readWriter{Reader: bytes.NewReader(nil), Writer: &out}, ReceiverFunc(func(byte) {}))
	e := serial.NewEngine(s, nil)
	require.NoError(t, e.SendPacket(serial.ParamKD, 0x0102))
	require.NoError(t, e.TxProcess())
	require.Equal(t, []byte{0x30, 0x03, 0x01, 0x02, 0x35}, out.Bytes())
}

func TestStreamCancelClosesConn(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	rx := &collector{}
	s := NewStream(local, rx)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	_, err := remote.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	for len(rx.bytes()) < 3 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("receiver not stopped")
	}
	require.Equal(t, []byte{1, 2, 3}, rx.bytes())
}
