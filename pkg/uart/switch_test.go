package uart

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("gone")
}

func TestSwitch(t *testing.T) {
	var sw Switch
	require.True(t, sw.TxReady())
	require.NoError(t, sw.WriteByte(1), "dropped while detached")

	var a, b bytes.Buffer
	sw.Attach(&a)
	require.NoError(t, sw.WriteByte(2))
	sw.Attach(&b)
	sw.Detach(&a)
	require.NoError(t, sw.WriteByte(3))
	sw.Detach(&b)
	require.NoError(t, sw.WriteByte(4))
	require.Equal(t, []byte{2}, a.Bytes())
	require.Equal(t, []byte{3}, b.Bytes())

	sw.Attach(failWriter{})
	require.Error(t, sw.WriteByte(5))
	require.Error(t, sw.WriteByte(6), "stays attached until detached")
}

func TestSwitchSinglePeer(t *testing.T) {
	var sw Switch
	var a, b bytes.Buffer
	require.True(t, sw.TryAttach(&a))
	require.False(t, sw.TryAttach(&b))
	require.NoError(t, sw.WriteByte(1))

	sw.Detach(&b)
	require.False(t, sw.TryAttach(&b), "detaching another peer is a no-op")
	sw.Detach(&a)
	require.True(t, sw.TryAttach(&b))
	require.NoError(t, sw.WriteByte(2))
	require.Equal(t, []byte{1}, a.Bytes())
	require.Equal(t, []byte{2}, b.Bytes())
}
