package sh

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackmoon/servo.go/pkg/env"
	"github.com/blackmoon/servo.go/pkg/serial"
	"github.com/blackmoon/servo.go/pkg/uart/websocket"
)

func TestShellParamsUnconnected(t *testing.T) {
	s := New(env.NewConfig())
	infos := s.Params()
	require.Len(t, infos, len(serial.ParamIDs()))
	require.Equal(t, ParamInfo{ID: 1, Name: "kp"}, infos[0])
}

func TestShellSetOverLink(t *testing.T) {
	// a board that echoes every frame reports each parameter as set
	srv := httptest.NewServer(websocket.Handler(func(l *websocket.Link) {
		io.Copy(l, l)
	}))
	defer srv.Close()

	s := New(env.NewConfig())
	port := "ws://" + strings.TrimPrefix(srv.URL, "http://")
	require.NoError(t, s.Connect(port))
	defer s.Disconnect()
	require.Equal(t, port, s.Conn.Port)

	require.NoError(t, s.Shell.Process("set", "setpoint", "0x200"))
	deadline := time.Now().Add(5 * time.Second)
	for {
		if v, ok := s.Conn.Link.Last(serial.ParamSetPoint); ok {
			require.Equal(t, uint16(0x200), v)
			break
		}
		require.True(t, time.Now().Before(deadline), "no report")
		time.Sleep(time.Millisecond)
	}

	var found bool
	for _, info := range s.Params() {
		if info.Name == "setpoint" {
			found = true
			require.True(t, info.Reported)
			require.Equal(t, uint16(0x200), info.Value)
		} else {
			require.False(t, info.Reported)
		}
	}
	require.True(t, found)

	s.Disconnect()
	require.Nil(t, s.Conn)
}
