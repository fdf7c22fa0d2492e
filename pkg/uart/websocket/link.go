// Package websocket carries the UART byte stream over a websocket, so the
// tuning shell can reach a simulated board.
package websocket

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Link is a UART byte stream over websocket.Conn.
type Link websocket.Conn

// New wraps websocket.Conn. Bytes are sent in binary frames.
func New(conn *websocket.Conn) *Link {
	conn.PayloadType = websocket.BinaryFrame
	return (*Link)(conn)
}

// Read implements io.Reader. Frame boundaries are not preserved.
func (l *Link) Read(p []byte) (int, error) {
	return (*websocket.Conn)(l).Read(p)
}

// Write implements io.Writer.
func (l *Link) Write(p []byte) (int, error) {
	if err := websocket.Message.Send((*websocket.Conn)(l), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (l *Link) Close() error {
	return (*websocket.Conn)(l).Close()
}

// Request returns the HTTP request of a server side link.
func (l *Link) Request() *http.Request {
	return (*websocket.Conn)(l).Request()
}

// Handler serves each incoming connection with serve. The connection is
// closed when serve returns.
func Handler(serve func(*Link)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		glog.V(1).Infof("link from %s", conn.Request().RemoteAddr)
		serve(New(conn))
	})
}

// Dial connects to a websocket link at rawURL (ws:// or wss://).
func Dial(rawURL string) (*Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	origin := "http://" + u.Host + "/"
	conn, err := websocket.Dial(rawURL, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return New(conn), nil
}
