// Package tune is the host side of the tuning protocol.
package tune

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/blackmoon/servo.go/pkg/framework"
	"github.com/blackmoon/servo.go/pkg/serial"
)

// Handler is called for each parameter reported by the board.
type Handler interface {
	HandleParam(serial.Param)
}

// HandlerFunc is func form of Handler.
type HandlerFunc func(serial.Param)

// HandleParam implements Handler.
func (f HandlerFunc) HandleParam(p serial.Param) {
	f(p)
}

// Link talks to a board over a byte stream.
type Link struct {
	Handler Handler

	rw        io.ReadWriter
	writeLock sync.Mutex
	lastLock  sync.RWMutex
	last      map[serial.ParamID]uint16
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{rw: rw, last: make(map[serial.ParamID]uint16)}
}

// Name implements framework.Named.
func (l *Link) Name() string {
	return "tune-link"
}

// SetParam sends a parameter frame to the board.
func (l *Link) SetParam(id serial.ParamID, value uint16) error {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	glog.V(2).Infof("SET %s=%d", id, value)
	_, err := serial.Param{ID: id, Value: value}.WriteTo(l.rw)
	return err
}

// Last returns the last value reported by the board.
func (l *Link) Last(id serial.ParamID) (uint16, bool) {
	l.lastLock.RLock()
	defer l.lastLock.RUnlock()
	v, ok := l.last[id]
	return v, ok
}

// Run implements Runnable. It returns nil when the stream ends.
func (l *Link) Run(ctx context.Context) error {
	if closer, ok := l.rw.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, l.receive)
	}
	return fx.RunWithContext(ctx, l.receive)
}

func (l *Link) receive() error {
	var parser serial.Parser
	var buf [64]byte
	for {
		n, err := l.rw.Read(buf[:])
		for _, b := range buf[:n] {
			pr := parser.Parse(b)
			if pr.Discarded {
				glog.V(3).Info("report discarded")
			}
			if pr.Param != nil {
				l.report(*pr.Param)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) report(p serial.Param) {
	glog.V(2).Infof("RPT %s", p)
	l.lastLock.Lock()
	l.last[p.ID] = p.Value
	l.lastLock.Unlock()
	if h := l.Handler; h != nil {
		h.HandleParam(p)
	}
}
