// Package timer multiplexes a fixed table of soft countdown timers over one
// hardware tick source.
//
// Tick accounting and callback dispatch are split into two entry points:
// Tick runs in the tick source's context (an interrupt on the board, a
// goroutine on a host) and only counts; Process runs in the cooperative
// loop and invokes the handlers. Handlers therefore never execute in the
// tick context.
package timer

import (
	"errors"
	"sync/atomic"
)

// MaxTimers is the number of slots in a Mux.
const MaxTimers = 5

const maxElapsed = 0xffff

var (
	// ErrNoSlot indicates all timer slots are claimed.
	ErrNoSlot = errors.New("no timer slot available")
	// ErrInvalidID indicates the ID doesn't refer to a claimed slot.
	ErrInvalidID = errors.New("invalid timer id")
)

// Handler is called when a timer expires.
type Handler interface {
	TimerExpired()
}

// TimerExpiredFunc is func type of Handler.
type TimerExpiredFunc func()

// TimerExpired implements Handler.
func (f TimerExpiredFunc) TimerExpired() {
	f()
}

// ID refers to a claimed slot.
type ID uint8

type slot struct {
	handler Handler

	// period and autoReload are only touched from the cooperative side.
	period     uint16
	autoReload bool

	enabled atomic.Bool
	elapsed atomic.Uint32 // incremented by Tick, reset by Process/Start
	// starts counts Start calls so Process can tell a restart from inside
	// the handler apart from its own bookkeeping.
	starts uint32
}

// Mux is the soft-timer table.
// Create, SetPeriod, Start, Stop and Process belong to the cooperative
// context; Tick may run concurrently with them.
type Mux struct {
	slots   [MaxTimers]slot
	claimed int
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{}
}

// Create claims the next free slot and binds the handler.
// The timer starts disabled.
func (m *Mux) Create(h Handler) (ID, error) {
	if m.claimed >= MaxTimers {
		return 0, ErrNoSlot
	}
	id := ID(m.claimed)
	m.slots[id].handler = h
	m.claimed++
	return id, nil
}

// CreateFunc is Create with a func handler.
func (m *Mux) CreateFunc(fn func()) (ID, error) {
	return m.Create(TimerExpiredFunc(fn))
}

func (m *Mux) slot(id ID) (*slot, error) {
	if int(id) >= m.claimed {
		return nil, ErrInvalidID
	}
	return &m.slots[id], nil
}

// SetPeriod sets the period in ticks. Elapsed ticks are kept, so shrinking
// the period of a running timer may expire it on the next Process.
func (m *Mux) SetPeriod(id ID, period uint16) error {
	s, err := m.slot(id)
	if err != nil {
		return err
	}
	s.period = period
	return nil
}

// Start resets elapsed ticks and enables the timer.
func (m *Mux) Start(id ID, autoReload bool) error {
	s, err := m.slot(id)
	if err != nil {
		return err
	}
	s.autoReload = autoReload
	s.starts++
	s.elapsed.Store(0)
	s.enabled.Store(true)
	return nil
}

// Stop disables the timer. Elapsed ticks are kept.
func (m *Mux) Stop(id ID) error {
	s, err := m.slot(id)
	if err != nil {
		return err
	}
	s.enabled.Store(false)
	return nil
}

// Enabled indicates whether the timer is running.
func (m *Mux) Enabled(id ID) bool {
	s, err := m.slot(id)
	return err == nil && s.enabled.Load()
}

// Elapsed returns ticks counted since the last start or expiry.
func (m *Mux) Elapsed(id ID) uint16 {
	if s, err := m.slot(id); err == nil {
		return uint16(s.elapsed.Load())
	}
	return 0
}

// Tick advances every enabled timer by one tick. It never blocks and never
// calls handlers. Elapsed saturates instead of wrapping.
func (m *Mux) Tick() {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.enabled.Load() {
			continue
		}
		if s.elapsed.Add(1) > maxElapsed {
			s.elapsed.Add(^uint32(0))
		}
	}
}

// Process calls the handler of every expired timer once, in slot order.
// An auto-reload timer restarts its count; any other timer is disabled.
// Changes a handler makes to its own timer take effect on the next Process.
func (m *Mux) Process() {
	for i := 0; i < m.claimed; i++ {
		s := &m.slots[i]
		if !s.enabled.Load() {
			continue
		}
		elapsed := s.elapsed.Load()
		if elapsed < uint32(s.period) {
			continue
		}
		starts := s.starts
		if h := s.handler; h != nil {
			h.TimerExpired()
		}
		if s.starts != starts {
			// restarted by the handler
			continue
		}
		if s.autoReload {
			// keep ticks counted while the handler ran
			s.elapsed.Add(-elapsed)
		} else {
			s.enabled.Store(false)
		}
	}
}
