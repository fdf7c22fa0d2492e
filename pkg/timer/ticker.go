package timer

import (
	"context"
	"time"
)

// DefaultInterval is the tick interval of a Ticker unless set.
const DefaultInterval = time.Millisecond

// Ticker is the host tick source driving Mux.Tick from a time.Ticker.
type Ticker struct {
	Mux      *Mux
	Interval time.Duration
	// OnTick is invoked after each tick, e.g. to wake up the loop.
	OnTick func()
}

// NewTicker creates a Ticker with DefaultInterval.
func NewTicker(m *Mux) *Ticker {
	return &Ticker{Mux: m, Interval: DefaultInterval}
}

// Name implements framework.Named.
func (t *Ticker) Name() string {
	return "tick"
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Mux.Tick()
			if fn := t.OnTick; fn != nil {
				fn()
			}
		}
	}
}
