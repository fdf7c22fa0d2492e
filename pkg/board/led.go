package board

import (
	"github.com/blackmoon/servo.go/pkg/timer"
)

// LED blink periods in ticks.
const (
	LEDOff  uint16 = 0
	LEDSlow uint16 = 500
	LEDFast uint16 = 50
	LEDOn   uint16 = 0xffff
)

// LED is the status LED output.
type LED interface {
	Set(on bool)
}

// LEDFunc is func type of LED.
type LEDFunc func(on bool)

// Set implements LED.
func (f LEDFunc) Set(on bool) {
	f(on)
}

// Blinker toggles an LED from a soft timer.
type Blinker struct {
	led    LED
	timers *timer.Mux
	id     timer.ID
	on     bool
	mode   uint16
}

// NewBlinker claims a timer slot for the LED.
func NewBlinker(led LED, timers *timer.Mux) (*Blinker, error) {
	b := &Blinker{led: led, timers: timers}
	id, err := timers.Create(b)
	if err != nil {
		return nil, err
	}
	b.id = id
	return b, nil
}

// Mode sets the blink period. LEDOff and LEDOn hold the LED steady.
func (b *Blinker) Mode(period uint16) error {
	switch period {
	case LEDOff, LEDOn:
		if err := b.timers.Stop(b.id); err != nil {
			return err
		}
		b.set(period == LEDOn)
	default:
		if err := b.timers.SetPeriod(b.id, period); err != nil {
			return err
		}
		if err := b.timers.Start(b.id, true); err != nil {
			return err
		}
	}
	b.mode = period
	return nil
}

// Current returns the current mode.
func (b *Blinker) Current() uint16 {
	return b.mode
}

// IsOn reports the LED state.
func (b *Blinker) IsOn() bool {
	return b.on
}

// TimerExpired implements timer.Handler.
func (b *Blinker) TimerExpired() {
	b.set(!b.on)
}

func (b *Blinker) set(on bool) {
	b.on = on
	b.led.Set(on)
}
