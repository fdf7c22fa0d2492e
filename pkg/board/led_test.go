package board

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackmoon/servo.go/pkg/timer"
)

type testLED struct {
	on      bool
	toggles int
}

func (l *testLED) Set(on bool) {
	if on != l.on {
		l.toggles++
	}
	l.on = on
}

func tickN(m *timer.Mux, n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func TestBlinkerToggles(t *testing.T) {
	mux := timer.NewMux()
	led := &testLED{}
	b, err := NewBlinker(led, mux)
	require.NoError(t, err)

	require.NoError(t, b.Mode(LEDFast))
	require.Equal(t, LEDFast, b.Current())
	tickN(mux, int(LEDFast)-1)
	mux.Process()
	require.False(t, led.on)

	tickN(mux, 1)
	mux.Process()
	require.True(t, led.on)
	require.True(t, b.IsOn())

	tickN(mux, int(LEDFast))
	mux.Process()
	require.False(t, led.on)
	require.Equal(t, 2, led.toggles)
}

func TestBlinkerSteadyModes(t *testing.T) {
	mux := timer.NewMux()
	led := &testLED{}
	b, err := NewBlinker(led, mux)
	require.NoError(t, err)

	require.NoError(t, b.Mode(LEDSlow))
	require.NoError(t, b.Mode(LEDOn))
	require.True(t, led.on)
	tickN(mux, int(LEDSlow)*2)
	mux.Process()
	require.True(t, led.on)

	require.NoError(t, b.Mode(LEDOff))
	require.False(t, led.on)
	tickN(mux, int(LEDSlow)*2)
	mux.Process()
	require.False(t, led.on)
}

func TestBlinkerModeInvalidTimer(t *testing.T) {
	led := &testLED{}
	b := &Blinker{led: led, timers: timer.NewMux()}
	require.Equal(t, timer.ErrInvalidID, b.Mode(LEDFast))
	require.Equal(t, timer.ErrInvalidID, b.Mode(LEDOn))
	require.False(t, led.on)
	require.Equal(t, LEDOff, b.Current())
}

func TestBlinkerNoSlot(t *testing.T) {
	mux := timer.NewMux()
	for i := 0; i < timer.MaxTimers; i++ {
		_, err := mux.CreateFunc(func() {})
		require.NoError(t, err)
	}
	_, err := NewBlinker(&testLED{}, mux)
	require.Equal(t, timer.ErrNoSlot, err)
}
