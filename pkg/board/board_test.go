package board

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackmoon/servo.go/pkg/eeprom"
	fx "github.com/blackmoon/servo.go/pkg/framework"
	"github.com/blackmoon/servo.go/pkg/serial"
)

type testPort struct {
	out     []byte
	onWrite func()
}

func (p *testPort) TxReady() bool { return true }

func (p *testPort) WriteByte(b byte) error {
	p.out = append(p.out, b)
	if fn := p.onWrite; fn != nil {
		fn()
	}
	return nil
}

type stepApp struct {
	onProcess func()
}

func (a *stepApp) Init(*Board) error { return nil }

func (a *stepApp) Process() { a.onProcess() }

type testApp struct {
	initMode  uint16
	processed int
	err       error
}

func (a *testApp) Init(b *Board) error {
	a.initMode = b.LED.Current()
	return a.err
}

func (a *testApp) Process() {
	a.processed++
}

func newTestBoard(t *testing.T, app App) (*Board, *testPort, *fx.Loop) {
	port := &testPort{}
	b, err := New(Config{Port: port, LED: &testLED{}, App: app})
	require.NoError(t, err)
	loop := fx.NewLoop()
	b.AddToLoop(loop)
	return b, port, loop
}

func runIterations(loop *fx.Loop, n int) {
	for i := 0; i < n; i++ {
		loop.RunOnce(context.Background())
	}
}

func TestBoardInitOrder(t *testing.T) {
	app := &testApp{}
	b, _, loop := newTestBoard(t, app)
	require.Equal(t, LEDSlow, app.initMode)
	require.NotNil(t, b.Serial)
	require.NotNil(t, b.EEPROM)

	runIterations(loop, 3)
	require.Equal(t, 3, app.processed)
}

func TestBoardStepOrder(t *testing.T) {
	var order []string
	var b *Board
	// each step is tagged with the receive bytes still unparsed
	record := func(step string) func() {
		return func() {
			order = append(order, fmt.Sprintf("%s:%d", step, b.Serial.RxBuffered()))
		}
	}
	port := &testPort{onWrite: record("tx")}
	var err error
	b, err = New(Config{Port: port, App: &stepApp{onProcess: record("app")}})
	require.NoError(t, err)
	loop := fx.NewLoop()
	b.AddToLoop(loop)

	id, err := b.Timers.CreateFunc(record("timers"))
	require.NoError(t, err)
	require.NoError(t, b.Timers.SetPeriod(id, 1))
	require.NoError(t, b.Timers.Start(id, false))
	b.Timers.Tick()

	b.EEPROM.OnCommit = func(eeprom.Addr, uint16) { record("storage")() }
	require.NoError(t, b.EEPROM.Write(0x40, 1))
	require.NoError(t, b.Serial.SendByte(0xaa))
	b.ReceiveEvent(0x00)

	loop.RunOnce(context.Background())
	require.Equal(t, []string{"tx:1", "storage:0", "timers:0", "app:0"}, order)
}

func TestBoardAppInitError(t *testing.T) {
	initErr := errors.New("no sensor")
	_, err := New(Config{Port: &testPort{}, App: &testApp{err: initErr}})
	require.True(t, errors.Is(err, initErr))
}

func TestBoardFrameToStorage(t *testing.T) {
	b, port, loop := newTestBoard(t, nil)
	for _, c := range (serial.Param{ID: serial.ParamSetPoint, Value: 0x0200}).Bytes() {
		b.ReceiveEvent(c)
	}
	// one byte is parsed per iteration; storage commits in the same
	// iteration the frame completes
	runIterations(loop, serial.FrameLen)
	v, err := b.Param(serial.ParamSetPoint)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0200), v)
	require.Empty(t, port.out)
}

func TestBoardReportCommits(t *testing.T) {
	b, port, loop := newTestBoard(t, nil)
	b.ReportCommits()
	for _, c := range (serial.Param{ID: serial.ParamKI, Value: 7}).Bytes() {
		b.ReceiveEvent(c)
	}
	runIterations(loop, serial.FrameLen+1)
	require.Equal(t, []byte{0x30, 0x02, 0x00, 0x07, 0x35}, port.out)

	// words written outside the parameter map are not reported
	port.out = nil
	require.NoError(t, b.EEPROM.Write(0x40, 1))
	runIterations(loop, 2)
	require.Empty(t, port.out)
}

func TestBoardUnknownParam(t *testing.T) {
	b, _, _ := newTestBoard(t, nil)
	_, err := b.Param(serial.ParamID(0x7f))
	require.Error(t, err)

	v, err := b.Param(serial.ParamKP)
	require.NoError(t, err)
	raw, err := b.EEPROM.Read(eeprom.KPAddr)
	require.NoError(t, err)
	require.Equal(t, uint16(0xffff), v, "erased storage")
	require.Equal(t, raw, v)
}
