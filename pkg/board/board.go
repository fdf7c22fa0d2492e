// Package board composes the servo board: soft timers, serial engine,
// parameter storage, status LED and the application.
package board

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/eeprom"
	fx "github.com/blackmoon/servo.go/pkg/framework"
	"github.com/blackmoon/servo.go/pkg/serial"
	"github.com/blackmoon/servo.go/pkg/timer"
)

// Priority levels of the main loop steps, in the order they run.
const (
	PrLvTxDrain = fx.PrLvTop
	PrLvRxParse = fx.PrLvTop + 1
	PrLvStorage = fx.PrLvTop + 2
	PrLvTimers  = fx.PrLvTop + 3
	PrLvApp     = fx.PrLvNormal
)

// App is the application running on the board, e.g. the PID controller.
type App interface {
	// Init is called once after all drivers are initialized.
	Init(*Board) error
	// Process is called once per main loop iteration.
	Process()
}

// Config provides the collaborators of a Board.
type Config struct {
	Port         serial.Port
	LED          LED
	App          App
	EEPROM       *eeprom.Memory
	TickInterval time.Duration
}

// Board is the assembled board.
type Board struct {
	Timers *timer.Mux
	Ticker *timer.Ticker
	Serial *serial.Engine
	EEPROM *eeprom.Memory
	LED    *Blinker
	App    App
}

// New bootstraps all drivers and then initializes them.
func New(conf Config) (*Board, error) {
	b := &Board{
		Timers: timer.NewMux(),
		EEPROM: conf.EEPROM,
		App:    conf.App,
	}
	if b.EEPROM == nil {
		b.EEPROM = eeprom.NewMemory()
	}
	b.Ticker = timer.NewTicker(b.Timers)
	if conf.TickInterval > 0 {
		b.Ticker.Interval = conf.TickInterval
	}

	led := conf.LED
	if led == nil {
		led = LEDFunc(func(bool) {})
	}
	var err error
	if b.LED, err = NewBlinker(led, b.Timers); err != nil {
		return nil, fmt.Errorf("bootstrap led: %w", err)
	}
	b.Serial = serial.NewEngine(conf.Port, b.EEPROM)

	if err := b.LED.Mode(LEDSlow); err != nil {
		return nil, fmt.Errorf("init led: %w", err)
	}
	if b.App != nil {
		if err := b.App.Init(b); err != nil {
			return nil, fmt.Errorf("init app: %w", err)
		}
	}
	glog.V(1).Info("board initialized")
	return b, nil
}

// Param reads a committed parameter value from storage.
func (b *Board) Param(id serial.ParamID) (uint16, error) {
	addr, ok := b.Serial.Addresses[id]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %s", id)
	}
	return b.EEPROM.Read(addr)
}

// ReportCommits echoes every committed parameter back to the host.
// A report that doesn't fit in the transmit ring is dropped.
func (b *Board) ReportCommits() {
	ids := make(map[eeprom.Addr]serial.ParamID, len(b.Serial.Addresses))
	for id, addr := range b.Serial.Addresses {
		ids[addr] = id
	}
	b.EEPROM.OnCommit = func(addr eeprom.Addr, value uint16) {
		id, ok := ids[addr]
		if !ok {
			return
		}
		if err := b.Serial.SendPacket(id, value); err != nil {
			glog.V(2).Infof("report %s dropped: %v", id, err)
		}
	}
}

// ReceiveEvent is the UART receive interrupt entry.
func (b *Board) ReceiveEvent(c byte) {
	b.Serial.ReceiveEvent(c)
}

// AddToLoop implements LoopAdder.
func (b *Board) AddToLoop(loop *fx.Loop) {
	loop.AddController(PrLvTxDrain, fx.StepErrFunc(b.Serial.TxProcess))
	loop.AddController(PrLvRxParse, fx.StepFunc(b.Serial.RxProcess))
	loop.AddController(PrLvStorage, fx.StepFunc(b.EEPROM.Process))
	loop.AddController(PrLvTimers, fx.StepFunc(b.Timers.Process))
	if b.App != nil {
		loop.AddController(PrLvApp, fx.StepFunc(b.App.Process))
	}
	if b.Ticker.OnTick == nil {
		b.Ticker.OnTick = loop.TriggerNext
	}
	loop.AddRunnable(b.Ticker)
}
