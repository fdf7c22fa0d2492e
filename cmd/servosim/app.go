package main

import (
	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/board"
	"github.com/blackmoon/servo.go/pkg/serial"
)

// defaultPeriod replaces an erased PID period.
const defaultPeriod = 20

// simApp stands in for the PID controller. It samples the parameters every
// PID period and shows pending storage writes on the LED.
type simApp struct {
	board  *board.Board
	period uint16
}

func (a *simApp) Init(b *board.Board) error {
	a.board = b
	a.period = defaultPeriod
	if v, err := b.Param(serial.ParamPIDPeriod); err == nil && v != 0 && v != 0xffff {
		a.period = v
	}
	id, err := b.Timers.CreateFunc(a.sample)
	if err != nil {
		return err
	}
	if err := b.Timers.SetPeriod(id, a.period); err != nil {
		return err
	}
	if err := b.Timers.Start(id, true); err != nil {
		return err
	}
	glog.Infof("pid period %d ticks", a.period)
	return nil
}

func (a *simApp) Process() {
	mode := board.LEDSlow
	if a.board.EEPROM.Pending() > 0 {
		mode = board.LEDFast
	}
	if a.board.LED.Current() != mode {
		if err := a.board.LED.Mode(mode); err != nil {
			glog.Errorf("led: %v", err)
		}
	}
}

func (a *simApp) sample() {
	if !glog.V(2) {
		return
	}
	for _, id := range serial.ParamIDs() {
		if v, err := a.board.Param(id); err == nil {
			glog.Infof("%s=%d", id, v)
		}
	}
}
