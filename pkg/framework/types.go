package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
// On the board these are the interrupt sources (tick, UART receive).
type Runnable interface {
	Run(context.Context) error
}

// Controller is one step of the cooperative loop.
type Controller interface {
	Control(ControlContext) error
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current loop iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Iteration is the sequence number of current iteration.
	Iteration() uint64
	// PriorityLevel gets the current priority level.
	PriorityLevel() int

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefined priority levels. Levels only order the steps within an
// iteration; every step runs once per iteration.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// StepFunc wraps a plain func as a Controller.
func StepFunc(fn func()) Controller {
	return ControlFunc(func(ControlContext) error {
		fn()
		return nil
	})
}

// StepErrFunc wraps a func returning error as a Controller.
func StepErrFunc(fn func() error) Controller {
	return ControlFunc(func(ControlContext) error {
		return fn()
	})
}
