package engine

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot timers. Sessions use it for the containment offer
// timeout so tests can fire timers by hand.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// RealScheduler returns a Scheduler backed by time.AfterFunc.
func RealScheduler() Scheduler { return realScheduler{} }
