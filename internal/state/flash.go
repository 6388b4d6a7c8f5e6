package state

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer a Flash needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. RealClock uses time.AfterFunc; tests use
// ManualClock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Flash is a time-boxed boolean: Raise sets it true and schedules it to drop
// back to false after the configured duration.
//
// Raising again while a timer is pending cancels that timer and starts a new
// one, so an old timer can never lower a newer raise. Close cancels the
// pending timer and lowers the flag for good.
type Flash struct {
	*Cell[bool]

	clock    Clock
	duration time.Duration

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	closed  bool
	message string
}

func NewFlash(clock Clock, d time.Duration) *Flash {
	if clock == nil {
		clock = RealClock
	}
	return &Flash{
		Cell:     NewCell(false),
		clock:    clock,
		duration: d,
	}
}

// Raise shows the flash with message until the duration elapses.
func (f *Flash) Raise(message string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.message = message
	f.timer = f.clock.AfterFunc(f.duration, func() { f.lower(gen) })
	f.mu.Unlock()

	f.Set(true)
}

// Message returns the text of the current raise, or "" when lowered.
func (f *Flash) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

func (f *Flash) lower(gen uint64) {
	f.mu.Lock()
	if gen != f.gen || f.closed {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	f.message = ""
	f.mu.Unlock()

	f.Set(false)
}

// Dismiss lowers the flash now and cancels its timer. Unlike Close, the
// flash can be raised again.
func (f *Flash) Dismiss() {
	f.mu.Lock()
	if f.closed || f.timer == nil {
		f.mu.Unlock()
		return
	}
	f.timer.Stop()
	f.timer = nil
	f.gen++
	f.message = ""
	f.mu.Unlock()

	f.Set(false)
}

// Close cancels any pending timer. The flash stays lowered afterwards.
func (f *Flash) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.message = ""
	f.mu.Unlock()

	f.Set(false)
}
