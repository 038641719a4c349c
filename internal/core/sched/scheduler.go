// Package sched runs deferred one-shot actions on the simulation clock.
// Gameplay systems use it instead of host timers, so "start the bout after
// the windup" and "taming completes in three seconds" advance with the
// frame loop and are testable without wall-clock waits.
//
// A fired callback is an ordinary re-entry into the systems: anything it
// references may have been destroyed, zoned, or re-stated since it was
// scheduled, so callbacks re-validate their entities and bail on a miss.
package sched

import (
	"math"

	"github.com/armlock/armlock/internal/core/observability/log"
	"github.com/armlock/armlock/pkg/sequence"
)

// Task is the capability to cancel one scheduled action.
type Task struct {
	cancelled bool
	fn        func()
}

// Cancel prevents the task from firing. Safe after the task already fired
// or was cancelled before.
func (t *Task) Cancel() { t.cancelled = true }

// IsCancelled reports whether Cancel was called.
func (t *Task) IsCancelled() bool { return t.cancelled }

// Scheduler is a sim-time one-shot timer wheel. Not safe for concurrent
// use; it belongs to the single-threaded frame loop.
type Scheduler struct {
	now   float64 // seconds since construction
	queue *sequence.MinQueue[*Task]
}

func New() *Scheduler {
	return &Scheduler{queue: sequence.NewMinQueue[*Task]()}
}

// After schedules fn to run once delay seconds of sim time have advanced.
// A non-positive delay fires on the next Advance, not immediately.
func (s *Scheduler) After(delay float64, fn func()) *Task {
	t := &Task{fn: fn}
	if fn == nil {
		t.cancelled = true
		return t
	}
	if delay < 0 {
		delay = 0
	}
	s.queue.Enqueue(t, s.dueKey(s.now+delay))
	return t
}

// Advance moves the clock by dt seconds and fires every task that came
// due, in due order; equal deadlines fire in scheduling order. Tasks
// scheduled by a firing callback are honored within the same Advance when
// already due.
func (s *Scheduler) Advance(dt float64) {
	if dt < 0 {
		return
	}
	s.now += dt
	deadline := s.dueKey(s.now)
	for {
		due, ok := s.queue.PeekPriority()
		if !ok || due > deadline {
			return
		}
		t, _ := s.queue.Dequeue()
		if t.cancelled {
			continue
		}
		t.cancelled = true // a fired task never fires again
		s.fire(t)
	}
}

// fire contains a callback panic the way the bus contains handler
// panics: logged, and the remaining due tasks still run.
func (s *Scheduler) fire(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Provide().Error("scheduled callback panicked", log.Any("panic", r))
		}
	}()
	t.fn()
}

// Now returns the scheduler's clock in seconds.
func (s *Scheduler) Now() float64 { return s.now }

// Pending reports how many tasks are queued, cancelled ones included.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Clear drops every pending task.
func (s *Scheduler) Clear() {
	for {
		if _, ok := s.queue.Dequeue(); !ok {
			return
		}
	}
}

// dueKey quantizes a deadline to microseconds for stable heap ordering.
func (s *Scheduler) dueKey(at float64) int64 {
	return int64(math.Round(at * 1e6))
}
