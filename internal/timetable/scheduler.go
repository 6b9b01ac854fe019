package timetable

import (
	"sync"
	"time"
)

// Scheduler schedules a one-shot callback at or after a wall-clock instant.
// Delivery is at-most-once; no concurrency guarantee is made beyond that,
// so callbacks must re-enter the owner's event loop themselves.
type Scheduler interface {
	ScheduleOnce(at time.Time, fn func())
}

// TimerScheduler backs the Scheduler contract with runtime timers.
type TimerScheduler struct {
	mu     sync.Mutex
	timers []*time.Timer
	closed bool
}

// NewTimerScheduler creates a timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// ScheduleOnce fires fn once at or after the given instant. Instants in the
// past fire immediately.
func (s *TimerScheduler) ScheduleOnce(at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	s.timers = append(s.timers, time.AfterFunc(delay, fn))
}

// Close stops all pending timers. Callbacks already running are not awaited.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
