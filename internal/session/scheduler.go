package session

import (
	"sync"
	"time"
)

// refreshScheduler owns the single timer that triggers proactive token
// refresh. It is a field of the Manager, not process state; arming
// replaces any previously scheduled refresh.
type refreshScheduler struct {
	mu    sync.Mutex
	timer *time.Timer

	// fire runs in the timer's goroutine when the deadline passes.
	fire func()
}

func newRefreshScheduler(fire func()) *refreshScheduler {
	return &refreshScheduler{fire: fire}
}

// arm schedules one refresh at expiry, cancelling any pending timer.
// A deadline already in the past fires immediately.
func (s *refreshScheduler) arm(expiry time.Time) {
	delay := time.Until(expiry)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}

	s.timer = time.AfterFunc(delay, s.fire)
}

// disarm cancels any pending refresh. Used on logout and after a
// failed refresh drops the session.
func (s *refreshScheduler) disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
