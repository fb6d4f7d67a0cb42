package capture

import (
	"sync"
	"time"
)

// DefaultDebounceWindow rides out normal typing cadence while still
// producing a save on reasonably short page visits.
const DefaultDebounceWindow = 1500 * time.Millisecond

// scheduler coalesces a burst of snapshot notifications into a single
// delayed persistence attempt. Only the last snapshot scheduled within a
// window is ever delivered; intermediate states are deliberately dropped,
// trading completeness of history for write volume.
//
// The scheduler owns exactly one timer handle. Scheduling always cancels
// the previous timer outright; superseded attempts are never queued.
type scheduler struct {
	mu      sync.Mutex
	window  time.Duration
	fire    func(Snapshot)
	timer   *time.Timer
	pending *Snapshot
	// gen advances on every Schedule; an expired timer callback delivers
	// only if its generation is still current, so a callback that raced a
	// newer Schedule cannot deliver that snapshot before its full window.
	gen uint64
}

func newScheduler(window time.Duration, fire func(Snapshot)) *scheduler {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &scheduler{window: window, fire: fire}
}

// Schedule replaces any pending payload with snap and re-arms the timer.
func (s *scheduler) Schedule(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = &snap
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.window, func() { s.fireExpired(gen) })
}

// fireExpired delivers the pending payload for the generation that armed
// the timer. A callback whose generation has been superseded bows out; the
// newer snapshot's own timer delivers it after a full window.
func (s *scheduler) fireExpired(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	snap, ok := s.takeLocked()
	s.mu.Unlock()
	if !ok {
		return
	}
	s.fire(snap)
}

// FlushNow cancels the armed timer and synchronously delivers the pending
// payload. Idempotent: with nothing pending it is a no-op.
func (s *scheduler) FlushNow() {
	snap, ok := s.take()
	if !ok {
		return
	}
	s.fire(snap)
}

// Cancel drops the pending payload and disarms the timer without firing.
func (s *scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// take atomically claims the pending payload, disarming the timer.
func (s *scheduler) take() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeLocked()
}

func (s *scheduler) takeLocked() (Snapshot, bool) {
	if s.pending == nil {
		return Snapshot{}, false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	snap := *s.pending
	s.pending = nil
	return snap, true
}
