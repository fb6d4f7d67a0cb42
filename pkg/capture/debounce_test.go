package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fireRecorder collects delivered snapshots.
type fireRecorder struct {
	mu    sync.Mutex
	fired []Snapshot
}

func (r *fireRecorder) fire(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, s)
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func (r *fireRecorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fired[len(r.fired)-1]
}

func TestScheduler_CoalescesBurst(t *testing.T) {
	rec := &fireRecorder{}
	s := newScheduler(60*time.Millisecond, rec.fire)

	s.Schedule(Snapshot{FullName: "a"})
	time.Sleep(15 * time.Millisecond)
	s.Schedule(Snapshot{FullName: "ab"})
	time.Sleep(15 * time.Millisecond)
	s.Schedule(Snapshot{FullName: "abc"})

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, 1, rec.count(), "burst must coalesce into one delivery")
	assert.Equal(t, "abc", rec.last().FullName, "only the last snapshot survives the window")
}

func TestScheduler_FiresAfterWindow(t *testing.T) {
	rec := &fireRecorder{}
	s := newScheduler(20*time.Millisecond, rec.fire)

	s.Schedule(Snapshot{FullName: "a"})
	time.Sleep(80 * time.Millisecond)
	s.Schedule(Snapshot{FullName: "b"})
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 2, rec.count(), "separate windows deliver separately")
}

func TestScheduler_FlushNow(t *testing.T) {
	rec := &fireRecorder{}
	s := newScheduler(time.Hour, rec.fire)

	s.Schedule(Snapshot{FullName: "pending"})
	s.FlushNow()

	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "pending", rec.last().FullName)

	// Idempotent: nothing pending, nothing fired.
	s.FlushNow()
	assert.Equal(t, 1, rec.count())

	// The timer was disarmed by the flush.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestScheduler_SupersededTimerNeverDeliversEarly(t *testing.T) {
	rec := &fireRecorder{}
	s := newScheduler(time.Hour, rec.fire)

	s.Schedule(Snapshot{FullName: "first"})
	s.Schedule(Snapshot{FullName: "second"})

	// A callback from the first timer that expired but lost the race with
	// the second Schedule must bow out instead of delivering "second"
	// before its window has run.
	s.fireExpired(1)
	assert.Equal(t, 0, rec.count(), "stale timer generation delivers nothing")

	// The current generation delivers normally.
	s.fireExpired(2)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "second", rec.last().FullName)

	// And is itself spent afterwards.
	s.fireExpired(2)
	assert.Equal(t, 1, rec.count())
}

func TestScheduler_Cancel(t *testing.T) {
	rec := &fireRecorder{}
	s := newScheduler(20*time.Millisecond, rec.fire)

	s.Schedule(Snapshot{FullName: "doomed"})
	s.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	// Cancel with nothing pending is a no-op.
	s.Cancel()
}
