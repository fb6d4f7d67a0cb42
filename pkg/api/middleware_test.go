package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_VisitorReuse(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	a := rl.getVisitor("10.0.0.1")
	b := rl.getVisitor("10.0.0.1")
	assert.Same(t, a, b, "one bucket per IP")

	c := rl.getVisitor("10.0.0.2")
	assert.NotSame(t, a, c)
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	rl.getVisitor("10.0.0.1")
	rl.getVisitor("10.0.0.2")

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-visitorIdleTTL - time.Minute)
	rl.mu.Unlock()

	rl.evictStale(time.Now().Add(-visitorIdleTTL))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1", "idle visitors are dropped")
	assert.Contains(t, rl.visitors, "10.0.0.2", "active visitors keep their bucket")
}
