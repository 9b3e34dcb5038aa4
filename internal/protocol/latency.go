package protocol

import (
	"sync"
	"time"
)

// LatencyProbe tracks the single outstanding ping. A newer ping supersedes
// an unanswered one; a pong with no outstanding ping is ignored.
type LatencyProbe struct {
	mu          sync.Mutex
	now         func() time.Time
	sentAt      time.Time
	outstanding bool
	latency     time.Duration
}

func NewLatencyProbe() *LatencyProbe {
	return &LatencyProbe{now: time.Now}
}

// NewLatencyProbeWithClock is used by tests to control elapsed time.
func NewLatencyProbeWithClock(now func() time.Time) *LatencyProbe {
	return &LatencyProbe{now: now}
}

// PingSent starts the timer.
func (p *LatencyProbe) PingSent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentAt = p.now()
	p.outstanding = true
}

// PongReceived stops the timer and reports the measured latency.
func (p *LatencyProbe) PongReceived() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.outstanding {
		return p.latency, false
	}
	p.outstanding = false
	elapsed := p.now().Sub(p.sentAt)
	if elapsed < 0 {
		elapsed = 0
	}
	p.latency = elapsed
	return elapsed, true
}

// Latency returns the last measured round trip, zero before the first pong.
func (p *LatencyProbe) Latency() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latency
}

// Reset forgets any outstanding ping. The last latency is kept.
func (p *LatencyProbe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding = false
}
