package protocol

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLatencyProbeRoundTrip(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	p := NewLatencyProbeWithClock(clk.now)

	p.PingSent()
	clk.advance(42 * time.Millisecond)
	got, ok := p.PongReceived()
	if !ok || got != 42*time.Millisecond {
		t.Fatalf("latency = %v ok=%v", got, ok)
	}
	if p.Latency() != 42*time.Millisecond {
		t.Fatalf("stored latency = %v", p.Latency())
	}
}

func TestLatencyProbeUnsolicitedPong(t *testing.T) {
	p := NewLatencyProbe()
	if _, ok := p.PongReceived(); ok {
		t.Fatal("pong without ping must not update latency")
	}
	if p.Latency() != 0 {
		t.Fatalf("latency = %v, want 0", p.Latency())
	}
}

func TestLatencyProbeSupersededPing(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	p := NewLatencyProbeWithClock(clk.now)

	p.PingSent()
	clk.advance(30 * time.Second)
	p.PingSent()
	clk.advance(10 * time.Millisecond)
	got, ok := p.PongReceived()
	if !ok || got != 10*time.Millisecond {
		t.Fatalf("latency = %v ok=%v", got, ok)
	}
	// the second pong has nothing to correlate with
	clk.advance(time.Second)
	if _, ok := p.PongReceived(); ok {
		t.Fatal("duplicate pong updated latency")
	}
	if p.Latency() != 10*time.Millisecond {
		t.Fatalf("latency = %v", p.Latency())
	}
}
