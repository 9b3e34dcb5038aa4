package ws

import (
	"math"
	"time"
)

// BackoffConfig defines reconnection behavior.
type BackoffConfig struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		MaxRetries: 5,
	}
}

// WithDefaults fills each zero field from DefaultBackoff. A negative
// MaxRetries disables reconnection.
func (b BackoffConfig) WithDefaults() BackoffConfig {
	d := DefaultBackoff()
	if b.BaseDelay <= 0 {
		b.BaseDelay = d.BaseDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = d.MaxDelay
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = d.MaxRetries
	}
	return b
}

// Delay returns min(BaseDelay * 2^attempt, MaxDelay) for a 0-indexed attempt.
func (b BackoffConfig) Delay(attempt int) time.Duration {
	if b.BaseDelay <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(b.BaseDelay) * math.Pow(2, float64(attempt))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
