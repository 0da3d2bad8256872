// Package metrics defines the observation seam used by hot paths.
// Implementations live in subpackages so domain code never imports a
// metrics backend directly
package metrics

import "time"

// Observer receives counters and gauges from the client and caches
type Observer interface {
	// APICall records one upstream call with its outcome label
	APICall(kind, outcome string, elapsed time.Duration)

	// RateRemaining records the last known rate limit remaining
	RateRemaining(remaining int)

	// BreakerState records the breaker state (0 closed, 1 half open, 2 open)
	BreakerState(state int)

	// CacheHit and CacheMiss count result cache lookups
	CacheHit()
	CacheMiss()
}

// Nop is an Observer that discards everything
type Nop struct{}

// APICall implements Observer
func (Nop) APICall(string, string, time.Duration) {}

// RateRemaining implements Observer
func (Nop) RateRemaining(int) {}

// BreakerState implements Observer
func (Nop) BreakerState(int) {}

// CacheHit implements Observer
func (Nop) CacheHit() {}

// CacheMiss implements Observer
func (Nop) CacheMiss() {}

// OrNop returns obs or a Nop when obs is nil
func OrNop(obs Observer) Observer {
	if obs == nil {
		return Nop{}
	}
	return obs
}
