package github

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// criticalRemaining is the floor under which we pause before calling out
	criticalRemaining = 10

	// criticalWaitCap bounds a single pre-request pause
	criticalWaitCap = 60 * time.Second
)

// RateLimitSnapshot is a point in time copy of the tracked quota
type RateLimitSnapshot struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`

	// Known is false until the first response carried rate headers
	Known bool `json:"known"`
}

// RateLimitState tracks the primary rate limit from response headers
// safe for concurrent use
type RateLimitState struct {
	mu        sync.Mutex
	limit     int
	remaining int
	reset     time.Time
	known     bool
}

// Update folds the X-RateLimit headers of one response into the state
// responses without the headers leave the state untouched
func (s *RateLimitState) Update(h http.Header) {
	rem := h.Get("X-RateLimit-Remaining")
	if rem == "" {
		return
	}
	n, err := strconv.Atoi(rem)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = n
	s.known = true
	if v, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil {
		s.limit = v
	}
	if sec, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil && sec > 0 {
		s.reset = time.Unix(sec, 0).UTC()
	}
}

// CriticalWait returns how long to pause before the next request
// zero when quota is healthy or unknown
func (s *RateLimitState) CriticalWait(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known || s.remaining >= criticalRemaining {
		return 0
	}
	if !s.reset.After(now) {
		return 0
	}
	d := s.reset.Sub(now)
	if d > criticalWaitCap {
		d = criticalWaitCap
	}
	return d
}

// Snapshot returns a copy of the current state
func (s *RateLimitState) Snapshot() RateLimitSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RateLimitSnapshot{
		Limit:     s.limit,
		Remaining: s.remaining,
		Reset:     s.reset,
		Known:     s.known,
	}
}
