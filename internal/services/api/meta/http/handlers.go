// Package http provides meta endpoints
package http

import (
	stdhttp "net/http"
	"time"

	"gitstats/internal/adapters/github"
	"gitstats/internal/cache"
	"gitstats/internal/core/version"
	"gitstats/internal/modkit/httpkit"
)

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time

	// Client feeds breaker and rate limit health, may be nil in tests
	Client *github.Client

	// Cache reports its entry count, may be nil
	Cache cache.Cache
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	r.Get("/health", httpkit.Handle(h.health))
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// HealthResponse is the health payload
type HealthResponse struct {
	Status string       `json:"status"` // ok degraded unavailable
	GitHub GitHubHealth `json:"github"`
	Cache  CacheHealth  `json:"cache"`
	Now    string       `json:"now"`
}

// GitHubHealth reports upstream client state
type GitHubHealth struct {
	Breaker string     `json:"breaker"`
	Rate    RateHealth `json:"rate"`
}

// RateHealth reports the last observed rate limit window
type RateHealth struct {
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Reset     string `json:"reset,omitempty"`
}

// CacheHealth reports result cache occupancy
type CacheHealth struct {
	Entries int `json:"entries"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// health is the worst-of view over breaker state and rate budget
// an open breaker or an exhausted budget surfaces as 503
func (h *handlers) health(_ *stdhttp.Request) httpkit.Response {
	out := HealthResponse{
		Status: "ok",
		Now:    time.Now().UTC().Format(time.RFC3339),
	}
	if h.deps.Cache != nil {
		out.Cache.Entries = h.deps.Cache.Len()
	}

	if h.deps.Client != nil {
		out.GitHub.Breaker = h.deps.Client.BreakerState()
		rl := h.deps.Client.Snapshot()
		if rl.Known {
			out.GitHub.Rate = RateHealth{
				Remaining: rl.Remaining,
				Limit:     rl.Limit,
				Reset:     rl.Reset.UTC().Format(time.RFC3339),
			}
		} else {
			out.GitHub.Rate = RateHealth{Remaining: -1, Limit: -1}
		}
		out.Status = worstOf(out.GitHub.Breaker, rl)
	}

	status := stdhttp.StatusOK
	if out.Status == "unavailable" {
		status = stdhttp.StatusServiceUnavailable
	}
	return httpkit.Response{Status: status, Body: out}
}

// worstOf folds breaker and rate levels into one status
func worstOf(breaker string, rl github.RateLimitSnapshot) string {
	switch breaker {
	case "open":
		return "unavailable"
	case "half-open":
		if level := rateLevel(rl); level == "unavailable" {
			return "unavailable"
		}
		return "degraded"
	}
	return rateLevel(rl)
}

func rateLevel(rl github.RateLimitSnapshot) string {
	// no window observed yet, report degraded until the first response lands
	if !rl.Known {
		return "degraded"
	}
	if rl.Remaining > 100 {
		return "ok"
	}
	if rl.Remaining > 10 {
		return "degraded"
	}
	return "unavailable"
}

func (h *handlers) version(_ *stdhttp.Request) (any, error) {
	return version.Info(), nil
}

func (h *handlers) service(_ *stdhttp.Request) (any, error) {
	uptime := time.Since(h.deps.StartedAt)
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
	}, nil
}
