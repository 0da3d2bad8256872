// Package modkit provides module wiring and core deps
package modkit

import (
	"gitstats/internal/adapters/github"
	"gitstats/internal/cache"
	"gitstats/internal/core/stats"
	"gitstats/internal/platform/config"
	"gitstats/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// GitHub is the shared API client, one token and one breaker per process
	GitHub *github.Client

	// Cache is the shared result cache, None{} when caching is disabled
	Cache cache.Cache

	// Stats builds a collector facade per requested username
	Stats *stats.Provider
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional stores
func (d Deps) ZeroOK() bool { return true }
