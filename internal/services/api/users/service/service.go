// Package service contains the user statistics workflows
package service

import (
	"context"
	"encoding/json"

	"gitstats/internal/cache"
	"gitstats/internal/core/collect"
	"gitstats/internal/core/stats"
	"gitstats/internal/platform/logger"
)

// Deps wires the service
type Deps struct {
	Provider *stats.Provider
	Cache    cache.Cache
}

// Svc serves cache backed statistics payloads per username
type Svc struct {
	deps Deps
	log  logger.Logger
}

// New constructs the users service
func New(deps Deps) *Svc {
	if deps.Provider == nil {
		panic("users.Service requires a stats provider")
	}
	if deps.Cache == nil {
		deps.Cache = cache.None{}
	}
	return &Svc{deps: deps, log: *logger.Named("users")}
}

// facade scopes collection to the caller's own token when one was supplied,
// otherwise the shared server token is used
func (s *Svc) facade(ctx context.Context, username string) (*stats.Stats, error) {
	if tok := stats.UserToken(ctx); tok != "" {
		return s.deps.Provider.ForToken(ctx, username, tok)
	}
	return s.deps.Provider.For(username)
}

// cached serves sig from the cache or collects through a fresh facade
// a poisoned cache entry is dropped and recollected
// token scoped requests never touch the shared cache, their payloads may
// contain private repositories
func cached[T any](ctx context.Context, s *Svc, username, sig string, fill func(*stats.Stats) (T, error)) (T, bool, error) {
	var zero T
	key := cache.Key(username, sig)
	scoped := stats.UserToken(ctx) != ""
	if !scoped && !cache.Bypassed(ctx) {
		if b, ok := s.deps.Cache.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, true, nil
			}
			s.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
			s.deps.Cache.Delete(ctx, key)
		}
	}

	st, err := s.facade(ctx, username)
	if err != nil {
		return zero, false, err
	}
	v, err := fill(st)
	if err != nil {
		return zero, false, err
	}
	if !scoped {
		if b, err := json.Marshal(v); err == nil {
			s.deps.Cache.Set(ctx, key, b)
		}
	}
	return v, false, nil
}

// Overview returns the headline figures, degrading per section
// an unknown user still surfaces as an error from the repository walk
func (s *Svc) Overview(ctx context.Context, username string) (stats.OverviewPayload, bool, error) {
	return cached(ctx, s, username, "overview", func(st *stats.Stats) (stats.OverviewPayload, error) {
		if _, err := st.Overview(ctx); err != nil {
			return stats.OverviewPayload{}, err
		}
		p := &stats.Partial{}
		return st.BuildOverview(ctx, p), nil
	})
}

// Languages returns merged language totals, optionally as proportions
func (s *Svc) Languages(ctx context.Context, username string, proportional bool) ([]collect.LanguageStat, bool, error) {
	sig := "languages"
	if proportional {
		sig = "languages_proportional"
	}
	return cached(ctx, s, username, sig, func(st *stats.Stats) ([]collect.LanguageStat, error) {
		ov, err := st.Overview(ctx)
		if err != nil {
			return nil, err
		}
		if proportional {
			return collect.Proportions(ov.Languages), nil
		}
		return ov.Languages, nil
	})
}

// Streak returns the current and longest contribution runs
func (s *Svc) Streak(ctx context.Context, username string) (collect.Streak, bool, error) {
	return cached(ctx, s, username, "streak", func(st *stats.Stats) (collect.Streak, error) {
		c, err := st.Contributions(ctx)
		if err != nil {
			return collect.Streak{}, err
		}
		return c.Streak, nil
	})
}

// Recent returns the trailing daily contribution counts
func (s *Svc) Recent(ctx context.Context, username string) ([]collect.DayCount, bool, error) {
	return cached(ctx, s, username, "contributions_recent", func(st *stats.Stats) ([]collect.DayCount, error) {
		c, err := st.Contributions(ctx)
		if err != nil {
			return nil, err
		}
		return c.Recent, nil
	})
}

// Weekly returns the current week's commit log, private repos masked
func (s *Svc) Weekly(ctx context.Context, username string) ([]collect.CommitEntry, bool, error) {
	return cached(ctx, s, username, "commits_weekly", func(st *stats.Stats) ([]collect.CommitEntry, error) {
		return st.WeeklyCommits(ctx)
	})
}

// Full returns the complete payload with per section warnings attached
func (s *Svc) Full(ctx context.Context, username string) (stats.FullPayload, bool, error) {
	return cached(ctx, s, username, "stats_full", func(st *stats.Stats) (stats.FullPayload, error) {
		if _, err := st.Overview(ctx); err != nil {
			return stats.FullPayload{}, err
		}
		return st.BuildFull(ctx), nil
	})
}

// Collect builds an uncached snapshot payload for persistence
// callers own cache interaction, snapshots are always fresh
func (s *Svc) Collect(ctx context.Context, username string) (stats.SnapshotPayload, error) {
	st, err := s.deps.Provider.For(username)
	if err != nil {
		return stats.SnapshotPayload{}, err
	}
	if _, err := st.Overview(ctx); err != nil {
		return stats.SnapshotPayload{}, err
	}
	p := &stats.Partial{}
	return st.BuildSnapshot(ctx, p), nil
}
