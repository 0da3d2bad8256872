package domain

import (
	"context"

	"gitstats/internal/core/collect"
	"gitstats/internal/core/stats"
)

// StatsPort is the cross module read surface over user statistics
// results are cache backed, the bool reports a cache hit
type StatsPort interface {
	Overview(ctx context.Context, username string) (stats.OverviewPayload, bool, error)
	Languages(ctx context.Context, username string, proportional bool) ([]collect.LanguageStat, bool, error)
	Streak(ctx context.Context, username string) (collect.Streak, bool, error)
	Recent(ctx context.Context, username string) ([]collect.DayCount, bool, error)
	Weekly(ctx context.Context, username string) ([]collect.CommitEntry, bool, error)
}

// CollectorPort builds fresh snapshot payloads, bypassing the cache
type CollectorPort interface {
	Collect(ctx context.Context, username string) (stats.SnapshotPayload, error)
}
