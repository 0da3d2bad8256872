// Package repo provides sqlite access for user statistics persistence
package repo

import (
	"context"
	"database/sql"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/collect"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/store"
)

// trafficDDL keys dated buckets so re-polling the rolling fourteen day
// window upserts instead of double counting
var trafficDDL = []string{
	`CREATE TABLE IF NOT EXISTS traffic_stats (
		repo    TEXT NOT NULL,
		metric  TEXT NOT NULL,
		date    TEXT NOT NULL,
		count   INTEGER NOT NULL DEFAULT 0,
		uniques INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (repo, metric, date)
	)`,
}

// Traffic persists dated traffic buckets, implements collect.TrafficStore
type Traffic struct {
	db *sql.DB
}

// NewTraffic migrates and binds the traffic table
func NewTraffic(ctx context.Context, db *sql.DB) (*Traffic, error) {
	if db == nil {
		return nil, perr.InvalidArgf("traffic store requires a db")
	}
	if err := store.Migrate(ctx, db, trafficDDL); err != nil {
		return nil, err
	}
	return &Traffic{db: db}, nil
}

// MergeDays upserts one repo's dated buckets for a metric
func (t *Traffic) MergeDays(ctx context.Context, repo, metric string, days []github.TrafficDay) error {
	if len(days) == 0 {
		return nil
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "traffic begin")
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO traffic_stats (repo, metric, date, count, uniques)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (repo, metric, date) DO UPDATE SET
			count   = MAX(count, excluded.count),
			uniques = MAX(uniques, excluded.uniques)`
	for _, d := range days {
		date := d.Timestamp
		if len(date) > 10 {
			date = date[:10]
		}
		if _, err := tx.ExecContext(ctx, q, repo, metric, date, d.Count, d.Uniques); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "traffic upsert %s %s", repo, metric)
		}
	}
	if err := tx.Commit(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "traffic commit")
	}
	return nil
}

// Totals sums one metric across every stored repo and day
func (t *Traffic) Totals(ctx context.Context, metric string) (int64, int64, string, error) {
	const q = `
		SELECT COALESCE(SUM(count), 0), COALESCE(SUM(uniques), 0), COALESCE(MIN(date), ?)
		FROM traffic_stats WHERE metric = ?`
	var count, uniques int64
	var firstSeen string
	if err := t.db.QueryRowContext(ctx, q, collect.NoDate, metric).Scan(&count, &uniques, &firstSeen); err != nil {
		return 0, 0, collect.NoDate, perr.Wrapf(err, perr.ErrorCodeDB, "traffic totals %s", metric)
	}
	return count, uniques, firstSeen, nil
}
