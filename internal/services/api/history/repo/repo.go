// Package repo provides sqlite access for snapshot history
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"gitstats/internal/core/stats"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/store"
	"gitstats/internal/services/api/history/domain"
)

var snapshotsDDL = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		username  TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		payload   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_user_time ON snapshots (username, timestamp)`,
}

// Repo persists point in time snapshot payloads
type Repo struct {
	db *sql.DB
}

// New migrates and binds the snapshots table
func New(ctx context.Context, db *sql.DB) (*Repo, error) {
	if db == nil {
		return nil, perr.InvalidArgf("history repo requires a db")
	}
	if err := store.Migrate(ctx, db, snapshotsDDL); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

// Save appends one snapshot, usernames are stored lowercased
func (r *Repo) Save(ctx context.Context, username, timestamp string, payload []byte) error {
	const q = `INSERT INTO snapshots (username, timestamp, payload) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, strings.ToLower(username), timestamp, string(payload)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert snapshot")
	}
	return nil
}

// Latest returns the newest snapshot or nil when none exists
func (r *Repo) Latest(ctx context.Context, username string) (*stats.SnapshotPayload, error) {
	const q = `SELECT payload FROM snapshots WHERE username = ? ORDER BY timestamp DESC LIMIT 1`
	var payload string
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(username)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "latest snapshot")
	}
	var snap stats.SnapshotPayload
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "decode snapshot")
	}
	return &snap, nil
}

// Query returns snapshots inside the window, oldest first
// to is extended to the end of its day so a date bound is inclusive
func (r *Repo) Query(ctx context.Context, username string, p domain.HistoryParams) ([]domain.Entry, error) {
	q := `SELECT id, timestamp, payload FROM snapshots WHERE username = ?`
	args := []any{strings.ToLower(username)}
	if p.From != "" {
		q += ` AND timestamp >= ?`
		args = append(args, p.From)
	}
	if p.To != "" {
		q += ` AND timestamp <= ?`
		args = append(args, p.To+"T23:59:59")
	}
	q += ` ORDER BY timestamp ASC LIMIT ?`
	args = append(args, p.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "query snapshots")
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Entry{}
	for rows.Next() {
		var e domain.Entry
		var payload string
		if err := rows.Scan(&e.ID, &e.Timestamp, &payload); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "scan snapshot")
		}
		if len(e.Timestamp) >= 10 {
			e.Date = e.Timestamp[:10]
		}
		e.Snapshot = json.RawMessage(payload)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "iterate snapshots")
	}
	return out, nil
}
