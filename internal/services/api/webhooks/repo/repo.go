// Package repo provides sqlite access for webhook registrations
package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/store"
	"gitstats/internal/services/api/webhooks/domain"
)

var webhooksDDL = []string{
	`CREATE TABLE IF NOT EXISTS webhooks (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL,
		url        TEXT NOT NULL,
		conditions TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_webhooks_username ON webhooks (username)`,
}

// Repo persists webhook registrations
type Repo struct {
	db *sql.DB
}

// New migrates and binds the webhooks table
func New(ctx context.Context, db *sql.DB) (*Repo, error) {
	if db == nil {
		return nil, perr.InvalidArgf("webhooks repo requires a db")
	}
	if err := store.Migrate(ctx, db, webhooksDDL); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

// Create inserts one registration
func (r *Repo) Create(ctx context.Context, wh domain.Webhook) error {
	conditions, err := json.Marshal(wh.Conditions)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "marshal conditions")
	}
	const q = `INSERT INTO webhooks (id, username, url, conditions, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, wh.ID, wh.Username, wh.URL, string(conditions), wh.CreatedAt); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert webhook")
	}
	return nil
}

// ListByUser returns the user's registrations oldest first
func (r *Repo) ListByUser(ctx context.Context, username string) ([]domain.Webhook, error) {
	const q = `SELECT id, username, url, conditions, created_at FROM webhooks WHERE username = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "list webhooks")
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Webhook{}
	for rows.Next() {
		var wh domain.Webhook
		var conditions string
		if err := rows.Scan(&wh.ID, &wh.Username, &wh.URL, &conditions, &wh.CreatedAt); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "scan webhook")
		}
		if err := json.Unmarshal([]byte(conditions), &wh.Conditions); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "decode conditions %s", wh.ID)
		}
		out = append(out, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "iterate webhooks")
	}
	return out, nil
}

// Delete removes one registration scoped to the username
// returns false when the id is unknown or owned by someone else
func (r *Repo) Delete(ctx context.Context, username, id string) (bool, error) {
	const q = `DELETE FROM webhooks WHERE id = ? AND username = ?`
	res, err := r.db.ExecContext(ctx, q, id, username)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "delete webhook")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "delete webhook rows")
	}
	return n > 0, nil
}
