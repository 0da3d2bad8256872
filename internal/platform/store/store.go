// Package store provides SQLite openers for the service's persistent files
// one database file per concern keeps locking domains independent
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
)

// Options configures one SQLite database
type Options struct {
	// Path is the database file, parent directories are created
	Path string

	// BusyTimeout bounds lock waits, default 5s
	BusyTimeout time.Duration
}

// Open opens (creating if needed) a WAL mode SQLite database
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, perr.InvalidArgf("store path required")
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "create store dir %s", dir)
		}
	}

	dsn := "file:" + opts.Path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(" + strconv.Itoa(int(opts.BusyTimeout/time.Millisecond)) + ")" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open sqlite %s", opts.Path)
	}

	// a single writer connection avoids SQLITE_BUSY churn under load
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "ping sqlite %s", opts.Path)
	}
	logger.Named("store").Debug().Str("path", opts.Path).Msg("sqlite opened")
	return db, nil
}

// Migrate applies idempotent DDL statements in order
func Migrate(ctx context.Context, db *sql.DB, ddl []string) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "migrate: %s", stmt)
		}
	}
	return nil
}
