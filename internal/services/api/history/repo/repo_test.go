package repo

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"gitstats/internal/core/stats"
	"gitstats/internal/platform/store"
	"gitstats/internal/services/api/history/domain"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.Options{Path: filepath.Join(t.TempDir(), "snapshots.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r, err := New(ctx, db)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	return r
}

func save(t *testing.T, r *Repo, username, ts string, stars int) {
	t.Helper()
	payload, _ := json.Marshal(stats.SnapshotPayload{Username: username, TotalStars: stars, Timestamp: ts})
	if err := r.Save(context.Background(), username, ts, payload); err != nil {
		t.Fatalf("save %s: %v", ts, err)
	}
}

func TestLatestOnEmptyIsNil(t *testing.T) {
	r := testRepo(t)
	got, err := r.Latest(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != nil {
		t.Fatalf("latest on empty store = %+v, want nil", got)
	}
}

func TestLatestPicksNewestRegardlessOfInsertOrder(t *testing.T) {
	r := testRepo(t)
	save(t, r, "alice", "2026-08-20T10:00:00Z", 10)
	save(t, r, "alice", "2026-08-22T10:00:00Z", 30)
	save(t, r, "alice", "2026-08-21T10:00:00Z", 20)

	got, err := r.Latest(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got == nil || got.TotalStars != 30 {
		t.Fatalf("latest = %+v, want stars 30", got)
	}
}

func TestQueryOrdersAscendingAndDerivesDate(t *testing.T) {
	r := testRepo(t)
	save(t, r, "alice", "2026-08-22T10:00:00Z", 30)
	save(t, r, "alice", "2026-08-20T10:00:00Z", 10)
	save(t, r, "alice", "2026-08-21T10:00:00Z", 20)
	save(t, r, "bob", "2026-08-21T11:00:00Z", 99)

	rows, err := r.Query(context.Background(), "alice", domain.HistoryParams{Limit: 100})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Timestamp > rows[i].Timestamp {
			t.Fatalf("rows out of order: %s before %s", rows[i-1].Timestamp, rows[i].Timestamp)
		}
	}
	if rows[0].Date != "2026-08-20" {
		t.Fatalf("date = %q", rows[0].Date)
	}
}

func TestQueryWindowIsInclusive(t *testing.T) {
	r := testRepo(t)
	save(t, r, "alice", "2026-08-19T23:59:00Z", 1)
	save(t, r, "alice", "2026-08-20T00:00:01Z", 2)
	save(t, r, "alice", "2026-08-21T12:00:00Z", 3)
	save(t, r, "alice", "2026-08-22T00:00:01Z", 4)

	rows, err := r.Query(context.Background(), "alice", domain.HistoryParams{
		From: "2026-08-20", To: "2026-08-21", Limit: 100,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (the to date is inclusive)", len(rows))
	}
}

func TestQueryHonoursLimit(t *testing.T) {
	r := testRepo(t)
	for d := 10; d < 20; d++ {
		save(t, r, "alice", "2026-08-"+itoa2(d)+"T10:00:00Z", d)
	}
	rows, err := r.Query(context.Background(), "alice", domain.HistoryParams{Limit: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
}

func itoa2(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
