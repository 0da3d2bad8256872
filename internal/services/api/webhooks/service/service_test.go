package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"gitstats/internal/core/stats"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/store"
	"gitstats/internal/services/api/webhooks/domain"
	"gitstats/internal/services/api/webhooks/repo"
)

func testSvc(t *testing.T) *Svc {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.Options{Path: filepath.Join(t.TempDir(), "webhooks.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r, err := repo.New(ctx, db)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	return New(r)
}

func snap(stars, current, contributions int) stats.SnapshotPayload {
	return stats.SnapshotPayload{
		TotalStars:         stars,
		CurrentStreak:      current,
		TotalContributions: contributions,
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name string
		cond domain.Conditions
		prev stats.SnapshotPayload
		cur  stats.SnapshotPayload
		want []string
	}{
		{
			name: "stars crossing fires",
			cond: domain.Conditions{StarsThreshold: 100},
			prev: snap(99, 0, 0),
			cur:  snap(150, 0, 0),
			want: []string{"Stars crossed 100"},
		},
		{
			name: "stars already past threshold stays quiet",
			cond: domain.Conditions{StarsThreshold: 100},
			prev: snap(120, 0, 0),
			cur:  snap(150, 0, 0),
			want: nil,
		},
		{
			name: "stars exactly at threshold fires",
			cond: domain.Conditions{StarsThreshold: 100},
			prev: snap(99, 0, 0),
			cur:  snap(100, 0, 0),
			want: []string{"Stars crossed 100"},
		},
		{
			name: "streak broken fires on drop to zero",
			cond: domain.Conditions{StreakBroken: true},
			prev: snap(0, 7, 0),
			cur:  snap(0, 0, 0),
			want: []string{"Streak broken"},
		},
		{
			name: "streak never started stays quiet",
			cond: domain.Conditions{StreakBroken: true},
			prev: snap(0, 0, 0),
			cur:  snap(0, 0, 0),
			want: nil,
		},
		{
			name: "contributions record fires on a new high",
			cond: domain.Conditions{ContributionsRecord: true},
			prev: snap(0, 0, 500),
			cur:  snap(0, 0, 501),
			want: []string{"New contributions record: 501"},
		},
		{
			name: "first ever contributions do not count as a record",
			cond: domain.Conditions{ContributionsRecord: true},
			prev: snap(0, 0, 0),
			cur:  snap(0, 0, 100),
			want: nil,
		},
		{
			name: "multiple conditions can fire together",
			cond: domain.Conditions{StarsThreshold: 100, StreakBroken: true},
			prev: snap(99, 3, 0),
			cur:  snap(100, 0, 0),
			want: []string{"Stars crossed 100", "Streak broken"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.cond, tc.prev, tc.cur)
			if len(got) != len(tc.want) {
				t.Fatalf("events = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("events = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

// a stars trigger at threshold N also triggers at every lower threshold
// still above the previous count
func TestEvaluateThresholdMonotonic(t *testing.T) {
	prev, cur := snap(50, 0, 0), snap(150, 0, 0)
	for n := cur.TotalStars; n > prev.TotalStars; n-- {
		got := Evaluate(domain.Conditions{StarsThreshold: n}, prev, cur)
		if len(got) != 1 {
			t.Fatalf("threshold %d should fire, got %v", n, got)
		}
	}
	if got := Evaluate(domain.Conditions{StarsThreshold: prev.TotalStars}, prev, cur); len(got) != 0 {
		t.Fatalf("threshold at the previous count must not fire, got %v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	s := testSvc(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", domain.CreateInput{URL: "ftp://nope", Conditions: domain.Conditions{StarsThreshold: 1}})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("non http url should be rejected, got %v", err)
	}
	_, err = s.Create(ctx, "alice", domain.CreateInput{URL: "https://example.com/hook"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty conditions should be rejected, got %v", err)
	}

	wh, err := s.Create(ctx, "Alice", domain.CreateInput{
		URL:        "https://example.com/hook",
		Conditions: domain.Conditions{StarsThreshold: 100},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if wh.ID == "" || wh.Username != "alice" {
		t.Fatalf("webhook = %+v", wh)
	}
}

func TestDeleteUnknownIsNotFound(t *testing.T) {
	s := testSvc(t)
	err := s.Delete(context.Background(), "alice", "f2c7f1f0-0000-0000-0000-000000000000")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestDispatchDeliversExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	var bodies []map[string]any
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
	}))
	defer sink.Close()

	s := testSvc(t)
	s.client = sink.Client()
	ctx := context.Background()

	wh, err := s.Create(ctx, "alice", domain.CreateInput{
		URL:        sink.URL,
		Conditions: domain.Conditions{StarsThreshold: 100},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// a second hook whose condition does not fire
	if _, err := s.Create(ctx, "alice", domain.CreateInput{
		URL:        sink.URL,
		Conditions: domain.Conditions{StreakBroken: true},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	prev := snap(99, 0, 0)
	fired := s.Dispatch(ctx, "alice", &prev, snap(150, 0, 0))
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(bodies))
	}
	body := bodies[0]
	if body["username"] != "alice" || body["webhook_id"] != wh.ID {
		t.Fatalf("body = %v", body)
	}
	events, _ := body["events"].([]any)
	if len(events) != 1 || events[0] != "Stars crossed 100" {
		t.Fatalf("events = %v", events)
	}
}

func TestDispatchSurvivesDeadEndpoint(t *testing.T) {
	s := testSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "alice", domain.CreateInput{
		URL:        "http://127.0.0.1:1/hook",
		Conditions: domain.Conditions{StarsThreshold: 100},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	prev := snap(99, 0, 0)
	if fired := s.Dispatch(ctx, "alice", &prev, snap(150, 0, 0)); fired != 1 {
		t.Fatalf("a failed delivery still counts as fired, got %d", fired)
	}
}

func TestDispatchOutlivesRequestCancellation(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer sink.Close()

	s := testSvc(t)
	s.client = sink.Client()
	if _, err := s.Create(context.Background(), "alice", domain.CreateInput{
		URL:        sink.URL,
		Conditions: domain.Conditions{StarsThreshold: 100},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prev := snap(99, 0, 0)
	if fired := s.Dispatch(ctx, "alice", &prev, snap(150, 0, 0)); fired != 1 {
		t.Fatalf("fired = %d, a cancelled request must not abort delivery", fired)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Fatalf("deliveries = %d, want 1", hits)
	}
}

func TestDispatchFirstSnapshotNeverFires(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer sink.Close()

	s := testSvc(t)
	s.client = sink.Client()
	ctx := context.Background()
	if _, err := s.Create(ctx, "alice", domain.CreateInput{
		URL:        sink.URL,
		Conditions: domain.Conditions{StarsThreshold: 100},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// no earlier snapshot means no transition, even past the threshold
	if fired := s.Dispatch(ctx, "alice", nil, snap(150, 0, 100)); fired != 0 {
		t.Fatalf("fired = %d, want 0", fired)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits != 0 {
		t.Fatalf("deliveries = %d, the first snapshot must not post", hits)
	}
}
