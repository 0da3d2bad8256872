package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/repofilter"
)

type fakeTrafficStore struct {
	mu     sync.Mutex
	merged map[string]int // "repo/metric" -> day count
	views  int64
	clones int64
}

func (s *fakeTrafficStore) MergeDays(_ context.Context, repo, metric string, days []github.TrafficDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.merged == nil {
		s.merged = map[string]int{}
	}
	s.merged[repo+"/"+metric] += len(days)
	return nil
}

func (s *fakeTrafficStore) Totals(_ context.Context, metric string) (int64, int64, string, error) {
	if metric == "views" {
		return s.views, s.views / 2, "2026-01-01", nil
	}
	return s.clones, s.clones / 2, "2026-02-01", nil
}

// trafficServer serves the repository walk plus per repo traffic endpoints
// repos named */locked answer 403 as GitHub does without push access
func trafficServer(t *testing.T) *github.Client {
	t.Helper()
	overview := overviewPayload(
		[]map[string]any{
			node("octocat/alpha", 1, false),
			node("octocat/locked", 1, false),
		},
		[]map[string]any{
			node("friend/gamma", 1, false),
		},
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/graphql":
			_, _ = w.Write([]byte(overview))
		case strings.Contains(r.URL.Path, "/locked/"):
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Must have push access to repository"}`))
		case strings.HasSuffix(r.URL.Path, "/traffic/views"):
			_, _ = w.Write([]byte(`{"count":40,"uniques":10,"views":[
				{"timestamp":"2026-08-20T00:00:00Z","count":25,"uniques":6},
				{"timestamp":"2026-08-21T00:00:00Z","count":15,"uniques":4}]}`))
		case strings.HasSuffix(r.URL.Path, "/traffic/clones"):
			_, _ = w.Write([]byte(`{"count":7,"uniques":3,"clones":[
				{"timestamp":"2026-08-19T00:00:00Z","count":7,"uniques":3}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	c, err := github.New(github.Options{Token: "t", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func trafficRepos(t *testing.T, client *github.Client) *RepoStats {
	t.Helper()
	repos, err := NewRepoStats(client, repofilter.New(repofilter.Options{}), "octocat")
	if err != nil {
		t.Fatalf("NewRepoStats: %v", err)
	}
	return repos
}

func TestTrafficSumsOwnedAndSkipsForbidden(t *testing.T) {
	client := trafficServer(t)
	c := NewTraffic(client, trafficRepos(t, client), nil, TrafficOptions{})

	out, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// one readable owned repo, the locked one skipped, contributed ignored
	if out.Views != 40 || out.ViewsUniques != 10 {
		t.Fatalf("views = %d/%d", out.Views, out.ViewsUniques)
	}
	if out.Clones != 7 || out.ClonesUniques != 3 {
		t.Fatalf("clones = %d/%d", out.Clones, out.ClonesUniques)
	}
	if out.ViewsFirstSeen != "2026-08-20" || out.ClonesFirstSeen != "2026-08-19" {
		t.Fatalf("first seen = %q %q", out.ViewsFirstSeen, out.ClonesFirstSeen)
	}
}

func TestTrafficNoDataKeepsSentinelDates(t *testing.T) {
	body := overviewPayload(nil, nil)
	client := walkClient(t, body)
	c := NewTraffic(client, trafficRepos(t, client), nil, TrafficOptions{})

	out, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if out.ViewsFirstSeen != NoDate || out.ClonesFirstSeen != NoDate {
		t.Fatalf("first seen = %q %q, want sentinels", out.ViewsFirstSeen, out.ClonesFirstSeen)
	}
}

func TestTrafficPersistedTotalsComeFromStore(t *testing.T) {
	client := trafficServer(t)
	st := &fakeTrafficStore{views: 1200, clones: 90}
	c := NewTraffic(client, trafficRepos(t, client), st, TrafficOptions{StoreViews: true, StoreClones: true})

	out, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// all time totals replace the fourteen day window
	if out.Views != 1200 || out.Clones != 90 {
		t.Fatalf("totals = %d/%d, want store values", out.Views, out.Clones)
	}
	if out.ViewsFirstSeen != "2026-01-01" || out.ClonesFirstSeen != "2026-02-01" {
		t.Fatalf("first seen = %q %q", out.ViewsFirstSeen, out.ClonesFirstSeen)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.merged["octocat/alpha/views"] != 2 || st.merged["octocat/alpha/clones"] != 1 {
		t.Fatalf("merged = %v", st.merged)
	}
	if st.merged["octocat/locked/views"] != 0 {
		t.Fatalf("locked repo must not be persisted, merged = %v", st.merged)
	}
}
