package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/repofilter"
)

func engagementServer(t *testing.T) *github.Client {
	t.Helper()
	overview := overviewPayload(
		[]map[string]any{node("octocat/alpha", 1, false)},
		[]map[string]any{node("friend/gamma", 1, false)},
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/graphql":
			_, _ = w.Write([]byte(overview))
		case strings.HasSuffix(r.URL.Path, "/collaborators"):
			_, _ = w.Write([]byte(`[{"login":"octocat"},{"login":"carol"}]`))
		case strings.HasSuffix(r.URL.Path, "/contributors"):
			_, _ = w.Write([]byte(`[{"login":"octocat"},{"login":"dave"}]`))
		case strings.HasSuffix(r.URL.Path, "/issues"):
			if strings.HasPrefix(r.URL.Path, "/repos/friend/") {
				t.Errorf("issues must not be queried on contributed repos")
			}
			_, _ = w.Write([]byte(`[
				{"html_url":"https://github.com/octocat/alpha/issues/1"},
				{"html_url":"https://github.com/octocat/alpha/pull/2"}]`))
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

func TestEngagementCountsAudience(t *testing.T) {
	client := engagementServer(t)
	repos, err := NewRepoStats(client, repofilter.New(repofilter.Options{}), "octocat")
	if err != nil {
		t.Fatalf("NewRepoStats: %v", err)
	}
	c := NewEngagement(client, repos, "octocat", 3)

	out, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// union {octocat, carol, dave} minus the user, plus MORE_COLLABS
	if out.Collaborators != 2+3 {
		t.Fatalf("collaborators = %d, want 5", out.Collaborators)
	}
	if out.Contributors != 1 {
		t.Fatalf("contributors = %d, want 1 (the user is excluded)", out.Contributors)
	}
	// the pull request row must not count as an issue
	if out.Issues != 1 {
		t.Fatalf("issues = %d, want 1", out.Issues)
	}
}

func TestEngagementDegradesOnMissingScopes(t *testing.T) {
	overview := overviewPayload([]map[string]any{node("octocat/alpha", 1, false)}, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/graphql" {
			_, _ = w.Write([]byte(overview))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Must have admin rights"}`))
	}))
	defer srv.Close()
	client, err := github.New(github.Options{Token: "t", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repos, err := NewRepoStats(client, repofilter.New(repofilter.Options{}), "octocat")
	if err != nil {
		t.Fatalf("NewRepoStats: %v", err)
	}

	out, err := NewEngagement(client, repos, "octocat", 0).Summary(context.Background())
	if err != nil {
		t.Fatalf("missing scopes must degrade to zero, got %v", err)
	}
	if out.Collaborators != 0 || out.Contributors != 0 || out.Issues != 0 {
		t.Fatalf("summary = %+v, want zeros", out)
	}
}
