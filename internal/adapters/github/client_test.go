package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	perr "gitstats/internal/platform/errors"
)

func testClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.Token = "test-token"
	opts.BaseURL = srv.URL
	opts.HTTPClient = srv.Client()
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// no real sleeping in tests
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

func TestRESTRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	var u RESTUser
	if _, err := c.REST(context.Background(), http.MethodGet, "/user", nil, &u); err != nil {
		t.Fatalf("REST: %v", err)
	}
	if u.Login != "octocat" {
		t.Fatalf("login = %q", u.Login)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestRESTDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	_, err := c.REST(context.Background(), http.MethodGet, "/users/ghost", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not retry, calls = %d", calls.Load())
	}
}

func TestSecondaryRateLimitIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"You have exceeded a secondary rate limit"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	if _, err := c.REST(context.Background(), http.MethodGet, "/user", nil, nil); err != nil {
		t.Fatalf("REST: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestPlainForbiddenIsNotRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Must have push access"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	_, err := c.REST(context.Background(), http.MethodGet, "/repos/a/b/traffic/views", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("want forbidden, got %v", err)
	}
}

func TestAcceptedIsPolled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`[{"total":7}]`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	var stats []ContributorStats
	status, err := c.REST(context.Background(), http.MethodGet, "/repos/a/b/stats/contributors", nil, &stats)
	if err != nil {
		t.Fatalf("REST: %v", err)
	}
	if status != http.StatusOK || len(stats) != 1 || stats[0].Total != 7 {
		t.Fatalf("status %d stats %+v", status, stats)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{MaxAttempts: 1})
	ctx := context.Background()
	for i := 0; i < breakerFailMax; i++ {
		if _, err := c.REST(ctx, http.MethodGet, "/user", nil, nil); err == nil {
			t.Fatalf("attempt %d should fail", i)
		}
	}
	if got := c.BreakerState(); got != "open" {
		t.Fatalf("breaker state = %q, want open", got)
	}
	_, err := c.REST(ctx, http.MethodGet, "/user", nil, nil)
	if !perr.IsCode(err, perr.ErrorCodeBreakerOpen) {
		t.Fatalf("want breaker open error, got %v", err)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{MaxAttempts: 1})
	ctx := context.Background()
	for i := 0; i < breakerFailMax*2; i++ {
		_, _ = c.REST(ctx, http.MethodGet, "/users/ghost", nil, nil)
	}
	if got := c.BreakerState(); got != "closed" {
		t.Fatalf("breaker state = %q, want closed", got)
	}
}

func TestRESTRetriesMangledBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// a 200 whose body was cut off mid stream
			_, _ = w.Write([]byte(`{"login":"octo`))
			return
		}
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	var u RESTUser
	if _, err := c.REST(context.Background(), http.MethodGet, "/user", nil, &u); err != nil {
		t.Fatalf("REST: %v", err)
	}
	if u.Login != "octocat" {
		t.Fatalf("login = %q", u.Login)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, a truncated body must be retried", calls.Load())
	}
}

func TestBreakerIgnoresRateLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{MaxAttempts: 1})
	ctx := context.Background()
	for i := 0; i < breakerFailMax*2; i++ {
		_, _ = c.REST(ctx, http.MethodGet, "/user", nil, nil)
	}
	if got := c.BreakerState(); got != "closed" {
		t.Fatalf("breaker state = %q, rate limiting must not trip it", got)
	}
}

func TestQueryReportsGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Could not resolve to a User"}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	_, err := c.Query(context.Background(), QueryContributionYears, map[string]any{"login": "ghost"})
	if !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("want upstream error, got %v", err)
	}
}

func TestQueryReturnsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		_, _ = w.Write([]byte(`{"data":{"user":{"contributionsCollection":{"contributionYears":[2026,2025]}}}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	raw, err := c.Query(context.Background(), QueryContributionYears, map[string]any{"login": "octocat"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var data ContributionYearsData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	years := data.User.ContributionsCollection.ContributionYears
	if len(years) != 2 || years[0] != 2026 {
		t.Fatalf("years = %v", years)
	}
}

func TestPagedStopsOnShortPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(fullPageJSON()))
		default:
			_, _ = w.Write([]byte(`[{"login":"last"}]`))
		}
	}))
	defer srv.Close()

	c := testClient(t, srv, Options{})
	rows, err := Paged[Account](context.Background(), c, "/repos/a/b/contributors", url.Values{})
	if err != nil {
		t.Fatalf("Paged: %v", err)
	}
	if len(rows) != 101 {
		t.Fatalf("rows = %d, want 101", len(rows))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func fullPageJSON() string {
	out := "["
	for i := 0; i < 100; i++ {
		if i > 0 {
			out += ","
		}
		out += `{"login":"u"}`
	}
	return out + "]"
}
