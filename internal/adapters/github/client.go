// Package github provides a resilient GitHub GraphQL v4 and REST v3 client
// one token, one semaphore, one rate limit state, one breaker
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"

	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
	"gitstats/internal/platform/metrics"
)

const (
	baseURLDefault       = "https://api.github.com"
	defaultTimeout       = 30 * time.Second
	defaultUA            = "gitstats"
	defaultMaxAttempts   = 3
	defaultMaxConcurrent = 10
	defaultRetryBase     = time.Second

	// retryWaitCap bounds a single Retry-After honoured wait
	retryWaitCap = 60 * time.Second

	breakerFailMax = 5
	breakerReset   = 30 * time.Second

	// async REST endpoints (stats family) answer 202 while computing
	pollMaxAttempts = 60
	pollInterval    = 2 * time.Second
)

// Options configures the Client
type Options struct {
	// Token is required, tokenless quota is useless for aggregation
	Token string

	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// MaxConcurrent bounds in flight requests across GraphQL and REST
	MaxConcurrent int64

	// MaxAttempts is the total attempt count per request
	MaxAttempts int
	RetryBase   time.Duration

	// HTTPClient overrides the default client, mainly for tests
	HTTPClient *http.Client

	Observer metrics.Observer
}

// Client issues GraphQL and REST requests with shared throttling
type Client struct {
	http    *http.Client
	opts    Options
	sem     *semaphore.Weighted
	rate    *RateLimitState
	breaker *gobreaker.CircuitBreaker
	obs     metrics.Observer
	log     logger.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Client or fails when no token is supplied
func New(o Options) (*Client, error) {
	if strings.TrimSpace(o.Token) == "" {
		return nil, perr.InvalidArgf("github token required")
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = defaultMaxConcurrent
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	c := &Client{
		http:  hc,
		opts:  o,
		sem:   semaphore.NewWeighted(o.MaxConcurrent),
		rate:  &RateLimitState{},
		obs:   metrics.OrNop(o.Observer),
		log:   *logger.Named("github"),
		now:   time.Now,
		sleep: sleepCtx,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "github",
		Timeout: breakerReset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailMax
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsForBreaker(err)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("github breaker state change")
			c.obs.BreakerState(breakerGauge(to))
		},
	})
	return c, nil
}

// Snapshot returns the last observed rate limit state
func (c *Client) Snapshot() RateLimitSnapshot { return c.rate.Snapshot() }

// BreakerState returns the breaker state as a string (closed, half-open, open)
func (c *Client) BreakerState() string { return c.breaker.State().String() }

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Query posts a GraphQL document and returns the data object
// GraphQL level errors become upstream errors even on HTTP 200
func (c *Client) Query(ctx context.Context, query string, vars map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "github marshal graphql request")
	}
	type envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	var env envelope
	_, _, err = c.call(ctx, "graphql", http.MethodPost, "/graphql", "", body, func(b []byte, _ int) error {
		var e envelope
		if err := json.Unmarshal(b, &e); err != nil {
			return err
		}
		env = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(env.Errors) > 0 {
		return nil, perr.Upstreamf("github graphql error: %s", env.Errors[0].Message)
	}
	return env.Data, nil
}

// REST issues a v3 request and decodes the body into out when present
// GET endpoints still computing answer 202, which is re-polled and finally
// reported as (202, nil) with out untouched so callers see an empty result
func (c *Client) REST(ctx context.Context, method, path string, params url.Values, out any) (int, error) {
	q := ""
	if len(params) > 0 {
		q = "?" + params.Encode()
	}
	decode := func(b []byte, status int) error {
		if out == nil || len(b) == 0 || status == http.StatusNoContent || status == http.StatusAccepted {
			return nil
		}
		return json.Unmarshal(b, out)
	}
	_, status, err := c.call(ctx, "rest", method, path, q, nil, decode)
	if err != nil {
		return status, err
	}
	for poll := 0; status == http.StatusAccepted && method == http.MethodGet; poll++ {
		if poll >= pollMaxAttempts {
			return status, nil
		}
		if err := c.sleep(ctx, pollInterval); err != nil {
			return status, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github poll interrupted")
		}
		_, status, err = c.call(ctx, "rest", method, path, q, nil, decode)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

// Paged fetches every page of a REST list endpoint with per_page 100
// a short page terminates the walk
func Paged[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	const perPage = 100
	var all []T
	for page := 1; ; page++ {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set("per_page", "100")
		p.Set("page", strconv.Itoa(page))
		var batch []T
		if _, err := c.REST(ctx, http.MethodGet, path, p, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

// call runs one logical request through the semaphore, governor, breaker
// and retry schedule, returning the body and final status
// decode runs on successful bodies inside the loop so a mangled response
// is retried like a server fault
func (c *Client) call(ctx context.Context, kind, method, path, query string, body []byte, decode func([]byte, int) error) ([]byte, int, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github acquire slot")
	}
	defer c.sem.Release(1)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.RetryBase
	bo.MaxInterval = 30 * time.Second
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := bo.NextBackOff()
			var se *StatusError
			if errors.As(lastErr, &se) && se.RetryAfter > 0 {
				wait = se.RetryAfter
				if wait > retryWaitCap {
					wait = retryWaitCap
				}
			}
			c.log.Warn().Dur("retry_in", wait).Int("attempt", attempt).Str("path", path).Msg("github retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github retry interrupted")
			}
		}

		if wait := c.rate.CriticalWait(c.now()); wait > 0 {
			c.log.Warn().Dur("wait", wait).Msg("github rate limit critical, pausing")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github critical wait interrupted")
			}
		}

		res, err := c.breaker.Execute(func() (any, error) {
			return c.once(ctx, kind, method, path, query, body)
		})
		if err == nil {
			r := res.(result)
			if decode != nil {
				if derr := decode(r.body, r.status); derr != nil {
					lastErr = &decodeError{path: path, err: derr}
					continue
				}
			}
			return r.body, r.status, nil
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, 0, perr.BreakerOpenf("github circuit breaker open")
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, statusOf(lastErr), wireError(lastErr, path)
}

type result struct {
	body   []byte
	status int
}

// once performs a single HTTP exchange and classifies the response
func (c *Client) once(ctx context.Context, kind, method, path, query string, body []byte) (result, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path+query, rd)
	if err != nil {
		return result{}, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	if path == "/graphql" {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		c.obs.APICall(kind, "network_error", lat)
		return result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	c.rate.Update(resp.Header)
	if snap := c.rate.Snapshot(); snap.Known {
		c.obs.RateRemaining(snap.Remaining)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("github http response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.obs.APICall(kind, "ok", lat)
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, err
		}
		return result{body: b, status: resp.StatusCode}, nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	se := &StatusError{Status: resp.StatusCode, Body: string(b)}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if sec, err := time.ParseDuration(ra + "s"); err == nil {
			se.RetryAfter = sec
		}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		se.RateLimited = true
	case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(se.Body), "rate limit"):
		// secondary rate limit arrives as a 403 with a telltale message
		se.RateLimited = true
	}
	c.obs.APICall(kind, outcomeLabel(se), lat)
	return result{}, se
}

func outcomeLabel(se *StatusError) string {
	switch {
	case se.RateLimited:
		return "rate_limited"
	case se.Status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// wireError maps a transport failure onto the project error taxonomy
func wireError(err error, path string) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github request failed %s", path)
	}
	switch {
	case se.RateLimited:
		return perr.Wrapf(se, perr.ErrorCodeTooManyRequests, "github rate limited %s", path)
	case se.Status >= 500:
		return perr.Wrapf(se, perr.ErrorCodeUnavailable, "github server error %s", path)
	case se.Status == http.StatusUnauthorized:
		return perr.Wrapf(se, perr.ErrorCodeUnauthorized, "github unauthorized %s", path)
	case se.Status == http.StatusForbidden:
		return perr.Wrapf(se, perr.ErrorCodeForbidden, "github forbidden %s", path)
	case se.Status == http.StatusNotFound:
		return perr.Wrapf(se, perr.ErrorCodeNotFound, "github not found %s", path)
	default:
		return perr.Wrapf(se, perr.ErrorCodeUpstream, "github unexpected status %d %s", se.Status, path)
	}
}
