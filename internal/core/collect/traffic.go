package collect

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"gitstats/internal/adapters/github"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
)

// TrafficStore persists dated traffic buckets so re-polling the rolling
// fourteen day window never double counts
type TrafficStore interface {
	MergeDays(ctx context.Context, repo, metric string, days []github.TrafficDay) error
	Totals(ctx context.Context, metric string) (count, uniques int64, firstSeen string, err error)
}

// TrafficOptions controls which metrics are persisted
type TrafficOptions struct {
	StoreViews  bool
	StoreClones bool
}

// Traffic collects views and clones for owned repositories
type Traffic struct {
	client *github.Client
	repos  *RepoStats
	store  TrafficStore
	opts   TrafficOptions
	log    logger.Logger

	mu   sync.Mutex
	done bool
	data TrafficSummary
	err  error
}

// NewTraffic builds the collector, store may be nil for in memory totals
func NewTraffic(client *github.Client, repos *RepoStats, store TrafficStore, opts TrafficOptions) *Traffic {
	return &Traffic{
		client: client,
		repos:  repos,
		store:  store,
		opts:   opts,
		log:    *logger.Named("collect.traffic"),
	}
}

// Summary returns the memoised traffic totals, computing them on first use
func (c *Traffic) Summary(ctx context.Context) (TrafficSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return c.data, c.err
	}
	c.data, c.err = c.collect(ctx)
	c.done = true
	return c.data, c.err
}

// Reset clears the memo
func (c *Traffic) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.data = TrafficSummary{}
	c.err = nil
}

func (c *Traffic) collect(ctx context.Context) (TrafficSummary, error) {
	ov, err := c.repos.Overview(ctx)
	if err != nil {
		return TrafficSummary{}, err
	}

	out := TrafficSummary{ViewsFirstSeen: NoDate, ClonesFirstSeen: NoDate}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for _, r := range ov.Repos {
		if r.Contributed {
			// traffic needs push access, contributed repos rarely grant it
			continue
		}
		g.Go(func() error {
			for _, metric := range []string{"views", "clones"} {
				var res github.TrafficResult
				_, err := c.client.REST(gctx, http.MethodGet, "/repos/"+r.Name+"/traffic/"+metric, nil, &res)
				if err != nil {
					if perr.IsCode(err, perr.ErrorCodeForbidden) || perr.IsCode(err, perr.ErrorCodeNotFound) {
						// no push access on this repo, skip it
						continue
					}
					return err
				}
				days := res.Views
				if metric == "clones" {
					days = res.Clones
				}
				mu.Lock()
				c.fold(&out, metric, res, days)
				mu.Unlock()
				if c.persisted(metric) {
					if err := c.store.MergeDays(gctx, r.Name, metric, days); err != nil {
						c.log.Warn().Err(err).Str("repo", r.Name).Str("metric", metric).Msg("traffic persist failed")
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TrafficSummary{}, err
	}

	// persisted metrics report all time totals from the store
	if c.persisted("views") {
		if count, uniques, first, err := c.store.Totals(ctx, "views"); err == nil {
			out.Views, out.ViewsUniques, out.ViewsFirstSeen = count, uniques, first
		}
	}
	if c.persisted("clones") {
		if count, uniques, first, err := c.store.Totals(ctx, "clones"); err == nil {
			out.Clones, out.ClonesUniques, out.ClonesFirstSeen = count, uniques, first
		}
	}
	return out, nil
}

func (c *Traffic) persisted(metric string) bool {
	if c.store == nil {
		return false
	}
	if metric == "views" {
		return c.opts.StoreViews
	}
	return c.opts.StoreClones
}

func (c *Traffic) fold(out *TrafficSummary, metric string, res github.TrafficResult, days []github.TrafficDay) {
	first := ""
	for _, d := range days {
		if len(d.Timestamp) >= 10 {
			date := d.Timestamp[:10]
			if first == "" || date < first {
				first = date
			}
		}
	}
	switch metric {
	case "views":
		out.Views += res.Count
		out.ViewsUniques += res.Uniques
		if first != "" && (out.ViewsFirstSeen == NoDate || first < out.ViewsFirstSeen) {
			out.ViewsFirstSeen = first
		}
	case "clones":
		out.Clones += res.Count
		out.ClonesUniques += res.Uniques
		if first != "" && (out.ClonesFirstSeen == NoDate || first < out.ClonesFirstSeen) {
			out.ClonesFirstSeen = first
		}
	}
}
