package collect

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gitstats/internal/adapters/github"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
)

// EngagementSummary aggregates audience signals across repositories
type EngagementSummary struct {
	// Collaborators is the distinct collaborator and contributor count
	// excluding the user, plus the configured manual extra
	Collaborators int

	// Contributors is the distinct contributor count excluding the user
	Contributors int

	// Issues counts issues authored by the user, PRs excluded
	Issues int
}

// Engagement walks collaborators, contributors and issues per repository
type Engagement struct {
	client      *github.Client
	repos       *RepoStats
	username    string
	moreCollabs int
	log         logger.Logger

	mu   sync.Mutex
	done bool
	data EngagementSummary
	err  error
}

// NewEngagement builds the collector over the repository walk
func NewEngagement(client *github.Client, repos *RepoStats, username string, moreCollabs int) *Engagement {
	return &Engagement{
		client:      client,
		repos:       repos,
		username:    username,
		moreCollabs: moreCollabs,
		log:         *logger.Named("collect.engagement"),
	}
}

// Summary returns the memoised engagement, computing it on first use
func (c *Engagement) Summary(ctx context.Context) (EngagementSummary, error) {
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
func (c *Engagement) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.data = EngagementSummary{}
	c.err = nil
}

func (c *Engagement) collect(ctx context.Context) (EngagementSummary, error) {
	ov, err := c.repos.Overview(ctx)
	if err != nil {
		return EngagementSummary{}, err
	}

	collabs := map[string]struct{}{}
	contributors := map[string]struct{}{}
	issues := 0
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for _, r := range ov.Repos {
		g.Go(func() error {
			accounts, err := github.Paged[github.Account](gctx, c.client, "/repos/"+r.Name+"/collaborators", nil)
			if err != nil && !perr.IsCode(err, perr.ErrorCodeForbidden) && !perr.IsCode(err, perr.ErrorCodeNotFound) {
				return err
			}
			contrib, err := github.Paged[github.Account](gctx, c.client, "/repos/"+r.Name+"/contributors", nil)
			if err != nil && !perr.IsCode(err, perr.ErrorCodeForbidden) && !perr.IsCode(err, perr.ErrorCodeNotFound) {
				return err
			}

			authored := 0
			if !r.Contributed {
				rows, err := github.Paged[github.Issue](gctx, c.client, "/repos/"+r.Name+"/issues",
					url.Values{"creator": {c.username}, "state": {"all"}})
				if err != nil && !perr.IsCode(err, perr.ErrorCodeForbidden) && !perr.IsCode(err, perr.ErrorCodeNotFound) {
					return err
				}
				for _, row := range rows {
					// the issues list includes pull requests, the URL tells them apart
					parts := strings.Split(row.HTMLURL, "/")
					if len(parts) >= 2 && parts[len(parts)-2] == "issues" {
						authored++
					}
				}
			}

			mu.Lock()
			defer mu.Unlock()
			for _, a := range accounts {
				if a.Login != "" {
					collabs[a.Login] = struct{}{}
				}
			}
			for _, a := range contrib {
				if a.Login != "" {
					collabs[a.Login] = struct{}{}
					if !strings.EqualFold(a.Login, c.username) {
						contributors[a.Login] = struct{}{}
					}
				}
			}
			issues += authored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EngagementSummary{}, err
	}

	// the user is part of the union, do not count them as their own collaborator
	n := len(collabs) - 1
	if n < 0 {
		n = 0
	}
	c.log.Debug().Int("collaborators", n).Int("contributors", len(contributors)).Int("issues", issues).
		Msg("engagement walk complete")
	return EngagementSummary{
		Collaborators: n + c.moreCollabs,
		Contributors:  len(contributors),
		Issues:        issues,
	}, nil
}
