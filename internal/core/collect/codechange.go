package collect

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gitstats/internal/adapters/github"
	"gitstats/internal/platform/logger"
)

// fanout bounds collector level parallelism, the client throttles globally
const fanout = 10

// CodeChangeSummary aggregates line churn across included repositories
type CodeChangeSummary struct {
	Additions int64
	Deletions int64

	// AvgPercent is the mean share of each repo's churn authored by the user
	AvgPercent float64

	// PerRepo maps repo name to the user's additions+deletions there
	PerRepo map[string]int64

	// Contributors is every author login seen in the contributor stats
	Contributors map[string]struct{}
}

// LinesChanged is additions plus deletions
func (s CodeChangeSummary) LinesChanged() int64 { return s.Additions + s.Deletions }

// CodeChange walks /stats/contributors for every included repository
type CodeChange struct {
	client   *github.Client
	repos    *RepoStats
	username string
	log      logger.Logger

	mu   sync.Mutex
	done bool
	data CodeChangeSummary
	err  error
}

// NewCodeChange builds the collector over the repository walk
func NewCodeChange(client *github.Client, repos *RepoStats, username string) *CodeChange {
	return &CodeChange{
		client:   client,
		repos:    repos,
		username: username,
		log:      *logger.Named("collect.codechange"),
	}
}

// Summary returns the memoised churn, computing it on first use
func (c *CodeChange) Summary(ctx context.Context) (CodeChangeSummary, error) {
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
func (c *CodeChange) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.data = CodeChangeSummary{}
	c.err = nil
}

func (c *CodeChange) collect(ctx context.Context) (CodeChangeSummary, error) {
	ov, err := c.repos.Overview(ctx)
	if err != nil {
		return CodeChangeSummary{}, err
	}

	out := CodeChangeSummary{
		PerRepo:      map[string]int64{},
		Contributors: map[string]struct{}{},
	}
	var mu sync.Mutex
	var percentSum float64
	var percentN int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for _, r := range ov.Repos {
		g.Go(func() error {
			var stats []github.ContributorStats
			status, err := c.client.REST(gctx, http.MethodGet, "/repos/"+r.Name+"/stats/contributors", nil, &stats)
			if err != nil {
				// stats access is best effort per repo
				c.log.Warn().Err(err).Str("repo", r.Name).Msg("contributor stats failed")
				return nil
			}
			if status == http.StatusAccepted || len(stats) == 0 {
				return nil
			}

			var mine, total int64
			mu.Lock()
			defer mu.Unlock()
			for _, cs := range stats {
				if cs.Author.Login != "" {
					out.Contributors[cs.Author.Login] = struct{}{}
				}
				for _, w := range cs.Weeks {
					churn := int64(w.Additions + w.Deletions)
					total += churn
					if strings.EqualFold(cs.Author.Login, c.username) {
						mine += churn
						out.Additions += int64(w.Additions)
						out.Deletions += int64(w.Deletions)
					}
				}
			}
			if mine > 0 {
				out.PerRepo[r.Name] = mine
			}
			if total > 0 {
				percentSum += float64(mine) / float64(total) * 100
				percentN++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CodeChangeSummary{}, err
	}
	if percentN > 0 {
		out.AvgPercent = percentSum / float64(percentN)
	}
	return out, nil
}
