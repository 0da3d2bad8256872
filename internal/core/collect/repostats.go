package collect

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"sync"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/repofilter"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
)

// RepoOverview is the merged result of the repository walk
type RepoOverview struct {
	Name      string
	Login     string
	Followers int
	Following int

	Repos     []Repository
	Stars     int
	Forks     int

	// Languages is sorted by byte size descending
	Languages []LanguageStat
}

// RepoStats walks owned and contributed repositories and merges languages
type RepoStats struct {
	client   *github.Client
	filter   *repofilter.Filter
	username string
	log      logger.Logger

	mu   sync.Mutex
	done bool
	data RepoOverview
	err  error
}

// NewRepoStats builds the collector, username must be non empty
func NewRepoStats(client *github.Client, filter *repofilter.Filter, username string) (*RepoStats, error) {
	if strings.TrimSpace(username) == "" {
		return nil, perr.InvalidArgf("username required")
	}
	return &RepoStats{
		client:   client,
		filter:   filter,
		username: username,
		log:      *logger.Named("collect.repos"),
	}, nil
}

// Overview returns the memoised walk result, computing it on first use
func (c *RepoStats) Overview(ctx context.Context) (RepoOverview, error) {
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
func (c *RepoStats) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.data = RepoOverview{}
	c.err = nil
}

func (c *RepoStats) collect(ctx context.Context) (RepoOverview, error) {
	var out RepoOverview
	seen := map[string]struct{}{}
	langs := map[string]*LanguageStat{}

	var ownedCursor, contribCursor any
	ownedDone, contribDone := false, false
	for !ownedDone || !contribDone {
		vars := map[string]any{
			"login":         c.username,
			"ownedCursor":   ownedCursor,
			"contribCursor": contribCursor,
		}
		raw, err := c.client.Query(ctx, github.QueryReposOverview, vars)
		if err != nil {
			return RepoOverview{}, err
		}
		var data github.OverviewData
		if err := json.Unmarshal(raw, &data); err != nil {
			return RepoOverview{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "decode repos overview")
		}

		u := data.User
		out.Login = u.Login
		out.Name = u.Login
		if u.Name != nil && *u.Name != "" {
			out.Name = *u.Name
		}
		out.Followers = u.Followers.TotalCount
		out.Following = u.Following.TotalCount

		if !ownedDone {
			for _, n := range u.Repositories.Nodes {
				c.fold(&out, seen, langs, n, false)
			}
			if u.Repositories.PageInfo.HasNextPage {
				ownedCursor = u.Repositories.PageInfo.EndCursor
			} else {
				ownedDone = true
			}
		}
		if !contribDone {
			for _, n := range u.RepositoriesContributedTo.Nodes {
				c.fold(&out, seen, langs, n, true)
			}
			if u.RepositoriesContributedTo.PageInfo.HasNextPage {
				contribCursor = u.RepositoriesContributedTo.PageInfo.EndCursor
			} else {
				contribDone = true
			}
		}
	}

	if err := c.foldManual(ctx, &out, seen, langs); err != nil {
		return RepoOverview{}, err
	}

	out.Languages = make([]LanguageStat, 0, len(langs))
	for _, l := range langs {
		out.Languages = append(out.Languages, *l)
	}
	sort.Slice(out.Languages, func(i, j int) bool {
		if out.Languages[i].Size != out.Languages[j].Size {
			return out.Languages[i].Size > out.Languages[j].Size
		}
		return out.Languages[i].Name < out.Languages[j].Name
	})
	c.log.Debug().Int("repos", len(out.Repos)).Int("languages", len(out.Languages)).Msg("repo walk complete")
	return out, nil
}

// fold merges one node into the running overview, deduped by name
func (c *RepoStats) fold(out *RepoOverview, seen map[string]struct{}, langs map[string]*LanguageStat, n github.RepoNode, contributed bool) {
	key := strings.ToLower(n.NameWithOwner)
	if _, dup := seen[key]; dup {
		return
	}
	if c.filter.ExcludedRepo(n, contributed) {
		return
	}
	seen[key] = struct{}{}

	r := Repository{
		Name:        n.NameWithOwner,
		Stars:       n.Stargazers.TotalCount,
		Forks:       n.ForkCount,
		IsFork:      n.IsFork,
		IsArchived:  n.IsArchived,
		IsPrivate:   n.IsPrivate,
		Contributed: contributed,
		URL:         n.URL,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		DiskUsage:   n.DiskUsage,
	}
	if n.Description != nil {
		r.Description = *n.Description
	}
	if n.PrimaryLanguage != nil {
		r.PrimaryLanguage = n.PrimaryLanguage.Name
	}
	if n.DefaultBranchRef != nil {
		r.DefaultBranch = n.DefaultBranchRef.Name
	}
	for _, e := range n.Languages.Edges {
		r.Languages = append(r.Languages, RepoLanguage{Name: e.Node.Name, Size: e.Size, Color: e.Node.Color})
		if c.filter.ExcludedLanguage(e.Node.Name) {
			continue
		}
		if l, ok := langs[e.Node.Name]; ok {
			l.Size += e.Size
			if l.Color == "" {
				l.Color = e.Node.Color
			}
		} else {
			langs[e.Node.Name] = &LanguageStat{Name: e.Node.Name, Size: e.Size, Color: e.Node.Color}
		}
	}

	out.Repos = append(out.Repos, r)
	out.Stars += r.Stars
	out.Forks += r.Forks
}

// foldManual fetches MORE_REPOS entries individually and merges them
func (c *RepoStats) foldManual(ctx context.Context, out *RepoOverview, seen map[string]struct{}, langs map[string]*LanguageStat) error {
	for _, full := range c.filter.Options().MoreRepos {
		owner, name, ok := strings.Cut(full, "/")
		if !ok {
			c.log.Warn().Str("repo", full).Msg("skipping malformed manual repo")
			continue
		}
		if _, dup := seen[strings.ToLower(full)]; dup {
			continue
		}
		raw, err := c.client.Query(ctx, github.QuerySingleRepo, map[string]any{"owner": owner, "name": name})
		if err != nil {
			// a missing manual repo should not sink the whole walk
			c.log.Warn().Err(err).Str("repo", full).Msg("manual repo fetch failed")
			continue
		}
		var data github.SingleRepoData
		if err := json.Unmarshal(raw, &data); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUpstream, "decode manual repo %s", full)
		}
		if data.Repository == nil {
			continue
		}
		c.fold(out, seen, langs, *data.Repository, false)
	}
	return nil
}

// Proportions normalises language sizes to percentages summing to 100.00
// largest remainder rounding at two decimals keeps the sum exact
func Proportions(langs []LanguageStat) []LanguageStat {
	var total int64
	for _, l := range langs {
		total += l.Size
	}
	if total == 0 {
		return nil
	}

	type slot struct {
		idx   int
		cents int64
		rem   float64
	}
	slots := make([]slot, len(langs))
	var used int64
	for i, l := range langs {
		exact := float64(l.Size) / float64(total) * 10000
		cents := int64(math.Floor(exact))
		slots[i] = slot{idx: i, cents: cents, rem: exact - float64(cents)}
		used += cents
	}
	left := int64(10000) - used
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].rem > slots[j].rem })
	for i := int64(0); i < left; i++ {
		slots[i%int64(len(slots))].cents++
	}

	out := make([]LanguageStat, len(langs))
	for _, s := range slots {
		l := langs[s.idx]
		l.Proportion = float64(s.cents) / 100
		out[s.idx] = l
	}
	return out
}
