package collect

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/privacy"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
)

// messageLimit truncates commit messages in the weekly schedule
const messageLimit = 120

// Schedule collects the current week's commit log in the user's timezone
type Schedule struct {
	client   *github.Client
	repos    *RepoStats
	username string
	loc      *time.Location
	mask     bool
	now      func() time.Time
	log      logger.Logger

	mu   sync.Mutex
	done bool
	data []CommitEntry
	err  error
}

// NewSchedule builds the collector, loc nil means UTC
// mask replaces private repo commit ids and messages in the output
func NewSchedule(client *github.Client, repos *RepoStats, username string, loc *time.Location, mask bool) *Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{
		client:   client,
		repos:    repos,
		username: username,
		loc:      loc,
		mask:     mask,
		now:      time.Now,
		log:      *logger.Named("collect.schedule"),
	}
}

// WeekBounds returns the Monday 00:00 start and next Monday 00:00 end of
// the week containing now, in the collector's timezone
func (c *Schedule) WeekBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(c.loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc).
		AddDate(0, 0, -(weekday - 1))
	return start, start.AddDate(0, 0, 7)
}

// Week returns the memoised weekly commit log, computing it on first use
func (c *Schedule) Week(ctx context.Context) ([]CommitEntry, error) {
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
func (c *Schedule) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.data = nil
	c.err = nil
}

func (c *Schedule) collect(ctx context.Context) ([]CommitEntry, error) {
	ov, err := c.repos.Overview(ctx)
	if err != nil {
		return nil, err
	}

	start, end := c.WeekBounds(c.now())
	params := url.Values{
		"author": {c.username},
		"since":  {start.UTC().Format(time.RFC3339)},
		"until":  {end.UTC().Format(time.RFC3339)},
	}

	var entries []CommitEntry
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for _, r := range ov.Repos {
		g.Go(func() error {
			commits, err := github.Paged[github.Commit](gctx, c.client, "/repos/"+r.Name+"/commits", params)
			if err != nil {
				if perr.IsCode(err, perr.ErrorCodeForbidden) || perr.IsCode(err, perr.ErrorCodeNotFound) ||
					perr.IsCode(err, perr.ErrorCodeConflict) {
					// empty repos answer 409, missing access 403
					return nil
				}
				return err
			}
			var batch []CommitEntry
			for _, cm := range commits {
				e, ok := c.entry(r, cm, start, end)
				if !ok {
					continue
				}
				batch = append(batch, e)
			}
			mu.Lock()
			entries = append(entries, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp < entries[j].Timestamp })
	c.log.Debug().Int("commits", len(entries)).Msg("weekly schedule complete")
	return entries, nil
}

// entry converts one commit when its local timestamp falls inside the week
func (c *Schedule) entry(r Repository, cm github.Commit, start, end time.Time) (CommitEntry, bool) {
	ts, err := time.Parse(time.RFC3339, cm.Commit.Author.Date)
	if err != nil {
		return CommitEntry{}, false
	}
	local := ts.In(c.loc)
	if local.Before(start) || !local.Before(end) {
		return CommitEntry{}, false
	}

	msg, _, _ := strings.Cut(cm.Commit.Message, "\n")
	if len(msg) > messageLimit {
		msg = msg[:messageLimit]
	}
	sha := cm.SHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	e := CommitEntry{
		Repo:        r.Name,
		Description: sha,
		Message:     msg,
		Timestamp:   local.Format(time.RFC3339),
		Day:         local.Weekday().String(),
		Private:     r.IsPrivate,
	}
	if r.IsPrivate && c.mask {
		e.Repo = privacy.MaskedRepoName(c.username)
		e.Description = privacy.MaskedSHA
		e.Message = privacy.MaskedCommitMessage
	}
	return e, true
}
