// Package stats bundles the collectors behind lazy deduplicated accessors
package stats

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/collect"
	"gitstats/internal/core/repofilter"
)

// Deps wires a Stats facade for one username
type Deps struct {
	Client   *github.Client
	Filter   *repofilter.Filter
	Username string

	// TrafficStore may be nil, persistence toggles live in TrafficOpts
	TrafficStore collect.TrafficStore
	TrafficOpts  collect.TrafficOptions

	// Location drives the weekly schedule boundaries, nil means UTC
	Location *time.Location

	// MaskPrivate replaces private repo details in outputs
	MaskPrivate bool
}

// Stats exposes every aggregated figure through memoised accessors
// concurrent callers of the same accessor share one collector run
type Stats struct {
	deps Deps

	repos    *collect.RepoStats
	contrib  *collect.Contributions
	code     *collect.CodeChange
	traffic  *collect.Traffic
	engage   *collect.Engagement
	schedule *collect.Schedule

	sf singleflight.Group
}

// New builds the facade and its collectors
func New(deps Deps) (*Stats, error) {
	repos, err := collect.NewRepoStats(deps.Client, deps.Filter, deps.Username)
	if err != nil {
		return nil, err
	}
	contrib, err := collect.NewContributions(deps.Client, deps.Username)
	if err != nil {
		return nil, err
	}
	return &Stats{
		deps:     deps,
		repos:    repos,
		contrib:  contrib,
		code:     collect.NewCodeChange(deps.Client, repos, deps.Username),
		traffic:  collect.NewTraffic(deps.Client, repos, deps.TrafficStore, deps.TrafficOpts),
		engage:   collect.NewEngagement(deps.Client, repos, deps.Username, deps.Filter.Options().MoreCollabs),
		schedule: collect.NewSchedule(deps.Client, repos, deps.Username, deps.Location, deps.MaskPrivate),
	}, nil
}

// Username returns the aggregated user's login
func (s *Stats) Username() string { return s.deps.Username }

// MaskPrivate reports whether private details are masked in outputs
func (s *Stats) MaskPrivate() bool { return s.deps.MaskPrivate }

// Overview returns the repository walk result
func (s *Stats) Overview(ctx context.Context) (collect.RepoOverview, error) {
	v, err, _ := s.sf.Do("overview", func() (any, error) { return s.repos.Overview(ctx) })
	if err != nil {
		return collect.RepoOverview{}, err
	}
	return v.(collect.RepoOverview), nil
}

// Contributions returns the merged calendar summary
func (s *Stats) Contributions(ctx context.Context) (collect.ContributionSummary, error) {
	v, err, _ := s.sf.Do("contributions", func() (any, error) { return s.contrib.Summary(ctx) })
	if err != nil {
		return collect.ContributionSummary{}, err
	}
	return v.(collect.ContributionSummary), nil
}

// CodeChange returns the line churn summary
func (s *Stats) CodeChange(ctx context.Context) (collect.CodeChangeSummary, error) {
	v, err, _ := s.sf.Do("codechange", func() (any, error) { return s.code.Summary(ctx) })
	if err != nil {
		return collect.CodeChangeSummary{}, err
	}
	return v.(collect.CodeChangeSummary), nil
}

// Traffic returns the views and clones summary
func (s *Stats) Traffic(ctx context.Context) (collect.TrafficSummary, error) {
	v, err, _ := s.sf.Do("traffic", func() (any, error) { return s.traffic.Summary(ctx) })
	if err != nil {
		return collect.TrafficSummary{}, err
	}
	return v.(collect.TrafficSummary), nil
}

// Engagement returns the audience summary
func (s *Stats) Engagement(ctx context.Context) (collect.EngagementSummary, error) {
	v, err, _ := s.sf.Do("engagement", func() (any, error) { return s.engage.Summary(ctx) })
	if err != nil {
		return collect.EngagementSummary{}, err
	}
	return v.(collect.EngagementSummary), nil
}

// WeeklyCommits returns the current week's commit log
func (s *Stats) WeeklyCommits(ctx context.Context) ([]collect.CommitEntry, error) {
	v, err, _ := s.sf.Do("weekly", func() (any, error) { return s.schedule.Week(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]collect.CommitEntry), nil
}

// Reset clears every collector memo so the next access recollects
func (s *Stats) Reset() {
	s.repos.Reset()
	s.contrib.Reset()
	s.code.Reset()
	s.traffic.Reset()
	s.engage.Reset()
	s.schedule.Reset()
}
