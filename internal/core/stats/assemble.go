package stats

import (
	"context"
	"math"
	"time"

	"gitstats/internal/core/collect"
)

// OverviewPayload is the headline figure set for one user
type OverviewPayload struct {
	Name                   string  `json:"name"`
	Username               string  `json:"username"`
	TotalStars             int     `json:"total_stars"`
	TotalForks             int     `json:"total_forks"`
	TotalContributions     int     `json:"total_contributions"`
	LinesChanged           int64   `json:"lines_changed"`
	AvgContributionPercent float64 `json:"avg_contribution_percent"`
	Views                  int64   `json:"views"`
	Clones                 int64   `json:"clones"`
	Collaborators          int     `json:"collaborators"`
	Contributors           int     `json:"contributors"`
	Issues                 int     `json:"issues"`
	Followers              int     `json:"followers"`
	Following              int     `json:"following"`
	RepoCount              int     `json:"repo_count"`
}

// SnapshotPayload is the persisted point in time figure set
// webhook conditions evaluate consecutive snapshots of this shape
type SnapshotPayload struct {
	Username           string `json:"username"`
	TotalStars         int    `json:"total_stars"`
	TotalForks         int    `json:"total_forks"`
	TotalContributions int    `json:"total_contributions"`
	CurrentStreak      int    `json:"current_streak"`
	LongestStreak      int    `json:"longest_streak"`
	LinesChanged       int64  `json:"lines_changed"`
	Views              int64  `json:"views"`
	Clones             int64  `json:"clones"`
	Collaborators      int    `json:"collaborators"`
	Contributors       int    `json:"contributors"`
	Issues             int    `json:"issues"`
	Followers          int    `json:"followers"`
	Following          int    `json:"following"`
	RepoCount          int    `json:"repo_count"`
	Timestamp          string `json:"timestamp"`
}

// FullPayload is everything the service knows about one user
type FullPayload struct {
	Overview    OverviewPayload        `json:"overview"`
	Languages   []collect.LanguageStat `json:"languages"`
	Proportions []collect.LanguageStat `json:"languages_proportional"`
	Streak      collect.Streak         `json:"streak"`
	Recent      []collect.DayCount     `json:"contributions_recent"`
	Weekly      []collect.CommitEntry  `json:"commits_weekly"`
	Warnings    []Warning              `json:"warnings,omitempty"`
}

// BuildOverview assembles the headline payload, degrading per section
func (s *Stats) BuildOverview(ctx context.Context, p *Partial) OverviewPayload {
	ov := Safe(p, "repositories", func() (collect.RepoOverview, error) { return s.Overview(ctx) })
	contrib := Safe(p, "contributions", func() (collect.ContributionSummary, error) { return s.Contributions(ctx) })
	code := Safe(p, "code_changes", func() (collect.CodeChangeSummary, error) { return s.CodeChange(ctx) })
	traffic := Safe(p, "traffic", func() (collect.TrafficSummary, error) { return s.Traffic(ctx) })
	engage := Safe(p, "engagement", func() (collect.EngagementSummary, error) { return s.Engagement(ctx) })

	return OverviewPayload{
		Name:                   ov.Name,
		Username:               s.deps.Username,
		TotalStars:             ov.Stars,
		TotalForks:             ov.Forks,
		TotalContributions:     contrib.Total,
		LinesChanged:           code.LinesChanged(),
		AvgContributionPercent: round2(code.AvgPercent),
		Views:                  traffic.Views,
		Clones:                 traffic.Clones,
		Collaborators:          engage.Collaborators,
		Contributors:           engage.Contributors,
		Issues:                 engage.Issues,
		Followers:              ov.Followers,
		Following:              ov.Following,
		RepoCount:              len(ov.Repos),
	}
}

// BuildSnapshot assembles the persisted figure set with streaks included
func (s *Stats) BuildSnapshot(ctx context.Context, p *Partial) SnapshotPayload {
	ov := s.BuildOverview(ctx, p)
	contrib := Safe(p, "streak", func() (collect.ContributionSummary, error) { return s.Contributions(ctx) })

	return SnapshotPayload{
		Username:           ov.Username,
		TotalStars:         ov.TotalStars,
		TotalForks:         ov.TotalForks,
		TotalContributions: ov.TotalContributions,
		CurrentStreak:      contrib.Streak.Current,
		LongestStreak:      contrib.Streak.Longest,
		LinesChanged:       ov.LinesChanged,
		Views:              ov.Views,
		Clones:             ov.Clones,
		Collaborators:      ov.Collaborators,
		Contributors:       ov.Contributors,
		Issues:             ov.Issues,
		Followers:          ov.Followers,
		Following:          ov.Following,
		RepoCount:          ov.RepoCount,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	}
}

// BuildFull assembles the complete payload with warnings attached
func (s *Stats) BuildFull(ctx context.Context) FullPayload {
	p := &Partial{}
	out := FullPayload{Overview: s.BuildOverview(ctx, p)}

	ov := Safe(p, "languages", func() (collect.RepoOverview, error) { return s.Overview(ctx) })
	out.Languages = ov.Languages
	out.Proportions = collect.Proportions(ov.Languages)

	contrib := Safe(p, "streak", func() (collect.ContributionSummary, error) { return s.Contributions(ctx) })
	out.Streak = contrib.Streak
	out.Recent = contrib.Recent

	out.Weekly = Safe(p, "commits_weekly", func() ([]collect.CommitEntry, error) { return s.WeeklyCommits(ctx) })
	out.Warnings = p.Warnings()
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
