package service

import (
	"context"
	"math"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"gitstats/internal/core/collect"
	"gitstats/internal/core/privacy"
	"gitstats/internal/core/stats"
	"gitstats/internal/services/api/users/domain"
)

// RepoPage is the paginated repository listing
type RepoPage struct {
	Repositories []collect.Repository `json:"repositories"`
	Page         int                  `json:"page"`
	PerPage      int                  `json:"per_page"`
	Total        int                  `json:"total"`
	TotalPages   int                  `json:"total_pages"`
	HasNext      bool                 `json:"has_next"`
	HasPrev      bool                 `json:"has_prev"`
}

// DetailedRepo is one row of the detailed listing with languages attached
type DetailedRepo struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	URL             *string                `json:"html_url"`
	Visibility      string                 `json:"visibility"`
	Stars           int                    `json:"stars"`
	Forks           int                    `json:"forks"`
	IsFork          bool                   `json:"is_fork"`
	IsArchived      bool                   `json:"is_archived"`
	Contributed     bool                   `json:"contributed"`
	DiskUsage       int                    `json:"disk_usage"`
	DefaultBranch   string                 `json:"default_branch,omitempty"`
	PrimaryLanguage string                 `json:"primary_language,omitempty"`
	CreatedAt       string                 `json:"created_at,omitempty"`
	UpdatedAt       string                 `json:"updated_at,omitempty"`
	Languages       []collect.RepoLanguage `json:"languages"`
}

// DetailedPage is the paginated detailed listing
type DetailedPage struct {
	Repositories []DetailedRepo `json:"repositories"`
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	Total        int            `json:"total"`
	TotalPages   int            `json:"total_pages"`
	HasNext      bool           `json:"has_next"`
	HasPrev      bool           `json:"has_prev"`
}

// CompareEntry is one field of a user comparison
type CompareEntry struct {
	User  float64 `json:"user"`
	Other float64 `json:"other"`
	Diff  float64 `json:"diff"`
	Ratio float64 `json:"ratio"`
}

// ComparePayload is the two user comparison
type ComparePayload struct {
	User   string                  `json:"user"`
	Other  string                  `json:"other"`
	Fields map[string]CompareEntry `json:"fields"`
}

// compareFields lists the numeric overview figures worth comparing
var compareFields = []string{
	"total_stars", "total_forks", "total_contributions", "lines_changed",
	"avg_contribution_percent", "views", "clones", "collaborators",
	"contributors", "issues", "followers", "following", "repo_count",
}

// Repositories returns the plain listing sorted by stars
func (s *Svc) Repositories(ctx context.Context, username string, page domain.PageParams) (RepoPage, bool, error) {
	sig := "repositories:p" + strconv.Itoa(page.Page) + ":" + strconv.Itoa(page.PerPage)
	return cached(ctx, s, username, sig, func(st *stats.Stats) (RepoPage, error) {
		ov, err := st.Overview(ctx)
		if err != nil {
			return RepoPage{}, err
		}
		repos := make([]collect.Repository, len(ov.Repos))
		copy(repos, ov.Repos)
		sort.SliceStable(repos, func(i, j int) bool {
			if repos[i].Stars != repos[j].Stars {
				return repos[i].Stars > repos[j].Stars
			}
			return repos[i].Name < repos[j].Name
		})
		for i := range repos {
			if repos[i].IsPrivate && st.MaskPrivate() {
				repos[i].Name = privacy.MaskedRepoName(username)
				repos[i].URL = ""
				repos[i].Description = ""
			}
			// the plain listing never carries the language breakdown
			repos[i].Languages = nil
		}

		out := RepoPage{Page: page.Page, PerPage: page.PerPage, Total: len(repos)}
		out.TotalPages = totalPages(out.Total, page.PerPage)
		out.HasNext = page.Page < out.TotalPages
		out.HasPrev = page.Page > 1
		out.Repositories = slicePage(repos, page)
		return out, nil
	})
}

// Detailed returns the filtered, sorted listing with per repo languages
// visibility is forced public when the token does not belong to username
func (s *Svc) Detailed(ctx context.Context, username string, p domain.DetailedParams) (DetailedPage, bool, error) {
	// a caller supplied token proves ownership by itself, see facade
	if stats.UserToken(ctx) == "" && !s.deps.Provider.OwnsToken(username) {
		p.Visibility = "public"
	}
	return cached(ctx, s, username, p.Signature(), func(st *stats.Stats) (DetailedPage, error) {
		ov, err := st.Overview(ctx)
		if err != nil {
			return DetailedPage{}, err
		}

		rows := make([]DetailedRepo, 0, len(ov.Repos))
		for _, r := range ov.Repos {
			if p.Visibility == "public" && r.IsPrivate {
				continue
			}
			if p.Visibility == "private" && !r.IsPrivate {
				continue
			}
			if p.ExcludeForks && r.IsFork {
				continue
			}
			if p.ExcludeArchived && r.IsArchived {
				continue
			}
			rows = append(rows, detailedRow(username, r, st.MaskPrivate()))
		}
		sortDetailed(rows, p.Sort)
		if p.Limit > 0 && len(rows) > p.Limit {
			rows = rows[:p.Limit]
		}

		out := DetailedPage{Page: p.Page.Page, PerPage: p.Page.PerPage, Total: len(rows)}
		out.TotalPages = totalPages(out.Total, p.Page.PerPage)
		out.HasNext = p.Page.Page < out.TotalPages
		out.HasPrev = p.Page.Page > 1
		out.Repositories = slicePage(rows, p.Page)
		return out, nil
	})
}

// Compare collects both users in parallel and diffs their overviews
func (s *Svc) Compare(ctx context.Context, username, other string) (ComparePayload, bool, error) {
	sig := "compare:" + other
	return cached(ctx, s, username, sig, func(_ *stats.Stats) (ComparePayload, error) {
		var mine, theirs stats.OverviewPayload
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			v, _, err := s.Overview(gctx, username)
			mine = v
			return err
		})
		g.Go(func() error {
			v, _, err := s.Overview(gctx, other)
			theirs = v
			return err
		})
		if err := g.Wait(); err != nil {
			return ComparePayload{}, err
		}

		out := ComparePayload{User: username, Other: other, Fields: map[string]CompareEntry{}}
		mf, tf := numericFields(mine), numericFields(theirs)
		for _, f := range compareFields {
			e := CompareEntry{User: mf[f], Other: tf[f], Diff: round2(mf[f] - tf[f])}
			if tf[f] != 0 {
				e.Ratio = round2(mf[f] / tf[f])
			}
			out.Fields[f] = e
		}
		return out, nil
	})
}

func detailedRow(username string, r collect.Repository, mask bool) DetailedRepo {
	visibility := "public"
	if r.IsPrivate {
		visibility = "private"
	}
	row := DetailedRepo{
		Name:            r.Name,
		Description:     r.Description,
		URL:             strPtr(r.URL),
		Visibility:      visibility,
		Stars:           r.Stars,
		Forks:           r.Forks,
		IsFork:          r.IsFork,
		IsArchived:      r.IsArchived,
		Contributed:     r.Contributed,
		DiskUsage:       r.DiskUsage,
		DefaultBranch:   r.DefaultBranch,
		PrimaryLanguage: r.PrimaryLanguage,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Languages:       r.Languages,
	}
	if r.IsPrivate && mask {
		row.Name = privacy.MaskedRepoName(username)
		row.Description = ""
		row.URL = nil
		// language makeup and branch names identify a repo as surely as its name
		row.Languages = nil
		row.PrimaryLanguage = ""
		row.DefaultBranch = ""
	}
	return row
}

func sortDetailed(rows []DetailedRepo, key string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch key {
		case "forks":
			if a.Forks != b.Forks {
				return a.Forks > b.Forks
			}
		case "size":
			if a.DiskUsage != b.DiskUsage {
				return a.DiskUsage > b.DiskUsage
			}
		case "name":
			return a.Name < b.Name
		case "created":
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt > b.CreatedAt
			}
		case "updated":
			if a.UpdatedAt != b.UpdatedAt {
				return a.UpdatedAt > b.UpdatedAt
			}
		default: // stars
			if a.Stars != b.Stars {
				return a.Stars > b.Stars
			}
		}
		return a.Name < b.Name
	})
}

func numericFields(o stats.OverviewPayload) map[string]float64 {
	return map[string]float64{
		"total_stars":              float64(o.TotalStars),
		"total_forks":              float64(o.TotalForks),
		"total_contributions":      float64(o.TotalContributions),
		"lines_changed":            float64(o.LinesChanged),
		"avg_contribution_percent": o.AvgContributionPercent,
		"views":                    float64(o.Views),
		"clones":                   float64(o.Clones),
		"collaborators":            float64(o.Collaborators),
		"contributors":             float64(o.Contributors),
		"issues":                   float64(o.Issues),
		"followers":                float64(o.Followers),
		"following":                float64(o.Following),
		"repo_count":               float64(o.RepoCount),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func totalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

func slicePage[T any](rows []T, p domain.PageParams) []T {
	start := (p.Page - 1) * p.PerPage
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
