package service

import (
	"testing"

	"gitstats/internal/core/collect"
	"gitstats/internal/services/api/users/domain"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, per, want int
	}{
		{0, 30, 0},
		{1, 30, 1},
		{30, 30, 1},
		{31, 30, 2},
		{100, 0, 0},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.per); got != tc.want {
			t.Fatalf("totalPages(%d, %d) = %d, want %d", tc.total, tc.per, got, tc.want)
		}
	}
}

func TestSlicePage(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	if got := slicePage(rows, domain.PageParams{Page: 1, PerPage: 2}); len(got) != 2 || got[0] != 1 {
		t.Fatalf("first page = %v", got)
	}
	if got := slicePage(rows, domain.PageParams{Page: 3, PerPage: 2}); len(got) != 1 || got[0] != 5 {
		t.Fatalf("last partial page = %v", got)
	}
	if got := slicePage(rows, domain.PageParams{Page: 4, PerPage: 2}); len(got) != 0 {
		t.Fatalf("page past the end = %v, want empty", got)
	}
}

func TestSortDetailed(t *testing.T) {
	mk := func() []DetailedRepo {
		return []DetailedRepo{
			{Name: "beta", Stars: 5, Forks: 1, DiskUsage: 100, CreatedAt: "2021", UpdatedAt: "2024"},
			{Name: "alpha", Stars: 5, Forks: 9, DiskUsage: 10, CreatedAt: "2023", UpdatedAt: "2022"},
			{Name: "gamma", Stars: 8, Forks: 3, DiskUsage: 50, CreatedAt: "2022", UpdatedAt: "2023"},
		}
	}

	cases := []struct {
		key  string
		want []string
	}{
		{key: "stars", want: []string{"gamma", "alpha", "beta"}}, // ties broken by name
		{key: "forks", want: []string{"alpha", "gamma", "beta"}},
		{key: "size", want: []string{"beta", "gamma", "alpha"}},
		{key: "name", want: []string{"alpha", "beta", "gamma"}},
		{key: "created", want: []string{"alpha", "gamma", "beta"}},
		{key: "updated", want: []string{"beta", "gamma", "alpha"}},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			rows := mk()
			sortDetailed(rows, tc.key)
			for i, name := range tc.want {
				if rows[i].Name != name {
					t.Fatalf("sort %q: position %d = %q, want %q", tc.key, i, rows[i].Name, name)
				}
			}
		})
	}
}

func TestDetailedRowMasksEveryIdentifyingField(t *testing.T) {
	r := collect.Repository{
		Name:            "octocat/secret",
		Description:     "internal tooling",
		URL:             "https://github.com/octocat/secret",
		IsPrivate:       true,
		Stars:           3,
		DefaultBranch:   "main",
		PrimaryLanguage: "Go",
		Languages:       []collect.RepoLanguage{{Name: "Go", Size: 1000}},
	}

	row := detailedRow("octocat", r, true)
	if row.Name == "octocat/secret" || row.Description != "" || row.URL != nil {
		t.Fatalf("masked row leaks identity: %+v", row)
	}
	if row.Languages != nil || row.PrimaryLanguage != "" || row.DefaultBranch != "" {
		t.Fatalf("masked row leaks repo details: %+v", row)
	}
	if row.Stars != 3 || row.Visibility != "private" {
		t.Fatalf("masking must keep the aggregate fields: %+v", row)
	}

	plain := detailedRow("octocat", r, false)
	if plain.Name != "octocat/secret" || plain.PrimaryLanguage != "Go" {
		t.Fatalf("unmasked row should pass through: %+v", plain)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(1.0 / 3.0); got != 0.33 {
		t.Fatalf("round2(1/3) = %v, want 0.33", got)
	}
	if got := round2(2.5); got != 2.5 {
		t.Fatalf("round2(2.5) = %v, want 2.5", got)
	}
}
