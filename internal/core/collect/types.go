// Package collect implements the specialised GitHub statistics collectors
// each collector computes once and serves later calls from its memo
package collect

// Repository is an aggregation ready view of one repository
type Repository struct {
	Name            string         `json:"name"`
	Stars           int            `json:"stars"`
	Forks           int            `json:"forks"`
	IsFork          bool           `json:"is_fork"`
	IsArchived      bool           `json:"is_archived"`
	IsPrivate       bool           `json:"is_private"`
	Contributed     bool           `json:"contributed"`
	URL             string         `json:"html_url"`
	Description     string         `json:"description,omitempty"`
	PrimaryLanguage string         `json:"primary_language,omitempty"`
	DefaultBranch   string         `json:"default_branch,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
	DiskUsage       int            `json:"disk_usage"`
	Languages       []RepoLanguage `json:"languages,omitempty"`
}

// RepoLanguage is one language slice of a repository
type RepoLanguage struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Color string `json:"color,omitempty"`
}

// LanguageStat is a merged language total across repositories
type LanguageStat struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	Color      string  `json:"color,omitempty"`
	Proportion float64 `json:"proportion,omitempty"`
}

// DayCount is one contribution calendar cell
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Streak summarises contribution run lengths
type Streak struct {
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	CurrentRange string `json:"current_range,omitempty"`
	LongestRange string `json:"longest_range,omitempty"`
}

// CommitEntry is one commit of the weekly schedule
type CommitEntry struct {
	Repo        string `json:"repo"`
	Description string `json:"description"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Day         string `json:"day"`
	Private     bool   `json:"-"`
}

// TrafficSummary aggregates views and clones across owned repositories
type TrafficSummary struct {
	Views           int64  `json:"views"`
	ViewsUniques    int64  `json:"views_uniques"`
	ViewsFirstSeen  string `json:"views_first_seen"`
	Clones          int64  `json:"clones"`
	ClonesUniques   int64  `json:"clones_uniques"`
	ClonesFirstSeen string `json:"clones_first_seen"`
}

// NoDate is the sentinel used before any traffic has been seen
const NoDate = "0000-00-00"
