// Package domain holds user endpoint inputs and cross module port types
package domain

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	perr "gitstats/internal/platform/errors"
)

// usernameRE matches GitHub logins, alnum with single interior hyphens
// the 39 character cap is checked separately, a hyphen and its following
// character count as one repetition here
var usernameRE = regexp.MustCompile(`^[A-Za-z0-9](?:-?[A-Za-z0-9]){0,38}$`)

// ValidateUsername rejects logins GitHub itself would never issue
func ValidateUsername(u string) error {
	if len(u) > 39 || !usernameRE.MatchString(u) {
		return perr.InvalidArgf("invalid username %q", u)
	}
	return nil
}

// PageParams is the shared pagination input
type PageParams struct {
	Page    int
	PerPage int
}

// ParsePage reads page and per_page with clamped defaults
func ParsePage(q url.Values) PageParams {
	p := PageParams{Page: 1, PerPage: 30}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = v
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

// DetailedParams filters and orders the detailed repository listing
type DetailedParams struct {
	Visibility      string // all, public, private
	Sort            string // stars, forks, size, name, created, updated
	Limit           int    // 0 means unlimited
	ExcludeForks    bool
	ExcludeArchived bool
	Page            PageParams
}

// ParseDetailed reads the detailed listing query surface
func ParseDetailed(q url.Values) (DetailedParams, error) {
	p := DetailedParams{
		Visibility: strings.ToLower(q.Get("visibility")),
		Sort:       strings.ToLower(q.Get("sort")),
		Page:       ParsePage(q),
	}
	if p.Visibility == "" {
		p.Visibility = "all"
	}
	switch p.Visibility {
	case "all", "public", "private":
	default:
		return p, perr.InvalidArgf("invalid visibility %q", p.Visibility)
	}
	if p.Sort == "" {
		p.Sort = "stars"
	}
	switch p.Sort {
	case "stars", "forks", "size", "name", "created", "updated":
	default:
		return p, perr.InvalidArgf("invalid sort %q", p.Sort)
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	p.ExcludeForks = q.Get("exclude_forks") == "true"
	p.ExcludeArchived = q.Get("exclude_archived") == "true"
	return p, nil
}

// Signature renders the cache key suffix for one detailed query shape
func (p DetailedParams) Signature() string {
	return "repositories_detailed:" + p.Visibility + ":" + p.Sort + ":" +
		strconv.Itoa(p.Limit) + ":" +
		strconv.FormatBool(p.ExcludeForks) + ":" +
		strconv.FormatBool(p.ExcludeArchived) + ":" +
		"p" + strconv.Itoa(p.Page.Page) + ":" + strconv.Itoa(p.Page.PerPage)
}
