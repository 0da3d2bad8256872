// Package repofilter decides which repositories participate in aggregation
package repofilter

import (
	"strings"

	"gitstats/internal/adapters/github"
	"gitstats/internal/platform/config"
)

// Options configures a Filter, usually read from env via FromConf
type Options struct {
	// Excluded lists owner/name pairs dropped unconditionally
	Excluded []string

	// ExcludedLangs drops languages from byte totals and proportions
	ExcludedLangs []string

	// OnlyIncluded, when non empty, is an allowlist of owner/name pairs
	OnlyIncluded []string

	// MoreRepos are fetched individually and merged into the walk
	MoreRepos []string

	IncludeForks    bool
	ExcludeContrib  bool
	ExcludeArchived bool
	ExcludePrivate  bool
	ExcludePublic   bool

	// MoreCollabs is added on top of the harvested collaborator count
	MoreCollabs int
}

// FromConf reads the filter env surface
func FromConf(cfg config.Conf) Options {
	return Options{
		Excluded:        cfg.MayCSV("EXCLUDED", nil),
		ExcludedLangs:   cfg.MayCSV("EXCLUDED_LANGS", nil),
		OnlyIncluded:    cfg.MayCSV("ONLY_INCLUDED", nil),
		MoreRepos:       cfg.MayCSV("MORE_REPOS", nil),
		IncludeForks:    cfg.MayBool("INCLUDE_FORKED_REPOS", false),
		ExcludeContrib:  cfg.MayBool("EXCLUDE_CONTRIB_REPOS", false),
		ExcludeArchived: cfg.MayBool("EXCLUDE_ARCHIVE_REPOS", false),
		ExcludePrivate:  cfg.MayBool("EXCLUDE_PRIVATE_REPOS", false),
		ExcludePublic:   cfg.MayBool("EXCLUDE_PUBLIC_REPOS", false),
		MoreCollabs:     cfg.MayInt("MORE_COLLABS", 0),
	}
}

// Filter applies the configured repository predicates
type Filter struct {
	opts     Options
	excluded map[string]struct{}
	only     map[string]struct{}
	langs    map[string]struct{}
}

// New builds a Filter with lowercased lookup sets
func New(opts Options) *Filter {
	f := &Filter{
		opts:     opts,
		excluded: lowerSet(opts.Excluded),
		langs:    lowerSet(opts.ExcludedLangs),
	}
	if len(opts.OnlyIncluded) > 0 {
		f.only = lowerSet(opts.OnlyIncluded)
	}
	return f
}

func lowerSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

// Options returns the filter configuration
func (f *Filter) Options() Options { return f.opts }

// ForcePrivateExcluded flips on private exclusion, used when the token
// does not belong to the requested user
func (f *Filter) ForcePrivateExcluded() { f.opts.ExcludePrivate = true }

// ExcludedName reports whether the owner/name pair is dropped by name
func (f *Filter) ExcludedName(nameWithOwner string) bool {
	key := strings.ToLower(nameWithOwner)
	if _, ok := f.excluded[key]; ok {
		return true
	}
	if f.only != nil {
		if _, ok := f.only[key]; !ok {
			return true
		}
	}
	return false
}

// ExcludedRepo reports whether the repository is dropped by type
// contributed marks nodes from the contributed side of the walk
func (f *Filter) ExcludedRepo(r github.RepoNode, contributed bool) bool {
	if f.ExcludedName(r.NameWithOwner) {
		return true
	}
	if r.IsFork && !f.opts.IncludeForks {
		return true
	}
	if r.IsArchived && f.opts.ExcludeArchived {
		return true
	}
	if contributed && f.opts.ExcludeContrib {
		return true
	}
	if r.IsPrivate && f.opts.ExcludePrivate {
		return true
	}
	if !r.IsPrivate && f.opts.ExcludePublic {
		return true
	}
	return false
}

// ExcludedLanguage reports whether the language is dropped from totals
func (f *Filter) ExcludedLanguage(lang string) bool {
	_, ok := f.langs[strings.ToLower(lang)]
	return ok
}
