package stats

import (
	"context"
	"strings"
	"time"

	"gitstats/internal/adapters/github"
	"gitstats/internal/core/collect"
	"gitstats/internal/core/repofilter"
	perr "gitstats/internal/platform/errors"
)

// ProviderOptions captures the process wide collection policy
type ProviderOptions struct {
	Client *github.Client

	// Filter is the env derived base policy, cloned per facade
	Filter repofilter.Options

	TrafficStore collect.TrafficStore
	TrafficOpts  collect.TrafficOptions

	// Location drives weekly schedule boundaries, nil means UTC
	Location *time.Location

	// MaskPrivate replaces private repo details in outputs
	MaskPrivate bool

	// AllowPrivate permits private repos when the token owner is requested
	AllowPrivate bool

	// TokenLogin is the login the token authenticates as, see ResolveLogin
	TokenLogin string

	// NewClient builds a client around a caller supplied token
	// nil disables the X-GitHub-Token request path
	NewClient func(token string) (*github.Client, error)
}

// Provider builds a Stats facade per requested username
// the filter is cloned so per user scope tightening never leaks across users
type Provider struct {
	opts ProviderOptions
}

// NewProvider wraps the shared client and base policy
func NewProvider(opts ProviderOptions) *Provider { return &Provider{opts: opts} }

// OwnsToken reports whether the username matches the token login
func (p *Provider) OwnsToken(username string) bool {
	return p.opts.TokenLogin != "" && strings.EqualFold(username, p.opts.TokenLogin)
}

// MaskPrivate reports the masking policy
func (p *Provider) MaskPrivate() bool { return p.opts.MaskPrivate }

// For builds a facade scoped to username
// private repos are excluded unless the token owner asks for themselves
func (p *Provider) For(username string) (*Stats, error) {
	f := repofilter.New(p.opts.Filter)
	if !p.OwnsToken(username) || !p.opts.AllowPrivate {
		f.ForcePrivateExcluded()
	}
	return New(Deps{
		Client:       p.opts.Client,
		Filter:       f,
		Username:     username,
		TrafficStore: p.opts.TrafficStore,
		TrafficOpts:  p.opts.TrafficOpts,
		Location:     p.opts.Location,
		MaskPrivate:  p.opts.MaskPrivate,
	})
}

// ForToken builds a facade authorised by the caller's own token
// the token must authenticate as username or the request is refused,
// which happens before any repository call goes out
func (p *Provider) ForToken(ctx context.Context, username, token string) (*Stats, error) {
	if p.opts.NewClient == nil {
		return nil, perr.Internalf("per request tokens are not enabled")
	}
	c, err := p.opts.NewClient(token)
	if err != nil {
		return nil, err
	}
	login, err := ResolveLogin(ctx, c)
	if err != nil {
		return nil, perr.Unauthorizedf("github token rejected: %v", perr.Root(err))
	}
	if !strings.EqualFold(login, username) {
		return nil, perr.Forbiddenf("token owner %q does not match %q", login, username)
	}

	f := repofilter.New(p.opts.Filter)
	if !p.opts.AllowPrivate {
		f.ForcePrivateExcluded()
	}
	return New(Deps{
		Client:       c,
		Filter:       f,
		Username:     username,
		TrafficStore: p.opts.TrafficStore,
		TrafficOpts:  p.opts.TrafficOpts,
		Location:     p.opts.Location,
		MaskPrivate:  p.opts.MaskPrivate,
	})
}

// ResolveLogin asks the API who the token belongs to
func ResolveLogin(ctx context.Context, c *github.Client) (string, error) {
	var u github.RESTUser
	if _, err := c.REST(ctx, "GET", "/user", nil, &u); err != nil {
		return "", err
	}
	return u.Login, nil
}
