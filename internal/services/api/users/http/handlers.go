// Package http exposes the user statistics endpoints
package http

import (
	stdhttp "net/http"
	"strconv"

	"gitstats/internal/adapters/github"
	"gitstats/internal/modkit/httpkit"
	"gitstats/internal/services/api/users/domain"
	"gitstats/internal/services/api/users/service"
)

// Deps are the handler dependencies
type Deps struct {
	Svc *service.Svc

	// Client feeds the rate limit response headers, may be nil in tests
	Client *github.Client

	// Heavy is the restrictive rate tier for expensive collection routes
	Heavy func(stdhttp.Handler) stdhttp.Handler
}

type handlers struct {
	deps Deps
}

// Register mounts the user routes, paths are relative to /users
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	r.Get("/{username}/overview", httpkit.Handle(h.overview))
	r.Get("/{username}/languages", httpkit.Handle(h.languages))
	r.Get("/{username}/streak", httpkit.Handle(h.streak))
	r.Get("/{username}/contributions/recent", httpkit.Handle(h.recent))
	r.Get("/{username}/commits/weekly", httpkit.Handle(h.weekly))
	r.Get("/{username}/repositories", httpkit.Handle(h.repositories))

	// collection heavy routes sit behind the tight tier
	r.Get("/{username}/repositories/detailed", httpkit.Wrap(d.Heavy, httpkit.Handle(h.detailed)))
	r.Get("/{username}/stats", httpkit.Wrap(d.Heavy, httpkit.Handle(h.full)))
	r.Get("/{username}/compare/{other}", httpkit.Wrap(d.Heavy, httpkit.Handle(h.compare)))
}

// username validates the path parameter before any collection starts
func username(r *stdhttp.Request) (string, error) {
	u := httpkit.Param(r, "username")
	if err := domain.ValidateUsername(u); err != nil {
		return "", err
	}
	return u, nil
}

// reply wraps data in the envelope with cache and rate limit headers
func (h *handlers) reply(data any, hit bool) httpkit.Response {
	hd := stdhttp.Header{}
	if hit {
		hd.Set("X-Cache", "HIT")
	} else {
		hd.Set("X-Cache", "MISS")
	}
	if h.deps.Client != nil {
		if rl := h.deps.Client.Snapshot(); rl.Known {
			hd.Set("X-GitHub-RateLimit-Limit", strconv.Itoa(rl.Limit))
			hd.Set("X-GitHub-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
		}
	}
	resp := httpkit.OK(data)
	resp.Header = hd
	return resp
}

func (h *handlers) overview(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Overview(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) languages(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	proportional := r.URL.Query().Get("proportional") == "true"
	out, hit, err := h.deps.Svc.Languages(r.Context(), u, proportional)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) streak(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Streak(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) recent(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Recent(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) weekly(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Weekly(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) repositories(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Repositories(r.Context(), u, domain.ParsePage(r.URL.Query()))
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) detailed(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	params, err := domain.ParseDetailed(r.URL.Query())
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Detailed(r.Context(), u, params)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) full(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Full(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}

func (h *handlers) compare(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	other := httpkit.Param(r, "other")
	if err := domain.ValidateUsername(other); err != nil {
		return httpkit.Error(err)
	}
	out, hit, err := h.deps.Svc.Compare(r.Context(), u, other)
	if err != nil {
		return httpkit.Error(err)
	}
	return h.reply(out, hit)
}
