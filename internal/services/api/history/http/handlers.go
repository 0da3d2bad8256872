// Package http exposes the snapshot history endpoints
package http

import (
	stdhttp "net/http"

	"gitstats/internal/modkit/httpkit"
	"gitstats/internal/services/api/history/domain"
	"gitstats/internal/services/api/history/service"
	usersdomain "gitstats/internal/services/api/users/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Svc *service.Svc

	// Heavy is the restrictive rate tier for the collection heavy snapshot
	Heavy func(stdhttp.Handler) stdhttp.Handler
}

type handlers struct {
	deps Deps
}

// Register mounts the history routes, paths are relative to /users
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	r.Get("/{username}/history", httpkit.Handle(h.history))
	r.Post("/{username}/history/snapshot", httpkit.Wrap(d.Heavy, httpkit.Handle(h.snapshot)))
}

func username(r *stdhttp.Request) (string, error) {
	u := httpkit.Param(r, "username")
	if err := usersdomain.ValidateUsername(u); err != nil {
		return "", err
	}
	return u, nil
}

func (h *handlers) history(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	params, err := domain.ParseHistory(r.URL.Query())
	if err != nil {
		return httpkit.Error(err)
	}
	entries, err := h.deps.Svc.History(r.Context(), u, params)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(map[string]any{"history": entries, "count": len(entries)})
}

func (h *handlers) snapshot(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, err := h.deps.Svc.TakeSnapshot(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Created(out)
}
