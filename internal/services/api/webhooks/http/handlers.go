// Package http exposes the webhook registration endpoints
package http

import (
	stdhttp "net/http"

	"gitstats/internal/modkit/httpkit"
	"gitstats/internal/platform/net/http/bind"
	usersdomain "gitstats/internal/services/api/users/domain"
	"gitstats/internal/services/api/webhooks/domain"
	"gitstats/internal/services/api/webhooks/service"
)

type handlers struct {
	svc *service.Svc
}

// Register mounts the webhook routes, paths are relative to /users
func Register(r httpkit.Router, svc *service.Svc) {
	h := &handlers{svc: svc}

	r.Post("/{username}/webhooks", httpkit.Handle(h.create))
	r.Get("/{username}/webhooks", httpkit.Handle(h.list))
	r.Delete("/{username}/webhooks/{id}", httpkit.Handle(h.remove))
}

func username(r *stdhttp.Request) (string, error) {
	u := httpkit.Param(r, "username")
	if err := usersdomain.ValidateUsername(u); err != nil {
		return "", err
	}
	return u, nil
}

func (h *handlers) create(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	in, err := bind.ParseJSON[domain.CreateInput](r)
	if err != nil {
		return httpkit.Error(err)
	}
	wh, err := h.svc.Create(r.Context(), u, in)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Created(wh)
}

func (h *handlers) list(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	hooks, err := h.svc.List(r.Context(), u)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(map[string]any{"webhooks": hooks})
}

func (h *handlers) remove(r *stdhttp.Request) httpkit.Response {
	u, err := username(r)
	if err != nil {
		return httpkit.Error(err)
	}
	if err := h.svc.Delete(r.Context(), u, httpkit.Param(r, "id")); err != nil {
		return httpkit.Error(err)
	}
	return httpkit.NoContent()
}
