// Package http serves statistics cards as image/svg+xml
package http

import (
	stdhttp "net/http"

	phttp "gitstats/internal/platform/net/http"

	"gitstats/internal/modkit/httpkit"
	"gitstats/internal/services/api/cards/service"
	usersdomain "gitstats/internal/services/api/users/domain"
)

type handlers struct {
	svc *service.Svc
}

// Register mounts the card routes, paths are relative to /users
func Register(r httpkit.Router, svc *service.Svc) {
	h := &handlers{svc: svc}
	r.Get("/{username}/cards/themes", httpkit.Handle(h.themes))
	r.Get("/{username}/cards/{type}", h.card)
}

func (h *handlers) themes(r *stdhttp.Request) httpkit.Response {
	if err := usersdomain.ValidateUsername(httpkit.Param(r, "username")); err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(service.Themes())
}

// card bypasses the JSON envelope, the body is the SVG document itself
func (h *handlers) card(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	u := httpkit.Param(r, "username")
	if err := usersdomain.ValidateUsername(u); err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	kind := httpkit.Param(r, "type")
	theme := r.URL.Query().Get("theme")

	svg, hit, err := h.svc.Card(r.Context(), u, kind, theme)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write(svg)
}
