// Package module wires the users endpoints into the API
package module

import (
	"net/http"

	modkit "gitstats/internal/modkit"
	"gitstats/internal/modkit/httpkit"
	str "gitstats/internal/platform/strings"

	usershttp "gitstats/internal/services/api/users/http"
	"gitstats/internal/services/api/users/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *service.Svc
}

// New constructs the users module
// heavy is the restrictive rate tier applied to collection heavy routes
func New(deps modkit.Deps, heavy func(http.Handler) http.Handler, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("users"),
	}, opts...)...)

	svc := service.New(service.Deps{Provider: deps.Stats, Cache: deps.Cache})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		usershttp.Register(r, usershttp.Deps{
			Svc:    svc,
			Client: deps.GitHub,
			Heavy:  heavy,
		})
		if external != nil {
			external(r)
		}
	}

	return m
}

// MountRoutes implements the modkit.Module interface
// an empty prefix registers on the shared users subtree via an inline group
func (m *Module) MountRoutes(r httpkit.Router) {
	mount := func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	}
	if m.prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(m.prefix, mount)
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "users") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any {
	return Ports{Stats: m.svc, Collector: m.svc}
}
