// Package module wires the card endpoints into the API
package module

import (
	"net/http"

	modkit "gitstats/internal/modkit"
	"gitstats/internal/modkit/httpkit"
	str "gitstats/internal/platform/strings"

	cardshttp "gitstats/internal/services/api/cards/http"
	"gitstats/internal/services/api/cards/service"
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

// New constructs the cards module
// the users statistics port is resolved from the module registry on first use
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("cards"),
	}, opts...)...)

	svc := service.New(resolveStats, deps.Cache)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(rt httpkit.Router) {
		cardshttp.Register(rt, svc)
		if external != nil {
			external(rt)
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
func (m *Module) Name() string { return str.MustString(m.name, "cards") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
