// Package module wires the webhook endpoints into the API
package module

import (
	"context"
	"database/sql"
	"net/http"

	modkit "gitstats/internal/modkit"
	"gitstats/internal/modkit/httpkit"
	str "gitstats/internal/platform/strings"

	webhookshttp "gitstats/internal/services/api/webhooks/http"
	"gitstats/internal/services/api/webhooks/repo"
	"gitstats/internal/services/api/webhooks/service"
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

// New constructs the webhooks module over its own sqlite file
func New(deps modkit.Deps, db *sql.DB, opts ...modkit.Option) (modkit.Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("webhooks"),
	}, opts...)...)

	r, err := repo.New(context.Background(), db)
	if err != nil {
		return nil, err
	}
	svc := service.New(r)

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
		webhookshttp.Register(rt, svc)
		if external != nil {
			external(rt)
		}
	}

	return m, nil
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
func (m *Module) Name() string { return str.MustString(m.name, "webhooks") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return Ports{Dispatcher: m.svc} }
