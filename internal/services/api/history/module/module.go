// Package module wires the history endpoints into the API
package module

import (
	"context"
	"database/sql"
	"net/http"

	modkit "gitstats/internal/modkit"
	"gitstats/internal/modkit/httpkit"
	str "gitstats/internal/platform/strings"

	historyhttp "gitstats/internal/services/api/history/http"
	"gitstats/internal/services/api/history/repo"
	"gitstats/internal/services/api/history/service"
	usersdomain "gitstats/internal/services/api/users/domain"
)

// Ports are the inbound dependencies injected via modkit.WithPorts
type Ports struct {
	// Collector builds fresh snapshot payloads, owned by the users module
	Collector usersdomain.CollectorPort
}

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

// New constructs the history module over its own sqlite file
// the webhooks dispatcher is resolved from the module registry on first use
// heavy is the restrictive rate tier applied to the snapshot route
func New(deps modkit.Deps, db *sql.DB, heavy func(http.Handler) http.Handler, opts ...modkit.Option) (modkit.Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("history"),
	}, opts...)...)

	in, ok := b.Ports.(Ports)
	if !ok || in.Collector == nil {
		panic("history module requires a Collector port, pass modkit.WithPorts(history.Ports{...})")
	}

	r, err := repo.New(context.Background(), db)
	if err != nil {
		return nil, err
	}
	svc := service.New(r, in.Collector, resolveDispatcher)

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
		historyhttp.Register(rt, historyhttp.Deps{Svc: svc, Heavy: heavy})
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
func (m *Module) Name() string { return str.MustString(m.name, "history") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
