// Package api provides the HTTP API for the application
package api

import (
	"database/sql"
	"net/http"

	"gitstats/internal/adapters/github"
	"gitstats/internal/cache"
	"gitstats/internal/core/stats"
	"gitstats/internal/platform/config"
	phttp "gitstats/internal/platform/net/http"
	"gitstats/internal/platform/net/middleware"

	"gitstats/internal/modkit"
	"gitstats/internal/modkit/httpkit"
	"gitstats/internal/modkit/module"

	cardsmod "gitstats/internal/services/api/cards/module"
	historymod "gitstats/internal/services/api/history/module"
	metamod "gitstats/internal/services/api/meta/module"
	usersdomain "gitstats/internal/services/api/users/domain"
	usersmod "gitstats/internal/services/api/users/module"
	webhooksmod "gitstats/internal/services/api/webhooks/module"
)

// Options are the API options
type Options struct {
	Config config.Conf

	GitHub *github.Client
	Cache  cache.Cache
	Stats  *stats.Provider

	// SnapshotsDB and WebhooksDB are separate files, see platform/store
	SnapshotsDB *sql.DB
	WebhooksDB  *sql.DB

	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) error {
	deps := modkit.Deps{
		Cfg:    opt.Config,
		GitHub: opt.GitHub,
		Cache:  opt.Cache,
		Stats:  opt.Stats,
	}

	// request tiers, heavy guards the collection expensive routes
	defaultTier := middleware.RateLimit(middleware.RateLimitOptions{
		PerMinute:     opt.Config.MayInt("RATE_LIMIT_DEFAULT", 30),
		AuthPerMinute: opt.Config.MayInt("RATE_LIMIT_AUTH", 100),
	}, phttp.JSON)
	heavyTier := middleware.RateLimit(middleware.RateLimitOptions{
		PerMinute:     opt.Config.MayInt("RATE_LIMIT_HEAVY", 10),
		AuthPerMinute: opt.Config.MayInt("RATE_LIMIT_HEAVY", 10),
	}, phttp.JSON)

	var authMw func(http.Handler) http.Handler
	if opt.Config.MayBool("API_AUTH_ENABLED", false) {
		authMw = httpkit.Auth(middleware.NewAPIKeys(opt.Config.MayCSV("API_KEYS", nil)))
	}

	// construct the users module first, history borrows its collector port
	users := usersmod.New(deps, heavyTier)
	collector := module.MustPortsOf[usersdomain.CollectorPort](users)

	webhooks, err := webhooksmod.New(deps, opt.WebhooksDB)
	if err != nil {
		return err
	}
	history, err := historymod.New(deps, opt.SnapshotsDB, heavyTier,
		modkit.WithPorts(historymod.Ports{Collector: collector}),
	)
	if err != nil {
		return err
	}
	cards := cardsmod.New(deps)
	meta := metamod.New(deps)

	userMods := []module.Module{users, webhooks, history, cards}

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.MayCSV("CORS_ORIGINS", nil)...), func(api httpkit.Router) {
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		// meta stays open so probes survive auth and throttling
		api.Group(func(open httpkit.Router) {
			module.Register(meta.Name(), meta.Ports())
			meta.MountRoutes(open)
		})

		api.Group(func(g httpkit.Router) {
			if authMw != nil {
				g.Use(authMw)
			}
			g.Use(defaultTier)
			g.Use(callerScope)

			g.Route("/users", func(u httpkit.Router) {
				for _, m := range userMods {
					// register ports under the module name for cross lookups
					module.Register(m.Name(), m.Ports())
					m.MountRoutes(u)
				}
			})
		})
	})

	return nil
}

// callerScope copies per request intent onto the context before any handler
// runs: no_cache=true skips cached reads on every endpoint, and an
// X-GitHub-Token header scopes collection to the caller's own token
func callerScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if r.URL.Query().Get("no_cache") == "true" {
			ctx = cache.WithBypass(ctx)
		}
		if tok := r.Header.Get("X-GitHub-Token"); tok != "" {
			ctx = stats.WithUserToken(ctx, tok)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
