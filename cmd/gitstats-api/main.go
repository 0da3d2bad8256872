package main

import (
	"context"
	"time"

	"gitstats/internal/adapters/github"
	"gitstats/internal/cache"
	"gitstats/internal/core/collect"
	"gitstats/internal/core/repofilter"
	"gitstats/internal/core/stats"
	"gitstats/internal/platform/config"
	"gitstats/internal/platform/logger"
	"gitstats/internal/platform/metrics/prom"
	phttp "gitstats/internal/platform/net/http"
	"gitstats/internal/platform/store"
	ptime "gitstats/internal/platform/time"

	"gitstats/internal/services/api"
	usersrepo "gitstats/internal/services/api/users/repo"
)

func main() {
	root := config.New()
	svcCfg := root.Prefix("SERVICE_") // SERVICE_BIND_ADDR etc

	// bring up logging early
	l := logger.Get()

	ctx := context.Background()

	obs := prom.New()

	token := root.MayString("GITHUB_TOKEN", root.MayString("ACCESS_TOKEN", ""))
	gh, err := github.New(github.Options{
		Token:    token,
		Observer: obs,
	})
	if err != nil {
		l.Panic().Err(err).Msg("github client init failed")
	}

	// one sqlite file per concern, see platform/store
	trafficDB, err := store.Open(ctx, store.Options{Path: root.MayString("DATABASE_PATH", "data/traffic.db")})
	if err != nil {
		l.Panic().Err(err).Msg("traffic store open failed")
	}
	defer trafficDB.Close()

	snapshotsDB, err := store.Open(ctx, store.Options{Path: root.MayString("SNAPSHOTS_DB_PATH", "data/snapshots.db")})
	if err != nil {
		l.Panic().Err(err).Msg("snapshots store open failed")
	}
	defer snapshotsDB.Close()

	webhooksDB, err := store.Open(ctx, store.Options{Path: root.MayString("WEBHOOKS_DB_PATH", "data/webhooks.db")})
	if err != nil {
		l.Panic().Err(err).Msg("webhooks store open failed")
	}
	defer webhooksDB.Close()

	trafficStore, err := usersrepo.NewTraffic(ctx, trafficDB)
	if err != nil {
		l.Panic().Err(err).Msg("traffic store migrate failed")
	}

	loc, tzErr := ptime.LocationOrUTC(root.MayString("TIMEZONE", ""))
	if tzErr != nil {
		l.Warn().Err(tzErr).Msg("bad TIMEZONE, staying on UTC")
	}

	// the token login gates private repo access to the owner
	login, err := stats.ResolveLogin(ctx, gh)
	if err != nil {
		l.Warn().Err(err).Msg("token login resolution failed, private repos stay off")
	}

	provider := stats.NewProvider(stats.ProviderOptions{
		Client:       gh,
		Filter:       repofilter.FromConf(root),
		TrafficStore: trafficStore,
		TrafficOpts: collect.TrafficOptions{
			StoreViews:  root.MayBool("STORE_REPO_VIEWS", true),
			StoreClones: root.MayBool("STORE_REPO_CLONES", true),
		},
		Location:     loc,
		MaskPrivate:  root.MayBool("MASK_PRIVATE_REPOS", true),
		AllowPrivate: root.MayBool("ALLOW_PRIVATE_REPOS", false),
		TokenLogin:   login,
		NewClient: func(token string) (*github.Client, error) {
			return github.New(github.Options{Token: token, Observer: obs})
		},
	})

	ttl := time.Duration(root.MayInt("CACHE_TTL", 300)) * time.Second
	var resultCache cache.Cache
	if url := root.MayString("REDIS_URL", ""); url != "" {
		r, err := cache.NewRedis(url, ttl, obs)
		if err == nil {
			err = r.Ping(ctx)
		}
		if err != nil {
			l.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
			resultCache = cache.NewMemory(root.MayInt("CACHE_MAXSIZE", 100), ttl, obs)
		} else {
			resultCache = r
			defer r.Close()
		}
	} else {
		resultCache = cache.NewMemory(root.MayInt("CACHE_MAXSIZE", 100), ttl, obs)
	}

	srv := phttp.NewServer(svcCfg)
	srv.Router().Handle("/metrics", obs.Handler())

	if err := api.Mount(srv.Router(), api.Options{
		Config:         root,
		GitHub:         gh,
		Cache:          resultCache,
		Stats:          provider,
		SnapshotsDB:    snapshotsDB,
		WebhooksDB:     webhooksDB,
		EnableProfiler: root.MayBool("PROFILER", false),
	}); err != nil {
		l.Panic().Err(err).Msg("api mount failed")
	}

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
