// Command gitstats-snapshot captures one statistics snapshot for a user
// intended for cron, the API keeps serving while this runs out of band
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gitstats/internal/adapters/github"
	"gitstats/internal/cache"
	"gitstats/internal/core/collect"
	"gitstats/internal/core/repofilter"
	"gitstats/internal/core/stats"
	"gitstats/internal/platform/config"
	"gitstats/internal/platform/logger"
	"gitstats/internal/platform/store"
	ptime "gitstats/internal/platform/time"

	historyrepo "gitstats/internal/services/api/history/repo"
	historysvc "gitstats/internal/services/api/history/service"
	usersdomain "gitstats/internal/services/api/users/domain"
	usersrepo "gitstats/internal/services/api/users/repo"
	userssvc "gitstats/internal/services/api/users/service"
	webhooksdomain "gitstats/internal/services/api/webhooks/domain"
	webhooksrepo "gitstats/internal/services/api/webhooks/repo"
	webhookssvc "gitstats/internal/services/api/webhooks/service"
)

func main() {
	var (
		user     = flag.String("user", "", "GitHub username to snapshot (defaults to the token owner)")
		dispatch = flag.Bool("dispatch", true, "evaluate and deliver webhooks for the transition")
		pretty   = flag.Bool("pretty", false, "indent the JSON result")
		timeout  = flag.Duration("timeout", 5*time.Minute, "overall run deadline")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token := root.MayString("GITHUB_TOKEN", root.MayString("ACCESS_TOKEN", ""))
	gh, err := github.New(github.Options{Token: token})
	if err != nil {
		l.Panic().Err(err).Msg("github client init failed")
	}

	login, err := stats.ResolveLogin(ctx, gh)
	if err != nil {
		l.Warn().Err(err).Msg("token login resolution failed")
	}
	username := *user
	if username == "" {
		username = login
	}
	if err := usersdomain.ValidateUsername(username); err != nil {
		fmt.Fprintln(os.Stderr, "usage: gitstats-snapshot -user <github-login>")
		os.Exit(2)
	}

	trafficDB, err := store.Open(ctx, store.Options{Path: root.MayString("DATABASE_PATH", "data/traffic.db")})
	if err != nil {
		l.Panic().Err(err).Msg("traffic store open failed")
	}
	defer trafficDB.Close()
	trafficStore, err := usersrepo.NewTraffic(ctx, trafficDB)
	if err != nil {
		l.Panic().Err(err).Msg("traffic store migrate failed")
	}

	snapshotsDB, err := store.Open(ctx, store.Options{Path: root.MayString("SNAPSHOTS_DB_PATH", "data/snapshots.db")})
	if err != nil {
		l.Panic().Err(err).Msg("snapshots store open failed")
	}
	defer snapshotsDB.Close()
	snapshots, err := historyrepo.New(ctx, snapshotsDB)
	if err != nil {
		l.Panic().Err(err).Msg("snapshots store migrate failed")
	}

	loc, tzErr := ptime.LocationOrUTC(root.MayString("TIMEZONE", ""))
	if tzErr != nil {
		l.Warn().Err(tzErr).Msg("bad TIMEZONE, staying on UTC")
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
	})

	// one shot run, nothing to cache across requests
	collector := userssvc.New(userssvc.Deps{Provider: provider, Cache: cache.None{}})

	dispatcher := func() webhooksdomain.DispatcherPort { return nil }
	if *dispatch {
		webhooksDB, err := store.Open(ctx, store.Options{Path: root.MayString("WEBHOOKS_DB_PATH", "data/webhooks.db")})
		if err != nil {
			l.Panic().Err(err).Msg("webhooks store open failed")
		}
		defer webhooksDB.Close()
		wr, err := webhooksrepo.New(ctx, webhooksDB)
		if err != nil {
			l.Panic().Err(err).Msg("webhooks store migrate failed")
		}
		svc := webhookssvc.New(wr)
		dispatcher = func() webhooksdomain.DispatcherPort { return svc }
	}

	out, err := historysvc.New(snapshots, collector, dispatcher).TakeSnapshot(ctx, username)
	if err != nil {
		l.Panic().Err(err).Str("username", username).Msg("snapshot failed")
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		l.Panic().Err(err).Msg("encode result")
	}
}
