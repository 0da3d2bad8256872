// Package service renders statistics cards as SVG
package service

import (
	"context"

	"gitstats/internal/cache"
	"gitstats/internal/core/stats"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
	usersdomain "gitstats/internal/services/api/users/domain"
)

// Kinds lists the supported card types
var Kinds = []string{
	"overview", "languages", "streak",
	"languages-puzzle", "streak-battery", "commit-calendar",
}

// Svc builds cards from the users module's cached statistics
type Svc struct {
	// stats is resolved lazily from the module registry
	stats func() usersdomain.StatsPort

	cache cache.Cache
	log   logger.Logger
}

// New constructs the cards service
func New(stats func() usersdomain.StatsPort, c cache.Cache) *Svc {
	if stats == nil {
		panic("cards.Service requires a stats resolver")
	}
	if c == nil {
		c = cache.None{}
	}
	return &Svc{stats: stats, cache: c, log: *logger.Named("cards")}
}

// Card renders one card, serving repeated requests from the cache
// token scoped requests render fresh and stay out of the shared cache
func (s *Svc) Card(ctx context.Context, username, kind, theme string) ([]byte, bool, error) {
	t := themeOrDefault(theme)
	key := cache.Key(username, "card:"+kind+":"+t.Name)
	scoped := stats.UserToken(ctx) != ""
	if !scoped && !cache.Bypassed(ctx) {
		if b, ok := s.cache.Get(ctx, key); ok {
			return b, true, nil
		}
	}

	port := s.stats()
	if port == nil {
		return nil, false, perr.Unavailablef("statistics backend not mounted")
	}

	var svg []byte
	switch kind {
	case "overview":
		ov, _, err := port.Overview(ctx, username)
		if err != nil {
			return nil, false, err
		}
		svg = renderOverview(username, ov, t)
	case "languages":
		langs, _, err := port.Languages(ctx, username, true)
		if err != nil {
			return nil, false, err
		}
		svg = renderLanguages(username, langs, t)
	case "streak":
		st, _, err := port.Streak(ctx, username)
		if err != nil {
			return nil, false, err
		}
		svg = renderStreak(username, st, t)
	case "languages-puzzle":
		langs, _, err := port.Languages(ctx, username, true)
		if err != nil {
			return nil, false, err
		}
		svg = renderPuzzle(username, langs, t)
	case "streak-battery":
		st, _, err := port.Streak(ctx, username)
		if err != nil {
			return nil, false, err
		}
		svg = renderBattery(username, st, t)
	case "commit-calendar":
		days, _, err := port.Recent(ctx, username)
		if err != nil {
			return nil, false, err
		}
		svg = renderCalendar(username, days, t)
	default:
		return nil, false, perr.InvalidArgf("unknown card type %q", kind)
	}

	if !scoped {
		s.cache.Set(ctx, key, svg)
	}
	return svg, false, nil
}
