// Package service contains snapshot history workflows
package service

import (
	"context"
	"encoding/json"

	"gitstats/internal/core/stats"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
	"gitstats/internal/services/api/history/domain"
	"gitstats/internal/services/api/history/repo"
	usersdomain "gitstats/internal/services/api/users/domain"
	webhooksdomain "gitstats/internal/services/api/webhooks/domain"
)

// SnapshotResult reports one snapshot run
type SnapshotResult struct {
	Snapshot      stats.SnapshotPayload `json:"snapshot"`
	WebhooksFired int                   `json:"webhooks_fired"`
}

// Svc implements history queries and snapshot capture
type Svc struct {
	repo      *repo.Repo
	collector usersdomain.CollectorPort

	// dispatcher is resolved lazily so module construction order stays free
	dispatcher func() webhooksdomain.DispatcherPort

	log logger.Logger
}

// New constructs the history service
func New(r *repo.Repo, collector usersdomain.CollectorPort, dispatcher func() webhooksdomain.DispatcherPort) *Svc {
	if r == nil {
		panic("history.Service requires a repo")
	}
	if collector == nil {
		panic("history.Service requires a collector port")
	}
	if dispatcher == nil {
		dispatcher = func() webhooksdomain.DispatcherPort { return nil }
	}
	return &Svc{repo: r, collector: collector, dispatcher: dispatcher, log: *logger.Named("history")}
}

// History returns persisted snapshots inside the requested window
func (s *Svc) History(ctx context.Context, username string, p domain.HistoryParams) ([]domain.Entry, error) {
	return s.repo.Query(ctx, username, p)
}

// TakeSnapshot collects fresh figures, evaluates webhooks against the
// previous snapshot, then persists the new one
func (s *Svc) TakeSnapshot(ctx context.Context, username string) (SnapshotResult, error) {
	cur, err := s.collector.Collect(ctx, username)
	if err != nil {
		return SnapshotResult{}, err
	}

	prev, err := s.repo.Latest(ctx, username)
	if err != nil {
		return SnapshotResult{}, err
	}

	// webhooks see the transition before the new snapshot lands
	fired := 0
	if d := s.dispatcher(); d != nil {
		fired = d.Dispatch(ctx, username, prev, cur)
	}

	payload, err := json.Marshal(cur)
	if err != nil {
		return SnapshotResult{}, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal snapshot")
	}
	if err := s.repo.Save(ctx, username, cur.Timestamp, payload); err != nil {
		return SnapshotResult{}, err
	}

	s.log.Info().Str("username", username).Int("webhooks_fired", fired).Msg("snapshot saved")
	return SnapshotResult{Snapshot: cur, WebhooksFired: fired}, nil
}
