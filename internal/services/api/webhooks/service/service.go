// Package service contains webhook registration and dispatch workflows
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitstats/internal/core/stats"
	perr "gitstats/internal/platform/errors"
	"gitstats/internal/platform/logger"
	"gitstats/internal/services/api/webhooks/domain"
	"gitstats/internal/services/api/webhooks/repo"
)

// dispatchTimeout bounds one callback delivery
const dispatchTimeout = 10 * time.Second

// Svc implements webhook registration, evaluation and dispatch
type Svc struct {
	repo *repo.Repo
	log  logger.Logger

	// client is the delivery transport, swapped in tests
	client *http.Client
}

// New constructs the webhooks service
func New(r *repo.Repo) *Svc {
	if r == nil {
		panic("webhooks.Service requires a repo")
	}
	return &Svc{
		repo:   r,
		log:    *logger.Named("webhooks"),
		client: &http.Client{Timeout: dispatchTimeout},
	}
}

// Create validates and stores one registration
func (s *Svc) Create(ctx context.Context, username string, in domain.CreateInput) (domain.Webhook, error) {
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return domain.Webhook{}, perr.InvalidArgf("webhook url must be http or https")
	}
	if in.Conditions.Empty() {
		return domain.Webhook{}, perr.InvalidArgf("at least one condition is required")
	}
	wh := domain.Webhook{
		ID:         uuid.NewString(),
		Username:   strings.ToLower(username),
		URL:        in.URL,
		Conditions: in.Conditions,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.Create(ctx, wh); err != nil {
		return domain.Webhook{}, err
	}
	return wh, nil
}

// List returns the user's registrations
func (s *Svc) List(ctx context.Context, username string) ([]domain.Webhook, error) {
	return s.repo.ListByUser(ctx, strings.ToLower(username))
}

// Delete removes one registration, unknown ids map to not found
func (s *Svc) Delete(ctx context.Context, username, id string) error {
	ok, err := s.repo.Delete(ctx, strings.ToLower(username), id)
	if err != nil {
		return err
	}
	if !ok {
		return perr.NotFoundf("webhook %s not found", id)
	}
	return nil
}

// Evaluate returns the event strings a snapshot transition fires
func Evaluate(c domain.Conditions, prev, cur stats.SnapshotPayload) []string {
	var events []string
	if n := c.StarsThreshold; n > 0 && prev.TotalStars < n && cur.TotalStars >= n {
		events = append(events, "Stars crossed "+strconv.Itoa(n))
	}
	if c.StreakBroken && prev.CurrentStreak > 0 && cur.CurrentStreak == 0 {
		events = append(events, "Streak broken")
	}
	if c.ContributionsRecord && prev.TotalContributions > 0 &&
		cur.TotalContributions > prev.TotalContributions {
		events = append(events, "New contributions record: "+strconv.Itoa(cur.TotalContributions))
	}
	return events
}

// Dispatch implements domain.DispatcherPort
// delivery failures are logged and counted, never propagated
func (s *Svc) Dispatch(ctx context.Context, username string, prev *stats.SnapshotPayload, cur stats.SnapshotPayload) int {
	// the first snapshot has no transition to evaluate
	if prev == nil {
		return 0
	}
	// the caller going away must not tear down in flight deliveries
	ctx = context.WithoutCancel(ctx)
	hooks, err := s.List(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("webhook list failed, skipping dispatch")
		return 0
	}

	fired := 0
	for _, wh := range hooks {
		events := Evaluate(wh.Conditions, *prev, cur)
		if len(events) == 0 {
			continue
		}
		fired++
		if err := s.deliver(ctx, wh, username, events, cur); err != nil {
			s.log.Warn().Err(err).Str("webhook_id", wh.ID).Str("url", wh.URL).Msg("webhook delivery failed")
			continue
		}
		s.log.Info().Str("webhook_id", wh.ID).Strs("events", events).Msg("webhook delivered")
	}
	return fired
}

func (s *Svc) deliver(ctx context.Context, wh domain.Webhook, username string, events []string, cur stats.SnapshotPayload) error {
	body, err := json.Marshal(map[string]any{
		"username":   username,
		"webhook_id": wh.ID,
		"events":     events,
		"snapshot":   cur,
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "marshal webhook payload")
	}

	dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(dctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "post webhook")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return perr.Upstreamf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}
