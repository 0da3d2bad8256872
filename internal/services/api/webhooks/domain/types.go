// Package domain holds webhook types and cross module ports
package domain

import (
	"context"

	"gitstats/internal/core/stats"
)

// Conditions selects which snapshot transitions fire a webhook
type Conditions struct {
	// StarsThreshold fires when total stars cross N upward
	StarsThreshold int `json:"stars_threshold,omitempty"`

	// StreakBroken fires when a running streak drops to zero
	StreakBroken bool `json:"streak_broken,omitempty"`

	// ContributionsRecord fires when total contributions set a new high
	ContributionsRecord bool `json:"contributions_record,omitempty"`
}

// Empty reports whether no condition is configured
func (c Conditions) Empty() bool {
	return c.StarsThreshold <= 0 && !c.StreakBroken && !c.ContributionsRecord
}

// Webhook is one registered callback
type Webhook struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	URL        string     `json:"url"`
	Conditions Conditions `json:"conditions"`
	CreatedAt  string     `json:"created_at"`
}

// CreateInput is the registration request body
type CreateInput struct {
	URL        string     `json:"url" validate:"required,url"`
	Conditions Conditions `json:"conditions"`
}

// DispatcherPort evaluates conditions between snapshots and posts events
// prev nil means no earlier snapshot exists and nothing fires
type DispatcherPort interface {
	Dispatch(ctx context.Context, username string, prev *stats.SnapshotPayload, cur stats.SnapshotPayload) int
}
