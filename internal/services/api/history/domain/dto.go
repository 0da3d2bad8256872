// Package domain holds history endpoint inputs and row types
package domain

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	perr "gitstats/internal/platform/errors"
)

// Entry is one persisted snapshot row
type Entry struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	Timestamp string          `json:"timestamp"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// HistoryParams bounds a snapshot query
type HistoryParams struct {
	From  string
	To    string
	Limit int
}

// ParseHistory reads from, to and limit with a 1..1000 clamp
func ParseHistory(q url.Values) (HistoryParams, error) {
	p := HistoryParams{From: q.Get("from"), To: q.Get("to"), Limit: 100}
	for _, d := range []string{p.From, p.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return p, perr.InvalidArgf("invalid date %q, want YYYY-MM-DD", d)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 1000 {
			return p, perr.InvalidArgf("limit must be between 1 and 1000")
		}
		p.Limit = v
	}
	return p, nil
}
