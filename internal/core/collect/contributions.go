package collect

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"gitstats/internal/adapters/github"
	perr "gitstats/internal/platform/errors"
)

const dayFormat = "2006-01-02"

// recentDays is how many trailing calendar cells the recent feed carries
const recentDays = 10

// ContributionSummary is the merged calendar across all contribution years
type ContributionSummary struct {
	Total  int
	ByYear map[int]int
	Days   []DayCount
	Streak Streak
	Recent []DayCount
}

// Contributions fetches and folds the full contribution calendar
type Contributions struct {
	client   *github.Client
	username string
	now      func() time.Time

	mu   sync.Mutex
	done bool
	data ContributionSummary
	err  error
}

// NewContributions builds the collector, username must be non empty
func NewContributions(client *github.Client, username string) (*Contributions, error) {
	if strings.TrimSpace(username) == "" {
		return nil, perr.InvalidArgf("username required")
	}
	return &Contributions{client: client, username: username, now: time.Now}, nil
}

// Summary returns the memoised calendar, computing it on first use
func (c *Contributions) Summary(ctx context.Context) (ContributionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return c.data, c.err
	}
	c.data, c.err = c.collect(ctx)
	c.done = true
	return c.data, c.err
}

// Reset clears the memo
func (c *Contributions) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.data = ContributionSummary{}
	c.err = nil
}

func (c *Contributions) collect(ctx context.Context) (ContributionSummary, error) {
	raw, err := c.client.Query(ctx, github.QueryContributionYears, map[string]any{"login": c.username})
	if err != nil {
		return ContributionSummary{}, err
	}
	var yd github.ContributionYearsData
	if err := json.Unmarshal(raw, &yd); err != nil {
		return ContributionSummary{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "decode contribution years")
	}
	years := yd.User.ContributionsCollection.ContributionYears
	if len(years) == 0 {
		return ContributionSummary{ByYear: map[int]int{}}, nil
	}

	raw, err = c.client.Query(ctx, github.BuildContributionsQuery(c.username, years), nil)
	if err != nil {
		return ContributionSummary{}, err
	}
	var env struct {
		User map[string]github.CalendarBlock `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ContributionSummary{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "decode contribution calendar")
	}

	out := ContributionSummary{ByYear: map[int]int{}}
	for alias, block := range env.User {
		year, ok := parseYearAlias(alias)
		if !ok {
			continue
		}
		cal := block.ContributionCalendar
		out.ByYear[year] = cal.TotalContributions
		out.Total += cal.TotalContributions
		for _, w := range cal.Weeks {
			for _, d := range w.ContributionDays {
				out.Days = append(out.Days, DayCount{Date: d.Date, Count: d.ContributionCount})
			}
		}
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })

	today := c.now().UTC()
	out.Days = trimFuture(out.Days, today)
	out.Streak = ComputeStreak(out.Days, today)
	out.Recent = RecentContributions(out.Days)
	return out, nil
}

// parseYearAlias extracts the year from a "yearNNNN" field alias
func parseYearAlias(alias string) (int, bool) {
	rest, ok := strings.CutPrefix(alias, "year")
	if !ok || rest == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}

// trimFuture drops calendar cells dated after today
func trimFuture(days []DayCount, today time.Time) []DayCount {
	cut := today.Format(dayFormat)
	i := len(days)
	for i > 0 && days[i-1].Date > cut {
		i--
	}
	return days[:i]
}

// ComputeStreak walks consecutive calendar days and derives run lengths
// the current run survives only when the last contributing day is today
// or yesterday
func ComputeStreak(days []DayCount, today time.Time) Streak {
	var s Streak
	if len(days) == 0 {
		return s
	}

	temp := 0
	var runStart, lastActive string
	var longestStart, longestEnd string
	for _, d := range days {
		if d.Count > 0 {
			if temp == 0 {
				runStart = d.Date
			}
			temp++
			lastActive = d.Date
			if temp > s.Longest {
				s.Longest = temp
				longestStart, longestEnd = runStart, d.Date
			}
		} else {
			temp = 0
		}
	}

	if s.Longest > 0 {
		s.LongestRange = formatDateRange(longestStart, longestEnd)
	}

	yesterday := today.AddDate(0, 0, -1).Format(dayFormat)
	if temp > 0 && lastActive >= yesterday {
		s.Current = temp
		s.CurrentRange = formatDateRange(runStart, lastActive)
	}
	return s
}

// RecentContributions returns the trailing cells, most recent last
func RecentContributions(days []DayCount) []DayCount {
	if len(days) <= recentDays {
		return append([]DayCount(nil), days...)
	}
	return append([]DayCount(nil), days[len(days)-recentDays:]...)
}

// formatDateRange renders "Jan 2 - Mar 15, 2026" from two ISO dates
// the start year is spelled out when the run spans a year boundary
func formatDateRange(from, to string) string {
	f, err1 := time.Parse(dayFormat, from)
	t, err2 := time.Parse(dayFormat, to)
	if err1 != nil || err2 != nil {
		return ""
	}
	if f.Year() != t.Year() {
		return f.Format("Jan 2, 2006") + " - " + t.Format("Jan 2, 2006")
	}
	return f.Format("Jan 2") + " - " + t.Format("Jan 2, 2006")
}
