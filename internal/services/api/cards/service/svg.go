package service

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"gitstats/internal/core/collect"
	"gitstats/internal/core/stats"
)

// Theme is the card palette
type Theme struct {
	Name       string
	Background string
	Border     string
	Title      string
	Text       string
	Accent     string
	Muted      string
}

var themes = map[string]Theme{
	"default": {
		Name:       "default",
		Background: "#fffefe",
		Border:     "#e4e2e2",
		Title:      "#2f80ed",
		Text:       "#434d58",
		Accent:     "#4c71f2",
		Muted:      "#858e99",
	},
	"dark": {
		Name:       "dark",
		Background: "#151515",
		Border:     "#e4e2e2",
		Title:      "#fb8c00",
		Text:       "#9f9f9f",
		Accent:     "#79ff97",
		Muted:      "#666666",
	},
}

// themeOrDefault falls back rather than failing on unknown themes
func themeOrDefault(name string) Theme {
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return themes["default"]
}

// Themes lists the selectable theme names
func Themes() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	cardWidth  = 480
	rowHeight  = 25
	langColors = 8
)

func svgOpen(b *strings.Builder, t Theme, height int) {
	fmt.Fprintf(b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" fill="none" role="img">`,
		cardWidth, height, cardWidth, height)
	fmt.Fprintf(b,
		`<rect x="0.5" y="0.5" width="%d" height="%d" rx="4.5" fill="%s" stroke="%s"/>`,
		cardWidth-1, height-1, t.Background, t.Border)
}

func svgTitle(b *strings.Builder, t Theme, title string) {
	fmt.Fprintf(b,
		`<text x="25" y="33" font-family="Segoe UI, Ubuntu, sans-serif" font-size="18" font-weight="600" fill="%s">%s</text>`,
		t.Title, html.EscapeString(title))
}

func svgRow(b *strings.Builder, t Theme, row int, label, value string) {
	y := 62 + row*rowHeight
	fmt.Fprintf(b,
		`<text x="25" y="%d" font-family="Segoe UI, Ubuntu, sans-serif" font-size="14" fill="%s">%s</text>`,
		y, t.Text, html.EscapeString(label))
	fmt.Fprintf(b,
		`<text x="%d" y="%d" text-anchor="end" font-family="Segoe UI, Ubuntu, sans-serif" font-size="14" font-weight="600" fill="%s">%s</text>`,
		cardWidth-25, y, t.Accent, html.EscapeString(value))
}

// renderOverview is the headline figures card
func renderOverview(username string, ov stats.OverviewPayload, t Theme) []byte {
	rows := [][2]string{
		{"Total Stars", strconv.Itoa(ov.TotalStars)},
		{"Total Forks", strconv.Itoa(ov.TotalForks)},
		{"Total Contributions", strconv.Itoa(ov.TotalContributions)},
		{"Lines Changed", strconv.FormatInt(ov.LinesChanged, 10)},
		{"Repository Views", strconv.FormatInt(ov.Views, 10)},
		{"Collaborators", strconv.Itoa(ov.Collaborators)},
	}
	height := 62 + len(rows)*rowHeight
	var b strings.Builder
	svgOpen(&b, t, height)
	svgTitle(&b, t, username+"'s GitHub Stats")
	for i, r := range rows {
		svgRow(&b, t, i, r[0], r[1])
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// renderLanguages is a proportional bar with a legend
func renderLanguages(username string, langs []collect.LanguageStat, t Theme) []byte {
	if len(langs) > langColors {
		langs = langs[:langColors]
	}
	height := 90 + ((len(langs)+1)/2)*rowHeight
	var b strings.Builder
	svgOpen(&b, t, height)
	svgTitle(&b, t, username+"'s Languages")

	// stacked proportion bar
	x := 25.0
	barWidth := float64(cardWidth - 50)
	for _, l := range langs {
		w := barWidth * l.Proportion / 100
		fmt.Fprintf(&b, `<rect x="%.1f" y="50" width="%.1f" height="10" rx="2" fill="%s"/>`,
			x, w, colorOr(l.Color, t.Accent))
		x += w
	}

	for i, l := range langs {
		col := i % 2
		row := i / 2
		lx := 25 + col*(cardWidth-50)/2
		ly := 90 + row*rowHeight
		fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="5" fill="%s"/>`, lx+5, ly-4, colorOr(l.Color, t.Accent))
		fmt.Fprintf(&b,
			`<text x="%d" y="%d" font-family="Segoe UI, Ubuntu, sans-serif" font-size="12" fill="%s">%s %.2f%%</text>`,
			lx+16, ly, t.Text, html.EscapeString(l.Name), l.Proportion)
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// renderStreak shows current and longest run side by side
func renderStreak(username string, st collect.Streak, t Theme) []byte {
	const height = 140
	var b strings.Builder
	svgOpen(&b, t, height)
	svgTitle(&b, t, username+"'s Contribution Streak")

	half := cardWidth / 2
	fmt.Fprintf(&b,
		`<text x="%d" y="85" text-anchor="middle" font-family="Segoe UI, Ubuntu, sans-serif" font-size="32" font-weight="700" fill="%s">%d</text>`,
		half/2, t.Accent, st.Current)
	fmt.Fprintf(&b,
		`<text x="%d" y="108" text-anchor="middle" font-family="Segoe UI, Ubuntu, sans-serif" font-size="12" fill="%s">Current Streak %s</text>`,
		half/2, t.Muted, html.EscapeString(st.CurrentRange))
	fmt.Fprintf(&b,
		`<text x="%d" y="85" text-anchor="middle" font-family="Segoe UI, Ubuntu, sans-serif" font-size="32" font-weight="700" fill="%s">%d</text>`,
		half+half/2, t.Accent, st.Longest)
	fmt.Fprintf(&b,
		`<text x="%d" y="108" text-anchor="middle" font-family="Segoe UI, Ubuntu, sans-serif" font-size="12" fill="%s">Longest Streak %s</text>`,
		half+half/2, t.Muted, html.EscapeString(st.LongestRange))
	fmt.Fprintf(&b, `<line x1="%d" y1="55" x2="%d" y2="115" stroke="%s"/>`, half, half, t.Border)
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// renderPuzzle tiles languages as proportional squares
func renderPuzzle(username string, langs []collect.LanguageStat, t Theme) []byte {
	if len(langs) > langColors {
		langs = langs[:langColors]
	}
	const height = 170
	var b strings.Builder
	svgOpen(&b, t, height)
	svgTitle(&b, t, username+"'s Language Puzzle")

	x := 25.0
	for _, l := range langs {
		// side scales with the share so big languages read as big tiles
		side := 20 + l.Proportion
		if side > 100 {
			side = 100
		}
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="%s"><title>%s</title></rect>`,
			x, 150-side, side, side, colorOr(l.Color, t.Accent), html.EscapeString(l.Name))
		x += side + 6
		if x > cardWidth-40 {
			break
		}
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// renderBattery fills a battery by current over longest streak
func renderBattery(username string, st collect.Streak, t Theme) []byte {
	const height = 130
	var b strings.Builder
	svgOpen(&b, t, height)
	svgTitle(&b, t, username+"'s Streak Battery")

	ratio := 0.0
	if st.Longest > 0 {
		ratio = float64(st.Current) / float64(st.Longest)
	}
	if ratio > 1 {
		ratio = 1
	}
	const bodyWidth = 360.0
	fmt.Fprintf(&b, `<rect x="25" y="60" width="%.0f" height="40" rx="6" fill="none" stroke="%s" stroke-width="2"/>`,
		bodyWidth, t.Text)
	fmt.Fprintf(&b, `<rect x="%d" y="72" width="8" height="16" rx="2" fill="%s"/>`, 25+int(bodyWidth)+4, t.Text)
	if ratio > 0 {
		fmt.Fprintf(&b, `<rect x="29" y="64" width="%.1f" height="32" rx="4" fill="%s"/>`,
			(bodyWidth-8)*ratio, t.Accent)
	}
	fmt.Fprintf(&b,
		`<text x="%d" y="85" text-anchor="end" font-family="Segoe UI, Ubuntu, sans-serif" font-size="14" font-weight="600" fill="%s">%d/%d</text>`,
		cardWidth-25, t.Text, st.Current, st.Longest)
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// renderCalendar plots the trailing daily contributions as bars
func renderCalendar(username string, days []collect.DayCount, t Theme) []byte {
	const height = 160
	var b strings.Builder
	svgOpen(&b, t, height)
	svgTitle(&b, t, username+"'s Recent Commits")

	maxCount := 1
	for _, d := range days {
		if d.Count > maxCount {
			maxCount = d.Count
		}
	}
	if len(days) > 0 {
		slot := float64(cardWidth-50) / float64(len(days))
		for i, d := range days {
			h := 80.0 * float64(d.Count) / float64(maxCount)
			x := 25 + float64(i)*slot
			fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s"><title>%s: %d</title></rect>`,
				x+2, 135-h, slot-4, h, t.Accent, html.EscapeString(d.Date), d.Count)
		}
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func colorOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return c
}
