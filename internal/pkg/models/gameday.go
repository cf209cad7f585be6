package models

import (
	"sort"
	"strings"
	"time"
)

// GameDayLayout is the storage format of Gameline.GameDay.
const GameDayLayout = "2006-01-02"

// StartTimeTBD is stored when a source gives no kickoff time.
const StartTimeTBD = "TBD"

var startTimeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"3 PM",
	"3PM",
}

// zoneSuffixes are dropped from start times; the game day's location applies.
var zoneSuffixes = []string{" ET", " EST", " EDT", " CT", " CST", " CDT", " MT", " PT", " PST", " PDT"}

// ParseStartTime resolves a free-text start time on gameDay into an absolute
// time. Times without an explicit zone are read in loc; a trailing "Z" means
// UTC. ok is false for "TBD", empty or unrecognized values.
func ParseStartTime(gameDay, startTime string, loc *time.Location) (time.Time, bool) {
	day, err := time.ParseInLocation(GameDayLayout, gameDay, loc)
	if err != nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(startTime)
	if s == "" || strings.EqualFold(s, StartTimeTBD) {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}

	zone := loc
	if strings.HasSuffix(s, "Z") {
		zone = time.UTC
		s = strings.TrimSuffix(s, "Z")
	}
	upper := strings.ToUpper(s)
	for _, suffix := range zoneSuffixes {
		if strings.HasSuffix(upper, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}

	for _, layout := range startTimeLayouts {
		clock, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if zone != loc {
			day, _ = time.ParseInLocation(GameDayLayout, gameDay, zone)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, zone), true
	}
	return time.Time{}, false
}

// IsElapsed reports whether a game should be dropped at now: the game day is
// before today, or it is today and the start time has passed or cannot be
// parsed. Dates are compared in now's location.
func IsElapsed(gameDay, startTime string, now time.Time) bool {
	today := now.Format(GameDayLayout)
	switch {
	case gameDay < today:
		return true
	case gameDay > today:
		return false
	}
	start, ok := ParseStartTime(gameDay, startTime, now.Location())
	if !ok {
		return true
	}
	return start.Before(now)
}

// SortGamelines orders gamelines by game day and then start time. Unparsable
// start times sort last within their day.
func SortGamelines(lines []Gameline, loc *time.Location) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.GameDay != b.GameDay {
			return a.GameDay < b.GameDay
		}
		return startLess(a.GameDay, a.StartTime, b.StartTime, loc)
	})
}

// SortEvents orders events like SortGamelines.
func SortEvents(events []Event, loc *time.Location) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.GameDay != b.GameDay {
			return a.GameDay < b.GameDay
		}
		return startLess(a.GameDay, a.StartTime, b.StartTime, loc)
	})
}

func startLess(gameDay, a, b string, loc *time.Location) bool {
	ta, okA := ParseStartTime(gameDay, a, loc)
	tb, okB := ParseStartTime(gameDay, b, loc)
	switch {
	case okA && okB:
		return ta.Before(tb)
	case okA:
		return true
	default:
		return false
	}
}

// Normalize canonicalizes team names, fills a missing start time and applies
// the spread sign rules. Every adapter runs its output through it.
func Normalize(g Gameline) Gameline {
	g.HomeTeam = CanonicalTeamName(g.HomeTeam)
	g.AwayTeam = CanonicalTeamName(g.AwayTeam)
	g.StartTime = strings.TrimSpace(g.StartTime)
	if g.StartTime == "" {
		g.StartTime = StartTimeTBD
	}
	g.Odds = NormalizeSpreads(g.Odds)
	return g
}
