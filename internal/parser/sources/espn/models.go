package espn

import (
	"fmt"
	"time"
)

// Scoreboard is the subset of the ESPN scoreboard document we read.
type Scoreboard struct {
	Events []Event `json:"events"`
}

type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Competitions []Competition `json:"competitions"`
}

type Competition struct {
	ID          string       `json:"id"`
	Date        string       `json:"date"`
	TimeValid   *bool        `json:"timeValid"`
	Competitors []Competitor `json:"competitors"`
	Odds        []OddsEntry  `json:"odds"`
}

type Competitor struct {
	HomeAway string `json:"homeAway"` // "home" or "away"
	Team     Team   `json:"team"`
}

type Team struct {
	Location         string `json:"location"`
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
}

// Name returns the school name, falling back to the display names.
func (t Team) Name() string {
	switch {
	case t.Location != "":
		return t.Location
	case t.DisplayName != "":
		return t.DisplayName
	default:
		return t.ShortDisplayName
	}
}

type OddsEntry struct {
	Provider     Provider `json:"provider"`
	Details      string   `json:"details"`
	OverUnder    *float64 `json:"overUnder"`
	Spread       *float64 `json:"spread"` // home perspective
	OverOdds     *float64 `json:"overOdds"`
	UnderOdds    *float64 `json:"underOdds"`
	HomeTeamOdds TeamOdds `json:"homeTeamOdds"`
	AwayTeamOdds TeamOdds `json:"awayTeamOdds"`
}

type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TeamOdds struct {
	Favorite   bool     `json:"favorite"`
	MoneyLine  *float64 `json:"moneyLine"`
	SpreadOdds *float64 `json:"spreadOdds"`
}

// Side returns the home and away competitors by their homeAway flag.
func (c Competition) Side(homeAway string) (Competitor, bool) {
	for _, comp := range c.Competitors {
		if comp.HomeAway == homeAway {
			return comp, true
		}
	}
	return Competitor{}, false
}

// StartTime returns the kickoff time of the competition, falling back to the
// event date.
func (c Competition) StartTime(e Event) (time.Time, error) {
	raw := c.Date
	if raw == "" {
		raw = e.Date
	}
	return ParseDate(raw)
}

// ParseDate parses ESPN timestamps, which usually omit seconds ("2026-10-17T19:30Z").
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
