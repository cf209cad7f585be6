package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Odds holds the priced markets of one game. Nil pointers and invalid
// decimals mean "not available".
type Odds struct {
	HomeMoneyline  *int                `json:"home_moneyline"`
	AwayMoneyline  *int                `json:"away_moneyline"`
	HomeSpread     decimal.NullDecimal `json:"home_spread"`
	AwaySpread     decimal.NullDecimal `json:"away_spread"`
	HomeSpreadOdds *int                `json:"home_spread_odds"`
	AwaySpreadOdds *int                `json:"away_spread_odds"`
	OverUnder      decimal.NullDecimal `json:"over_under"`
	OverOdds       *int                `json:"over_odds"`
	UnderOdds      *int                `json:"under_odds"`
}

// HasOdds reports whether at least one headline market is populated.
func (o Odds) HasOdds() bool {
	return o.HomeMoneyline != nil || o.AwayMoneyline != nil || o.HomeSpread.Valid || o.OverUnder.Valid
}

// Gameline is one source's betting line snapshot for one game.
// Identity is (Source, GameDay, HomeTeam, AwayTeam).
type Gameline struct {
	Source    string `json:"source"`
	GameDay   string `json:"game_day"` // YYYY-MM-DD
	StartTime string `json:"start_time"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Odds
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the identity of the gameline.
func (g Gameline) Key() GamelineKey {
	return GamelineKey{Source: g.Source, GameDay: g.GameDay, HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam}
}

// Matchup returns the source-independent part of the identity.
func (g Gameline) Matchup() Matchup {
	return Matchup{GameDay: g.GameDay, HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam}
}

// GamelineKey is the storage identity of a gameline.
type GamelineKey struct {
	Source   string
	GameDay  string
	HomeTeam string
	AwayTeam string
}

// Matchup identifies a game independent of any source.
type Matchup struct {
	GameDay  string
	HomeTeam string
	AwayTeam string
}

// EventStatus tells whether a scheduled game has been priced yet.
type EventStatus string

const (
	EventStatusTBD  EventStatus = "TBD"
	EventStatusOpen EventStatus = "OPEN"
)

// ScheduledGame is a matchup from the schedule source, without odds.
type ScheduledGame struct {
	GameDay   string `json:"game_day"`
	StartTime string `json:"start_time"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
}

// Matchup returns the identity of the scheduled game.
func (s ScheduledGame) Matchup() Matchup {
	return Matchup{GameDay: s.GameDay, HomeTeam: s.HomeTeam, AwayTeam: s.AwayTeam}
}

// Event is a scheduled game together with the odds ingested for it, if any.
type Event struct {
	GameDay   string      `json:"game_day"`
	StartTime string      `json:"start_time"`
	HomeTeam  string      `json:"home_team"`
	AwayTeam  string      `json:"away_team"`
	Status    EventStatus `json:"status"`
	Source    string      `json:"source,omitempty"` // source of the copied odds when OPEN
	Odds
	UpdatedAt time.Time `json:"updated_at"`
}

// Matchup returns the identity of the event.
func (e Event) Matchup() Matchup {
	return Matchup{GameDay: e.GameDay, HomeTeam: e.HomeTeam, AwayTeam: e.AwayTeam}
}

// Snapshot is the result of one aggregation cycle keyed by source name.
type Snapshot map[string][]Gameline

// Count returns the number of gamelines across all sources.
func (s Snapshot) Count() int {
	n := 0
	for _, lines := range s {
		n += len(lines)
	}
	return n
}
