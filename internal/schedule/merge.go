// Package schedule builds the event list from the upcoming schedule and the
// gamelines already ingested.
package schedule

import (
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Merge turns every scheduled game into a TBD event, then copies the odds of
// each gameline with the same (game_day, home_team, away_team) into its event
// and marks it OPEN. Names must already be canonical; matching is exact.
// When several gamelines match one game the last one wins. Duplicate
// scheduled games collapse into the first.
func Merge(scheduled []models.ScheduledGame, gamelines []models.Gameline) []models.Event {
	events := make([]models.Event, 0, len(scheduled))
	index := make(map[models.Matchup]int, len(scheduled))
	for _, game := range scheduled {
		key := game.Matchup()
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = len(events)
		events = append(events, models.Event{
			GameDay:   game.GameDay,
			StartTime: game.StartTime,
			HomeTeam:  game.HomeTeam,
			AwayTeam:  game.AwayTeam,
			Status:    models.EventStatusTBD,
		})
	}

	for _, g := range gamelines {
		i, ok := index[g.Matchup()]
		if !ok {
			continue
		}
		events[i].Odds = g.Odds
		events[i].Source = g.Source
		events[i].Status = models.EventStatusOpen
	}
	return events
}
