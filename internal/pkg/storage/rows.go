package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// gamelineRow is the gamelines table. Spreads and totals are stored as text
// so half points survive every driver unchanged.
type gamelineRow struct {
	ID             uint                `gorm:"primaryKey"`
	Source         string              `gorm:"not null;uniqueIndex:idx_gamelines_key"`
	GameDay        string              `gorm:"not null;uniqueIndex:idx_gamelines_key;index"`
	HomeTeam       string              `gorm:"not null;uniqueIndex:idx_gamelines_key"`
	AwayTeam       string              `gorm:"not null;uniqueIndex:idx_gamelines_key"`
	StartTime      string              `gorm:"not null"`
	HomeMoneyline  *int
	AwayMoneyline  *int
	HomeSpread     decimal.NullDecimal `gorm:"type:text"`
	AwaySpread     decimal.NullDecimal `gorm:"type:text"`
	HomeSpreadOdds *int
	AwaySpreadOdds *int
	OverUnder      decimal.NullDecimal `gorm:"type:text"`
	OverOdds       *int
	UnderOdds      *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (gamelineRow) TableName() string { return "gamelines" }

// gamelineUpdateColumns are overwritten on a key conflict; created_at is kept.
var gamelineUpdateColumns = []string{
	"start_time",
	"home_moneyline", "away_moneyline",
	"home_spread", "away_spread", "home_spread_odds", "away_spread_odds",
	"over_under", "over_odds", "under_odds",
	"updated_at",
}

func newGamelineRow(g models.Gameline) gamelineRow {
	return gamelineRow{
		Source:         g.Source,
		GameDay:        g.GameDay,
		HomeTeam:       g.HomeTeam,
		AwayTeam:       g.AwayTeam,
		StartTime:      g.StartTime,
		HomeMoneyline:  g.HomeMoneyline,
		AwayMoneyline:  g.AwayMoneyline,
		HomeSpread:     g.HomeSpread,
		AwaySpread:     g.AwaySpread,
		HomeSpreadOdds: g.HomeSpreadOdds,
		AwaySpreadOdds: g.AwaySpreadOdds,
		OverUnder:      g.OverUnder,
		OverOdds:       g.OverOdds,
		UnderOdds:      g.UnderOdds,
	}
}

func (r gamelineRow) model() models.Gameline {
	return models.Gameline{
		Source:    r.Source,
		GameDay:   r.GameDay,
		StartTime: r.StartTime,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		Odds: models.Odds{
			HomeMoneyline:  r.HomeMoneyline,
			AwayMoneyline:  r.AwayMoneyline,
			HomeSpread:     r.HomeSpread,
			AwaySpread:     r.AwaySpread,
			HomeSpreadOdds: r.HomeSpreadOdds,
			AwaySpreadOdds: r.AwaySpreadOdds,
			OverUnder:      r.OverUnder,
			OverOdds:       r.OverOdds,
			UnderOdds:      r.UnderOdds,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// eventRow is the events table.
type eventRow struct {
	ID             uint                `gorm:"primaryKey"`
	GameDay        string              `gorm:"not null;uniqueIndex:idx_events_key;index"`
	HomeTeam       string              `gorm:"not null;uniqueIndex:idx_events_key"`
	AwayTeam       string              `gorm:"not null;uniqueIndex:idx_events_key"`
	StartTime      string              `gorm:"not null"`
	Status         string              `gorm:"not null;index"`
	Source         string
	HomeMoneyline  *int
	AwayMoneyline  *int
	HomeSpread     decimal.NullDecimal `gorm:"type:text"`
	AwaySpread     decimal.NullDecimal `gorm:"type:text"`
	HomeSpreadOdds *int
	AwaySpreadOdds *int
	OverUnder      decimal.NullDecimal `gorm:"type:text"`
	OverOdds       *int
	UnderOdds      *int
	UpdatedAt      time.Time
}

func (eventRow) TableName() string { return "events" }

var eventUpdateColumns = []string{
	"start_time", "status", "source",
	"home_moneyline", "away_moneyline",
	"home_spread", "away_spread", "home_spread_odds", "away_spread_odds",
	"over_under", "over_odds", "under_odds",
	"updated_at",
}

func newEventRow(e models.Event) eventRow {
	return eventRow{
		GameDay:        e.GameDay,
		HomeTeam:       e.HomeTeam,
		AwayTeam:       e.AwayTeam,
		StartTime:      e.StartTime,
		Status:         string(e.Status),
		Source:         e.Source,
		HomeMoneyline:  e.HomeMoneyline,
		AwayMoneyline:  e.AwayMoneyline,
		HomeSpread:     e.HomeSpread,
		AwaySpread:     e.AwaySpread,
		HomeSpreadOdds: e.HomeSpreadOdds,
		AwaySpreadOdds: e.AwaySpreadOdds,
		OverUnder:      e.OverUnder,
		OverOdds:       e.OverOdds,
		UnderOdds:      e.UnderOdds,
	}
}

func (r eventRow) model() models.Event {
	return models.Event{
		GameDay:   r.GameDay,
		StartTime: r.StartTime,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		Status:    models.EventStatus(r.Status),
		Source:    r.Source,
		Odds: models.Odds{
			HomeMoneyline:  r.HomeMoneyline,
			AwayMoneyline:  r.AwayMoneyline,
			HomeSpread:     r.HomeSpread,
			AwaySpread:     r.AwaySpread,
			HomeSpreadOdds: r.HomeSpreadOdds,
			AwaySpreadOdds: r.AwaySpreadOdds,
			OverUnder:      r.OverUnder,
			OverOdds:       r.OverOdds,
			UnderOdds:      r.UnderOdds,
		},
		UpdatedAt: r.UpdatedAt,
	}
}
