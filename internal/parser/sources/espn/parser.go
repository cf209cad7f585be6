// Package espn implements the structured API source on top of the ESPN
// college football scoreboard.
package espn

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/httpclient"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

const TypeName = "espn_api"

func init() {
	sources.Register(TypeName, New)
}

// Source is the ESPN scoreboard source.
type Source struct {
	sources.Base
	client   *Client
	provider string
	loc      *time.Location
}

// New creates the source from its config entry.
func New(cfg config.SourceConfig, loc *time.Location) (sources.Source, error) {
	hc := httpclient.New(httpclient.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		MinDelay:  cfg.MinDelay,
		Accept:    "application/json",
	})
	if loc == nil {
		loc = time.UTC
	}
	return &Source{
		Base:     sources.NewBase(cfg, sources.KindAPI),
		client:   NewClient(hc, cfg.URL, cfg.Groups),
		provider: cfg.Provider,
		loc:      loc,
	}, nil
}

func (s *Source) FetchGamelines(ctx context.Context) ([]models.Gameline, error) {
	sb, err := s.client.Scoreboard(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	lines := s.convert(sb)
	slog.Debug("ESPN: scoreboard parsed", "source", s.Name(), "events", len(sb.Events), "gamelines", len(lines))
	return s.Finish(lines), nil
}

func (s *Source) convert(sb *Scoreboard) []models.Gameline {
	var out []models.Gameline
	for _, event := range sb.Events {
		for _, comp := range event.Competitions {
			g, ok := s.convertCompetition(event, comp)
			if !ok {
				continue
			}
			out = append(out, g)
		}
	}
	return out
}

func (s *Source) convertCompetition(event Event, comp Competition) (models.Gameline, bool) {
	game, ok := matchup(event, comp, s.loc)
	if !ok {
		return models.Gameline{}, false
	}
	g := models.Gameline{
		GameDay:   game.GameDay,
		StartTime: game.StartTime,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
	}
	if odds, ok := s.pickOdds(comp.Odds); ok {
		g.Odds = toOdds(odds)
	}
	return g, true
}

// matchup extracts date and teams of one competition in loc.
func matchup(event Event, comp Competition, loc *time.Location) (models.ScheduledGame, bool) {
	home, okHome := comp.Side("home")
	away, okAway := comp.Side("away")
	if !okHome || !okAway || home.Team.Name() == "" || away.Team.Name() == "" {
		slog.Debug("ESPN: skipping event without both teams", "event", event.ID, "name", event.Name)
		return models.ScheduledGame{}, false
	}

	start, err := comp.StartTime(event)
	if err != nil {
		slog.Debug("ESPN: skipping event with bad date", "event", event.ID, "error", err)
		return models.ScheduledGame{}, false
	}
	start = start.In(loc)

	game := models.ScheduledGame{
		GameDay:   start.Format(models.GameDayLayout),
		StartTime: start.Format("3:04 PM"),
		HomeTeam:  home.Team.Name(),
		AwayTeam:  away.Team.Name(),
	}
	if comp.TimeValid != nil && !*comp.TimeValid {
		game.StartTime = models.StartTimeTBD
	}
	return game, true
}

// ScheduledGames lists the matchups of a scoreboard with canonical team
// names, ignoring odds.
func ScheduledGames(sb *Scoreboard, loc *time.Location) []models.ScheduledGame {
	if loc == nil {
		loc = time.UTC
	}
	var out []models.ScheduledGame
	for _, event := range sb.Events {
		for _, comp := range event.Competitions {
			game, ok := matchup(event, comp, loc)
			if !ok {
				continue
			}
			game.HomeTeam = models.CanonicalTeamName(game.HomeTeam)
			game.AwayTeam = models.CanonicalTeamName(game.AwayTeam)
			out = append(out, game)
		}
	}
	return out
}

// pickOdds returns the configured provider's entry, or the first one.
func (s *Source) pickOdds(entries []OddsEntry) (OddsEntry, bool) {
	if len(entries) == 0 {
		return OddsEntry{}, false
	}
	if s.provider != "" {
		for _, e := range entries {
			if strings.EqualFold(e.Provider.Name, s.provider) {
				return e, true
			}
		}
	}
	return entries[0], true
}

func toOdds(e OddsEntry) models.Odds {
	o := models.Odds{
		HomeMoneyline:  americanOdds(e.HomeTeamOdds.MoneyLine),
		AwayMoneyline:  americanOdds(e.AwayTeamOdds.MoneyLine),
		HomeSpreadOdds: americanOdds(e.HomeTeamOdds.SpreadOdds),
		AwaySpreadOdds: americanOdds(e.AwayTeamOdds.SpreadOdds),
		OverOdds:       americanOdds(e.OverOdds),
		UnderOdds:      americanOdds(e.UnderOdds),
	}
	if e.Spread != nil {
		o.HomeSpread = decimal.NewNullDecimal(decimal.NewFromFloat(*e.Spread))
	}
	if e.OverUnder != nil && *e.OverUnder > 0 {
		o.OverUnder = decimal.NewNullDecimal(decimal.NewFromFloat(*e.OverUnder))
	}
	return o
}

// americanOdds rounds a JSON number to American odds; zero means unpriced.
func americanOdds(v *float64) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return models.IntPtr(int(math.Round(*v)))
}
