package validation

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// ErrInvalidGameline is returned for gamelines that fail ValidateGameline.
var ErrInvalidGameline = errors.New("invalid gameline")

// minPopulatedRatio is the share of a batch that must carry odds, as num/den.
const (
	minPopulatedNum = 1
	minPopulatedDen = 2
)

var sourceNameRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

var halfPoint = decimal.NewFromFloat(0.5)

// IsValid judges whether a fetched batch is usable. An empty batch is never
// valid; otherwise at least half of the entries must have one headline market
// priced. A page that renders but has not priced its games yet fails here.
func IsValid(lines []models.Gameline) bool {
	if len(lines) == 0 {
		return false
	}
	populated := 0
	for _, g := range lines {
		if g.HasOdds() {
			populated++
		}
	}
	return populated*minPopulatedDen >= len(lines)*minPopulatedNum
}

// ValidateGameline checks a single gameline before it is written from a
// manual entry path. All failures wrap ErrInvalidGameline.
func ValidateGameline(g models.Gameline) error {
	if g.Source == "" {
		return invalid("source cannot be empty")
	}
	if !sourceNameRegex.MatchString(g.Source) {
		return invalid("invalid source name: %s", g.Source)
	}
	if _, err := time.Parse(models.GameDayLayout, g.GameDay); err != nil {
		return invalid("invalid game day %q", g.GameDay)
	}
	if g.HomeTeam == "" {
		return invalid("home team cannot be empty")
	}
	if g.AwayTeam == "" {
		return invalid("away team cannot be empty")
	}
	if g.HomeTeam == g.AwayTeam {
		return invalid("home and away team are the same: %s", g.HomeTeam)
	}

	for name, v := range map[string]*int{
		"home_moneyline":   g.HomeMoneyline,
		"away_moneyline":   g.AwayMoneyline,
		"home_spread_odds": g.HomeSpreadOdds,
		"away_spread_odds": g.AwaySpreadOdds,
		"over_odds":        g.OverOdds,
		"under_odds":       g.UnderOdds,
	} {
		if v != nil && !isAmericanOdds(*v) {
			return invalid("%s is not valid american odds: %d", name, *v)
		}
	}

	for name, v := range map[string]decimal.NullDecimal{
		"home_spread": g.HomeSpread,
		"away_spread": g.AwaySpread,
		"over_under":  g.OverUnder,
	} {
		if v.Valid && !isHalfPoint(v.Decimal) {
			return invalid("%s must be in 0.5 increments: %s", name, v.Decimal)
		}
	}
	if g.OverUnder.Valid && !g.OverUnder.Decimal.IsPositive() {
		return invalid("over_under must be positive: %s", g.OverUnder.Decimal)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGameline, fmt.Sprintf(format, args...))
}

// isAmericanOdds reports whether v can be American odds: |v| >= 100.
func isAmericanOdds(v int) bool {
	return v >= 100 || v <= -100
}

func isHalfPoint(d decimal.Decimal) bool {
	return d.Mod(halfPoint).IsZero()
}
