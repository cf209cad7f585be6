package sources

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Field names shared by the scraping sources. The browser source maps each
// of them to a CSS selector; the table source maps them to column indices.
const (
	FieldGameDay        = "game_day"
	FieldStartTime      = "start_time"
	FieldAwayTeam       = "away_team"
	FieldHomeTeam       = "home_team"
	FieldAwayMoneyline  = "away_moneyline"
	FieldHomeMoneyline  = "home_moneyline"
	FieldAwaySpread     = "away_spread"
	FieldAwaySpreadOdds = "away_spread_odds"
	FieldHomeSpread     = "home_spread"
	FieldHomeSpreadOdds = "home_spread_odds"
	FieldOverUnder      = "over_under"
	FieldOverOdds       = "over_odds"
	FieldUnderOdds      = "under_odds"
)

// ErrBadRow marks a scraped row that cannot become a gameline.
var ErrBadRow = errors.New("bad row")

var gameDayLayouts = []string{
	models.GameDayLayout,
	"01/02/2006",
	"1/2/2006",
	"Mon, Jan 2, 2006",
	"Mon, Jan 2 2006",
	"Monday, January 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

const halfYear = 183 * 24 * time.Hour

// layouts without a year; the year is taken from now
var yearlessLayouts = []string{
	"Mon, Jan 2",
	"Monday, January 2",
	"Jan 2",
	"January 2",
	"1/2",
	"01/02",
}

// ParseGameDay reads the date cell of a scraped row. Dates without a year
// are placed within six months of now: a date further behind belongs to next
// year and a date further ahead to last year.
func ParseGameDay(s string, now time.Time) (string, error) {
	s = strings.Join(strings.Fields(s), " ")
	if strings.EqualFold(s, "today") {
		return now.Format(models.GameDayLayout), nil
	}
	if strings.EqualFold(s, "tomorrow") {
		return now.AddDate(0, 0, 1).Format(models.GameDayLayout), nil
	}
	for _, layout := range gameDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.GameDayLayout), nil
		}
	}
	for _, layout := range yearlessLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		switch {
		case now.Sub(d) > halfYear:
			d = d.AddDate(1, 0, 0)
		case d.Sub(now) > halfYear:
			d = d.AddDate(-1, 0, 0)
		}
		return d.Format(models.GameDayLayout), nil
	}
	return "", fmt.Errorf("%w: unrecognized date %q", ErrBadRow, s)
}

// CleanCell collapses whitespace and replaces typographic minus signs.
func CleanCell(s string) string {
	s = strings.NewReplacer("−", "-", "–", "-", " ", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseRow turns the named cells of one scraped row into a gameline. Rows
// without both teams or with an unreadable date fail with ErrBadRow.
// Unreadable odds cells are left empty.
func ParseRow(cells map[string]string, now time.Time) (models.Gameline, error) {
	get := func(key string) string { return CleanCell(cells[key]) }

	home, away := get(FieldHomeTeam), get(FieldAwayTeam)
	if home == "" || away == "" {
		return models.Gameline{}, fmt.Errorf("%w: missing team", ErrBadRow)
	}
	day, err := ParseGameDay(get(FieldGameDay), now)
	if err != nil {
		return models.Gameline{}, err
	}

	g := models.Gameline{
		GameDay:   day,
		StartTime: get(FieldStartTime),
		HomeTeam:  home,
		AwayTeam:  away,
	}

	for key, dst := range map[string]**int{
		FieldHomeMoneyline:  &g.HomeMoneyline,
		FieldAwayMoneyline:  &g.AwayMoneyline,
		FieldHomeSpreadOdds: &g.HomeSpreadOdds,
		FieldAwaySpreadOdds: &g.AwaySpreadOdds,
		FieldOverOdds:       &g.OverOdds,
		FieldUnderOdds:      &g.UnderOdds,
	} {
		v, err := models.ParseAmericanOdds(get(key))
		if err != nil {
			slog.Debug("ignoring unreadable odds cell", "field", key, "error", err)
			continue
		}
		*dst = v
	}

	for key, f := range map[string]struct {
		dst   *decimal.NullDecimal
		parse func(string) (decimal.NullDecimal, error)
	}{
		FieldHomeSpread: {&g.HomeSpread, models.ParseSpread},
		FieldAwaySpread: {&g.AwaySpread, models.ParseSpread},
		FieldOverUnder:  {&g.OverUnder, models.ParseTotal},
	} {
		v, err := f.parse(get(key))
		if err != nil {
			slog.Debug("ignoring unreadable line cell", "field", key, "error", err)
			continue
		}
		*f.dst = v
	}
	return g, nil
}
