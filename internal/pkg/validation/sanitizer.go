package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

var controlCharsRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// GamelineFromFields builds a normalized gameline from operator-supplied
// form or JSON fields. Unknown keys are ignored. Parse and validation
// failures wrap ErrInvalidGameline.
func GamelineFromFields(source string, fields map[string]string) (models.Gameline, error) {
	get := func(key string) string {
		return sanitizeString(fields[key])
	}

	g := models.Gameline{
		Source:    sanitizeSource(source),
		GameDay:   get("game_day"),
		StartTime: get("start_time"),
		HomeTeam:  sanitizeTeamName(fields["home_team"]),
		AwayTeam:  sanitizeTeamName(fields["away_team"]),
	}

	var err error
	odds := []struct {
		key string
		dst **int
	}{
		{"home_moneyline", &g.HomeMoneyline},
		{"away_moneyline", &g.AwayMoneyline},
		{"home_spread_odds", &g.HomeSpreadOdds},
		{"away_spread_odds", &g.AwaySpreadOdds},
		{"over_odds", &g.OverOdds},
		{"under_odds", &g.UnderOdds},
	}
	for _, f := range odds {
		if *f.dst, err = models.ParseAmericanOdds(get(f.key)); err != nil {
			return models.Gameline{}, fmt.Errorf("%w: %s: %v", ErrInvalidGameline, f.key, err)
		}
	}

	points := []struct {
		key   string
		dst   *decimal.NullDecimal
		parse func(string) (decimal.NullDecimal, error)
	}{
		{"home_spread", &g.HomeSpread, models.ParseSpread},
		{"away_spread", &g.AwaySpread, models.ParseSpread},
		{"over_under", &g.OverUnder, models.ParseTotal},
	}
	for _, f := range points {
		if *f.dst, err = f.parse(get(f.key)); err != nil {
			return models.Gameline{}, fmt.Errorf("%w: %s: %v", ErrInvalidGameline, f.key, err)
		}
	}

	g = models.Normalize(g)
	if err := ValidateGameline(g); err != nil {
		return models.Gameline{}, err
	}
	return g, nil
}

func sanitizeString(str string) string {
	sanitized := strings.TrimSpace(str)
	sanitized = controlCharsRegex.ReplaceAllString(sanitized, "")
	return truncateRunes(sanitized, 200)
}

func sanitizeTeamName(name string) string {
	sanitized := controlCharsRegex.ReplaceAllString(name, "")
	sanitized = strings.Join(strings.Fields(sanitized), " ")
	return truncateRunes(sanitized, 100)
}

// truncateRunes keeps at most n characters of s without splitting one.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// sanitizeSource lowercases a source name and turns spaces into underscores.
func sanitizeSource(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	return strings.Join(strings.Fields(s), "_")
}
