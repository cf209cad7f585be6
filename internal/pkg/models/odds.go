package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// placeholders are the strings upstream pages render for an unpriced market.
var placeholders = map[string]bool{
	"":    true,
	"-":   true,
	"--":  true,
	"—":   true,
	"N/A": true,
	"NA":  true,
	"TBD": true,
	"OFF": true,
	"NL":  true,
}

func isPlaceholder(s string) bool {
	return placeholders[strings.ToUpper(strings.TrimSpace(s))]
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// ParseAmericanOdds parses American odds such as "+150", "-110" or "EVEN".
// Placeholders and zero yield (nil, nil).
func ParseAmericanOdds(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return nil, nil
	}
	switch strings.ToUpper(s) {
	case "EVEN", "EV", "EVN":
		return IntPtr(100), nil
	}
	v, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return nil, fmt.Errorf("parse american odds %q: %w", s, err)
	}
	if v == 0 {
		return nil, nil
	}
	return &v, nil
}

// ParseSpread parses a point spread such as "-3.5", "+7", "-3½" or "PK".
// Placeholders yield an invalid NullDecimal and no error.
func ParseSpread(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return decimal.NullDecimal{}, nil
	}
	switch strings.ToUpper(s) {
	case "PK", "PICK", "PICK'EM", "EVEN":
		return decimal.NewNullDecimal(decimal.Zero), nil
	}
	return parseDecimal(s)
}

// ParseTotal parses a game total such as "52.5", "o52.5", "Over 52.5" or
// "O/U 52". Whole words are matched before single-letter prefixes.
func ParseTotal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return decimal.NullDecimal{}, nil
	}
	upper := strings.ToUpper(s)
	for _, prefix := range []string{"O/U", "OVER", "UNDER", "OU", "O", "U"} {
		if strings.HasPrefix(upper, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if isPlaceholder(s) {
		return decimal.NullDecimal{}, nil
	}
	return parseDecimal(s)
}

func parseDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.ReplaceAll(s, "½", ".5")
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// FavoriteSpreads returns the (home, away) spreads for a raw home-perspective
// spread. When both moneylines are known and differ, the team with the smaller
// moneyline is the favorite and gets the negative sign. Otherwise the raw
// value is kept.
func FavoriteSpreads(rawHome decimal.Decimal, homeML, awayML *int) (decimal.Decimal, decimal.Decimal) {
	if homeML != nil && awayML != nil && *homeML != *awayML {
		mag := rawHome.Abs()
		if *homeML < *awayML {
			return mag.Neg(), mag
		}
		return mag, mag.Neg()
	}
	return rawHome, rawHome.Neg()
}

// NormalizeSpreads enforces the additive-inverse and favorite-sign rules. The
// home spread is taken as the raw value; the away spread is used only when the
// home side is missing.
func NormalizeSpreads(o Odds) Odds {
	var raw decimal.Decimal
	switch {
	case o.HomeSpread.Valid:
		raw = o.HomeSpread.Decimal
	case o.AwaySpread.Valid:
		raw = o.AwaySpread.Decimal.Neg()
	default:
		return o
	}
	home, away := FavoriteSpreads(raw, o.HomeMoneyline, o.AwayMoneyline)
	o.HomeSpread = decimal.NewNullDecimal(home)
	o.AwaySpread = decimal.NewNullDecimal(away)
	return o
}
