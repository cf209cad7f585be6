package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmericanOdds(t *testing.T) {
	tests := []struct {
		input   string
		want    *int
		wantErr bool
	}{
		{"+150", IntPtr(150), false},
		{"-110", IntPtr(-110), false},
		{"150", IntPtr(150), false},
		{" -2500 ", IntPtr(-2500), false},
		{"EVEN", IntPtr(100), false},
		{"ev", IntPtr(100), false},
		{"N/A", nil, false},
		{"", nil, false},
		{"-", nil, false},
		{"OFF", nil, false},
		{"0", nil, false},
		{"abc", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseAmericanOdds(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAmericanOdds(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		switch {
		case got == nil && tt.want == nil:
		case got == nil || tt.want == nil:
			t.Errorf("ParseAmericanOdds(%q) = %v, want %v", tt.input, got, tt.want)
		case *got != *tt.want:
			t.Errorf("ParseAmericanOdds(%q) = %d, want %d", tt.input, *got, *tt.want)
		}
	}
}

func TestParseSpreadAndTotal(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (decimal.NullDecimal, error)
		input string
		want  string // empty means absent
	}{
		{"spread negative", ParseSpread, "-3.5", "-3.5"},
		{"spread positive", ParseSpread, "+7", "7"},
		{"spread half symbol", ParseSpread, "-3½", "-3.5"},
		{"spread pick", ParseSpread, "PK", "0"},
		{"spread pick lower", ParseSpread, "pk", "0"},
		{"spread placeholder", ParseSpread, "N/A", ""},
		{"total plain", ParseTotal, "52.5", "52.5"},
		{"total over", ParseTotal, "o52.5", "52.5"},
		{"total under", ParseTotal, "u52.5", "52.5"},
		{"total label", ParseTotal, "O/U 48", "48"},
		{"total over word", ParseTotal, "Over 52.5", "52.5"},
		{"total under word", ParseTotal, "UNDER 44½", "44.5"},
		{"total off", ParseTotal, "OFF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.input)
			if err != nil {
				t.Fatalf("parse(%q) error = %v", tt.input, err)
			}
			if tt.want == "" {
				if got.Valid {
					t.Errorf("parse(%q) = %s, want absent", tt.input, got.Decimal)
				}
				return
			}
			if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("parse(%q) = %v, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSpreads_FavoriteSign(t *testing.T) {
	tests := []struct {
		name     string
		odds     Odds
		wantHome string
		wantAway string
	}{
		{
			name:     "home favorite with wrong raw sign",
			odds:     Odds{HomeMoneyline: IntPtr(-250), AwayMoneyline: IntPtr(200), HomeSpread: decimal.NewNullDecimal(decimal.RequireFromString("6.5"))},
			wantHome: "-6.5",
			wantAway: "6.5",
		},
		{
			name:     "away favorite",
			odds:     Odds{HomeMoneyline: IntPtr(180), AwayMoneyline: IntPtr(-220), HomeSpread: decimal.NewNullDecimal(decimal.RequireFromString("-5"))},
			wantHome: "5",
			wantAway: "-5",
		},
		{
			name:     "only away spread, no moneylines",
			odds:     Odds{AwaySpread: decimal.NewNullDecimal(decimal.RequireFromString("-3"))},
			wantHome: "3",
			wantAway: "-3",
		},
		{
			name:     "equal moneylines keep raw sign",
			odds:     Odds{HomeMoneyline: IntPtr(-110), AwayMoneyline: IntPtr(-110), HomeSpread: decimal.NewNullDecimal(decimal.RequireFromString("1.5"))},
			wantHome: "1.5",
			wantAway: "-1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSpreads(tt.odds)
			if !got.HomeSpread.Decimal.Equal(decimal.RequireFromString(tt.wantHome)) {
				t.Errorf("home spread = %s, want %s", got.HomeSpread.Decimal, tt.wantHome)
			}
			if !got.AwaySpread.Decimal.Equal(decimal.RequireFromString(tt.wantAway)) {
				t.Errorf("away spread = %s, want %s", got.AwaySpread.Decimal, tt.wantAway)
			}
			if !got.HomeSpread.Decimal.Add(got.AwaySpread.Decimal).IsZero() {
				t.Errorf("spreads are not additive inverses: %s / %s", got.HomeSpread.Decimal, got.AwaySpread.Decimal)
			}
		})
	}
}

func TestNormalizeSpreads_NoSpread(t *testing.T) {
	got := NormalizeSpreads(Odds{HomeMoneyline: IntPtr(-150)})
	if got.HomeSpread.Valid || got.AwaySpread.Valid {
		t.Errorf("expected spreads to stay absent, got %+v", got)
	}
}
