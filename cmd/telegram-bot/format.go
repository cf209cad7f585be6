package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/api"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Telegram rejects messages over 4096 characters.
const maxMessageLen = 4000

func formatGamelines(resp api.GamelinesResponse, team string) []string {
	var lines []models.Gameline
	for _, source := range sortedSources(resp.Gamelines) {
		for _, g := range resp.Gamelines[source] {
			if team == "" || matchesTeam(g, team) {
				lines = append(lines, g)
			}
		}
	}
	if len(lines) == 0 {
		if team != "" {
			return []string{fmt.Sprintf("No gamelines for %s.", escapeMarkdown(team))}
		}
		return []string{"No gamelines available."}
	}

	header := fmt.Sprintf("*%d gamelines* (updated %s)\n\n", len(lines), resp.LastUpdated)
	entries := make([]string, 0, len(lines))
	for _, g := range lines {
		entries = append(entries, formatGameline(g))
	}
	return paginate(header, entries)
}

func formatGameline(g models.Gameline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s @ %s*\n", escapeMarkdown(g.AwayTeam), escapeMarkdown(g.HomeTeam))
	fmt.Fprintf(&b, "%s %s | %s\n", g.GameDay, g.StartTime, escapeMarkdown(g.Source))
	if g.HomeMoneyline != nil || g.AwayMoneyline != nil {
		fmt.Fprintf(&b, "ML: %s / %s\n", american(g.AwayMoneyline), american(g.HomeMoneyline))
	}
	if g.HomeSpread.Valid {
		fmt.Fprintf(&b, "Spread: %s %s (%s) / %s %s (%s)\n",
			escapeMarkdown(g.AwayTeam), signed(g.AwaySpread), american(g.AwaySpreadOdds),
			escapeMarkdown(g.HomeTeam), signed(g.HomeSpread), american(g.HomeSpreadOdds))
	}
	if g.OverUnder.Valid {
		fmt.Fprintf(&b, "Total: %s (o %s / u %s)\n", g.OverUnder.Decimal.String(), american(g.OverOdds), american(g.UnderOdds))
	}
	b.WriteString("\n")
	return b.String()
}

func formatTBD(events []models.Event, days int) []string {
	if len(events) == 0 {
		return []string{fmt.Sprintf("Every game in the next %d days has odds.", days)}
	}
	header := fmt.Sprintf("*%d games without odds* (next %d days)\n\n", len(events), days)
	entries := make([]string, 0, len(events))
	for _, e := range events {
		entries = append(entries, fmt.Sprintf("%s %s  %s @ %s\n",
			e.GameDay, e.StartTime, escapeMarkdown(e.AwayTeam), escapeMarkdown(e.HomeTeam)))
	}
	return paginate(header, entries)
}

// paginate packs entries into messages under the Telegram size limit,
// repeating header on each.
func paginate(header string, entries []string) []string {
	var out []string
	var b strings.Builder
	b.WriteString(header)
	for _, entry := range entries {
		if b.Len()+len(entry) > maxMessageLen && b.Len() > len(header) {
			out = append(out, b.String())
			b.Reset()
			b.WriteString(header)
		}
		b.WriteString(entry)
	}
	if b.Len() > len(header) {
		out = append(out, b.String())
	}
	return out
}

func matchesTeam(g models.Gameline, team string) bool {
	if models.SameTeam(g.HomeTeam, team) || models.SameTeam(g.AwayTeam, team) {
		return true
	}
	return strings.Contains(strings.ToLower(g.HomeTeam), team) || strings.Contains(strings.ToLower(g.AwayTeam), team)
}

func sortedSources(s models.Snapshot) []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func american(v *int) string {
	if v == nil {
		return "-"
	}
	if *v > 0 {
		return fmt.Sprintf("+%d", *v)
	}
	return fmt.Sprintf("%d", *v)
}

func signed(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	if d.Decimal.IsPositive() {
		return "+" + d.Decimal.String()
	}
	return d.Decimal.String()
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
