// Package htmltable implements the HTML table source: one GET, then one
// game per table row.
package htmltable

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/httpclient"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

const TypeName = "html_table"

const defaultRowSelector = "table tbody tr"

// layout is the column layout of the odds table. When the upstream markup
// changes this is the only place to edit.
var layout = struct {
	columns int
	fields  map[string]int
}{
	columns: 13,
	fields: map[string]int{
		sources.FieldGameDay:        0,
		sources.FieldStartTime:      1,
		sources.FieldAwayTeam:       2,
		sources.FieldHomeTeam:       3,
		sources.FieldAwayMoneyline:  4,
		sources.FieldHomeMoneyline:  5,
		sources.FieldAwaySpread:     6,
		sources.FieldAwaySpreadOdds: 7,
		sources.FieldHomeSpread:     8,
		sources.FieldHomeSpreadOdds: 9,
		sources.FieldOverUnder:      10,
		sources.FieldOverOdds:       11,
		sources.FieldUnderOdds:      12,
	},
}

func init() {
	sources.Register(TypeName, New)
}

// Source scrapes one HTML odds table.
type Source struct {
	sources.Base
	client      *httpclient.Client
	url         string
	rowSelector string
	loc         *time.Location
	now         func() time.Time
}

func New(cfg config.SourceConfig, loc *time.Location) (sources.Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("html_table source needs a url")
	}
	rowSelector := cfg.RowSelector
	if rowSelector == "" {
		rowSelector = defaultRowSelector
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Source{
		Base: sources.NewBase(cfg, sources.KindScrape),
		client: httpclient.New(httpclient.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			MinDelay:  cfg.MinDelay,
		}),
		url:         cfg.URL,
		rowSelector: rowSelector,
		loc:         loc,
		now:         time.Now,
	}, nil
}

func (s *Source) FetchGamelines(ctx context.Context) ([]models.Gameline, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", s.Name(), err)
	}
	return s.Finish(s.parseRows(doc)), nil
}

func (s *Source) parseRows(doc *goquery.Document) []models.Gameline {
	now := s.now().In(s.loc)
	var out []models.Gameline
	skipped := 0

	doc.Find(s.rowSelector).Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) != layout.columns {
			skipped++
			slog.Debug("html_table: skipping row with unexpected cell count",
				"source", s.Name(), "row", i, "cells", len(cells), "want", layout.columns)
			return
		}

		named := make(map[string]string, len(layout.fields))
		for field, idx := range layout.fields {
			named[field] = cells[idx]
		}
		g, err := sources.ParseRow(named, now)
		if err != nil {
			skipped++
			slog.Debug("html_table: skipping row", "source", s.Name(), "row", i, "error", err)
			return
		}
		out = append(out, g)
	})

	if skipped > 0 {
		slog.Info("html_table: rows skipped", "source", s.Name(), "skipped", skipped, "parsed", len(out))
	}
	return out
}
