// Package browser implements the headless browser source, the last resort
// for pages that only render their odds with JavaScript.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/httpclient"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

const TypeName = "browser"

const (
	defaultRowSelector   = "[data-game]"
	defaultReadySelector = defaultRowSelector
)

// chromeMu serializes all Chrome usage so only one instance runs at a time
var chromeMu sync.Mutex

var fields = []string{
	sources.FieldGameDay,
	sources.FieldStartTime,
	sources.FieldAwayTeam,
	sources.FieldHomeTeam,
	sources.FieldAwayMoneyline,
	sources.FieldHomeMoneyline,
	sources.FieldAwaySpread,
	sources.FieldAwaySpreadOdds,
	sources.FieldHomeSpread,
	sources.FieldHomeSpreadOdds,
	sources.FieldOverUnder,
	sources.FieldOverOdds,
	sources.FieldUnderOdds,
}

func init() {
	sources.Register(TypeName, New)
}

// renderFunc returns the outer HTML of the page once readySelector is visible.
type renderFunc func(ctx context.Context, url, readySelector string, opts renderOptions) (string, error)

type renderOptions struct {
	timeout   time.Duration
	userAgent string
	headless  bool
}

// Source renders a page in headless Chrome and extracts one game per row.
type Source struct {
	sources.Base
	url           string
	rowSelector   string
	readySelector string
	selectors     map[string]string
	opts          renderOptions
	render        renderFunc
	loc           *time.Location
	now           func() time.Time
}

func New(cfg config.SourceConfig, loc *time.Location) (sources.Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("browser source needs a url")
	}
	if loc == nil {
		loc = time.UTC
	}

	selectors := make(map[string]string, len(fields))
	for _, f := range fields {
		selectors[f] = fmt.Sprintf("[data-field=%q]", f)
	}
	for f, sel := range cfg.Selectors {
		selectors[strings.ToLower(f)] = sel
	}

	s := &Source{
		Base:          sources.NewBase(cfg, sources.KindScrape),
		url:           cfg.URL,
		rowSelector:   orDefault(cfg.RowSelector, defaultRowSelector),
		readySelector: orDefault(cfg.ReadySelector, orDefault(cfg.RowSelector, defaultReadySelector)),
		selectors:     selectors,
		opts: renderOptions{
			timeout:   cfg.Timeout,
			userAgent: orDefault(cfg.UserAgent, httpclient.DefaultUserAgent),
			headless:  cfg.Headless == nil || *cfg.Headless,
		},
		render: renderChrome,
		loc:    loc,
		now:    time.Now,
	}
	if s.opts.timeout <= 0 {
		s.opts.timeout = 30 * time.Second
	}
	return s, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *Source) FetchGamelines(ctx context.Context) ([]models.Gameline, error) {
	html, err := s.render(ctx, s.url, s.readySelector, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", s.Name(), err)
	}
	return s.Finish(s.parseRows(doc)), nil
}

func (s *Source) parseRows(doc *goquery.Document) []models.Gameline {
	now := s.now().In(s.loc)
	var out []models.Gameline

	doc.Find(s.rowSelector).Each(func(i int, row *goquery.Selection) {
		cells := make(map[string]string, len(s.selectors))
		for field, sel := range s.selectors {
			cells[field] = strings.TrimSpace(row.Find(sel).First().Text())
		}
		g, err := sources.ParseRow(cells, now)
		if err != nil {
			slog.Debug("browser: skipping row", "source", s.Name(), "row", i, "error", err)
			return
		}
		out = append(out, g)
	})
	return out
}

// renderChrome starts a fresh Chrome, waits for readySelector and returns the
// rendered document. The browser, the tab and the profile dir are released
// on every return path.
func renderChrome(ctx context.Context, url, readySelector string, opts renderOptions) (string, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	chromeDir, err := os.MkdirTemp("", "ncaaf_chrome_")
	if err != nil {
		return "", fmt.Errorf("create chrome temp dir: %w", err)
	}
	defer os.RemoveAll(chromeDir)

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(chromeDir),
		chromedp.UserAgent(opts.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
	}))
	defer cancelTab()

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return html, nil
}
