package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/httpclient"
)

const DefaultScoreboardURL = "https://site.api.espn.com/apis/site/v2/sports/football/college-football/scoreboard"

// fbsGroup selects the FBS division on the scoreboard.
const fbsGroup = "80"

// Client reads the ESPN college football scoreboard.
type Client struct {
	http    *httpclient.Client
	baseURL string
	groups  string
}

// NewClient creates a scoreboard client. Empty baseURL and groups get the
// public endpoint and FBS.
func NewClient(http *httpclient.Client, baseURL, groups string) *Client {
	if baseURL == "" {
		baseURL = DefaultScoreboardURL
	}
	if groups == "" {
		groups = fbsGroup
	}
	return &Client{http: http, baseURL: baseURL, groups: groups}
}

// Scoreboard fetches the scoreboard. A zero date fetches whatever ESPN
// considers the current week.
func (c *Client) Scoreboard(ctx context.Context, date time.Time) (*Scoreboard, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse scoreboard url: %w", err)
	}
	q := u.Query()
	q.Set("groups", c.groups)
	if !date.IsZero() {
		q.Set("dates", date.Format("20060102"))
	}
	u.RawQuery = q.Encode()

	body, err := c.http.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("espn scoreboard: %w", err)
	}

	var sb Scoreboard
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil, fmt.Errorf("decoding espn scoreboard: %w", err)
	}
	return &sb, nil
}
