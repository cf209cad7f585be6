package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/api"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// gamelineAPI is the part of the server the bot talks to.
type gamelineAPI interface {
	Gamelines(ctx context.Context) (api.GamelinesResponse, error)
	TBDEvents(ctx context.Context, days int) ([]models.Event, error)
	Refresh(ctx context.Context) (api.GamelinesResponse, error)
}

type serverClient struct {
	baseURL string
	client  *http.Client
}

func newServerClient(baseURL string) *serverClient {
	return &serverClient{baseURL: baseURL, client: &http.Client{Timeout: 2 * time.Minute}}
}

func (c *serverClient) Gamelines(ctx context.Context) (api.GamelinesResponse, error) {
	var out api.GamelinesResponse
	err := c.do(ctx, http.MethodGet, "/ncaaf/gamelines", nil, &out)
	return out, err
}

func (c *serverClient) TBDEvents(ctx context.Context, days int) ([]models.Event, error) {
	var out struct {
		Events []models.Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, "/ncaaf/events/tbd", url.Values{"days": {strconv.Itoa(days)}}, &out)
	return out.Events, err
}

func (c *serverClient) Refresh(ctx context.Context) (api.GamelinesResponse, error) {
	var out api.GamelinesResponse
	err := c.do(ctx, http.MethodPost, "/ncaaf/refresh", nil, &out)
	return out, err
}

func (c *serverClient) do(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil && errorResp["error"] != "" {
			return fmt.Errorf("server: %s", errorResp["error"])
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
