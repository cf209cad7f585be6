package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultDays = 7
	maxDays     = 30
)

// handleMessage returns the replies for one chat message. Commands may be
// sent with or without the leading slash.
func handleMessage(ctx context.Context, api gamelineAPI, text string) []string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(parts) == 0 {
		return nil
	}
	command := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	switch command {
	case "start", "help":
		return []string{helpText}
	case "lines":
		resp, err := api.Gamelines(ctx)
		if err != nil {
			return []string{errorText(err)}
		}
		return formatGamelines(resp, strings.Join(args, " "))
	case "tbd":
		days := defaultDays
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= maxDays {
				days = n
			}
		}
		events, err := api.TBDEvents(ctx, days)
		if err != nil {
			return []string{errorText(err)}
		}
		return formatTBD(events, days)
	case "refresh":
		resp, err := api.Refresh(ctx)
		if err != nil {
			return []string{errorText(err)}
		}
		return []string{fmt.Sprintf("Refreshed: %d games, updated %s", resp.GameCount, resp.LastUpdated)}
	default:
		return []string{"Unknown command. Use /help to see available commands."}
	}
}

func errorText(err error) string {
	return "Error: " + escapeMarkdown(err.Error())
}

const helpText = `*NCAAF Gamelines Bot*

/lines [team] - Current gamelines, optionally only games of one team
  Example: /lines ole miss

/tbd [days] - Scheduled games with no odds yet (1-30 days, default 7)
  Example: /tbd 3

/refresh - Run a fresh acquisition cycle

/help - Show this help message`
