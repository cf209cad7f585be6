// telegram-bot answers chat commands with gamelines and unpriced games from
// the ncaaf server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultServerURL = "http://localhost:8080"

type BotConfig struct {
	Token          string
	ServerURL      string
	UpdateTimeout  int
	AllowedUserIDs []int64 // empty means anyone
}

func main() {
	var token, serverURL, allowedUsers string

	flag.StringVar(&token, "token", "", "Telegram bot token (required, or set TELEGRAM_BOT_TOKEN env var)")
	flag.StringVar(&serverURL, "server-url", defaultServerURL, "ncaaf server URL (or NCAAF_SERVER_URL env var)")
	flag.StringVar(&allowedUsers, "allowed-users", "", "Comma-separated list of allowed user IDs (optional)")
	flag.Parse()

	if token == "" {
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if token == "" {
		log.Fatal("Telegram bot token is required. Set -token flag or TELEGRAM_BOT_TOKEN env var")
	}
	if serverURL == defaultServerURL {
		if envURL := os.Getenv("NCAAF_SERVER_URL"); envURL != "" {
			serverURL = envURL
		}
	}

	config := BotConfig{
		Token:          token,
		ServerURL:      serverURL,
		UpdateTimeout:  60,
		AllowedUserIDs: parseUserIDs(allowedUsers),
	}

	bot, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	log.Printf("Authorized on account %s, server %s", bot.Self.UserName, config.ServerURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = config.UpdateTimeout
	updates := bot.GetUpdatesChan(u)

	api := newServerClient(config.ServerURL)
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			log.Println("Telegram bot stopped")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			if !allowed(config.AllowedUserIDs, update.Message.From) {
				send(bot, tgbotapi.NewMessage(update.Message.Chat.ID, "Access denied. You are not authorized to use this bot."))
				continue
			}
			for _, text := range handleMessage(ctx, api, update.Message.Text) {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
				msg.ParseMode = tgbotapi.ModeMarkdown
				send(bot, msg)
			}
		}
	}
}

func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(s, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func allowed(ids []int64, from *tgbotapi.User) bool {
	if len(ids) == 0 {
		return true
	}
	if from == nil {
		return false
	}
	for _, id := range ids {
		if from.ID == id {
			return true
		}
	}
	return false
}

func send(bot *tgbotapi.BotAPI, msg tgbotapi.MessageConfig) {
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}
