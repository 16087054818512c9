package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Travis-Britz/duckdns"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramRetries = 2
	telegramTimeout = 10 * time.Second
)

// Telegram sends notifications to a single chat through a bot.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects to the Telegram Bot API with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithClient(token, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: telegramTimeout})
}

// NewTelegramWithClient is NewTelegram against a custom endpoint,
// a format string taking the token and method as tgbotapi.APIEndpoint does.
func NewTelegramWithClient(token string, chatID int64, endpoint string, client *http.Client) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("error connecting telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify implements duckdns.Notifier.
func (t *Telegram) Notify(ctx context.Context, n duckdns.Notification) error {
	msg := tgbotapi.NewMessage(t.chatID, n.Title+"\n"+n.Message)
	msg.DisableWebPagePreview = true

	var err error
	for attempt := 0; attempt <= telegramRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
		if _, err = t.bot.Send(msg); err == nil {
			return nil
		}
	}
	return fmt.Errorf("error sending telegram message: %w", err)
}
