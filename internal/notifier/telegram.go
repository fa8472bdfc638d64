package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	Bot    *bot.Bot
	ChatID string

	mu      sync.RWMutex
	handler CommandHandler
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// Extra options are passed through to the bot client.
func NewTelegramNotifier(botToken, chatID, proxyURL string, opts ...bot.Option) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	t := &TelegramNotifier{ChatID: chatID}

	base := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(30*time.Second, &http.Client{Timeout: 35 * time.Second, Transport: transport}),
		bot.WithDefaultHandler(t.onUpdate),
	}
	b, err := bot.New(botToken, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.Bot = b
	return t, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	_, err := t.Bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(ctx, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warnf("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
