package notifier

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()

	t.Bot.Start(ctx)
	log.Info("telegram polling stopped")
}

func (t *TelegramNotifier) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()
	if handler == nil {
		return
	}

	if chatID := strconv.FormatInt(update.Message.Chat.ID, 10); chatID != t.ChatID {
		log.Warnf("ignoring message from unauthorised chat %s", chatID)
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	log.Infof("received command: %s", text)
	reply := handler(text)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, reply); err != nil {
		log.Errorf("send reply: %v", err)
	}
}
