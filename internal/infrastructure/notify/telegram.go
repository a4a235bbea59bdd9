package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sigtrader/internal/application/port"
)

// TelegramNotifier sends operator alerts to a telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ port.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier validates the token against the Bot API and returns a
// notifier for the given chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify sends one message. The Bot API client has no context support, so
// only an already-cancelled context short-circuits.
func (n *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, message))
	return err
}
