package notificator

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

// TelegramNotificator posts campaign events to a fixed admin chat.
type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot
	chatID string
}

func NewTelegramNotificator(logger *logger.Logger, token, chatID string) (*TelegramNotificator, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotificator{
		logger: logger,
		bot:    b,
		chatID: chatID,
	}, nil
}

// NotifyDonationCompleted announces a completed donation in the admin chat.
func (t *TelegramNotificator) NotifyDonationCompleted(displayName, formattedAmount string) {
	text := fmt.Sprintf("New donation: %s from %s", formattedAmount, displayName)
	t.send(text)
}

func (t *TelegramNotificator) send(message string) {
	params := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   message,
	}
	_, err := t.bot.SendMessage(context.Background(), params)
	if err != nil {
		t.logger.Error("Failed to send telegram notification: ", err)
	}
}
