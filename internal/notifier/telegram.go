package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMessenger delivers out-of-app pushes as bot direct messages.
type TelegramMessenger struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramMessenger(botToken string) (*TelegramMessenger, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	return &TelegramMessenger{bot: bot}, nil
}

func (t *TelegramMessenger) SendDirectMessage(_ context.Context, telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
