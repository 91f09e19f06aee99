package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// sender is the part of *tgbotapi.BotAPI the channel uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram forwards notifications to users who linked a Telegram chat.
type Telegram struct {
	bot   sender
	users repo.UserRepo
}

// NewTelegram authenticates against the Bot API with token.
func NewTelegram(token string, users repo.UserRepo) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{bot: bot, users: users}, nil
}

// Deliver sends the title and message to the recipient's chat. Users without
// a linked chat are skipped.
func (t *Telegram) Deliver(ctx context.Context, n domain.Notification) error {
	u, err := t.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("notify.Telegram.Deliver: %w", err)
	}
	if u.TelegramChatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(u.TelegramChatID, n.Title+"\n\n"+n.Message)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("notify.Telegram.Deliver: %w", err)
	}
	return nil
}
