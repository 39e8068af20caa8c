package mail

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xavierca1/leadflow/internal/infra/queue"
)

// TelegramAPI is the part of the bot client the sender uses.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts Won announcements to the sales chat.
type TelegramSender struct {
	bot    TelegramAPI
	chatID int64
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func NewTelegramSenderWithAPI(bot TelegramAPI, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func WonMessage(event queue.StageCommittedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Lead #%d moved to %s", event.LeadID, event.StageName)
	if event.Amount != nil {
		fmt.Fprintf(&b, "\nAmount: %s", formatOptional(event.Amount))
	}
	if event.Remark != "" {
		fmt.Fprintf(&b, "\n%s", event.Remark)
	}
	return b.String()
}

func (s *TelegramSender) NotifyWon(_ context.Context, event queue.StageCommittedEvent) error {
	msg := tgbotapi.NewMessage(s.chatID, WonMessage(event))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
