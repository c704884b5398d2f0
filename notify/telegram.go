package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"olx-monitor/models"
)

// TelegramNotifier sends one HTML message per batch to a chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot token against the Telegram API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return NewTelegramNotifierWithBot(bot, chatID), nil
}

// NewTelegramNotifierWithBot wraps an already configured bot.
func NewTelegramNotifierWithBot(bot *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func telegramLine(it models.NotifyItem) string {
	return fmt.Sprintf("• <a href=\"%s\">%s</a>", html.EscapeString(it.URL), html.EscapeString(it.Title))
}

// TelegramText formats the HTML message body.
func TelegramText(items []models.NotifyItem) string {
	return "<b>" + Summary(len(items)) + "</b>\n" + strings.Join(Lines(items, telegramLine), "\n")
}

func (t *TelegramNotifier) Notify(ctx context.Context, items []models.NotifyItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, TelegramText(items))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
