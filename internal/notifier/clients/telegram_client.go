package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

// TelegramClient доставляет алерты оператору в заданный чат.
type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

func NewTelegramClient(token string, chatID int64, logger *slog.Logger) *TelegramClient {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Ошибка при создании Telegram клиента", "error", err)
	}

	return &TelegramClient{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}
}

// SetBaseURL устанавливает базовый URL для API Telegram (используется в тестах).
func (c *TelegramClient) SetBaseURL(url string) {
	if c.bot != nil {
		c.bot.SetAPIEndpoint(url)
	}
}

func (c *TelegramClient) SendAlert(_ context.Context, alert *models.Alert) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	msg := tgbotapi.NewMessage(c.chatID, formatAlert(alert))
	msg.ParseMode = tgbotapi.ModeHTML

	_, err := c.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("ошибка при отправке алерта: %w", err)
	}

	return nil
}

func formatAlert(alert *models.Alert) string {
	var b strings.Builder

	switch alert.Severity {
	case models.SeverityCritical:
		b.WriteString("🔴 <b>Критический алерт</b>\n\n")
	case models.SeverityWarning:
		b.WriteString("🟡 <b>Предупреждение</b>\n\n")
	default:
		b.WriteString("🔔 <b>Алерт</b>\n\n")
	}

	b.WriteString(fmt.Sprintf("📄 Тип: %s\n", alert.Type))
	b.WriteString(fmt.Sprintf("🔗 Источник: %s\n", alert.SourceURL))
	b.WriteString(fmt.Sprintf("⏱️ Время: %s\n\n", alert.Timestamp.Format("2006-01-02 15:04:05")))
	b.WriteString(alert.Message)

	return b.String()
}
