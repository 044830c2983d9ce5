package alert

import (
	"context"

	"go.uber.org/zap"

	"negarai/internal/pkg/telegram"
)

// Notifier pushes operational messages to the admin Telegram chat. It
// implements the billing Alerter interface for critical inconsistencies and
// also carries payment reports.
type Notifier struct {
	bot    *telegram.BotAPI
	chatID string
	logger *zap.Logger
}

// NewNotifier creates a notifier. A nil bot or empty chat ID yields a
// log-only notifier.
func NewNotifier(bot *telegram.BotAPI, chatID string, logger *zap.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, logger: logger}
}

// Alert delivers a critical message to the admin chat. Alerts must never
// fail the calling flow, so delivery errors are only logged.
func (n *Notifier) Alert(ctx context.Context, message string) {
	n.logger.Error("admin alert", zap.String("message", message))
	n.send("🚨 " + message)
}

// PaymentReport announces a confirmed recharge.
func (n *Notifier) PaymentReport(message string) {
	n.send("💵 " + message)
}

func (n *Notifier) send(text string) {
	if n.bot == nil || n.chatID == "" {
		return
	}
	if _, err := n.bot.SendMessage(n.chatID, text); err != nil {
		n.logger.Warn("failed to deliver admin notification", zap.Error(err))
	}
}
