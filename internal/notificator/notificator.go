package notificator

import (
	"runtime/debug"

	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

// Notificator fans donation notifications out to the configured channels:
// confirmation email to the donor, Telegram notice to the admin chat.
type Notificator struct {
	logger *logger.Logger

	EmailNotificator    *EmailNotificator
	TelegramNotificator *TelegramNotificator
}

// NewNotificator builds the fan-out. telegramNotificator may be nil when no
// bot token is configured.
func NewNotificator(logger *logger.Logger, emailNotificator *EmailNotificator, telegramNotificator *TelegramNotificator) *Notificator {
	return &Notificator{
		logger:              logger,
		EmailNotificator:    emailNotificator,
		TelegramNotificator: telegramNotificator,
	}
}

// safeCall runs a function with panic recovery
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// SendDonationConfirmation sends the thank-you email to the donor. The
// error is returned to the caller; the donation status transition that
// preceded it stays committed regardless.
func (n *Notificator) SendDonationConfirmation(email, displayName, formattedAmount, message string) error {
	return n.EmailNotificator.SendDonationConfirmation(email, displayName, formattedAmount, message)
}

// NotifyAdmins posts a completed-donation notice to the admin Telegram
// chat. Best-effort: failures are logged, never surfaced.
func (n *Notificator) NotifyAdmins(displayName, formattedAmount string) {
	if n.TelegramNotificator == nil {
		return
	}
	n.safeCall(func() {
		n.TelegramNotificator.NotifyDonationCompleted(displayName, formattedAmount)
	}, "telegramAdminNotification")
}
