package notificator

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

const confirmationSubject = "Thank You for Supporting Dr. José Gomes"

type EmailNotificator struct {
	logger *logger.Logger

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string
	SMTPReplyTo  string

	SMTPAuth smtp.Auth
}

func NewEmailNotificator(logger *logger.Logger, SMTPHost string, SMTPPort int, SMTPUser, SMTPPassword, SMTPSender, SMTPReplyTo string) *EmailNotificator {
	auth := smtp.PlainAuth(
		"",
		SMTPUser,
		SMTPPassword,
		SMTPHost,
	)

	return &EmailNotificator{
		logger:       logger,
		SMTPAuth:     auth,
		SMTPHost:     SMTPHost,
		SMTPPort:     SMTPPort,
		SMTPUser:     SMTPUser,
		SMTPPassword: SMTPPassword,
		SMTPSender:   SMTPSender,
		SMTPReplyTo:  SMTPReplyTo,
	}
}

// SendDonationConfirmation sends the donor a thank-you email carrying the
// formatted amount and, when present, their own message.
func (e *EmailNotificator) SendDonationConfirmation(to, displayName, formattedAmount, message string) error {
	body := confirmationBody(displayName, formattedAmount, message)
	msg := fmt.Sprintf(
		"From: %s\r\nReply-To: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		e.SMTPSender,
		e.SMTPReplyTo,
		to,
		confirmationSubject,
		body,
	)

	addr := fmt.Sprintf("%s:%d", e.SMTPHost, e.SMTPPort)
	if err := smtp.SendMail(addr, e.SMTPAuth, e.SMTPSender, []string{to}, []byte(msg)); err != nil {
		e.logger.Error("Failed to send confirmation email", "error", err, "to", to)
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	e.logger.Info("Confirmation email sent", "to", to)
	return nil
}

func confirmationBody(displayName, formattedAmount, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", displayName)
	b.WriteString("We are deeply grateful for your donation to support Dr. José Gomes during his recovery journey.\r\n\r\n")
	fmt.Fprintf(&b, "Your donation: %s\r\n\r\n", formattedAmount)
	if message != "" {
		fmt.Fprintf(&b, "Your message:\r\n%s\r\n\r\n", message)
	}
	b.WriteString("Your contribution will directly help with Dr. José's medical treatment and care.\r\n\r\n")
	b.WriteString("With heartfelt gratitude,\r\nThe Gomes Family\r\n")
	return b.String()
}
