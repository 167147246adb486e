package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the citizen email channel settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailChannel struct {
	cfg SMTPConfig
}

// NewEmailChannel creates the citizen-facing SMTP channel. The recipient ref
// is the citizen's email address.
func NewEmailChannel(cfg SMTPConfig) Channel {
	return &emailChannel{cfg: cfg}
}

func (c *emailChannel) Send(ctx context.Context, recipientRef string, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipientRef)
	fmt.Fprintf(&msg, "Subject: %s\r\n", p.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(p.Body)
	msg.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, c.cfg.From, []string{recipientRef}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipientRef, err)
	}
	return nil
}
