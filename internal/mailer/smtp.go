// internal/mailer/smtp.go
package mailer

import (
	"context"
	"fmt"

	"github.com/go-gomail/gomail"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
)

// SMTPSender is the default transport, delivering over plain SMTP.
type SMTPSender struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.MailerConfig) *SMTPSender {
	return &SMTPSender{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	// gomail has no context support, so the dial-and-send runs in a
	// goroutine and the ctx deadline bounds how long we wait for it.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}
