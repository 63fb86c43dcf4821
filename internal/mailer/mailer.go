// internal/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
)

// Sender is the transport capability: one attempt, one message. The
// delivery processor records success or failure per queue item; it
// never retries inside a single attempt.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New selects the configured transport.
func New(cfg config.MailerConfig) (Sender, error) {
	switch cfg.Type {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "sendgrid":
		return NewSendGridSender(cfg), nil
	case "mock":
		return &MockSender{}, nil
	default:
		return nil, fmt.Errorf("unknown mailer type %q", cfg.Type)
	}
}

// MockSender simulates sending with 90% success. Dev/seeder use only.
type MockSender struct{}

func (m *MockSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if rand.Float64() < 0.9 {
		return nil
	}
	return fmt.Errorf("mock sending failed")
}
