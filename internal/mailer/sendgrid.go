// internal/mailer/sendgrid.go
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
)

const sendGridBaseURL = "https://api.sendgrid.com/v3"

// SendGridSender delivers through the SendGrid v3 Mail Send API.
// The API acknowledges accepted mail with HTTP 202; anything else is a
// failed attempt.
type SendGridSender struct {
	apiKey    string
	baseURL   string
	fromName  string
	fromEmail string
	client    *http.Client
}

func NewSendGridSender(cfg config.MailerConfig) *SendGridSender {
	return &SendGridSender{
		apiKey:    cfg.SendGridAPIKey,
		baseURL:   sendGridBaseURL,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		client:    &http.Client{Timeout: cfg.SendTimeout},
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.apiKey == "" {
		return fmt.Errorf("SendGrid API key not configured")
	}

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": s.fromEmail, "name": s.fromName},
		"subject": subject,
		"content": []map[string]string{{"type": "text/html", "value": htmlBody}},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/mail/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SendGrid error %d: %s", resp.StatusCode, string(body))
	}

	messageID := resp.Header.Get("X-Message-Id")
	if messageID == "" {
		messageID = uuid.New().String()
	}
	log.Printf("[SendGrid] sent to %s (id: %s)", to, messageID)
	return nil
}
