// internal/tracking/publisher.go
package tracking

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

type EventType string

const (
	EventOpened       EventType = "opened"
	EventClicked      EventType = "clicked"
	EventUnsubscribed EventType = "unsubscribed"
	EventConfirmed    EventType = "confirmed"
)

// Event is the JSON message published for downstream consumers
// (analytics, webhooks) whenever a public tracking action succeeds.
type Event struct {
	Type       EventType `json:"type"`
	QueueID    int       `json:"queue_id,omitempty"`
	CampaignID int       `json:"campaign_id,omitempty"`
	ContactID  int       `json:"contact_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	LinkURL    string    `json:"link_url,omitempty"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher pushes tracking events onto a durable RabbitMQ queue.
// Publishing is best effort: a broker failure is logged and the HTTP
// response proceeds as usual. A nil *Publisher is valid and does
// nothing, for deployments without a broker.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		"tracking_events", // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, queue: q.Name}, nil
}

func (p *Publisher) Publish(evt Event) {
	if p == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		log.Println("⚠️ failed to marshal tracking event:", err)
		return
	}

	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Println("⚠️ failed to publish tracking event:", err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.ch.Close()
	p.conn.Close()
}
