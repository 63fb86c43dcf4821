// internal/model/queue_item.go
package model

import "time"

// Queue item statuses. "sending" marks an item claimed by a delivery
// tick; it exists so overlapping ticks can never pick the same item
// twice. pending -> sending -> {sent | failed}, with a sending item
// returning to pending when a failed attempt is still retryable.
const (
	QueueStatusPending = "pending"
	QueueStatusSending = "sending"
	QueueStatusSent    = "sent"
	QueueStatusFailed  = "failed"
)

type QueueItem struct {
	ID         int       `db:"queue_id" json:"id"`
	CampaignID int       `db:"campaign_id" json:"campaign_id"`
	ContactID  int       `db:"contact_id" json:"contact_id"`
	Status     string    `db:"status" json:"status"`
	Attempts   int       `db:"attempts" json:"attempts"`
	AddedAt    time.Time `db:"added_at" json:"added_at"`

	// Contact snapshot joined at claim time. An in-flight item keeps
	// rendering against this snapshot even if the contact row mutates.
	Contact Contact `db:"-" json:"-"`
}
