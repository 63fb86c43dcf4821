// internal/model/event.go
package model

import "time"

// OpenEvent is an append-only record of a tracking-pixel hit. Multiple
// opens per queue item are expected and all of them are kept.
type OpenEvent struct {
	ID        int       `db:"open_id" json:"id"`
	QueueID   int       `db:"queue_id" json:"queue_id"`
	OpenedAt  time.Time `db:"opened_at" json:"opened_at"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
}

// ClickEvent is an append-only record of a tracked-link redirect.
type ClickEvent struct {
	ID          int       `db:"click_id" json:"id"`
	QueueID     int       `db:"queue_id" json:"queue_id"`
	CampaignID  int       `db:"campaign_id" json:"campaign_id"`
	ContactID   int       `db:"contact_id" json:"contact_id"`
	OriginalURL string    `db:"original_url" json:"original_url"`
	ClickedAt   time.Time `db:"clicked_at" json:"clicked_at"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	UserAgent   string    `db:"user_agent" json:"user_agent"`
}
