// internal/model/campaign.go
package model

import "time"

// Campaign statuses. Transitions only ever move forward:
// draft/scheduled -> queued -> sent.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusQueued    = "queued"
	CampaignStatusSent      = "sent"
)

type Campaign struct {
	ID           int        `db:"campaign_id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Subject      string     `db:"subject" json:"subject"`
	Preheader    string     `db:"preheader" json:"preheader"`
	Content      string     `db:"content" json:"content"`
	Status       string     `db:"status" json:"status"`
	ListIDs      []int      `db:"-" json:"list_ids"`
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// SubjectOrTitle returns the subject line, falling back to the campaign
// title when no explicit subject was set.
func (c *Campaign) SubjectOrTitle() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Title
}
