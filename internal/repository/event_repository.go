package repository

import (
	"database/sql"

	"github.com/valmironeto-lab/Bluesendmail/internal/model"
)

type EventRepositoryInterface interface {
	InsertOpen(e *model.OpenEvent) error
	InsertClick(e *model.ClickEvent) error
	CountOpens(campaignID int) (int, error)
	CountClicks(campaignID int) (int, error)
}

// EventRepository appends to the open/click event logs. Rows are never
// deduplicated or deleted here; every hit is its own record.
type EventRepository struct {
	DB *sql.DB
}

func (r *EventRepository) InsertOpen(e *model.OpenEvent) error {
	query := `
        INSERT INTO bsm_email_opens (queue_id, ip_address, user_agent)
        VALUES ($1, $2, $3)
        RETURNING open_id, opened_at
    `
	return r.DB.QueryRow(query, e.QueueID, e.IPAddress, e.UserAgent).Scan(&e.ID, &e.OpenedAt)
}

func (r *EventRepository) InsertClick(e *model.ClickEvent) error {
	query := `
        INSERT INTO bsm_email_clicks (queue_id, campaign_id, contact_id, original_url, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING click_id, clicked_at
    `
	return r.DB.QueryRow(query, e.QueueID, e.CampaignID, e.ContactID, e.OriginalURL, e.IPAddress, e.UserAgent).Scan(&e.ID, &e.ClickedAt)
}

func (r *EventRepository) CountOpens(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`
        SELECT COUNT(o.open_id)
        FROM bsm_email_opens o
        INNER JOIN bsm_queue q ON q.queue_id = o.queue_id
        WHERE q.campaign_id = $1
    `, campaignID).Scan(&count)
	return count, err
}

func (r *EventRepository) CountClicks(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(click_id) FROM bsm_email_clicks WHERE campaign_id=$1`, campaignID).Scan(&count)
	return count, err
}

var _ EventRepositoryInterface = (*EventRepository)(nil)
