package repository

import (
	"database/sql"

	"github.com/lib/pq"

	appErrors "github.com/valmironeto-lab/Bluesendmail/internal/errors"
	"github.com/valmironeto-lab/Bluesendmail/internal/model"
)

type QueueRepositoryInterface interface {
	Enqueue(campaignID, contactID int) (bool, error)
	ClaimBatch(limit int) ([]*model.QueueItem, error)
	MarkSent(queueID int) error
	MarkFailed(queueID int) error
	MarkFailedAttempt(queueID, maxAttempts int) (string, error)
	GetByID(queueID int) (*model.QueueItem, error)
	UnfinishedCount(campaignID int) (int, error)
	StatsByCampaign(campaignID int) (map[string]int, error)
}

type QueueRepository struct {
	DB *sql.DB
}

// Enqueue inserts one pending item per (campaign, contact) pair. The
// unique key absorbs re-runs: a duplicate is silently skipped and
// reported as not-inserted, never as an error.
func (r *QueueRepository) Enqueue(campaignID, contactID int) (bool, error) {
	res, err := r.DB.Exec(`
        INSERT INTO bsm_queue (campaign_id, contact_id, status, attempts)
        VALUES ($1, $2, 'pending', 0)
        ON CONFLICT (campaign_id, contact_id) DO NOTHING
    `, campaignID, contactID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimBatch atomically flips up to limit of the oldest pending items
// to sending and returns them. SKIP LOCKED means overlapping ticks
// divide the queue between them instead of double-claiming.
func (r *QueueRepository) ClaimBatch(limit int) ([]*model.QueueItem, error) {
	rows, err := r.DB.Query(`
        UPDATE bsm_queue q
        SET status = 'sending'
        FROM (
            SELECT queue_id FROM bsm_queue
            WHERE status = 'pending'
            ORDER BY added_at ASC
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        ) picked
        WHERE q.queue_id = picked.queue_id
        RETURNING q.queue_id, q.campaign_id, q.contact_id, q.status, q.attempts, q.added_at
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.QueueItem{}
	for rows.Next() {
		item := &model.QueueItem{}
		if err := rows.Scan(&item.ID, &item.CampaignID, &item.ContactID, &item.Status, &item.Attempts, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	return items, r.attachContacts(items)
}

// attachContacts snapshots the contact rows at claim time. In-flight
// items keep rendering against the snapshot even if a contact mutates
// mid-batch.
func (r *QueueRepository) attachContacts(items []*model.QueueItem) error {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ContactID)
	}

	rows, err := r.DB.Query(`
        SELECT contact_id, email, first_name, last_name, company, job_title, status, created_at
        FROM bsm_contacts
        WHERE contact_id = ANY($1)
    `, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := map[int]model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.JobTitle, &c.Status, &c.CreatedAt); err != nil {
			return err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, item := range items {
		item.Contact = byID[item.ContactID]
	}
	return nil
}

func (r *QueueRepository) MarkSent(queueID int) error {
	_, err := r.DB.Exec(`UPDATE bsm_queue SET status='sent' WHERE queue_id=$1`, queueID)
	return err
}

// MarkFailed fails an item terminally, regardless of attempts. Used
// when the parent campaign is gone and a retry can never succeed.
func (r *QueueRepository) MarkFailed(queueID int) error {
	_, err := r.DB.Exec(`UPDATE bsm_queue SET status='failed' WHERE queue_id=$1`, queueID)
	return err
}

// MarkFailedAttempt bumps the attempt counter and either returns the
// item to pending for a later tick or fails it terminally at the cap.
// The new status comes back so the caller can log the outcome.
func (r *QueueRepository) MarkFailedAttempt(queueID, maxAttempts int) (string, error) {
	var status string
	err := r.DB.QueryRow(`
        UPDATE bsm_queue
        SET attempts = attempts + 1,
            status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
        WHERE queue_id = $1
        RETURNING status
    `, queueID, maxAttempts).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *QueueRepository) GetByID(queueID int) (*model.QueueItem, error) {
	query := `
        SELECT queue_id, campaign_id, contact_id, status, attempts, added_at
        FROM bsm_queue
        WHERE queue_id=$1
    `
	item := &model.QueueItem{}
	err := r.DB.QueryRow(query, queueID).Scan(&item.ID, &item.CampaignID, &item.ContactID, &item.Status, &item.Attempts, &item.AddedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewQueueItemNotFound(queueID)
		}
		return nil, err
	}
	return item, nil
}

// UnfinishedCount counts items that still have work ahead of them:
// pending ones plus those claimed by a tick that has not resolved yet.
// Completion detection keys on this reaching zero.
func (r *QueueRepository) UnfinishedCount(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(queue_id) FROM bsm_queue WHERE campaign_id=$1 AND status IN ('pending', 'sending')`,
		campaignID,
	).Scan(&count)
	return count, err
}

func (r *QueueRepository) StatsByCampaign(campaignID int) (map[string]int, error) {
	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM bsm_queue WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "sending": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
