package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/valmironeto-lab/Bluesendmail/internal/errors"
	"github.com/valmironeto-lab/Bluesendmail/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(campaignID int, status string) error
	Schedule(campaignID int, at time.Time) error
	MarkSent(campaignID int, sentAt time.Time) error
	DueScheduled(now time.Time) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	query := `
        INSERT INTO bsm_campaigns (title, subject, preheader, content, status, scheduled_for, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING campaign_id
    `
	err := r.DB.QueryRow(query, c.Title, c.Subject, c.Preheader, c.Content, c.Status, c.ScheduledFor, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return err
	}
	return r.replaceTargetLists(c.ID, c.ListIDs)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE bsm_campaigns
        SET title=$1, subject=$2, preheader=$3, content=$4, status=$5, scheduled_for=$6
        WHERE campaign_id=$7
    `
	if _, err := r.DB.Exec(query, c.Title, c.Subject, c.Preheader, c.Content, c.Status, c.ScheduledFor, c.ID); err != nil {
		return err
	}
	return r.replaceTargetLists(c.ID, c.ListIDs)
}

// replaceTargetLists rewrites the campaign_lists join rows. An empty
// set is meaningful: it targets every subscribed contact.
func (r *CampaignRepository) replaceTargetLists(campaignID int, listIDs []int) error {
	if _, err := r.DB.Exec(`DELETE FROM bsm_campaign_lists WHERE campaign_id=$1`, campaignID); err != nil {
		return err
	}
	for _, listID := range listIDs {
		_, err := r.DB.Exec(`INSERT INTO bsm_campaign_lists (campaign_id, list_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, campaignID, listID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT campaign_id, title, subject, preheader, content, status, scheduled_for, sent_at, created_at
        FROM bsm_campaigns WHERE campaign_id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Title, &c.Subject, &c.Preheader, &c.Content, &c.Status, &c.ScheduledFor, &c.SentAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}

	c.ListIDs, err = r.targetLists(id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) targetLists(campaignID int) ([]int, error) {
	rows, err := r.DB.Query(`SELECT list_id FROM bsm_campaign_lists WHERE campaign_id=$1`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT campaign_id, title, subject, preheader, content, status, scheduled_for, sent_at, created_at FROM bsm_campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY campaign_id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Subject, &c.Preheader, &c.Content, &c.Status, &c.ScheduledFor, &c.SentAt, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM bsm_campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	_, err := r.DB.Exec(`UPDATE bsm_campaigns SET status=$1 WHERE campaign_id=$2`, status, campaignID)
	return err
}

// Schedule stamps the fire time and moves the campaign to scheduled.
func (r *CampaignRepository) Schedule(campaignID int, at time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE bsm_campaigns SET status=$1, scheduled_for=$2 WHERE campaign_id=$3 AND status <> $4`,
		model.CampaignStatusScheduled, at, campaignID, model.CampaignStatusSent,
	)
	return err
}

// MarkSent finishes a campaign. The status guard keeps the transition
// monotonic even if two ticks observe completion at once.
func (r *CampaignRepository) MarkSent(campaignID int, sentAt time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE bsm_campaigns SET status=$1, sent_at=$2 WHERE campaign_id=$3 AND status <> $1`,
		model.CampaignStatusSent, sentAt, campaignID,
	)
	return err
}

// DueScheduled returns scheduled campaigns whose fire time has passed.
func (r *CampaignRepository) DueScheduled(now time.Time) ([]*model.Campaign, error) {
	query := `
        SELECT campaign_id, title, subject, preheader, content, status, scheduled_for, sent_at, created_at
        FROM bsm_campaigns
        WHERE status=$1 AND scheduled_for <= $2
    `
	rows, err := r.DB.Query(query, model.CampaignStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Subject, &c.Preheader, &c.Content, &c.Status, &c.ScheduledFor, &c.SentAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
