// internal/service/campaign_service.go
package service

import (
	"fmt"
	"time"

	"github.com/valmironeto-lab/Bluesendmail/internal/model"
	"github.com/valmironeto-lab/Bluesendmail/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	QueueRepo    repository.QueueRepositoryInterface
	EventRepo    repository.EventRepositoryInterface
	Logs         repository.LogRepositoryInterface
}

// CampaignDetails is the stats view returned by the API.
type CampaignDetails struct {
	ID           int            `json:"id"`
	Title        string         `json:"title"`
	Subject      string         `json:"subject"`
	Status       string         `json:"status"`
	ListIDs      []int          `json:"list_ids"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Queue        map[string]int `json:"queue"`
	Opens        int            `json:"opens"`
	Clicks       int            `json:"clicks"`
}

func (s *CampaignService) CreateCampaign(title, subject, preheader, content string, listIDs []int, scheduledFor *time.Time) (*model.Campaign, error) {
	if title == "" {
		return nil, fmt.Errorf("campaign title cannot be empty")
	}

	c := &model.Campaign{
		Title:     title,
		Subject:   subject,
		Preheader: preheader,
		Content:   content,
		ListIDs:   listIDs,
		Status:    model.CampaignStatusDraft,
	}
	if scheduledFor != nil {
		c.Status = model.CampaignStatusScheduled
		c.ScheduledFor = scheduledFor
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetails(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.QueueRepo.StatsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	opens, err := s.EventRepo.CountOpens(campaignID)
	if err != nil {
		return nil, err
	}
	clicks, err := s.EventRepo.CountClicks(campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:           campaign.ID,
		Title:        campaign.Title,
		Subject:      campaign.Subject,
		Status:       campaign.Status,
		ListIDs:      campaign.ListIDs,
		ScheduledFor: campaign.ScheduledFor,
		SentAt:       campaign.SentAt,
		CreatedAt:    campaign.CreatedAt,
		Queue:        stats,
		Opens:        opens,
		Clicks:       clicks,
	}, nil
}

// SendNow activates a campaign immediately: status moves to queued and
// recipients are fanned out. Re-sending an already queued or sent
// campaign is rejected; that is an explicit admin action, not this path.
func (s *CampaignService) SendNow(campaignID int) (int, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return 0, err
	}
	if campaign.Status != model.CampaignStatusDraft && campaign.Status != model.CampaignStatusScheduled {
		return 0, fmt.Errorf("campaign cannot be sent in status: %s", campaign.Status)
	}

	if err := s.CampaignRepo.UpdateStatus(campaignID, model.CampaignStatusQueued); err != nil {
		return 0, err
	}
	return s.EnqueueRecipients(campaign)
}

// Schedule stamps a future fire time; the promoter picks it up later.
func (s *CampaignService) Schedule(campaignID int, at time.Time) error {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignStatusDraft && campaign.Status != model.CampaignStatusScheduled {
		return fmt.Errorf("campaign cannot be scheduled in status: %s", campaign.Status)
	}
	return s.CampaignRepo.Schedule(campaignID, at.UTC())
}

// EnqueueRecipients resolves the audience and fans it out into queue
// items, one per contact, idempotently. Returns the number of rows
// actually queued.
//
// A campaign that resolves to nobody is marked sent on the spot:
// completion detection only ever runs over existing queue items, so
// without this it would sit in queued forever.
func (s *CampaignService) EnqueueRecipients(campaign *model.Campaign) (int, error) {
	contactIDs, err := s.ContactRepo.ResolveRecipients(campaign.ListIDs)
	if err != nil {
		return 0, err
	}

	if len(contactIDs) == 0 {
		s.Logs.Log(model.LogWarning, "scheduler", fmt.Sprintf("Campaign #%d found no recipients.", campaign.ID), "")
		if err := s.CampaignRepo.MarkSent(campaign.ID, time.Now().UTC()); err != nil {
			return 0, err
		}
		return 0, nil
	}

	queued := 0
	for _, contactID := range contactIDs {
		inserted, err := s.QueueRepo.Enqueue(campaign.ID, contactID)
		if err != nil {
			return queued, err
		}
		if inserted {
			queued++
		}
	}

	s.Logs.Log(model.LogInfo, "scheduler", fmt.Sprintf("Campaign #%d queued for %d recipients.", campaign.ID, queued), "")
	return queued, nil
}

// PromoteScheduled moves every scheduled campaign whose fire time has
// passed into the send pipeline. Called on a timer; one failed
// campaign does not block the rest.
func (s *CampaignService) PromoteScheduled(now time.Time) error {
	due, err := s.CampaignRepo.DueScheduled(now.UTC())
	if err != nil {
		return err
	}

	for _, campaign := range due {
		if err := s.CampaignRepo.UpdateStatus(campaign.ID, model.CampaignStatusQueued); err != nil {
			s.Logs.Log(model.LogError, "scheduler", fmt.Sprintf("Failed to promote campaign #%d.", campaign.ID), err.Error())
			continue
		}
		if _, err := s.EnqueueRecipients(campaign); err != nil {
			s.Logs.Log(model.LogError, "scheduler", fmt.Sprintf("Failed to enqueue recipients for campaign #%d.", campaign.ID), err.Error())
		}
	}
	return nil
}
