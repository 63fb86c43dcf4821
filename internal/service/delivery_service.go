// internal/service/delivery_service.go
package service

import (
	"context"
	"fmt"
	"time"

	appErrors "github.com/valmironeto-lab/Bluesendmail/internal/errors"
	"github.com/valmironeto-lab/Bluesendmail/internal/mailer"
	"github.com/valmironeto-lab/Bluesendmail/internal/model"
	"github.com/valmironeto-lab/Bluesendmail/internal/render"
	"github.com/valmironeto-lab/Bluesendmail/internal/repository"
	"github.com/valmironeto-lab/Bluesendmail/internal/tracking"
)

// DeliveryService is the scheduler-tick entry point. Each tick claims
// one bounded batch of pending queue items, renders and sends them,
// and re-checks completion for every campaign the batch touched.
type DeliveryService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	QueueRepo    repository.QueueRepositoryInterface
	Logs         repository.LogRepositoryInterface
	Sender       mailer.Sender
	Tracker      *tracking.Tracker
	Site         render.Site
	BatchSize    int
	MaxAttempts  int
	SendTimeout  time.Duration
}

// ProcessBatch runs one delivery tick. Per-item failures are recorded
// and skipped over; only a failure to claim the batch is returned.
// Returns the number of items handled.
func (s *DeliveryService) ProcessBatch(ctx context.Context) (int, error) {
	items, err := s.QueueRepo.ClaimBatch(s.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim batch: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	touched := map[int]bool{}
	for _, item := range items {
		touched[item.CampaignID] = true
		s.processItem(ctx, item)
	}

	for campaignID := range touched {
		s.checkCompletion(campaignID)
	}
	return len(items), nil
}

// processItem resolves exactly one queue item to sent, failed, or back
// to pending for retry. It must never take down the tick: a panic in
// rendering or transport code becomes a failed attempt.
func (s *DeliveryService) processItem(ctx context.Context, item *model.QueueItem) {
	defer func() {
		if rec := recover(); rec != nil {
			if _, err := s.QueueRepo.MarkFailedAttempt(item.ID, s.MaxAttempts); err != nil {
				s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Failed to update queue item #%d.", item.ID), err.Error())
			}
			s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Panic while processing queue item #%d.", item.ID), fmt.Sprint(rec))
		}
	}()

	campaign, err := s.CampaignRepo.GetByID(item.CampaignID)
	if err != nil {
		if _, ok := err.(*appErrors.ErrCampaignNotFound); ok {
			// Deleted mid-flight. Terminal, retrying can never help.
			if ferr := s.QueueRepo.MarkFailed(item.ID); ferr != nil {
				s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Failed to update queue item #%d.", item.ID), ferr.Error())
			}
			s.Logs.Log(model.LogError, "queue_processor",
				fmt.Sprintf("Campaign #%d not found for queue item #%d.", item.CampaignID, item.ID), "")
			return
		}
		s.failAttempt(item, err)
		return
	}

	subject, body := s.renderMessage(campaign, item)

	sendCtx, cancel := context.WithTimeout(ctx, s.SendTimeout)
	defer cancel()

	if err := s.Sender.Send(sendCtx, item.Contact.Email, subject, body); err != nil {
		s.failAttempt(item, err)
		return
	}

	if err := s.QueueRepo.MarkSent(item.ID); err != nil {
		s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Failed to mark queue item #%d sent.", item.ID), err.Error())
	}
}

func (s *DeliveryService) failAttempt(item *model.QueueItem, cause error) {
	status, err := s.QueueRepo.MarkFailedAttempt(item.ID, s.MaxAttempts)
	if err != nil {
		s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Failed to update queue item #%d.", item.ID), err.Error())
		return
	}
	s.Logs.Log(model.LogError, "queue_processor",
		fmt.Sprintf("Failed to send email to %s (campaign #%d, now %s).", item.Contact.Email, item.CampaignID, status),
		cause.Error())
}

// renderMessage builds the final subject and body: merge tokens, the
// hidden preheader span, then tracking injection over the result.
func (s *DeliveryService) renderMessage(campaign *model.Campaign, item *model.QueueItem) (string, string) {
	contact := item.Contact

	subject := render.Subject(campaign.SubjectOrTitle(), contact, s.Site)
	body := render.Body(campaign.Content, contact, s.Site, s.Tracker.UnsubscribeURL(contact.Email))
	body = render.PreheaderSpan(campaign.Preheader) + body
	body = s.Tracker.Inject(body, item.ID)
	return subject, body
}

// checkCompletion marks the campaign sent once nothing is pending or
// in flight. Re-run every tick, so completion lands on whichever tick
// drains the last item, no matter which worker ran it. Items that
// failed terminally still count as processed: sent means fully
// processed, not fully delivered.
func (s *DeliveryService) checkCompletion(campaignID int) {
	remaining, err := s.QueueRepo.UnfinishedCount(campaignID)
	if err != nil {
		s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Failed to count remaining items for campaign #%d.", campaignID), err.Error())
		return
	}
	if remaining != 0 {
		return
	}

	if err := s.CampaignRepo.MarkSent(campaignID, time.Now().UTC()); err != nil {
		s.Logs.Log(model.LogError, "queue_processor", fmt.Sprintf("Failed to mark campaign #%d sent.", campaignID), err.Error())
		return
	}
	s.Logs.Log(model.LogInfo, "campaign", fmt.Sprintf("Campaign #%d completed and marked as sent.", campaignID), "")
}
