// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/valmironeto-lab/Bluesendmail/internal/errors"
	"github.com/valmironeto-lab/Bluesendmail/internal/service"
)

// CampaignController is the JSON API consumed by the admin UI. All the
// real rules live in the service; this layer only decodes and encodes.
type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title        string  `json:"title"`
		Subject      string  `json:"subject"`
		Preheader    string  `json:"preheader"`
		Content      string  `json:"content"`
		ListIDs      []int   `json:"list_ids"`
		ScheduledFor *string `json:"scheduled_for"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var scheduledFor *time.Time
	if body.ScheduledFor != nil {
		t, err := time.Parse(time.RFC3339, *body.ScheduledFor)
		if err != nil {
			http.Error(w, "invalid scheduled_for, want RFC3339", http.StatusBadRequest)
			return
		}
		utc := t.UTC()
		scheduledFor = &utc
	}

	campaign, err := c.CampaignService.CreateCampaign(body.Title, body.Subject, body.Preheader, body.Content, body.ListIDs, scheduledFor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	details, err := c.CampaignService.GetCampaignDetails(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(details)
}

// SendCampaign is the send-now activation: fanout happens here, the
// worker's ticks drain the result.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	queued, err := c.CampaignService.SendNow(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id": id,
		"queued":      queued,
	})
}

func (c *CampaignController) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		ScheduledFor string `json:"scheduled_for"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	at, err := time.Parse(time.RFC3339, body.ScheduledFor)
	if err != nil {
		http.Error(w, "invalid scheduled_for, want RFC3339", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.Schedule(id, at); err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id":   id,
		"scheduled_for": at.UTC(),
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if _, ok := err.(*appErrors.ErrCampaignNotFound); ok {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
