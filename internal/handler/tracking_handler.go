// internal/handler/tracking_handler.go
package handler

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/valmironeto-lab/Bluesendmail/internal/model"
	"github.com/valmironeto-lab/Bluesendmail/internal/repository"
	"github.com/valmironeto-lab/Bluesendmail/internal/token"
	"github.com/valmironeto-lab/Bluesendmail/internal/tracking"
)

// 1x1 transparent GIF served to every pixel hit.
var pixelGIF, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// TrackingHandler serves the public, unauthenticated surface. Requests
// carry a single action query parameter; each action is decoded into
// its own request struct before any state is touched. Everything fails
// closed: a bad signature mutates nothing.
type TrackingHandler struct {
	Signer      *token.Signer
	QueueRepo   repository.QueueRepositoryInterface
	ContactRepo repository.ContactRepositoryInterface
	EventRepo   repository.EventRepositoryInterface
	Logs        repository.LogRepositoryInterface
	Publisher   *tracking.Publisher
}

type openRequest struct {
	QueueID int
	Token   string
}

type clickRequest struct {
	QueueID     int
	OriginalURL string
	Token       string
}

type emailRequest struct {
	Email string
	Token string
}

// HandleAction is the single public entry point.
func (h *TrackingHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case tracking.ActionOpen:
		h.handleOpen(w, r)
	case tracking.ActionClick:
		h.handleClick(w, r)
	case tracking.ActionUnsubscribe:
		h.handleUnsubscribe(w, r)
	case tracking.ActionConfirm:
		h.handleConfirm(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleOpen records an open and answers with the pixel. Invalid
// requests return an empty 200: tracking pixels must never surface
// errors inside a mail client, and silence reveals nothing to probes.
func (h *TrackingHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	req, ok := parseOpenRequest(r)
	if !ok || !h.Signer.Verify(token.ForQueueItem(req.QueueID), req.Token) {
		return
	}

	event := &model.OpenEvent{
		QueueID:   req.QueueID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err := h.EventRepo.InsertOpen(event); err != nil {
		h.Logs.Log(model.LogError, "tracking", fmt.Sprintf("Failed to record open for queue item #%d.", req.QueueID), err.Error())
		return
	}
	h.Publisher.Publish(tracking.Event{
		Type:      tracking.EventOpened,
		QueueID:   req.QueueID,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
	})

	w.Header().Set("Content-Type", "image/gif")
	w.Write(pixelGIF)
}

func (h *TrackingHandler) handleClick(w http.ResponseWriter, r *http.Request) {
	req, ok := parseClickRequest(r)
	if !ok {
		http.Error(w, "Invalid link.", http.StatusBadRequest)
		return
	}
	if !h.Signer.Verify(token.ForClick(req.QueueID, req.OriginalURL), req.Token) {
		http.Error(w, "Invalid or tampered link.", http.StatusForbidden)
		return
	}

	item, err := h.QueueRepo.GetByID(req.QueueID)
	if err == nil {
		event := &model.ClickEvent{
			QueueID:     req.QueueID,
			CampaignID:  item.CampaignID,
			ContactID:   item.ContactID,
			OriginalURL: req.OriginalURL,
			IPAddress:   clientIP(r),
			UserAgent:   r.UserAgent(),
		}
		if ierr := h.EventRepo.InsertClick(event); ierr != nil {
			h.Logs.Log(model.LogError, "tracking", fmt.Sprintf("Failed to record click for queue item #%d.", req.QueueID), ierr.Error())
		} else {
			h.Publisher.Publish(tracking.Event{
				Type:       tracking.EventClicked,
				QueueID:    req.QueueID,
				CampaignID: item.CampaignID,
				ContactID:  item.ContactID,
				LinkURL:    req.OriginalURL,
				IPAddress:  event.IPAddress,
				UserAgent:  event.UserAgent,
			})
		}
	}

	// The redirect happens even when the queue item is gone; the link
	// was authentic and the visitor still wants the destination.
	http.Redirect(w, r, req.OriginalURL, http.StatusFound)
}

func (h *TrackingHandler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	req, status := h.verifyEmailRequest(r)
	if status != http.StatusOK {
		writeEmailActionError(w, status)
		return
	}

	if err := h.ContactRepo.UpdateStatusByEmail(req.Email, model.ContactStatusUnsubscribed); err != nil {
		http.Error(w, "An error occurred while processing your request. Please try again later.", http.StatusInternalServerError)
		return
	}
	h.Publisher.Publish(tracking.Event{
		Type:      tracking.EventUnsubscribed,
		Email:     req.Email,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})

	writeConfirmationPage(w, "Unsubscribed",
		"Your email address has been removed from our list. You will not receive further communications.")
}

// handleConfirm completes double opt-in: a pending contact becomes
// subscribed. Idempotent, and it never resubscribes someone who has
// unsubscribed.
func (h *TrackingHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	req, status := h.verifyEmailRequest(r)
	if status != http.StatusOK {
		writeEmailActionError(w, status)
		return
	}

	contact, err := h.ContactRepo.GetByEmail(req.Email)
	if err != nil || contact == nil {
		http.Error(w, "An error occurred while processing your request. Please try again later.", http.StatusInternalServerError)
		return
	}

	if contact.Status == model.ContactStatusPending {
		if err := h.ContactRepo.UpdateStatusByEmail(req.Email, model.ContactStatusSubscribed); err != nil {
			http.Error(w, "An error occurred while processing your request. Please try again later.", http.StatusInternalServerError)
			return
		}
		h.Publisher.Publish(tracking.Event{
			Type:      tracking.EventConfirmed,
			Email:     req.Email,
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
	}

	writeConfirmationPage(w, "Subscription confirmed",
		"Thank you, your subscription is confirmed.")
}

func parseOpenRequest(r *http.Request) (openRequest, bool) {
	q := r.URL.Query()
	id, err := strconv.Atoi(q.Get("queue_id"))
	if err != nil || id <= 0 || q.Get("token") == "" {
		return openRequest{}, false
	}
	return openRequest{QueueID: id, Token: q.Get("token")}, true
}

func parseClickRequest(r *http.Request) (clickRequest, bool) {
	q := r.URL.Query()
	id, err := strconv.Atoi(q.Get("qid"))
	if err != nil || id <= 0 || q.Get("token") == "" {
		return clickRequest{}, false
	}
	originalURL, err := tracking.DecodeClickURL(q.Get("url"))
	if err != nil || originalURL == "" {
		return clickRequest{}, false
	}
	return clickRequest{QueueID: id, OriginalURL: originalURL, Token: q.Get("token")}, true
}

// verifyEmailRequest parses and authenticates the unsubscribe/confirm
// parameters. Returns the status to respond with on failure.
func (h *TrackingHandler) verifyEmailRequest(r *http.Request) (emailRequest, int) {
	q := r.URL.Query()
	email := q.Get("email")
	tok := q.Get("token")
	if email == "" || tok == "" {
		return emailRequest{}, http.StatusBadRequest
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return emailRequest{}, http.StatusBadRequest
	}
	if !h.Signer.Verify(token.ForEmail(email), tok) {
		return emailRequest{}, http.StatusForbidden
	}
	return emailRequest{Email: email, Token: tok}, http.StatusOK
}

func writeEmailActionError(w http.ResponseWriter, status int) {
	switch status {
	case http.StatusBadRequest:
		http.Error(w, "Invalid link. Missing or malformed parameters.", http.StatusBadRequest)
	default:
		http.Error(w, "Security verification failed. The link may have been altered or is invalid.", http.StatusForbidden)
	}
}

func writeConfirmationPage(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>", title, title, message)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
