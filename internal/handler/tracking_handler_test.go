package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/valmironeto-lab/Bluesendmail/internal/errors"
	"github.com/valmironeto-lab/Bluesendmail/internal/handler"
	"github.com/valmironeto-lab/Bluesendmail/internal/model"
	"github.com/valmironeto-lab/Bluesendmail/internal/token"
	"github.com/valmironeto-lab/Bluesendmail/internal/tracking"
)

// In-memory doubles for the storage collaborators.

type fakeQueueRepo struct {
	items map[int]*model.QueueItem
}

func (f *fakeQueueRepo) Enqueue(campaignID, contactID int) (bool, error) { return false, nil }
func (f *fakeQueueRepo) ClaimBatch(limit int) ([]*model.QueueItem, error) {
	return nil, nil
}
func (f *fakeQueueRepo) MarkSent(queueID int) error   { return nil }
func (f *fakeQueueRepo) MarkFailed(queueID int) error { return nil }
func (f *fakeQueueRepo) MarkFailedAttempt(queueID, maxAttempts int) (string, error) {
	return model.QueueStatusFailed, nil
}
func (f *fakeQueueRepo) GetByID(queueID int) (*model.QueueItem, error) {
	item, ok := f.items[queueID]
	if !ok {
		return nil, appErrors.NewQueueItemNotFound(queueID)
	}
	return item, nil
}
func (f *fakeQueueRepo) UnfinishedCount(campaignID int) (int, error) { return 0, nil }
func (f *fakeQueueRepo) StatsByCampaign(campaignID int) (map[string]int, error) {
	return nil, nil
}

type fakeContactRepo struct {
	contacts map[string]*model.Contact
}

func (f *fakeContactRepo) GetByEmail(email string) (*model.Contact, error) {
	return f.contacts[email], nil
}
func (f *fakeContactRepo) ResolveRecipients(listIDs []int) ([]int, error) { return nil, nil }
func (f *fakeContactRepo) UpdateStatusByEmail(email, status string) error {
	if c, ok := f.contacts[email]; ok {
		c.Status = status
	}
	return nil
}
func (f *fakeContactRepo) Create(c *model.Contact) error        { return nil }
func (f *fakeContactRepo) AddToList(contactID, listID int) error { return nil }

type fakeEventRepo struct {
	opens  []*model.OpenEvent
	clicks []*model.ClickEvent
}

func (f *fakeEventRepo) InsertOpen(e *model.OpenEvent) error {
	f.opens = append(f.opens, e)
	return nil
}
func (f *fakeEventRepo) InsertClick(e *model.ClickEvent) error {
	f.clicks = append(f.clicks, e)
	return nil
}
func (f *fakeEventRepo) CountOpens(campaignID int) (int, error)  { return len(f.opens), nil }
func (f *fakeEventRepo) CountClicks(campaignID int) (int, error) { return len(f.clicks), nil }

type fakeLogRepo struct{}

func (f *fakeLogRepo) Log(severity, source, message, detail string) {}

type fixture struct {
	handler *handler.TrackingHandler
	tracker *tracking.Tracker
	queue   *fakeQueueRepo
	contact *fakeContactRepo
	events  *fakeEventRepo
}

func newFixture() *fixture {
	signer := token.NewSigner("test-secret")
	queue := &fakeQueueRepo{items: map[int]*model.QueueItem{
		7: {ID: 7, CampaignID: 3, ContactID: 11, Status: model.QueueStatusSent},
	}}
	contact := &fakeContactRepo{contacts: map[string]*model.Contact{
		"alice@example.com": {ID: 11, Email: "alice@example.com", Status: model.ContactStatusSubscribed},
		"dave@example.com":  {ID: 12, Email: "dave@example.com", Status: model.ContactStatusPending},
	}}
	events := &fakeEventRepo{}

	return &fixture{
		handler: &handler.TrackingHandler{
			Signer:      signer,
			QueueRepo:   queue,
			ContactRepo: contact,
			EventRepo:   events,
			Logs:        &fakeLogRepo{},
		},
		tracker: tracking.New(signer, "http://track.example.com", true, true),
		queue:   queue,
		contact: contact,
		events:  events,
	}
}

func (f *fixture) get(t *testing.T, rawURL string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", rawURL, nil)
	req.RemoteAddr = "203.0.113.9:55000"
	req.Header.Set("User-Agent", "test-client/1.0")
	w := httptest.NewRecorder()
	f.handler.HandleAction(w, req)
	return w
}

func TestOpenRecordsEventAndReturnsGIF(t *testing.T) {
	f := newFixture()

	w := f.get(t, f.tracker.OpenPixelURL(7))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())

	require.Len(t, f.events.opens, 1)
	assert.Equal(t, 7, f.events.opens[0].QueueID)
	assert.Equal(t, "203.0.113.9", f.events.opens[0].IPAddress)
	assert.Equal(t, "test-client/1.0", f.events.opens[0].UserAgent)
}

func TestOpenEveryHitIsRecorded(t *testing.T) {
	f := newFixture()
	pixel := f.tracker.OpenPixelURL(7)

	f.get(t, pixel)
	f.get(t, pixel)
	f.get(t, pixel)

	assert.Len(t, f.events.opens, 3)
}

func TestOpenTamperedTokenIsSilent(t *testing.T) {
	f := newFixture()

	w := f.get(t, "http://track.example.com/email?action=track_open&queue_id=7&token=deadbeef")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.Empty(t, f.events.opens)
}

func TestClickRedirectsAndRecordsEvent(t *testing.T) {
	f := newFixture()
	original := "https://example.com/page"

	w := f.get(t, f.tracker.ClickURL(7, original))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, original, w.Header().Get("Location"))

	require.Len(t, f.events.clicks, 1)
	click := f.events.clicks[0]
	assert.Equal(t, 7, click.QueueID)
	assert.Equal(t, 3, click.CampaignID)
	assert.Equal(t, 11, click.ContactID)
	assert.Equal(t, original, click.OriginalURL)
}

func TestClickTamperedTokenIsRejected(t *testing.T) {
	f := newFixture()
	// Token signed for a different destination.
	tampered := f.tracker.ClickURL(7, "https://evil.example.com/")
	// Graft the signature onto a request for a different destination.
	good := f.tracker.ClickURL(7, "https://example.com/page")

	w := f.get(t, swapToken(t, good, tampered))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.events.clicks)
}

// swapToken grafts the token of src onto dst's query string.
func swapToken(t *testing.T, dst, src string) string {
	t.Helper()
	d, err := url.Parse(dst)
	require.NoError(t, err)
	s, err := url.Parse(src)
	require.NoError(t, err)
	q := d.Query()
	q.Set("token", s.Query().Get("token"))
	d.RawQuery = q.Encode()
	return d.String()
}

func TestUnsubscribeSetsStatus(t *testing.T) {
	f := newFixture()

	w := f.get(t, f.tracker.UnsubscribeURL("alice@example.com"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ContactStatusUnsubscribed, f.contact.contacts["alice@example.com"].Status)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	f := newFixture()
	link := f.tracker.UnsubscribeURL("alice@example.com")

	f.get(t, link)
	w := f.get(t, link)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ContactStatusUnsubscribed, f.contact.contacts["alice@example.com"].Status)
}

func TestUnsubscribeTamperedTokenIsRejected(t *testing.T) {
	f := newFixture()

	w := f.get(t, "http://track.example.com/email?action=unsubscribe&email=alice%40example.com&token=deadbeef")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, model.ContactStatusSubscribed, f.contact.contacts["alice@example.com"].Status)
}

func TestUnsubscribeMalformedEmailIsBadRequest(t *testing.T) {
	f := newFixture()
	signer := token.NewSigner("test-secret")

	w := f.get(t, "http://track.example.com/email?action=unsubscribe&email=not-an-email&token="+signer.Sign("not-an-email"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmPromotesPendingContact(t *testing.T) {
	f := newFixture()

	w := f.get(t, f.tracker.ConfirmURL("dave@example.com"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ContactStatusSubscribed, f.contact.contacts["dave@example.com"].Status)
}

func TestConfirmLeavesUnsubscribedAlone(t *testing.T) {
	f := newFixture()
	f.contact.contacts["dave@example.com"].Status = model.ContactStatusUnsubscribed

	w := f.get(t, f.tracker.ConfirmURL("dave@example.com"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ContactStatusUnsubscribed, f.contact.contacts["dave@example.com"].Status)
}

func TestUnknownActionIs404(t *testing.T) {
	f := newFixture()

	w := f.get(t, "http://track.example.com/email?action=bogus")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
