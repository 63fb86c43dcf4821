package service_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	appErrors "github.com/valmironeto-lab/Bluesendmail/internal/errors"
	"github.com/valmironeto-lab/Bluesendmail/internal/model"
)

// In-memory repository doubles shared by the service tests. They model
// just enough of the storage semantics (unique queue rows, claim moves
// pending to sending, attempt counting) for the services to behave as
// they would against Postgres.

type fakeCampaignRepo struct {
	campaigns map[int]*model.Campaign
	nextID    int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 1}
}

func (f *fakeCampaignRepo) add(c *model.Campaign) *model.Campaign {
	if c.ID == 0 {
		c.ID = f.nextID
		f.nextID++
	}
	f.campaigns[c.ID] = c
	return c
}

func (f *fakeCampaignRepo) Create(c *model.Campaign) error {
	f.add(c)
	return nil
}

func (f *fakeCampaignRepo) Update(c *model.Campaign) error {
	f.campaigns[c.ID] = c
	return nil
}

func (f *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (f *fakeCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	ids := make([]int, 0, len(f.campaigns))
	for id, c := range f.campaigns {
		if status != "" && c.Status != status {
			continue
		}
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	total := len(ids)
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*model.Campaign, len(ids))
	for i, id := range ids {
		out[i] = f.campaigns[id]
	}
	return out, total, nil
}

func (f *fakeCampaignRepo) UpdateStatus(campaignID int, status string) error {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	return nil
}

func (f *fakeCampaignRepo) Schedule(campaignID int, at time.Time) error {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = model.CampaignStatusScheduled
	c.ScheduledFor = &at
	return nil
}

func (f *fakeCampaignRepo) MarkSent(campaignID int, sentAt time.Time) error {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	if c.Status == model.CampaignStatusSent {
		return nil
	}
	c.Status = model.CampaignStatusSent
	c.SentAt = &sentAt
	return nil
}

func (f *fakeCampaignRepo) DueScheduled(now time.Time) ([]*model.Campaign, error) {
	var due []*model.Campaign
	for _, c := range f.campaigns {
		if c.Status == model.CampaignStatusScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

type fakeContactRepo struct {
	contacts map[int]*model.Contact
	lists    map[int][]int // list id -> contact ids
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[int]*model.Contact{}, lists: map[int][]int{}}
}

func (f *fakeContactRepo) addSubscribed(id int, email string) {
	f.contacts[id] = &model.Contact{ID: id, Email: email, Status: model.ContactStatusSubscribed}
}

func (f *fakeContactRepo) GetByEmail(email string) (*model.Contact, error) {
	for _, c := range f.contacts {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) ResolveRecipients(listIDs []int) ([]int, error) {
	seen := map[int]bool{}
	var out []int

	include := func(contactID int) {
		c, ok := f.contacts[contactID]
		if !ok || c.Status != model.ContactStatusSubscribed || seen[contactID] {
			return
		}
		seen[contactID] = true
		out = append(out, contactID)
	}

	if len(listIDs) == 0 {
		for id := range f.contacts {
			include(id)
		}
	} else {
		for _, listID := range listIDs {
			for _, contactID := range f.lists[listID] {
				include(contactID)
			}
		}
	}
	sort.Ints(out)
	return out, nil
}

func (f *fakeContactRepo) UpdateStatusByEmail(email, status string) error {
	for _, c := range f.contacts {
		if c.Email == email {
			c.Status = status
		}
	}
	return nil
}

func (f *fakeContactRepo) Create(c *model.Contact) error {
	f.contacts[c.ID] = c
	return nil
}

func (f *fakeContactRepo) AddToList(contactID, listID int) error {
	f.lists[listID] = append(f.lists[listID], contactID)
	return nil
}

type fakeQueueRepo struct {
	items    map[int]*model.QueueItem
	contacts *fakeContactRepo
	nextID   int
}

func newFakeQueueRepo(contacts *fakeContactRepo) *fakeQueueRepo {
	return &fakeQueueRepo{items: map[int]*model.QueueItem{}, contacts: contacts, nextID: 1}
}

func (f *fakeQueueRepo) Enqueue(campaignID, contactID int) (bool, error) {
	for _, item := range f.items {
		if item.CampaignID == campaignID && item.ContactID == contactID {
			return false, nil
		}
	}
	f.items[f.nextID] = &model.QueueItem{
		ID:         f.nextID,
		CampaignID: campaignID,
		ContactID:  contactID,
		Status:     model.QueueStatusPending,
		AddedAt:    time.Now(),
	}
	f.nextID++
	return true, nil
}

func (f *fakeQueueRepo) ClaimBatch(limit int) ([]*model.QueueItem, error) {
	ids := make([]int, 0, len(f.items))
	for id, item := range f.items {
		if item.Status == model.QueueStatusPending {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	if limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*model.QueueItem, 0, len(ids))
	for _, id := range ids {
		item := f.items[id]
		item.Status = model.QueueStatusSending
		copied := *item
		if c, ok := f.contacts.contacts[item.ContactID]; ok {
			copied.Contact = *c
		}
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeQueueRepo) MarkSent(queueID int) error {
	item, ok := f.items[queueID]
	if !ok {
		return appErrors.NewQueueItemNotFound(queueID)
	}
	item.Status = model.QueueStatusSent
	return nil
}

func (f *fakeQueueRepo) MarkFailed(queueID int) error {
	item, ok := f.items[queueID]
	if !ok {
		return appErrors.NewQueueItemNotFound(queueID)
	}
	item.Status = model.QueueStatusFailed
	return nil
}

func (f *fakeQueueRepo) MarkFailedAttempt(queueID, maxAttempts int) (string, error) {
	item, ok := f.items[queueID]
	if !ok {
		return "", appErrors.NewQueueItemNotFound(queueID)
	}
	item.Attempts++
	if item.Attempts >= maxAttempts {
		item.Status = model.QueueStatusFailed
	} else {
		item.Status = model.QueueStatusPending
	}
	return item.Status, nil
}

func (f *fakeQueueRepo) GetByID(queueID int) (*model.QueueItem, error) {
	item, ok := f.items[queueID]
	if !ok {
		return nil, appErrors.NewQueueItemNotFound(queueID)
	}
	return item, nil
}

func (f *fakeQueueRepo) UnfinishedCount(campaignID int) (int, error) {
	count := 0
	for _, item := range f.items {
		if item.CampaignID != campaignID {
			continue
		}
		if item.Status == model.QueueStatusPending || item.Status == model.QueueStatusSending {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueueRepo) StatsByCampaign(campaignID int) (map[string]int, error) {
	stats := map[string]int{}
	for _, item := range f.items {
		if item.CampaignID == campaignID {
			stats[item.Status]++
		}
	}
	return stats, nil
}

func (f *fakeQueueRepo) byStatus(campaignID int, status string) []*model.QueueItem {
	var out []*model.QueueItem
	for _, item := range f.items {
		if item.CampaignID == campaignID && item.Status == status {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeEventRepo struct {
	opens  int
	clicks int
}

func (f *fakeEventRepo) InsertOpen(e *model.OpenEvent) error {
	f.opens++
	return nil
}
func (f *fakeEventRepo) InsertClick(e *model.ClickEvent) error {
	f.clicks++
	return nil
}
func (f *fakeEventRepo) CountOpens(campaignID int) (int, error)  { return f.opens, nil }
func (f *fakeEventRepo) CountClicks(campaignID int) (int, error) { return f.clicks, nil }

type logEntry struct {
	Severity string
	Source   string
	Message  string
}

type fakeLogRepo struct {
	entries []logEntry
}

func (f *fakeLogRepo) Log(severity, source, message, detail string) {
	f.entries = append(f.entries, logEntry{Severity: severity, Source: source, Message: message})
}

func (f *fakeLogRepo) bySeverity(severity string) []logEntry {
	var out []logEntry
	for _, e := range f.entries {
		if e.Severity == severity {
			out = append(out, e)
		}
	}
	return out
}

// fakeSender records every send and fails or panics for addresses it
// was told to.
type fakeSender struct {
	sent     []string
	failFor  map[string]bool
	panicFor map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: map[string]bool{}, panicFor: map[string]bool{}}
}

func (f *fakeSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.panicFor[to] {
		panic("template exploded for " + to)
	}
	if f.failFor[to] {
		return fmt.Errorf("smtp: mailbox unavailable for %s", to)
	}
	f.sent = append(f.sent, to)
	return nil
}
