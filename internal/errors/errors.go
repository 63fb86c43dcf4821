// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrContactNotFound struct {
	Email string
}

func (e *ErrContactNotFound) Error() string {
	return fmt.Sprintf("contact %q not found", e.Email)
}

func NewContactNotFound(email string) error {
	return &ErrContactNotFound{Email: email}
}

type ErrQueueItemNotFound struct {
	QueueID int
}

func (e *ErrQueueItemNotFound) Error() string {
	return fmt.Sprintf("queue item with ID %d not found", e.QueueID)
}

func NewQueueItemNotFound(id int) error {
	return &ErrQueueItemNotFound{QueueID: id}
}
