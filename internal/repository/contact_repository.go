package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/valmironeto-lab/Bluesendmail/internal/model"
)

// ContactRepositoryInterface defines methods used by the services
type ContactRepositoryInterface interface {
	GetByEmail(email string) (*model.Contact, error)
	ResolveRecipients(listIDs []int) ([]int, error)
	UpdateStatusByEmail(email, status string) error
	Create(c *model.Contact) error
	AddToList(contactID, listID int) error
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

// GetByEmail fetches a contact by address, (nil, nil) when absent.
func (r *ContactRepository) GetByEmail(email string) (*model.Contact, error) {
	query := `
        SELECT contact_id, email, first_name, last_name, company, job_title, status, created_at
        FROM bsm_contacts
        WHERE email = $1
    `
	var c model.Contact
	err := r.DB.QueryRow(query, email).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.JobTitle, &c.Status, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ResolveRecipients expands a campaign's target lists into distinct
// subscribed contact IDs. An empty list set means every subscribed
// contact. Pure read, no ordering guarantee.
func (r *ContactRepository) ResolveRecipients(listIDs []int) ([]int, error) {
	var rows *sql.Rows
	var err error

	if len(listIDs) > 0 {
		query := `
            SELECT DISTINCT c.contact_id
            FROM bsm_contacts c
            INNER JOIN bsm_contact_lists cl ON cl.contact_id = c.contact_id
            WHERE cl.list_id = ANY($1) AND c.status = $2
        `
		rows, err = r.DB.Query(query, pq.Array(listIDs), model.ContactStatusSubscribed)
	} else {
		rows, err = r.DB.Query(`SELECT contact_id FROM bsm_contacts WHERE status = $1`, model.ContactStatusSubscribed)
	}
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

// UpdateStatusByEmail sets the contact status. Idempotent: updating to
// the current status is still a success.
func (r *ContactRepository) UpdateStatusByEmail(email, status string) error {
	_, err := r.DB.Exec(`UPDATE bsm_contacts SET status=$1 WHERE email=$2`, status, email)
	return err
}

func (r *ContactRepository) Create(c *model.Contact) error {
	if c.Status == "" {
		c.Status = model.ContactStatusSubscribed
	}
	query := `
        INSERT INTO bsm_contacts (email, first_name, last_name, company, job_title, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING contact_id, created_at
    `
	return r.DB.QueryRow(query, c.Email, c.FirstName, c.LastName, c.Company, c.JobTitle, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (r *ContactRepository) AddToList(contactID, listID int) error {
	_, err := r.DB.Exec(
		`INSERT INTO bsm_contact_lists (contact_id, list_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		contactID, listID,
	)
	return err
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
