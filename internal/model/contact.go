// internal/model/contact.go
package model

import "time"

const (
	ContactStatusSubscribed   = "subscribed"
	ContactStatusUnsubscribed = "unsubscribed"
	ContactStatusPending      = "pending"
)

type Contact struct {
	ID        int       `db:"contact_id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Company   string    `db:"company" json:"company"`
	JobTitle  string    `db:"job_title" json:"job_title"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
