// internal/model/list.go
package model

import "time"

type List struct {
	ID          int       `db:"list_id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
