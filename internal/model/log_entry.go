// internal/model/log_entry.go
package model

import "time"

const (
	LogInfo    = "info"
	LogWarning = "warning"
	LogError   = "error"
)

// LogEntry is an operational log row. Observability only, nothing in
// the pipeline depends on it.
type LogEntry struct {
	ID        int       `db:"log_id" json:"id"`
	Severity  string    `db:"severity" json:"severity"`
	Source    string    `db:"source" json:"source"`
	Message   string    `db:"message" json:"message"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
