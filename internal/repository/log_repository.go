package repository

import (
	"database/sql"
	"log"
)

type LogRepositoryInterface interface {
	Log(severity, source, message, detail string)
}

// LogRepository appends operational log rows. A write failure here
// must never disturb the pipeline, so it only reports to stderr.
type LogRepository struct {
	DB *sql.DB
}

func (r *LogRepository) Log(severity, source, message, detail string) {
	_, err := r.DB.Exec(
		`INSERT INTO bsm_logs (severity, source, message, detail) VALUES ($1, $2, $3, $4)`,
		severity, source, message, detail,
	)
	if err != nil {
		log.Println("⚠️ failed to write log entry:", err)
	}
	log.Printf("[%s] %s: %s", severity, source, message)
}

var _ LogRepositoryInterface = (*LogRepository)(nil)
