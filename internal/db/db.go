// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
)

// Connect opens and pings the Postgres connection. No package-level
// handle: the caller owns the *sql.DB and injects it where needed.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return conn, nil
}

// Migrate creates the schema when missing. The unique key on
// (campaign_id, contact_id) is what makes queue fanout idempotent, and
// campaign target lists live in a join table rather than a serialized
// column.
func Migrate(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bsm_campaigns (
			campaign_id   SERIAL PRIMARY KEY,
			title         VARCHAR(255) NOT NULL,
			subject       VARCHAR(255) NOT NULL DEFAULT '',
			preheader     VARCHAR(255) NOT NULL DEFAULT '',
			content       TEXT NOT NULL DEFAULT '',
			status        VARCHAR(20) NOT NULL DEFAULT 'draft',
			scheduled_for TIMESTAMPTZ,
			sent_at       TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bsm_contacts (
			contact_id SERIAL PRIMARY KEY,
			email      VARCHAR(255) NOT NULL UNIQUE,
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name  VARCHAR(255) NOT NULL DEFAULT '',
			company    VARCHAR(255) NOT NULL DEFAULT '',
			job_title  VARCHAR(255) NOT NULL DEFAULT '',
			status     VARCHAR(20) NOT NULL DEFAULT 'subscribed',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bsm_lists (
			list_id     SERIAL PRIMARY KEY,
			name        VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bsm_contact_lists (
			contact_id INT NOT NULL,
			list_id    INT NOT NULL,
			PRIMARY KEY (contact_id, list_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bsm_campaign_lists (
			campaign_id INT NOT NULL,
			list_id     INT NOT NULL,
			PRIMARY KEY (campaign_id, list_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bsm_queue (
			queue_id    SERIAL PRIMARY KEY,
			campaign_id INT NOT NULL,
			contact_id  INT NOT NULL,
			status      VARCHAR(20) NOT NULL DEFAULT 'pending',
			attempts    INT NOT NULL DEFAULT 0,
			added_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (campaign_id, contact_id)
		)`,
		`CREATE INDEX IF NOT EXISTS bsm_queue_status_idx ON bsm_queue (status, added_at)`,
		`CREATE TABLE IF NOT EXISTS bsm_email_opens (
			open_id    SERIAL PRIMARY KEY,
			queue_id   INT NOT NULL,
			opened_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ip_address VARCHAR(100) NOT NULL DEFAULT '',
			user_agent VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS bsm_email_opens_queue_idx ON bsm_email_opens (queue_id)`,
		`CREATE TABLE IF NOT EXISTS bsm_email_clicks (
			click_id     SERIAL PRIMARY KEY,
			queue_id     INT NOT NULL,
			campaign_id  INT NOT NULL,
			contact_id   INT NOT NULL,
			original_url TEXT NOT NULL,
			clicked_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ip_address   VARCHAR(100) NOT NULL DEFAULT '',
			user_agent   VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS bsm_email_clicks_queue_idx ON bsm_email_clicks (queue_id)`,
		`CREATE TABLE IF NOT EXISTS bsm_logs (
			log_id     SERIAL PRIMARY KEY,
			severity   VARCHAR(20) NOT NULL,
			source     VARCHAR(50) NOT NULL,
			message    TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
