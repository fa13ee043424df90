// SPDX-License-Identifier: MPL-2.0

package core

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InitDB creates the tables hawkeye keeps its state in. It is safe to call on every start.
func InitDB(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			frequency TEXT NOT NULL DEFAULT '',
			published_report_id TEXT,
			created_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating reports table: %w", err)
	}

	// One chart per slice. chart_id is the identifier the external services know the chart by.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS charts (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL REFERENCES reports(id),
			slice_id INTEGER NOT NULL UNIQUE,
			chart_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			granularity TEXT NOT NULL DEFAULT '',
			rolling_window TEXT NOT NULL DEFAULT '',
			chart_type TEXT NOT NULL DEFAULT '',
			chart_mode TEXT NOT NULL DEFAULT 'new',
			x_axis_label TEXT NOT NULL DEFAULT '',
			y_axis_label TEXT NOT NULL DEFAULT '',
			label_mapping TEXT NOT NULL DEFAULT '{}',
			source_query TEXT,
			status TEXT NOT NULL,
			is_new_chart BOOLEAN NOT NULL DEFAULT 1,
			submitted_as_job BOOLEAN NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating charts table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS charts_report_id_idx ON charts (report_id)`)
	if err != nil {
		return fmt.Errorf("error creating charts index: %w", err)
	}

	// Lifecycle events recorded from the event stream. id is the event id, so redelivered
	// events are stored once.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chart_events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			slice_id INTEGER NOT NULL,
			report_id TEXT NOT NULL,
			chart_id TEXT NOT NULL,
			status TEXT NOT NULL,
			published_report_id TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating chart_events table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS chart_events_slice_id_idx ON chart_events (slice_id, timestamp)`)
	if err != nil {
		return fmt.Errorf("error creating chart_events index: %w", err)
	}
	return nil
}
