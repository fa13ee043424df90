// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RecordEvents stores events, skipping ids that were already recorded. db may be a transaction.
func RecordEvents(ctx context.Context, db sqlx.ExtContext, events []Event) error {
	for _, event := range events {
		_, err := sqlx.NamedExecContext(ctx, db,
			`INSERT INTO chart_events (id, type, timestamp, actor, slice_id, report_id, chart_id, status, published_report_id)
			VALUES (:id, :type, :timestamp, :actor, :slice_id, :report_id, :chart_id, :status, :published_report_id)
			ON CONFLICT (id) DO NOTHING`,
			event,
		)
		if err != nil {
			return fmt.Errorf("failed to record event %s: %w", event.ID, err)
		}
	}
	return nil
}

// ListChartEvents returns the recorded lifecycle of the chart on a slice, oldest first.
func ListChartEvents(app *App, ctx context.Context, sliceID int64) ([]Event, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	if _, err := app.Store.LoadChartBySlice(ctx, sliceID); err != nil {
		return nil, err
	}
	events := []Event{}
	err := app.DB.SelectContext(ctx, &events,
		`SELECT id, type, timestamp, actor, slice_id, report_id, chart_id, status, published_report_id
		FROM chart_events
		WHERE slice_id = $1
		ORDER BY timestamp, id`,
		sliceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for slice %d: %w", sliceID, err)
	}
	return events, nil
}
