// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hawkeye/model"
)

// Store persists reports and charts. Load methods return ErrNotFound when nothing matches.
type Store interface {
	LoadReportBySlice(ctx context.Context, sliceID int64) (*model.Report, error)
	LoadChartBySlice(ctx context.Context, sliceID int64) (*model.Chart, error)
	LoadReport(ctx context.Context, id string) (*model.Report, error)
	SaveReport(ctx context.Context, report *model.Report) error
	SaveChart(ctx context.Context, chart *model.Chart) error
}

type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const reportColumns = `id, name, description, summary, type, frequency, published_report_id, created_by, created_at, updated_at`

const chartColumns = `id, report_id, slice_id, chart_id, name, description, summary, granularity, rolling_window,
	chart_type, chart_mode, x_axis_label, y_axis_label, label_mapping, source_query, status, is_new_chart,
	submitted_as_job, created_by, created_at, updated_at`

func (s *SQLStore) LoadReportBySlice(ctx context.Context, sliceID int64) (*model.Report, error) {
	var report model.Report
	err := s.db.GetContext(ctx, &report,
		`SELECT r.id, r.name, r.description, r.summary, r.type, r.frequency, r.published_report_id,
			r.created_by, r.created_at, r.updated_at
		FROM reports r
		JOIN charts c ON c.report_id = r.id
		WHERE c.slice_id = $1`,
		sliceID,
	)
	if err != nil {
		return nil, notFound(err, "report for slice %d", sliceID)
	}
	return &report, nil
}

func (s *SQLStore) LoadChartBySlice(ctx context.Context, sliceID int64) (*model.Chart, error) {
	var chart model.Chart
	err := s.db.GetContext(ctx, &chart, `SELECT `+chartColumns+` FROM charts WHERE slice_id = $1`, sliceID)
	if err != nil {
		return nil, notFound(err, "chart for slice %d", sliceID)
	}
	return &chart, nil
}

func (s *SQLStore) LoadReport(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	err := s.db.GetContext(ctx, &report, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "report %s", id)
	}
	return &report, nil
}

func (s *SQLStore) SaveReport(ctx context.Context, report *model.Report) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		VALUES (:id, :name, :description, :summary, :type, :frequency, :published_report_id,
			:created_by, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			summary = excluded.summary,
			type = excluded.type,
			frequency = excluded.frequency,
			published_report_id = excluded.published_report_id,
			updated_at = excluded.updated_at`,
		report,
	)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

func (s *SQLStore) SaveChart(ctx context.Context, chart *model.Chart) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO charts (`+chartColumns+`)
		VALUES (:id, :report_id, :slice_id, :chart_id, :name, :description, :summary, :granularity,
			:rolling_window, :chart_type, :chart_mode, :x_axis_label, :y_axis_label, :label_mapping,
			:source_query, :status, :is_new_chart, :submitted_as_job, :created_by, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			report_id = excluded.report_id,
			chart_id = excluded.chart_id,
			name = excluded.name,
			description = excluded.description,
			summary = excluded.summary,
			granularity = excluded.granularity,
			rolling_window = excluded.rolling_window,
			chart_type = excluded.chart_type,
			chart_mode = excluded.chart_mode,
			x_axis_label = excluded.x_axis_label,
			y_axis_label = excluded.y_axis_label,
			label_mapping = excluded.label_mapping,
			source_query = excluded.source_query,
			status = excluded.status,
			is_new_chart = excluded.is_new_chart,
			submitted_as_job = excluded.submitted_as_job,
			updated_at = excluded.updated_at`,
		chart,
	)
	if err != nil {
		return fmt.Errorf("failed to save chart %s: %w", chart.ID, err)
	}
	return nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("failed to load %s: %w", fmt.Sprintf(format, args...), err)
}
