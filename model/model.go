// SPDX-License-Identifier: MPL-2.0

package model

import (
	"time"

	"hawkeye/query"
)

type ReportType string

const (
	ReportOneTime   ReportType = "one-time"
	ReportScheduled ReportType = "scheduled"
)

type ChartMode string

const (
	ChartModeNew     ChartMode = "new"
	ChartModeReplace ChartMode = "replace"
	// ChartModeAdd appends each run to the previous output instead of replacing it.
	ChartModeAdd ChartMode = "add"
)

type ChartStatus string

const (
	StatusDraft      ChartStatus = "draft"
	StatusReview     ChartStatus = "review"
	StatusApproved   ChartStatus = "approved"
	StatusLive       ChartStatus = "live"
	StatusPortalLive ChartStatus = "portal_live"
	StatusRetired    ChartStatus = "retired"
)

type Report struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Description       string     `db:"description" json:"description"`
	Summary           string     `db:"summary" json:"summary"`
	Type              ReportType `db:"type" json:"type"`
	Frequency         string     `db:"frequency" json:"frequency"`
	PublishedReportID *string    `db:"published_report_id" json:"publishedReportId,omitempty"`
	CreatedBy         string     `db:"created_by" json:"createdBy"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

func (r *Report) IsOneTime() bool {
	return r.Type == ReportOneTime
}

// Chart is one visualization attached to a slice and published as part of a report.
// ChartID is the identifier used by the external systems, not the row id.
type Chart struct {
	ID             string      `db:"id" json:"id"`
	ReportID       string      `db:"report_id" json:"reportId"`
	SliceID        int64       `db:"slice_id" json:"sliceId"`
	ChartID        string      `db:"chart_id" json:"chartId"`
	Name           string      `db:"name" json:"name"`
	Description    string      `db:"description" json:"description"`
	Summary        string      `db:"summary" json:"summary"`
	Granularity    string      `db:"granularity" json:"granularity"`
	RollingWindow  string      `db:"rolling_window" json:"rollingWindow"`
	ChartType      string      `db:"chart_type" json:"chartType"`
	ChartMode      ChartMode   `db:"chart_mode" json:"chartMode"`
	XAxisLabel     string      `db:"x_axis_label" json:"xAxisLabel"`
	YAxisLabel     string      `db:"y_axis_label" json:"yAxisLabel"`
	LabelMapping   Labels      `db:"label_mapping" json:"labelMapping"`
	SourceQuery    Document    `db:"source_query" json:"sourceQuery"`
	Status         ChartStatus `db:"status" json:"status"`
	IsNewChart     bool        `db:"is_new_chart" json:"isNewChart"`
	SubmittedAsJob bool        `db:"submitted_as_job" json:"submittedAsJob"`
	CreatedBy      string      `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

func (c *Chart) Labels() query.LabelMapping {
	return query.LabelMapping(c.LabelMapping)
}

func (c *Chart) Target() query.Target {
	return query.Target{Granularity: c.Granularity, MetricLabel: c.YAxisLabel}
}
