// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nrednav/cuid2"

	"hawkeye/compose"
	"hawkeye/model"
	"hawkeye/query"
)

type SaveConfigRequest struct {
	ReportName        string            `json:"reportName" validate:"required,max=250"`
	ReportDescription string            `json:"reportDescription" validate:"max=250"`
	ReportSummary     string            `json:"reportSummary"`
	ReportType        string            `json:"reportType" validate:"required,oneof=one-time scheduled"`
	ReportFrequency   string            `json:"reportFrequency" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	ChartID           string            `json:"chartId" validate:"required,max=250"`
	ChartName         string            `json:"chartName" validate:"required,max=250"`
	ChartDescription  string            `json:"chartDescription" validate:"max=250"`
	ChartSummary      string            `json:"chartSummary"`
	Granularity       string            `json:"chartGranularity" validate:"omitempty,oneof=DAY WEEK MONTH ALL"`
	RollingWindow     string            `json:"rollingWindow" validate:"omitempty,oneof=LastDay Last7Days LastWeek Last30Days LastMonth YTD AcademicYear"`
	ChartType         string            `json:"chartType" validate:"required,oneof=line bar pie stackedbar horizontalBar"`
	ChartMode         string            `json:"chartMode" validate:"required,oneof=new replace add"`
	XAxisLabel        string            `json:"xAxisLabel"`
	YAxisLabel        string            `json:"yAxisLabel" validate:"required"`
	LabelMapping      map[string]string `json:"labelMapping" validate:"required,min=1"`
	SourceQuery       json.RawMessage   `json:"sourceQuery" validate:"required"`
	IsNewChart        bool              `json:"isNewChart"`
}

// ReportView is a chart with its report, as returned to the explore page.
type ReportView struct {
	Report    model.Report `json:"report"`
	Chart     model.Chart  `json:"chart"`
	PortalURL string       `json:"portalUrl,omitempty"`
}

func (app *App) view(report *model.Report, chart *model.Chart) *ReportView {
	v := &ReportView{Report: *report, Chart: *chart}
	if report.PublishedReportID != nil {
		v.PortalURL = app.PortalURL(*report.PublishedReportID)
	}
	return v
}

func (app *App) validateSaveRequest(req SaveConfigRequest) error {
	if err := app.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return validationErrorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return validationErrorf("invalid request: %v", err)
	}
	if model.ReportType(req.ReportType) == model.ReportScheduled {
		if req.ReportFrequency == "" {
			return validationErrorf("scheduled reports need a frequency")
		}
		if req.RollingWindow == "" {
			return validationErrorf("scheduled reports need a rolling window")
		}
	}
	if model.ChartMode(req.ChartMode) == model.ChartModeAdd && req.RollingWindow == "" {
		return validationErrorf("charts in add mode need a rolling window")
	}
	if _, ok := req.LabelMapping[req.YAxisLabel]; !ok {
		return validationErrorf("y axis %q has no label", req.YAxisLabel)
	}
	if req.XAxisLabel != "" {
		if _, ok := req.LabelMapping[req.XAxisLabel]; !ok {
			return validationErrorf("x axis %q has no label", req.XAxisLabel)
		}
	}
	src, err := query.ParseQuery(req.SourceQuery)
	if err != nil {
		return validationErrorf("invalid source query: %v", err)
	}
	if model.ReportType(req.ReportType) == model.ReportOneTime {
		if err := compose.CheckIntervals(src.Intervals); err != nil {
			return &ValidationError{Message: fmt.Sprintf("one-time reports need a query interval: %v", err), Err: err}
		}
	}
	return nil
}

// SaveReportConfig creates or updates the report and chart attached to a slice.
// Only the chart's owner may edit it and only while it is a draft.
func SaveReportConfig(app *App, ctx context.Context, sliceID int64, req SaveConfigRequest) (*ReportView, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.validateSaveRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	chart, err := app.Store.LoadChartBySlice(ctx, sliceID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	var report *model.Report
	if chart != nil {
		if !app.Permissions.CurrentUserIsOwner(ctx, chart.CreatedBy) {
			return nil, fmt.Errorf("%w: only the owner can edit this report", ErrForbidden)
		}
		if chart.Status != model.StatusDraft {
			return nil, validationErrorf("chart is in status %q, only drafts can be edited", chart.Status)
		}
		if report, err = app.Store.LoadReport(ctx, chart.ReportID); err != nil {
			return nil, err
		}
	} else {
		report = &model.Report{ID: cuid2.Generate(), CreatedBy: actor.ID, CreatedAt: now}
		chart = &model.Chart{
			ID:        cuid2.Generate(),
			ReportID:  report.ID,
			SliceID:   sliceID,
			Status:    model.StatusDraft,
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
	}

	report.Name = strings.TrimSpace(req.ReportName)
	report.Description = req.ReportDescription
	report.Summary = req.ReportSummary
	report.Type = model.ReportType(req.ReportType)
	report.Frequency = req.ReportFrequency
	report.UpdatedAt = now

	chart.ChartID = strings.TrimSpace(req.ChartID)
	chart.Name = strings.TrimSpace(req.ChartName)
	chart.Description = req.ChartDescription
	chart.Summary = req.ChartSummary
	chart.Granularity = req.Granularity
	chart.RollingWindow = req.RollingWindow
	chart.ChartType = req.ChartType
	chart.ChartMode = model.ChartMode(req.ChartMode)
	chart.XAxisLabel = req.XAxisLabel
	chart.YAxisLabel = req.YAxisLabel
	chart.LabelMapping = maps.Clone(model.Labels(req.LabelMapping))
	chart.SourceQuery = model.Document(req.SourceQuery)
	chart.IsNewChart = req.IsNewChart
	chart.UpdatedAt = now

	if err := app.Store.SaveReport(ctx, report); err != nil {
		return nil, err
	}
	if err := app.Store.SaveChart(ctx, chart); err != nil {
		return nil, err
	}
	app.Events.Emit(ctx, EventChartSaved, report, chart)
	return app.view(report, chart), nil
}

// SubmitForReview hands a draft chart to the reviewers.
func SubmitForReview(app *App, ctx context.Context, sliceID int64) (*ReportView, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	report, chart, err := loadSlice(app, ctx, sliceID)
	if err != nil {
		return nil, err
	}
	if !app.Permissions.CurrentUserIsOwner(ctx, chart.CreatedBy) {
		return nil, fmt.Errorf("%w: only the owner can submit this report", ErrForbidden)
	}
	if err := advanceAndSave(app, ctx, chart, ActionSubmit); err != nil {
		return nil, err
	}
	app.Events.Emit(ctx, EventChartSubmitted, report, chart)
	return app.view(report, chart), nil
}

// ReviewChart approves a chart under review, or sends it back to draft.
func ReviewChart(app *App, ctx context.Context, sliceID int64, approve bool) (*ReportView, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	if !app.Permissions.CurrentUserCanPublish(ctx) {
		return nil, fmt.Errorf("%w: reviewing reports requires the publish permission", ErrForbidden)
	}
	report, chart, err := loadSlice(app, ctx, sliceID)
	if err != nil {
		return nil, err
	}
	action := ActionReject
	if approve {
		action = ActionApprove
	}
	if err := advanceAndSave(app, ctx, chart, action); err != nil {
		return nil, err
	}
	app.Events.Emit(ctx, EventChartReviewed, report, chart)
	return app.view(report, chart), nil
}

// PublishChart sends an approved or reviewed chart to the portal and the analytics service.
func PublishChart(app *App, ctx context.Context, sliceID int64) (*ReportView, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	if !app.Permissions.CurrentUserCanPublish(ctx) {
		return nil, fmt.Errorf("%w: publishing reports requires the publish permission", ErrForbidden)
	}
	report, chart, err := loadSlice(app, ctx, sliceID)
	if err != nil {
		return nil, err
	}
	if _, err := app.Publisher.Publish(ctx, report, chart); err != nil {
		return nil, err
	}
	return app.view(report, chart), nil
}

// GetReportConfig returns the report and chart of a slice. A live chart is checked against the
// portal first so charts the portal has since made public or retired show their current status.
func GetReportConfig(app *App, ctx context.Context, sliceID int64) (*ReportView, error) {
	report, chart, err := loadSlice(app, ctx, sliceID)
	if err != nil {
		return nil, err
	}
	reconcile(app, ctx, report, chart)
	return app.view(report, chart), nil
}

func reconcile(app *App, ctx context.Context, report *model.Report, chart *model.Chart) {
	if chart.Status != model.StatusLive && chart.Status != model.StatusPortalLive {
		return
	}
	if report.PublishedReportID == nil || *report.PublishedReportID == "" || app.Portal == nil {
		return
	}
	doc, err := app.Portal.GetReport(ctx, *report.PublishedReportID)
	if err != nil {
		app.Logger.Warn("failed to fetch report status from portal",
			slog.String("publishedReportId", *report.PublishedReportID), slog.Any("error", err))
		return
	}
	if doc == nil {
		return
	}

	var action Action
	switch {
	case doc.Status == "live" && chart.Status == model.StatusLive:
		action = ActionGoLive
	case doc.Status == "retired":
		action = ActionRetire
	default:
		return
	}
	if err := advanceAndSave(app, ctx, chart, action); err != nil {
		app.Logger.Warn("failed to reconcile chart status", slog.Int64("slice", chart.SliceID), slog.Any("error", err))
		return
	}
	app.Events.Emit(ctx, EventChartReconciled, report, chart)
}

func loadSlice(app *App, ctx context.Context, sliceID int64) (*model.Report, *model.Chart, error) {
	chart, err := app.Store.LoadChartBySlice(ctx, sliceID)
	if err != nil {
		return nil, nil, err
	}
	report, err := app.Store.LoadReportBySlice(ctx, sliceID)
	if err != nil {
		return nil, nil, err
	}
	return report, chart, nil
}

func advanceAndSave(app *App, ctx context.Context, chart *model.Chart, action Action) error {
	next, err := Advance(chart.Status, action)
	if err != nil {
		return err
	}
	previous := chart.Status
	chart.Status = next
	chart.UpdatedAt = time.Now()
	if err := app.Store.SaveChart(ctx, chart); err != nil {
		chart.Status = previous
		return err
	}
	return nil
}
