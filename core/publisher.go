// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"hawkeye/compose"
	"hawkeye/model"
	"hawkeye/query"
	"hawkeye/remote"
)

// PortalAPI is the part of the report portal the publisher uses.
type PortalAPI interface {
	GetReport(ctx context.Context, id string) (*compose.ReportConfig, error)
	CreateReport(ctx context.Context, doc compose.ReportConfig) (string, error)
	UpdateReport(ctx context.Context, id string, doc compose.ReportConfig) (string, error)
}

// AnalyticsAPI is the part of the job-analytics service the publisher uses.
type AnalyticsAPI interface {
	GetJob(ctx context.Context, chartID string) (*compose.JobConfig, error)
	SubmitJob(ctx context.Context, job compose.JobConfig) error
	UpdateJob(ctx context.Context, chartID string, job compose.JobConfig) error
}

// Archiver keeps a copy of what was published. Failures never fail a publish.
type Archiver interface {
	Archive(ctx context.Context, chartID string, report compose.ReportConfig, job compose.JobConfig) error
}

type Publisher struct {
	Portal    PortalAPI
	Analytics AnalyticsAPI
	Store     Store
	Composer  *compose.Composer
	Retry     RetryPolicy
	Logger    *slog.Logger
	Events    *Events
	Snapshots Archiver
}

// Publish pushes the chart to the portal and then to the analytics service and marks it live.
// It returns the portal's report id. The chart and report are only changed when both stages
// succeed, except for a chart id rename after a collision, which is saved right away.
func (p *Publisher) Publish(ctx context.Context, report *model.Report, chart *model.Chart) (string, error) {
	next, err := Advance(chart.Status, ActionPublish)
	if err != nil {
		return "", err
	}
	src, dq, err := translateChart(chart)
	if err != nil {
		return "", err
	}
	if err := compose.CheckSchedule(report, chart, src); err != nil {
		return "", &ValidationError{Message: fmt.Sprintf("cannot schedule chart %q: %v", chart.ChartID, err), Err: err}
	}

	start := time.Now()
	logger := p.Logger.With(slog.Int64("slice", chart.SliceID), slog.String("chart", chart.ChartID))

	portalID, reportDoc, err := p.publishReport(ctx, logger, report, chart)
	if err != nil {
		metricPublishCounter.WithLabelValues("failed").Inc()
		return "", err
	}
	jobDoc, err := p.publishJob(ctx, logger, report, chart, src, dq)
	if err != nil {
		metricPublishCounter.WithLabelValues("failed").Inc()
		return "", err
	}

	prevReport, prevChart := *report, *chart
	now := time.Now()
	report.PublishedReportID = &portalID
	report.UpdatedAt = now
	chart.Status = next
	chart.SubmittedAsJob = true
	chart.IsNewChart = false
	chart.UpdatedAt = now
	if err := p.Store.SaveReport(ctx, report); err != nil {
		*report, *chart = prevReport, prevChart
		metricPublishCounter.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to save published report: %w", err)
	}
	// The report row already carries the portal id, so only the chart goes back.
	if err := p.Store.SaveChart(ctx, chart); err != nil {
		*chart = prevChart
		metricPublishCounter.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to save published chart: %w", err)
	}

	metricPublishCounter.WithLabelValues("success").Inc()
	metricPublishDuration.Observe(time.Since(start).Seconds())
	logger.Info("Chart published", slog.String("portalReportId", portalID))

	p.Events.Emit(ctx, EventChartPublished, report, chart)
	if p.Snapshots != nil {
		if err := p.Snapshots.Archive(ctx, chart.ChartID, reportDoc, jobDoc); err != nil {
			logger.Warn("failed to archive published documents", slog.Any("error", err))
		}
	}
	return portalID, nil
}

func translateChart(chart *model.Chart) (query.Query, query.DruidQuery, error) {
	if err := compose.CheckLabels(chart); err != nil {
		return query.Query{}, query.DruidQuery{}, &TranslationError{Err: err}
	}
	src, err := query.ParseQuery(chart.SourceQuery)
	if err != nil {
		return query.Query{}, query.DruidQuery{}, &TranslationError{Err: err}
	}
	dq, err := query.Translate(src, chart.Labels(), chart.Target())
	if err != nil {
		return query.Query{}, query.DruidQuery{}, &TranslationError{Err: err}
	}
	return src, dq, nil
}

func (p *Publisher) publishReport(ctx context.Context, logger *slog.Logger, report *model.Report, chart *model.Chart) (string, compose.ReportConfig, error) {
	var portalID string
	var doc compose.ReportConfig
	attempts, err := p.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var existing *compose.ReportConfig
		publishedID := ""
		if report.PublishedReportID != nil {
			publishedID = *report.PublishedReportID
		}
		if publishedID != "" {
			var err error
			existing, err = p.Portal.GetReport(ctx, publishedID)
			if remote.IsNotFound(err) {
				existing, err = nil, nil
			}
			if err != nil {
				logger.Warn("Failed to fetch report config", slog.Int("attempt", attempt), slog.Any("error", err))
				return fmt.Errorf("failed to fetch report config: %w", err)
			}
		}

		composed, err := p.Composer.BuildOrMergeReportConfig(existing, report, chart)
		if err != nil {
			return Permanent(fmt.Errorf("failed to compose report config: %w", err))
		}

		var id string
		if existing == nil {
			id, err = p.Portal.CreateReport(ctx, composed)
		} else {
			id, err = p.Portal.UpdateReport(ctx, publishedID, composed)
		}
		if err != nil {
			logger.Warn("Failed to send report config", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		portalID, doc = id, composed
		return nil
	})
	metricPublishAttempts.WithLabelValues(string(StagePortal)).Add(float64(attempts))
	if err != nil {
		return "", compose.ReportConfig{}, &PublishFailure{Stage: StagePortal, Attempts: attempts, Err: err}
	}
	return portalID, doc, nil
}

func (p *Publisher) publishJob(ctx context.Context, logger *slog.Logger, report *model.Report, chart *model.Chart, src query.Query, dq query.DruidQuery) (compose.JobConfig, error) {
	var job compose.JobConfig
	attempts, err := p.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		existing, err := p.Analytics.GetJob(ctx, chart.ChartID)
		if remote.IsNotFound(err) {
			existing, err = nil, nil
		}
		if err != nil {
			logger.Warn("Failed to fetch job config", slog.Int("attempt", attempt), slog.Any("error", err))
			return fmt.Errorf("failed to fetch job config: %w", err)
		}

		var composed compose.JobConfig
		if existing == nil {
			if composed, err = p.Composer.BuildJobConfig(report, chart, src, dq); err != nil {
				return Permanent(fmt.Errorf("failed to compose job config: %w", err))
			}
			err = p.Analytics.SubmitJob(ctx, composed)
		} else {
			if composed, err = p.Composer.MergeJobConfig(*existing, report, chart, src, dq); err != nil {
				return Permanent(fmt.Errorf("failed to compose job config: %w", err))
			}
			err = p.Analytics.UpdateJob(ctx, chart.ChartID, composed)
		}

		if remote.IsCollision(err) {
			previous := chart.ChartID
			chart.ChartID = NextChartID(chart.ChartID)
			chart.UpdatedAt = time.Now()
			if serr := p.Store.SaveChart(ctx, chart); serr != nil {
				return Permanent(fmt.Errorf("failed to save renamed chart: %w", serr))
			}
			metricChartIDCollisions.Inc()
			logger.Info("Chart id taken, renamed", slog.String("from", previous), slog.String("to", chart.ChartID))
			return err
		}
		if err != nil {
			logger.Warn("Failed to send job config", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		job = composed
		return nil
	})
	metricPublishAttempts.WithLabelValues(string(StageAnalytics)).Add(float64(attempts))
	if err != nil {
		return compose.JobConfig{}, &PublishFailure{Stage: StageAnalytics, Attempts: attempts, Err: err}
	}
	return job, nil
}

var suffixPattern = regexp.MustCompile(`^(.*)_(\d+)$`)

// NextChartID appends _1 to id, or increments the number when id already ends in _N.
func NextChartID(id string) string {
	if m := suffixPattern.FindStringSubmatch(id); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return m[1] + "_" + strconv.Itoa(n+1)
		}
	}
	return id + "_1"
}
