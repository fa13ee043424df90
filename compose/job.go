// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"hawkeye/model"
	"hawkeye/query"
)

const (
	ScheduleOnce     = "ONCE"
	outputTypeCSV    = "csv"
	defaultRollupCol = "Date"
)

// Composer builds and merges the documents published for a chart. The fields are deployment
// settings that end up in fixed blocks of every document.
type Composer struct {
	CreatedBy       string
	Store           string
	Container       string
	KeyPrefix       string
	AuthorizedRoles []string
	Tags            []string
	Slug            string
	RollupColumn    string
	Now             func() time.Time
}

func (c *Composer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Composer) rollupColumn() string {
	if c.RollupColumn != "" {
		return c.RollupColumn
	}
	return defaultRollupCol
}

func schedule(report *model.Report) string {
	if report.IsOneTime() {
		return ScheduleOnce
	}
	return report.Frequency
}

func description(report *model.Report, chart *model.Chart) string {
	if chart.Description != "" {
		return chart.Description
	}
	return report.Description
}

// BuildJobConfig assembles the job for a chart the analytics service does not know yet.
// src is the chart's source query and dq its translation.
func (c *Composer) BuildJobConfig(report *model.Report, chart *model.Chart, src query.Query, dq query.DruidQuery) (JobConfig, error) {
	labels := chart.Labels()
	metricName, err := labels.Resolve(chart.YAxisLabel)
	if err != nil {
		return JobConfig{}, err
	}
	legend, err := labels.Legend(chart.YAxisLabel)
	if err != nil {
		return JobConfig{}, err
	}
	dateRange, err := c.dateRange(report, chart, src, dq)
	if err != nil {
		return JobConfig{}, err
	}
	mergeConfig, err := c.mergeConfig(report, chart)
	if err != nil {
		return JobConfig{}, err
	}
	druidQuery, err := json.Marshal(dq)
	if err != nil {
		return JobConfig{}, fmt.Errorf("failed to encode druid query: %w", err)
	}

	return JobConfig{
		ReportID:       chart.ChartID,
		CreatedBy:      c.CreatedBy,
		Description:    description(report, chart),
		ReportSchedule: schedule(report),
		Config: JobBody{
			ReportConfig: JobReportConfig{
				ID:          chart.ChartID,
				QueryType:   dq.QueryType,
				DateRange:   dateRange,
				MergeConfig: mergeConfig,
				Metrics:     []Metric{{Metric: metricName, Label: legend, DruidQuery: druidQuery}},
				Labels:      maps.Clone(map[string]string(chart.LabelMapping)),
				Output: []Output{{
					Type:           outputTypeCSV,
					Label:          chart.Name,
					Metrics:        []string{metricName},
					Dims:           c.outputDims(dq),
					FileParameters: []string{"id", "dims"},
				}},
			},
			Store:     c.Store,
			Container: c.Container,
			Key:       c.KeyPrefix,
		},
	}, nil
}

// MergeJobConfig adds the chart's metric to an existing job. Metrics of other charts and
// members this package does not model are kept as they are.
func (c *Composer) MergeJobConfig(existing JobConfig, report *model.Report, chart *model.Chart, src query.Query, dq query.DruidQuery) (JobConfig, error) {
	fresh, err := c.BuildJobConfig(report, chart, src, dq)
	if err != nil {
		return JobConfig{}, err
	}
	job, err := deepCopy(existing)
	if err != nil {
		return JobConfig{}, fmt.Errorf("failed to copy job config: %w", err)
	}

	job.Description = fresh.Description
	job.ReportSchedule = fresh.ReportSchedule

	rc := &job.Config.ReportConfig
	next := fresh.Config.ReportConfig
	if rc.ID == "" {
		rc.ID = next.ID
	}
	rc.QueryType = next.QueryType
	next.DateRange.Extra = rc.DateRange.Extra
	rc.DateRange = next.DateRange
	// A chart that does not roll up leaves the job's merge block alone.
	if next.MergeConfig != nil {
		if rc.MergeConfig != nil {
			next.MergeConfig.Extra = rc.MergeConfig.Extra
		}
		rc.MergeConfig = next.MergeConfig
	}
	rc.Labels = next.Labels
	rc.Metrics = upsertMetric(rc.Metrics, next.Metrics[0])

	if len(rc.Output) == 0 {
		rc.Output = next.Output
	} else {
		out := &rc.Output[0]
		out.Metrics = appendMissing(out.Metrics, next.Output[0].Metrics...)
		out.Dims = appendMissing(out.Dims, next.Output[0].Dims...)
	}
	return job, nil
}

func upsertMetric(metrics []Metric, m Metric) []Metric {
	i := slices.IndexFunc(metrics, func(existing Metric) bool { return existing.Metric == m.Metric })
	if i < 0 {
		return append(metrics, m)
	}
	m.Extra = metrics[i].Extra
	metrics[i] = m
	return metrics
}

func appendMissing(list []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}

func (c *Composer) dateRange(report *model.Report, chart *model.Chart, src query.Query, dq query.DruidQuery) (DateRange, error) {
	if !report.IsOneTime() {
		return DateRange{StaticInterval: chart.RollingWindow, Granularity: dq.Granularity}, nil
	}
	interval, err := parseInterval(src.Intervals)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Interval: &interval, Granularity: dq.Granularity}, nil
}

func (c *Composer) mergeConfig(report *model.Report, chart *model.Chart) (*MergeConfig, error) {
	if chart.ChartMode != model.ChartModeAdd {
		return nil, nil
	}
	r, err := rollupFor(chart.RollingWindow)
	if err != nil {
		return nil, err
	}
	return &MergeConfig{
		Frequency:     schedule(report),
		Rollup:        1,
		RollupAge:     r.Age,
		RollupCol:     c.rollupColumn(),
		RollupRange:   r.Range,
		ReportPath:    chart.ChartID + ".csv",
		Container:     c.Container,
		PostContainer: c.Container,
	}, nil
}

func (c *Composer) outputDims(dq query.DruidQuery) []string {
	dims := make([]string, 0, len(dq.Dimensions)+1)
	if dq.Granularity != "all" {
		dims = append(dims, c.rollupColumn())
	}
	for _, d := range dq.Dimensions {
		dims = append(dims, d.AliasName)
	}
	return dims
}
