// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"encoding/json"
	"fmt"
	"path"
	"slices"

	"hawkeye/model"
)

const portalReportType = "private"

// BuildOrMergeReportConfig returns the portal document for report with chart added to it.
// existing is the document currently stored in the portal, or nil when there is none.
func (c *Composer) BuildOrMergeReportConfig(existing *ReportConfig, report *model.Report, chart *model.Chart) (ReportConfig, error) {
	var doc ReportConfig
	if existing != nil {
		var err error
		if doc, err = deepCopy(*existing); err != nil {
			return ReportConfig{}, fmt.Errorf("failed to copy report config: %w", err)
		}
	} else {
		doc = c.reportTemplate()
	}

	labels := chart.Labels()
	metricName, err := labels.Resolve(chart.YAxisLabel)
	if err != nil {
		return ReportConfig{}, err
	}
	legend, err := labels.Legend(chart.YAxisLabel)
	if err != nil {
		return ReportConfig{}, err
	}

	now := c.now()
	doc.Title = report.Name
	doc.Description = report.Description
	doc.UpdateFrequency = schedule(report)
	if doc.ReportDuration.StartDate == "" {
		start := report.CreatedAt
		if start.IsZero() {
			start = now
		}
		doc.ReportDuration.StartDate = start.Format(dateLayout)
	}
	doc.ReportDuration.EndDate = now.Format(dateLayout)
	doc.ReportGeneratedDate = now.Format(dateLayout)

	body := &doc.ReportConfig
	body.Label = report.Name
	body.Title = report.Name
	body.Description = report.Summary
	if body.Description == "" {
		body.Description = report.Description
	}

	i := slices.IndexFunc(body.Charts, func(b ChartBlock) bool { return b.ID == chart.ChartID })
	if i >= 0 {
		cfg := &body.Charts[i].ChartConfig
		cfg.Datasets = upsertDataset(cfg.Datasets, Dataset{DataExpr: metricName, Label: legend})
		return doc, nil
	}

	block, err := c.chartBlock(chart, metricName, legend)
	if err != nil {
		return ReportConfig{}, err
	}
	body.Charts = append(body.Charts, block)
	if !slices.ContainsFunc(body.DataSource, func(ds DataSource) bool { return ds.ID == chart.ChartID }) {
		body.DataSource = append(body.DataSource, DataSource{ID: chart.ChartID, Path: c.dataPath(chart, ".json")})
	}
	return doc, nil
}

func (c *Composer) reportTemplate() ReportConfig {
	return ReportConfig{
		AuthorizedRoles: slices.Clone(c.AuthorizedRoles),
		Tags:            slices.Clone(c.Tags),
		Type:            portalReportType,
		Slug:            c.Slug,
		ReportConfig: ReportBody{
			DataSource: []DataSource{},
			Charts:     []ChartBlock{},
		},
	}
}

func (c *Composer) chartBlock(chart *model.Chart, metricName, legend string) (ChartBlock, error) {
	labelsExpr := c.rollupColumn()
	if chart.XAxisLabel != "" {
		var err error
		if labelsExpr, err = chart.Labels().Resolve(chart.XAxisLabel); err != nil {
			return ChartBlock{}, err
		}
	}
	options, err := json.Marshal(chartOptions{
		Title: optionTitle{Display: true, Text: chart.Name},
		Scales: optionScales{
			XAxes: []optionAxis{{ScaleLabel: optionScaleLabel{Display: true, LabelString: labelsExpr}}},
			YAxes: []optionAxis{{ScaleLabel: optionScaleLabel{Display: true, LabelString: metricName}}},
		},
	})
	if err != nil {
		return ChartBlock{}, fmt.Errorf("failed to encode chart options: %w", err)
	}
	return ChartBlock{
		ID: chart.ChartID,
		DataSource: ChartDataSource{
			IDs:             []string{chart.ChartID},
			CommonDimension: labelsExpr,
		},
		ChartConfig: ChartConfig{
			ID:         chart.ChartID,
			ChartType:  chart.ChartType,
			LabelsExpr: labelsExpr,
			Datasets:   []Dataset{{DataExpr: metricName, Label: legend}},
			Options:    options,
		},
		DownloadURL: c.dataPath(chart, ".csv"),
	}, nil
}

func upsertDataset(datasets []Dataset, d Dataset) []Dataset {
	i := slices.IndexFunc(datasets, func(existing Dataset) bool { return existing.DataExpr == d.DataExpr })
	if i < 0 {
		return append(datasets, d)
	}
	datasets[i].Label = d.Label
	return datasets
}

func (c *Composer) dataPath(chart *model.Chart, ext string) string {
	return path.Join("/reports", c.KeyPrefix, chart.ChartID+ext)
}
