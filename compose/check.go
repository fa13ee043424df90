// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"hawkeye/model"
	"hawkeye/query"
)

// CheckLabels resolves every label the builders look up for chart.
func CheckLabels(chart *model.Chart) error {
	labels := chart.Labels()
	if _, err := labels.Resolve(chart.YAxisLabel); err != nil {
		return err
	}
	if chart.XAxisLabel != "" {
		if _, err := labels.Resolve(chart.XAxisLabel); err != nil {
			return err
		}
	}
	return nil
}

// CheckSchedule fails when the job's date range or merge block cannot be built from
// report and chart.
func CheckSchedule(report *model.Report, chart *model.Chart, src query.Query) error {
	if report.IsOneTime() {
		if err := CheckIntervals(src.Intervals); err != nil {
			return err
		}
	}
	if chart.ChartMode == model.ChartModeAdd {
		if _, err := rollupFor(chart.RollingWindow); err != nil {
			return err
		}
	}
	return nil
}

// CheckIntervals fails unless the first interval has a start and an end date.
func CheckIntervals(intervals []string) error {
	_, err := parseInterval(intervals)
	return err
}
