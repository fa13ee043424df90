// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownRollingWindow = errors.New("unknown rolling window")
	ErrInvalidInterval      = errors.New("invalid interval")
)

type rollup struct {
	Age   string
	Range int
}

var rollups = map[string]rollup{
	"LastDay":      {"DAY", 1},
	"Last7Days":    {"DAY", 7},
	"LastWeek":     {"WEEK", 1},
	"Last30Days":   {"DAY", 30},
	"LastMonth":    {"MONTH", 1},
	"YTD":          {"GEN_YEAR", 1},
	"AcademicYear": {"ACADEMIC_YEAR", 1},
}

func rollupFor(window string) (rollup, error) {
	r, ok := rollups[window]
	if !ok {
		return rollup{}, fmt.Errorf("%w: %q", ErrUnknownRollingWindow, window)
	}
	return r, nil
}

const dateLayout = "2006-01-02"

// parseInterval reads an ISO interval such as 2020-01-01/2020-01-08 or
// 2020-01-01T00:00:00+00:00/2020-01-08T00:00:00+00:00 and returns its dates.
func parseInterval(intervals []string) (Interval, error) {
	if len(intervals) == 0 {
		return Interval{}, fmt.Errorf("%w: query has no intervals", ErrInvalidInterval)
	}
	start, end, ok := strings.Cut(intervals[0], "/")
	if !ok {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, intervals[0])
	}
	startDate, err := parseDate(start)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, intervals[0])
	}
	endDate, err := parseDate(end)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, intervals[0])
	}
	return Interval{StartDate: startDate.Format(dateLayout), EndDate: endDate.Format(dateLayout)}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}
