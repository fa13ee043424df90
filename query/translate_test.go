// SPDX-License-Identifier: MPL-2.0

package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = LabelMapping{
	"state":        "State",
	"board":        "Board",
	"Total Scans":  "Total QR Scans",
	"legend":       "Scans",
	"content_type": "Content Type",
}

func TestParseQueryNormalisesSpellings(t *testing.T) {
	q, err := ParseQuery([]byte(`{
		"queryType": "topN",
		"dataSource": "content-usage",
		"dimension": {"type": "default", "dimension": "state", "outputName": "s"},
		"dimensions": ["board"],
		"metric": "count",
		"aggregations": [{"type": "longSum", "name": "total", "fieldName": "scans", "fieldNames": ["scans"]}],
		"filter": {"type": "and", "fields": [
			{"type": "selector", "dimension": "state", "value": "KA"},
			{"type": "bound", "dimension": "grade", "lower": "5"}
		]},
		"granularity": "day",
		"intervals": "2020-01-01/2020-01-08",
		"threshold": 10
	}`))
	require.NoError(t, err)

	assert.Equal(t, "topN", q.QueryType)
	assert.Equal(t, []Dimension{{Name: "state", OutputName: "s"}, {Name: "board"}}, q.Dimensions)
	require.Len(t, q.Aggregations, 1)
	assert.Equal(t, "longSum", q.Aggregations[0].Type)
	assert.Contains(t, q.Aggregations[0].Extra, "fieldNames")
	require.Len(t, q.Filters, 2)
	assert.Equal(t, Selector{Dimension: "state", Value: "KA"}, q.Filters[0])
	assert.Equal(t, []string{"2020-01-01/2020-01-08"}, q.Intervals)
	assert.Len(t, q.Extra, 2)
	assert.JSONEq(t, `"content-usage"`, string(q.Extra["dataSource"]))
	assert.JSONEq(t, `10`, string(q.Extra["threshold"]))
}

func TestTranslate(t *testing.T) {
	q, err := ParseQuery([]byte(`{
		"queryType": "topN",
		"dataSource": "content-usage",
		"dimensions": ["state", "board"],
		"aggregations": [
			{"type": "count", "name": "count"},
			{"type": "longSum", "name": "sum__scans", "fieldName": "scans", "fieldNames": ["scans"]}
		],
		"filters": [
			{"type": "selector", "dimension": "state", "value": "KA"},
			{"type": "or", "fields": [
				{"type": "selector", "dimension": "board", "value": "CBSE"},
				{"type": "selector", "dimension": "board", "value": "State"}
			]}
		],
		"granularity": "all",
		"intervals": ["2020-01-01/2020-01-08"]
	}`))
	require.NoError(t, err)

	got, err := Translate(q, testLabels, Target{Granularity: "Week", MetricLabel: "Total Scans"})
	require.NoError(t, err)

	assert.Equal(t, "groupBy", got.QueryType)
	assert.Equal(t, "week", got.Granularity)
	assert.Equal(t, []DimensionAlias{
		{FieldName: "state", AliasName: "State"},
		{FieldName: "board", AliasName: "Board"},
	}, got.Dimensions)
	assert.Equal(t, []Filter{
		{Type: FilterEquals, Dimension: "state", Value: "KA"},
		{Type: FilterIn, Dimension: "board", Values: []string{"CBSE", "State"}},
	}, got.Filters)
	require.Len(t, got.Aggregations, 2)
	assert.Equal(t, Aggregation{Type: "count", Name: "Total QR Scans", FieldName: "count"}, got.Aggregations[0])
	assert.Equal(t, "Total QR Scans", got.Aggregations[1].Name)
	assert.Equal(t, "scans", got.Aggregations[1].FieldName)
	assert.NotContains(t, got.Aggregations[1].Extra, "fieldNames")

	body, err := json.Marshal(got)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.JSONEq(t, `"content-usage"`, string(decoded["dataSource"]))
	assert.NotContains(t, decoded, "intervals")
	assert.NotContains(t, decoded, "filter")
	assert.NotContains(t, decoded, "dimension")

	assert.Contains(t, q.Aggregations[1].Extra, "fieldNames", "source query must not change")
}

func TestTranslateDefaultsGranularityToAll(t *testing.T) {
	got, err := Translate(Query{QueryType: "timeseries"}, testLabels, Target{})
	require.NoError(t, err)
	assert.Equal(t, "all", got.Granularity)
	assert.Equal(t, "timeseries", got.QueryType)
}

func TestTranslateUnknownFieldReturnsNothing(t *testing.T) {
	q := Query{
		QueryType:    "groupBy",
		Dimensions:   []Dimension{{Name: "district"}},
		Aggregations: []Aggregation{{Type: "count", Name: "count"}},
	}
	got, err := Translate(q, testLabels, Target{MetricLabel: "Total Scans"})
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, DruidQuery{}, got)

	q.Dimensions = nil
	got, err = Translate(q, testLabels, Target{MetricLabel: "Unmapped"})
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, DruidQuery{}, got)
}

func TestTranslateRejectsUnsupportedFilter(t *testing.T) {
	q := Query{QueryType: "groupBy", Filters: []FilterNode{Unsupported{Type: "javascript"}}}
	_, err := Translate(q, testLabels, Target{})
	require.ErrorIs(t, err, ErrUnsupportedFilter)
}

func TestLegend(t *testing.T) {
	legend, err := testLabels.Legend("Total Scans")
	require.NoError(t, err)
	assert.Equal(t, "Scans", legend)

	legend, err = LabelMapping{"Total Scans": "Total QR Scans"}.Legend("Total Scans")
	require.NoError(t, err)
	assert.Equal(t, "Total QR Scans", legend)
}
