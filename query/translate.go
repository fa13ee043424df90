// SPDX-License-Identifier: MPL-2.0

package query

import (
	"encoding/json"
	"strings"

	"hawkeye/util"
)

// Target carries the chart settings a translation depends on.
type Target struct {
	Granularity string
	// MetricLabel is the label mapping key whose value names the published metric (the chart's y-axis label).
	MetricLabel string
}

type DimensionAlias struct {
	FieldName string `json:"fieldName"`
	AliasName string `json:"aliasName"`
}

// DruidQuery is the query body the analytics service runs for one report metric.
type DruidQuery struct {
	QueryType    string                     `json:"queryType"`
	Granularity  string                     `json:"granularity"`
	Dimensions   []DimensionAlias           `json:"dimensions"`
	Aggregations []Aggregation              `json:"aggregations"`
	Filters      []Filter                   `json:"filters"`
	Extra        map[string]json.RawMessage `json:"-"`
}

func (d *DruidQuery) UnmarshalJSON(data []byte) error {
	type plain DruidQuery
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d DruidQuery) MarshalJSON() ([]byte, error) {
	type plain DruidQuery
	return util.MarshalWithExtra(plain(d), d.Extra)
}

// Translate rewrites a source query into the analytics dialect, renaming dimensions and metrics
// through labels. The input is not modified.
func Translate(q Query, labels LabelMapping, target Target) (DruidQuery, error) {
	filters, err := Rewrite(q.Filters)
	if err != nil {
		return DruidQuery{}, err
	}

	dims := make([]DimensionAlias, 0, len(q.Dimensions))
	for _, d := range q.Dimensions {
		alias, err := labels.Resolve(d.Name)
		if err != nil {
			return DruidQuery{}, err
		}
		dims = append(dims, DimensionAlias{FieldName: d.Name, AliasName: alias})
	}

	aggs := make([]Aggregation, 0, len(q.Aggregations))
	if len(q.Aggregations) > 0 {
		metric, err := labels.Resolve(target.MetricLabel)
		if err != nil {
			return DruidQuery{}, err
		}
		for _, a := range q.Aggregations {
			aggs = append(aggs, translateAggregation(a, metric))
		}
	}

	queryType := q.QueryType
	if queryType == "topN" {
		queryType = "groupBy"
	}
	granularity := strings.ToLower(target.Granularity)
	if granularity == "" {
		granularity = "all"
	}

	return DruidQuery{
		QueryType:    queryType,
		Granularity:  granularity,
		Dimensions:   dims,
		Aggregations: aggs,
		Filters:      filters,
		Extra:        util.CloneExtra(q.Extra),
	}, nil
}

func translateAggregation(a Aggregation, metric string) Aggregation {
	if a.Type == "count" || a.Name == "count" {
		return Aggregation{Type: "count", Name: metric, FieldName: "count"}
	}
	extra := util.CloneExtra(a.Extra)
	delete(extra, "fieldNames")
	return Aggregation{Type: a.Type, Name: metric, FieldName: a.FieldName, Extra: extra}
}
