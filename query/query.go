// SPDX-License-Identifier: MPL-2.0

package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"hawkeye/util"
)

// Query is a source query as saved with a chart. Singular and plural spellings of
// dimensions, aggregations and filters are normalised on decode. Keys the translator does not
// interpret (dataSource, threshold, context, ...) are kept in Extra.
type Query struct {
	QueryType    string
	Dimensions   []Dimension
	Aggregations []Aggregation
	Filters      []FilterNode
	Intervals    []string
	Extra        map[string]json.RawMessage
}

type Dimension struct {
	Name       string
	OutputName string
}

type Aggregation struct {
	Type      string                     `json:"type"`
	Name      string                     `json:"name"`
	FieldName string                     `json:"fieldName,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (a *Aggregation) UnmarshalJSON(data []byte) error {
	type plain Aggregation
	return util.UnmarshalInto(data, (*plain)(a), &a.Extra)
}

func (a Aggregation) MarshalJSON() ([]byte, error) {
	type plain Aggregation
	return util.MarshalWithExtra(plain(a), a.Extra)
}

type rawQuery struct {
	QueryType    string            `json:"queryType"`
	Dimension    json.RawMessage   `json:"dimension"`
	Dimensions   []json.RawMessage `json:"dimensions"`
	Aggregation  json.RawMessage   `json:"aggregation"`
	Aggregations []json.RawMessage `json:"aggregations"`
	Metric       json.RawMessage   `json:"metric"`
	Metrics      json.RawMessage   `json:"metrics"`
	Filter       json.RawMessage   `json:"filter"`
	Filters      json.RawMessage   `json:"filters"`
	Granularity  json.RawMessage   `json:"granularity"`
	Intervals    json.RawMessage   `json:"intervals"`
}

// ParseQuery decodes a source query document.
func ParseQuery(data []byte) (Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, err
	}
	return q, nil
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var raw rawQuery
	extra, err := util.UnmarshalWithExtra(data, &raw)
	if err != nil {
		return fmt.Errorf("failed to decode query: %w", err)
	}
	out := Query{QueryType: raw.QueryType, Extra: extra}

	dims := raw.Dimensions
	if !isNull(raw.Dimension) {
		dims = append([]json.RawMessage{raw.Dimension}, dims...)
	}
	for _, d := range dims {
		dim, err := decodeDimension(d)
		if err != nil {
			return err
		}
		out.Dimensions = append(out.Dimensions, dim)
	}

	aggs := make([]json.RawMessage, 0, len(raw.Aggregations)+2)
	if isObject(raw.Aggregation) {
		aggs = append(aggs, raw.Aggregation)
	}
	aggs = append(aggs, raw.Aggregations...)
	if isObject(raw.Metric) {
		aggs = append(aggs, raw.Metric)
	}
	if isArray(raw.Metrics) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw.Metrics, &items); err != nil {
			return fmt.Errorf("failed to decode metrics: %w", err)
		}
		for _, item := range items {
			// Metric names as plain strings only reference aggregations defined elsewhere.
			if isObject(item) {
				aggs = append(aggs, item)
			}
		}
	}
	for _, item := range aggs {
		var a Aggregation
		if err := json.Unmarshal(item, &a); err != nil {
			return fmt.Errorf("failed to decode aggregation: %w", err)
		}
		out.Aggregations = append(out.Aggregations, a)
	}

	if out.Filters, err = decodeFilterList(raw.Filter, raw.Filters); err != nil {
		return err
	}
	if out.Intervals, err = decodeIntervals(raw.Intervals); err != nil {
		return err
	}
	*q = out
	return nil
}

func decodeDimension(data json.RawMessage) (Dimension, error) {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return Dimension{Name: name}, nil
	}
	var spec struct {
		Dimension  string `json:"dimension"`
		OutputName string `json:"outputName"`
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return Dimension{}, fmt.Errorf("failed to decode dimension %s: %w", data, err)
	}
	return Dimension{Name: spec.Dimension, OutputName: spec.OutputName}, nil
}

// decodeFilterList gathers filter and filters into one flat list. A top level "and" is unwrapped.
func decodeFilterList(filter, filters json.RawMessage) ([]FilterNode, error) {
	var items []json.RawMessage
	if isObject(filter) {
		items = append(items, filter)
	}
	switch {
	case isArray(filters):
		var list []json.RawMessage
		if err := json.Unmarshal(filters, &list); err != nil {
			return nil, fmt.Errorf("failed to decode filters: %w", err)
		}
		items = append(items, list...)
	case isObject(filters):
		items = append(items, filters)
	}

	var nodes []FilterNode
	for _, item := range items {
		n, err := DecodeFilter(item)
		if err != nil {
			return nil, err
		}
		if and, ok := n.(And); ok {
			nodes = append(nodes, and.Fields...)
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeIntervals(data json.RawMessage) ([]string, error) {
	if isNull(data) {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("failed to decode intervals: %w", err)
	}
	return many, nil
}

func isObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}
