// SPDX-License-Identifier: MPL-2.0

package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FilterNode is one node of a Druid-style filter tree as it appears in a source query.
// The set of variants is closed: Selector, Not, Or, And, In, Bound and Unsupported.
type FilterNode interface {
	filterType() string
}

type Selector struct {
	Dimension string
	Value     string
}

type Not struct {
	Field FilterNode
}

type Or struct {
	Fields []FilterNode
}

type And struct {
	Fields []FilterNode
}

type In struct {
	Dimension string
	Values    []string
}

// Bound is a range constraint. A nil Lower or Upper means the side is open.
type Bound struct {
	Dimension   string
	Lower       *string
	Upper       *string
	LowerStrict bool
	UpperStrict bool
}

// Unsupported holds a filter whose type the rewriter does not understand (regex, javascript, ...).
type Unsupported struct {
	Type string
	Raw  json.RawMessage
}

func (Selector) filterType() string      { return "selector" }
func (Not) filterType() string           { return "not" }
func (Or) filterType() string            { return "or" }
func (And) filterType() string           { return "and" }
func (In) filterType() string            { return "in" }
func (Bound) filterType() string         { return "bound" }
func (u Unsupported) filterType() string { return u.Type }

type rawFilter struct {
	Type        string            `json:"type"`
	Dimension   string            `json:"dimension"`
	Value       json.RawMessage   `json:"value"`
	Values      []json.RawMessage `json:"values"`
	Field       json.RawMessage   `json:"field"`
	Fields      []json.RawMessage `json:"fields"`
	Lower       json.RawMessage   `json:"lower"`
	Upper       json.RawMessage   `json:"upper"`
	LowerStrict bool              `json:"lowerStrict"`
	UpperStrict bool              `json:"upperStrict"`
}

// DecodeFilter decodes one filter object using its "type" member as discriminator.
func DecodeFilter(data json.RawMessage) (FilterNode, error) {
	var raw rawFilter
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode filter: %w", err)
	}
	switch strings.ToLower(raw.Type) {
	case "selector":
		v, err := scalar(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("selector on %q: %w", raw.Dimension, err)
		}
		s := Selector{Dimension: raw.Dimension}
		if v != nil {
			s.Value = *v
		}
		return s, nil
	case "not":
		if isNull(raw.Field) {
			return nil, fmt.Errorf("not filter without field")
		}
		inner, err := DecodeFilter(raw.Field)
		if err != nil {
			return nil, err
		}
		return Not{Field: inner}, nil
	case "or":
		fields, err := decodeFilters(raw.Fields)
		if err != nil {
			return nil, err
		}
		return Or{Fields: fields}, nil
	case "and":
		fields, err := decodeFilters(raw.Fields)
		if err != nil {
			return nil, err
		}
		return And{Fields: fields}, nil
	case "in":
		values := make([]string, 0, len(raw.Values))
		for _, rv := range raw.Values {
			v, err := scalar(rv)
			if err != nil {
				return nil, fmt.Errorf("in on %q: %w", raw.Dimension, err)
			}
			if v == nil {
				values = append(values, "")
				continue
			}
			values = append(values, *v)
		}
		return In{Dimension: raw.Dimension, Values: values}, nil
	case "bound":
		lower, err := scalar(raw.Lower)
		if err != nil {
			return nil, fmt.Errorf("bound on %q: %w", raw.Dimension, err)
		}
		upper, err := scalar(raw.Upper)
		if err != nil {
			return nil, fmt.Errorf("bound on %q: %w", raw.Dimension, err)
		}
		return Bound{
			Dimension:   raw.Dimension,
			Lower:       lower,
			Upper:       upper,
			LowerStrict: raw.LowerStrict,
			UpperStrict: raw.UpperStrict,
		}, nil
	}
	return Unsupported{Type: raw.Type, Raw: append(json.RawMessage(nil), data...)}, nil
}

func decodeFilters(items []json.RawMessage) ([]FilterNode, error) {
	nodes := make([]FilterNode, 0, len(items))
	for _, item := range items {
		n, err := DecodeFilter(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// scalar reads a JSON null, string or number. Numbers keep their literal text.
func scalar(data json.RawMessage) (*string, error) {
	if isNull(data) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("expected string or number, got %s", data)
	}
	s = n.String()
	return &s, nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
