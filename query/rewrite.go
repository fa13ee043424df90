// SPDX-License-Identifier: MPL-2.0

package query

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownField      = errors.New("unknown field")
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrInvalidBound      = errors.New("invalid bound")
)

type FilterType string

const (
	FilterEquals      FilterType = "equals"
	FilterNotEquals   FilterType = "notequals"
	FilterIsNull      FilterType = "isnull"
	FilterIsNotNull   FilterType = "isnotnull"
	FilterIn          FilterType = "in"
	FilterNotIn       FilterType = "notin"
	FilterGreaterThan FilterType = "greaterthan"
	FilterLessThan    FilterType = "lessthan"
)

// Filter is a flat constraint in the analytics service's dialect.
// Value is a string for equality filters and a float64 for range filters.
type Filter struct {
	Type      FilterType `json:"type"`
	Dimension string     `json:"dimension"`
	Value     any        `json:"value,omitempty"`
	Values    []string   `json:"values,omitempty"`
}

// Rewrite turns a list of filter trees into a flat, implicitly AND-ed list of filters.
// Output order follows input order. On error nothing is returned.
func Rewrite(nodes []FilterNode) ([]Filter, error) {
	out, err := rewriteAll(make([]Filter, 0, len(nodes)), nodes)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func rewriteAll(out []Filter, nodes []FilterNode) ([]Filter, error) {
	var err error
	for _, n := range nodes {
		out, err = rewriteNode(out, n)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func rewriteNode(out []Filter, node FilterNode) ([]Filter, error) {
	switch n := node.(type) {
	case Selector:
		if n.Value == "" {
			return append(out, Filter{Type: FilterIsNull, Dimension: n.Dimension}), nil
		}
		return append(out, Filter{Type: FilterEquals, Dimension: n.Dimension, Value: n.Value}), nil
	case In:
		return append(out, Filter{Type: FilterIn, Dimension: n.Dimension, Values: n.Values}), nil
	case Bound:
		return appendBound(out, n)
	case Or:
		if dim, values, ok := sameDimensionSelectors(n.Fields); ok {
			return append(out, Filter{Type: FilterIn, Dimension: dim, Values: values}), nil
		}
		return rewriteAll(out, n.Fields)
	case And:
		return rewriteAll(out, n.Fields)
	case Not:
		return appendNegation(out, n)
	case Unsupported:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFilter, n.Type)
	case nil:
		return nil, fmt.Errorf("%w: empty filter", ErrUnsupportedFilter)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFilter, node.filterType())
}

func appendNegation(out []Filter, n Not) ([]Filter, error) {
	switch inner := n.Field.(type) {
	case Selector:
		if inner.Value == "" {
			return append(out, Filter{Type: FilterIsNotNull, Dimension: inner.Dimension}), nil
		}
		return append(out, Filter{Type: FilterNotEquals, Dimension: inner.Dimension, Value: inner.Value}), nil
	case In:
		return append(out, Filter{Type: FilterNotIn, Dimension: inner.Dimension, Values: inner.Values}), nil
	case Or:
		if dim, values, ok := sameDimensionSelectors(inner.Fields); ok {
			return append(out, Filter{Type: FilterNotIn, Dimension: dim, Values: values}), nil
		}
	case nil:
		return nil, fmt.Errorf("%w: not without field", ErrUnsupportedFilter)
	}
	return nil, fmt.Errorf("%w: not(%s)", ErrUnsupportedFilter, n.Field.filterType())
}

func sameDimensionSelectors(fields []FilterNode) (string, []string, bool) {
	if len(fields) == 0 {
		return "", nil, false
	}
	var dim string
	values := make([]string, 0, len(fields))
	for i, f := range fields {
		s, ok := f.(Selector)
		if !ok {
			return "", nil, false
		}
		if i == 0 {
			dim = s.Dimension
		} else if s.Dimension != dim {
			return "", nil, false
		}
		values = append(values, s.Value)
	}
	return dim, values, true
}

// appendBound emits greaterthan for the lower side and lessthan for the upper side.
// Inclusive sides are widened by one so the exclusive target operators keep the boundary value.
func appendBound(out []Filter, b Bound) ([]Filter, error) {
	if b.Lower == nil && b.Upper == nil {
		return nil, fmt.Errorf("%w: %q has neither lower nor upper", ErrInvalidBound, b.Dimension)
	}
	if b.Lower != nil {
		v, err := strconv.ParseFloat(*b.Lower, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q lower %q is not numeric", ErrInvalidBound, b.Dimension, *b.Lower)
		}
		if !b.LowerStrict {
			v--
		}
		out = append(out, Filter{Type: FilterGreaterThan, Dimension: b.Dimension, Value: v})
	}
	if b.Upper != nil {
		v, err := strconv.ParseFloat(*b.Upper, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q upper %q is not numeric", ErrInvalidBound, b.Dimension, *b.Upper)
		}
		if !b.UpperStrict {
			v++
		}
		out = append(out, Filter{Type: FilterLessThan, Dimension: b.Dimension, Value: v})
	}
	return out, nil
}
