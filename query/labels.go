// SPDX-License-Identifier: MPL-2.0

package query

import "fmt"

// LegendKey is the label mapping key that overrides the dataset legend.
const LegendKey = "legend"

// LabelMapping maps internal dimension and metric names to their published names.
type LabelMapping map[string]string

func (m LabelMapping) Resolve(field string) (string, error) {
	name, ok := m[field]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return name, nil
}

// Legend returns the legend override when present, otherwise the published metric name.
func (m LabelMapping) Legend(metric string) (string, error) {
	if legend := m[LegendKey]; legend != "" {
		return legend, nil
	}
	return m.Resolve(metric)
}
