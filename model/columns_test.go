// SPDX-License-Identifier: MPL-2.0

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsColumn(t *testing.T) {
	v, err := Labels(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	v, err = Labels{"state": "State"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"state":"State"}`, v)

	var l Labels
	require.NoError(t, l.Scan([]byte(`{"count":"Total"}`)))
	assert.Equal(t, Labels{"count": "Total"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	assert.Error(t, l.Scan("not json"))
	assert.Error(t, l.Scan(42))
}

func TestDocumentColumn(t *testing.T) {
	v, err := Document(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var d Document
	require.NoError(t, d.Scan(`{"queryType":"groupBy"}`))
	assert.JSONEq(t, `{"queryType":"groupBy"}`, string(d))

	out, err := json.Marshal(struct {
		Query Document `json:"query"`
		Empty Document `json:"empty"`
	}{Query: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"queryType":"groupBy"},"empty":null}`, string(out))

	var in struct {
		Query Document `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"query":null}`), &in))
	assert.Nil(t, in.Query)
}
