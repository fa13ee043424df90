// SPDX-License-Identifier: MPL-2.0

package util

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Title   string `json:"title"`
	Count   int    `json:"count,omitempty"`
	Ignored string `json:"-"`
	Plain   string
}

func TestUnmarshalWithExtraKeepsUnknownMembers(t *testing.T) {
	var d doc
	extra, err := UnmarshalWithExtra([]byte(`{"title":"a","count":2,"Plain":"p","status":"live","owner":{"id":1}}`), &d)
	require.NoError(t, err)

	assert.Equal(t, "a", d.Title)
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, "p", d.Plain)
	require.Len(t, extra, 2)
	assert.JSONEq(t, `"live"`, string(extra["status"]))
	assert.JSONEq(t, `{"id":1}`, string(extra["owner"]))
}

func TestUnmarshalWithExtraReturnsNilWhenNothingUnknown(t *testing.T) {
	var d doc
	extra, err := UnmarshalWithExtra([]byte(`{"title":"a"}`), &d)
	require.NoError(t, err)
	assert.Nil(t, extra)
}

func TestMarshalWithExtraDoesNotOverrideKnownFields(t *testing.T) {
	data, err := MarshalWithExtra(doc{Title: "new"}, map[string]json.RawMessage{
		"title":  json.RawMessage(`"old"`),
		"status": json.RawMessage(`"draft"`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"new","Plain":"","status":"draft"}`, string(data))
}

func TestJSONFieldNames(t *testing.T) {
	assert.Equal(t, []string{"title", "count", "Plain"}, JSONFieldNames(reflect.TypeOf(doc{})))
}
