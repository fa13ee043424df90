// SPDX-License-Identifier: MPL-2.0

package util

import (
	"encoding/json"
	"reflect"
	"strings"
)

// UnmarshalWithExtra decodes data into dst (a pointer to a struct) and returns the object members
// that do not map to one of dst's json fields. Callers keep them so documents owned by a remote
// system survive a fetch-merge-resend cycle.
func UnmarshalWithExtra(data []byte, dst any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, name := range JSONFieldNames(reflect.TypeOf(dst).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// UnmarshalInto is UnmarshalWithExtra storing the unknown members in *extra.
// It is meant for UnmarshalJSON methods that decode through a method-less copy of their type.
func UnmarshalInto(data []byte, dst any, extra *map[string]json.RawMessage) error {
	rest, err := UnmarshalWithExtra(data, dst)
	if err != nil {
		return err
	}
	*extra = rest
	return nil
}

// MarshalWithExtra encodes src and adds the members of extra that src does not already set.
func MarshalWithExtra(src any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(src)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// JSONFieldNames lists the object keys encoding/json uses for the exported fields of t.
func JSONFieldNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

// CloneExtra returns a shallow copy of an extra-members map. RawMessage values are never mutated
// in place so sharing the byte slices is fine.
func CloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
