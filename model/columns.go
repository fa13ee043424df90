// SPDX-License-Identifier: MPL-2.0

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Labels is a label mapping stored as a JSON text column.
type Labels map[string]string

func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Labels) Scan(src any) error {
	data, err := columnBytes(src)
	if err != nil || len(data) == 0 {
		*l = nil
		return err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to scan label mapping: %w", err)
	}
	*l = m
	return nil
}

// Document is a raw JSON document stored as a text column and emitted verbatim in API responses.
type Document []byte

func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func (d *Document) Scan(src any) error {
	data, err := columnBytes(src)
	if err != nil {
		return err
	}
	*d = append(Document(nil), data...)
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = nil
		return nil
	}
	*d = append(Document(nil), data...)
	return nil
}

func columnBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}
	return nil, fmt.Errorf("unsupported column type %T", src)
}
