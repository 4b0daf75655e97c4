// Package record holds the raw catalog row type and extracts canonical
// display names from it.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned by Decode for JSON values that are not objects.
var ErrNotObject = errors.New("record is not a JSON object")

// ErrTrailingData is returned by Decode when more follows the first JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// Record is one raw catalog row: field name to value, as returned by the
// catalog. Numbers are kept as json.Number.
type Record map[string]any

// Decode parses exactly one JSON object into a Record. Anything but
// whitespace after the object is an error.
func Decode(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := EnsureEOF(dec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return FromValue(v)
}

// EnsureEOF reports ErrTrailingData unless dec has nothing left to read.
func EnsureEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return ErrTrailingData
	}
	return nil
}

// FromValue converts an already decoded JSON value into a Record.
func FromValue(v any) (Record, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return Record(obj), nil
}

// ID returns the integer ID field. Floats, strings and missing values are
// not identifiers.
func (r Record) ID() (int64, bool) {
	switch v := r["ID"].(type) {
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// String returns the trimmed string value of field and whether it is a
// non-empty string.
func (r Record) String(field string) (string, bool) {
	s, ok := r[field].(string)
	if !ok {
		return "", false
	}
	s = trim(s)
	return s, s != ""
}
