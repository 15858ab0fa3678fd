// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON value that should be a string but may arrive
// as a number, boolean, or an object carrying its text in a well-known
// field. Generation models frequently emit {"text": "..."} or
// {"title": "...", "description": "..."} where the schema asked for a
// plain string; FlexString normalizes all of these at decode time so the
// rest of the pipeline only ever sees strings.
type FlexString string

// namedTextFields are probed in order when a JSON object stands in for a
// string.
var namedTextFields = []string{"text", "content", "title", "description"}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexString(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexString(strconv.FormatBool(b))
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, field := range namedTextFields {
			raw, ok := obj[field]
			if !ok {
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err == nil && v != "" {
				*f = FlexString(v)
				return nil
			}
		}
		// No named text field: keep the compact JSON as a last resort.
		*f = FlexString(trimmed)
		return nil
	}

	*f = FlexString(trimmed)
	return nil
}

// String returns the coerced value.
func (f FlexString) String() string { return string(f) }

// FlexStrings converts a coerced slice to plain strings, dropping empty
// entries.
func FlexStrings(in []FlexString) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if s := strings.TrimSpace(string(f)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
