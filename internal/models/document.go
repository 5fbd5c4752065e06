package models

import (
	"bytes"
	"encoding/json"
	"maps"
)

// overlay encodes v and merges its members over the JSON object source, so
// members v does not model survive. A source that is empty or not an object
// is ignored.
func overlay(source json.RawMessage, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(source) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(source, &merged); err != nil || merged == nil {
		return data, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	maps.Copy(merged, fields)

	return json.Marshal(merged)
}

// keep returns a copy of data; decoders may reuse the buffer they pass to
// UnmarshalJSON.
func keep(data []byte) json.RawMessage {
	return bytes.Clone(data)
}
