package main

import (
	"encoding/json"
	"io"
)

// writeJSON writes v to w, indented when pretty is set.
func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
