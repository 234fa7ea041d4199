package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes a Summary as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON summary formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the summary as indented JSON to w.
func (f *JSONFormatter) Format(w io.Writer, summary *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
