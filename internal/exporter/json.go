package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"seafoodpulse/internal/files"
)

// JSONWriter writes indented JSON documents atomically
type JSONWriter struct {
	indent string
}

// NewJSONWriter returns a writer using two-space indentation
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{indent: "  "}
}

// Write encodes v to path through a temporary file and rename
func (j *JSONWriter) Write(path string, v any) error {
	return files.WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", j.indent)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return nil
	})
}

// ReadJSON decodes the document at path into v
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
