// Package export renders analysis results for consumers: the canonical JSON
// document and a Mermaid diagram of boundaries and dependencies.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/archscope/archscope/internal/model"
)

// EncodeJSON writes the result as indented JSON. Enum-typed fields marshal as
// their string tags, so the output is stable across versions that keep the
// tag set.
func EncodeJSON(w io.Writer, result *model.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// WriteJSON writes the result to path, creating parent directories as needed.
func WriteJSON(path string, result *model.AnalysisResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := EncodeJSON(f, result); err != nil {
		return err
	}
	return f.Close()
}

// DecodeJSON reads a previously exported result.
func DecodeJSON(r io.Reader) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}
