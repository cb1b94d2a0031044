// Package extract turns single source files into code elements and
// relationship candidates. Grammar-based extractors (tree-sitter) and
// pattern-based extractors (regex heuristics) implement the same interface
// so downstream stages are language-blind.
package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/archscope/archscope/internal/model"
)

// Extractor extracts structural information from source files of one language.
//
// Extract must never panic on malformed input: irrecoverable syntax errors
// yield an empty or partial result plus an error the caller records as a
// diagnostic. An empty or non-source file yields an empty element list and
// a nil error.
type Extractor interface {
	// Language returns the language this extractor handles.
	Language() model.Language

	// CanHandle reports whether this extractor accepts the given file path.
	CanHandle(path string) bool

	// Extract parses one file and returns its code elements.
	Extract(ctx context.Context, path string, source []byte) ([]model.CodeElement, error)

	// DeriveRelationships turns one file's elements into relationship
	// candidates. Targets of inherits/imports/calls candidates are raw names
	// resolved (or kept external) by the graph builder.
	DeriveRelationships(elements []model.CodeElement) []model.Relationship
}

// Registry holds registered extractors and dispatches files to the first
// extractor that can handle them. It is an explicit value, not a process-wide
// singleton, so independent analysis configurations can coexist.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a registry with the given extractors, consulted in order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry registers the grammar-based extractors for Go, Python,
// TypeScript, and Rust, and the pattern-based extractors for JavaScript and
// Java.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewGoExtractor(),
		NewPythonExtractor(),
		NewTypeScriptExtractor(),
		NewRustExtractor(),
		NewJavaScriptExtractor(),
		NewJavaExtractor(),
	)
}

// ForFile returns the first extractor that can handle the path.
func (r *Registry) ForFile(path string) (Extractor, bool) {
	for _, e := range r.extractors {
		if e.CanHandle(path) {
			return e, true
		}
	}
	return nil, false
}

// ForLanguage returns the extractor registered for the given language.
func (r *Registry) ForLanguage(lang model.Language) (Extractor, bool) {
	for _, e := range r.extractors {
		if e.Language() == lang {
			return e, true
		}
	}
	return nil, false
}

// Languages returns the languages covered by this registry.
func (r *Registry) Languages() []model.Language {
	out := make([]model.Language, 0, len(r.extractors))
	for _, e := range r.extractors {
		out = append(out, e.Language())
	}
	return out
}

// DetectLanguage maps a file extension to its language.
func DetectLanguage(path string) (model.Language, bool) {
	switch filepath.Ext(path) {
	case ".go":
		return model.LangGo, true
	case ".py":
		return model.LangPython, true
	case ".ts", ".tsx":
		return model.LangTypeScript, true
	case ".js", ".mjs", ".jsx":
		return model.LangJavaScript, true
	case ".rs":
		return model.LangRust, true
	case ".java":
		return model.LangJava, true
	}
	return "", false
}

// moduleName derives the default module name from a file path: the file stem.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// countLOC counts lines by counting newline bytes, plus one for the final
// line of non-empty source.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}

// isBlank reports whether the source contains no non-whitespace bytes.
func isBlank(source []byte) bool {
	return len(bytes.TrimSpace(source)) == 0
}
