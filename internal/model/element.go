package model

import "fmt"

// --- Enums ---

// ElementType classifies extracted code elements.
type ElementType string

const (
	ElementModule      ElementType = "module"
	ElementPackage     ElementType = "package"
	ElementNamespace   ElementType = "namespace"
	ElementFile        ElementType = "file"
	ElementClass       ElementType = "class"
	ElementInterface   ElementType = "interface"
	ElementEnum        ElementType = "enum"
	ElementStruct      ElementType = "struct"
	ElementTrait       ElementType = "trait"
	ElementFunction    ElementType = "function"
	ElementMethod      ElementType = "method"
	ElementConstructor ElementType = "constructor"
	ElementVariable    ElementType = "variable"
	ElementConstant    ElementType = "constant"
	ElementField       ElementType = "field"
	ElementProperty    ElementType = "property"
	ElementImport      ElementType = "import"
	ElementExport      ElementType = "export"
	ElementRequire     ElementType = "require"
	ElementAnnotation  ElementType = "annotation"
	ElementDecorator   ElementType = "decorator"
)

// elementTypes is the closed set used for validation.
var elementTypes = map[ElementType]bool{
	ElementModule: true, ElementPackage: true, ElementNamespace: true,
	ElementFile: true, ElementClass: true, ElementInterface: true,
	ElementEnum: true, ElementStruct: true, ElementTrait: true,
	ElementFunction: true, ElementMethod: true, ElementConstructor: true,
	ElementVariable: true, ElementConstant: true, ElementField: true,
	ElementProperty: true, ElementImport: true, ElementExport: true,
	ElementRequire: true, ElementAnnotation: true, ElementDecorator: true,
}

// Language identifies a programming language for extraction.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangRust       Language = "rust"
	LangJava       Language = "java"
)

// Visibility describes element access level where the language expresses one.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityPackage   Visibility = "package"
)

// --- Models ---

// ASTNode is a structural snippet reference: the syntax node kind that
// produced an element plus its source span. It deliberately carries no
// child nodes; the full tree is discarded after extraction.
type ASTNode struct {
	Kind      string `json:"kind"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// DependencyRef is a dependency declared by an element, by name, before
// graph-build resolution. Kind is "internal" or "external" as a best-effort
// guess by the extractor; the graph builder makes the final call.
type DependencyRef struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Source string `json:"source,omitempty"` // import, from_import, require, base, ...
}

// CodeElement is one named construct found in source.
//
// ID is stable and reproducible for a given file content and extraction
// pass: it is derived from (file path, element type, name, occurrence index
// within the file), never from a shared counter, so re-analysis of an
// unchanged tree yields identical ids under arbitrary extraction parallelism.
type CodeElement struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         ElementType     `json:"type"`
	Language     Language        `json:"language"`
	FilePath     string          `json:"filePath"`
	LineNumber   int             `json:"lineNumber,omitempty"`
	EndLine      int             `json:"endLine,omitempty"`
	Module       string          `json:"module,omitempty"`
	Namespace    string          `json:"namespace,omitempty"`
	Visibility   Visibility      `json:"visibility,omitempty"`
	Modifiers    []string        `json:"modifiers,omitempty"`
	ASTNode      *ASTNode        `json:"astNode,omitempty"`
	Dependencies []DependencyRef `json:"dependencies,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}

// ElementID derives the deterministic identifier for an element. occurrence
// is the zero-based index of the (type, name) pair within the file.
func ElementID(filePath string, typ ElementType, name string, occurrence int) string {
	return fmt.Sprintf("%s:%s:%s#%d", filePath, typ, name, occurrence)
}

// Validate checks enum membership and span sanity.
func (e *CodeElement) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("element %q: empty id", e.Name)
	}
	if !elementTypes[e.Type] {
		return fmt.Errorf("element %s: unknown type %q", e.ID, e.Type)
	}
	if e.EndLine != 0 && e.LineNumber > e.EndLine {
		return fmt.Errorf("element %s: line %d > end line %d", e.ID, e.LineNumber, e.EndLine)
	}
	return nil
}

// Meta returns a metadata value coerced to string, or "" when absent.
func (e *CodeElement) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	if s, ok := e.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// MetaStrings returns a metadata value as a string slice. Both []string and
// []any-of-string are accepted since metadata round-trips through JSON.
func (e *CodeElement) MetaStrings(key string) []string {
	if e.Metadata == nil {
		return nil
	}
	switch v := e.Metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
