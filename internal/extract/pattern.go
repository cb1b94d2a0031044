package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/archscope/archscope/internal/model"
)

// PatternExtractor is a regex-based extractor for languages without a wired
// grammar. It finds declarations, not structure: nesting, visibility beyond
// keywords, and call sites are out of reach, so every element it produces
// carries metadata confidence "low".
type PatternExtractor struct {
	lang       model.Language
	extensions []string
	scan       func(content []byte, b *fileBuilder)
}

func (e *PatternExtractor) Language() model.Language { return e.lang }

func (e *PatternExtractor) CanHandle(path string) bool {
	ext := filepath.Ext(path)
	for _, candidate := range e.extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func (e *PatternExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.CodeElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isBlank(source) {
		return nil, nil
	}

	b := newFileBuilder(path, e.lang)
	b.setModuleEnd(countLOC(source))
	e.scan(source, b)

	elements := b.finish()
	for i := range elements {
		if elements[i].Metadata == nil {
			elements[i].Metadata = make(map[string]any)
		}
		elements[i].Metadata["confidence"] = "low"
	}
	return elements, nil
}

func (e *PatternExtractor) DeriveRelationships(elements []model.CodeElement) []model.Relationship {
	return deriveRelationships(elements)
}

// controlKeywords are identifiers the bare function regexes misread as names.
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true,
}

var (
	jsClassRe    = regexp.MustCompile(`class\s+(\w+)(?:\s+extends\s+(\w+))?\s*\{`)
	jsFunctionRe = regexp.MustCompile(`(?:function\s+)?(\w+)\s*\([^)]*\)\s*\{`)
	jsImportRe   = regexp.MustCompile(`import\s+(?:\{[^}]*\}|\*\s+as\s+\w+|\w+)\s+from\s+['"]([^'"]+)['"]`)
	jsRequireRe  = regexp.MustCompile(`const\s+(\w+)\s*=\s*require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

// NewJavaScriptExtractor returns the pattern-based extractor for JavaScript
// source files.
func NewJavaScriptExtractor() *PatternExtractor {
	return &PatternExtractor{
		lang:       model.LangJavaScript,
		extensions: []string{".js", ".mjs", ".jsx"},
		scan:       scanJavaScript,
	}
}

func scanJavaScript(content []byte, b *fileBuilder) {
	classNames := make(map[string]bool)
	for _, m := range jsClassRe.FindAllSubmatchIndex(content, -1) {
		name := string(content[m[2]:m[3]])
		classNames[name] = true

		var meta map[string]any
		if m[4] >= 0 {
			meta = map[string]any{"extends": string(content[m[4]:m[5]])}
		}
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementClass,
			LineNumber: lineAt(content, m[0]),
			Metadata:   meta,
		})
	}

	for _, m := range jsFunctionRe.FindAllSubmatchIndex(content, -1) {
		name := string(content[m[2]:m[3]])
		if controlKeywords[name] || classNames[name] {
			continue
		}
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementFunction,
			LineNumber: lineAt(content, m[0]),
		})
	}

	for _, m := range jsImportRe.FindAllSubmatchIndex(content, -1) {
		name := string(content[m[2]:m[3]])
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementImport,
			LineNumber: lineAt(content, m[0]),
			Dependencies: []model.DependencyRef{{
				Name:   name,
				Kind:   tsImportKind(name),
				Source: "import",
			}},
		})
	}

	for _, m := range jsRequireRe.FindAllSubmatchIndex(content, -1) {
		varName := string(content[m[2]:m[3]])
		name := string(content[m[4]:m[5]])
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementRequire,
			LineNumber: lineAt(content, m[0]),
			Metadata:   map[string]any{"variable": varName},
			Dependencies: []model.DependencyRef{{
				Name:   name,
				Kind:   tsImportKind(name),
				Source: "require",
			}},
		})
	}
}

var (
	javaPackageRe = regexp.MustCompile(`package\s+([\w.]+);`)
	javaImportRe  = regexp.MustCompile(`import\s+(?:static\s+)?([\w.*]+);`)
	javaClassRe   = regexp.MustCompile(`(?:public\s+)?(?:abstract\s+)?(?:final\s+)?class\s+(\w+)(?:\s+extends\s+(\w+))?(?:\s+implements\s+([\w\s,]+))?\s*\{`)
	javaMethodRe  = regexp.MustCompile(`(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?(?:abstract\s+)?(?:<[^>]+>\s+)?(\w+)\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w\s,]+)?\s*\{`)
)

// NewJavaExtractor returns the pattern-based extractor for Java source
// files.
func NewJavaExtractor() *PatternExtractor {
	return &PatternExtractor{
		lang:       model.LangJava,
		extensions: []string{".java"},
		scan:       scanJava,
	}
}

func scanJava(content []byte, b *fileBuilder) {
	if m := javaPackageRe.FindSubmatchIndex(content); m != nil {
		name := string(content[m[2]:m[3]])
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementPackage,
			LineNumber: lineAt(content, m[0]),
		})
	}

	for _, m := range javaImportRe.FindAllSubmatchIndex(content, -1) {
		name := string(content[m[2]:m[3]])
		kind := "external"
		if strings.HasPrefix(name, "java.") || strings.HasPrefix(name, "javax.") {
			kind = "internal"
		}
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementImport,
			LineNumber: lineAt(content, m[0]),
			Dependencies: []model.DependencyRef{{
				Name:   name,
				Kind:   kind,
				Source: "import",
			}},
		})
	}

	for _, m := range javaClassRe.FindAllSubmatchIndex(content, -1) {
		matched := string(content[m[0]:m[1]])
		name := string(content[m[2]:m[3]])

		var modifiers []string
		for _, mod := range []string{"public", "abstract", "final"} {
			if strings.Contains(matched, mod) {
				modifiers = append(modifiers, mod)
			}
		}
		vis := model.VisibilityPackage
		if strings.Contains(matched, "public") {
			vis = model.VisibilityPublic
		}

		meta := make(map[string]any)
		if m[4] >= 0 {
			meta["extends"] = string(content[m[4]:m[5]])
		}
		if m[6] >= 0 {
			var implements []string
			for _, iface := range strings.Split(string(content[m[6]:m[7]]), ",") {
				if iface = strings.TrimSpace(iface); iface != "" {
					implements = append(implements, iface)
				}
			}
			if len(implements) > 0 {
				meta["implements"] = implements
			}
		}
		if len(meta) == 0 {
			meta = nil
		}

		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementClass,
			LineNumber: lineAt(content, m[0]),
			Visibility: vis,
			Modifiers:  modifiers,
			Metadata:   meta,
		})
	}

	for _, m := range javaMethodRe.FindAllSubmatchIndex(content, -1) {
		returnType := string(content[m[2]:m[3]])
		name := string(content[m[4]:m[5]])
		if controlKeywords[name] || returnType == "class" || returnType == "new" {
			continue
		}
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementMethod,
			LineNumber: lineAt(content, m[0]),
			Metadata:   map[string]any{"return_type": returnType},
		})
	}
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte{'\n'}) + 1
}
