package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/archscope/archscope/internal/model"
)

// NewGoExtractor returns the grammar-backed extractor for Go source files.
func NewGoExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		lang:       model.LangGo,
		tsLang:     tree_sitter.NewLanguage(tree_sitter_go.Language()),
		walker:     &goWalker{},
		extensions: []string{".go"},
	}
}

type goWalker struct{}

func (w *goWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, b *fileBuilder) {
	descend(cursor, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "package_clause":
			if nameNode := node.NamedChild(0); nameNode != nil {
				b.setModule(nameNode.Utf8Text(source))
			}

		case "import_spec":
			w.extractImport(node, source, b)
			return false

		case "function_declaration":
			w.extractFunction(node, source, b, model.ElementFunction)

		case "method_declaration":
			w.extractMethod(node, source, b)

		case "type_declaration":
			w.extractTypeDeclaration(node, source, b)

		case "call_expression":
			w.extractCall(node, source, b)
		}
		return true
	})
}

func (w *goWalker) extractImport(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	importPath := trimQuotes(pathNode.Utf8Text(source))
	if importPath == "" {
		return
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       importPath,
		Type:       model.ElementImport,
		LineNumber: start,
		EndLine:    end,
		ASTNode:    astRef(node),
		Dependencies: []model.DependencyRef{{
			Name:   importPath,
			Kind:   goImportKind(importPath),
			Source: "import",
		}},
	})
}

// goImportKind guesses internal vs external: a dotted first path segment
// means a hosted module, anything else is treated as standard library or
// in-repo and left for the resolver to confirm.
func goImportKind(importPath string) string {
	first, _, _ := strings.Cut(importPath, "/")
	if strings.Contains(first, ".") {
		return "external"
	}
	return "internal"
}

func (w *goWalker) extractFunction(node *tree_sitter.Node, source []byte, b *fileBuilder, typ model.ElementType) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       typ,
		LineNumber: start,
		EndLine:    end,
		Visibility: goVisibility(name),
		ASTNode:    astRef(node),
		Metadata:   docMetadata(node),
	})
}

func (w *goWalker) extractMethod(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	meta := docMetadata(node)
	if recv := goReceiverType(node, source); recv != "" {
		if meta == nil {
			meta = make(map[string]any)
		}
		meta["receiver"] = recv
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       model.ElementMethod,
		LineNumber: start,
		EndLine:    end,
		Visibility: goVisibility(name),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

// goReceiverType returns the bare receiver type name, pointer and type
// parameters stripped.
func goReceiverType(node *tree_sitter.Node, source []byte) string {
	recvNode := node.ChildByFieldName("receiver")
	if recvNode == nil {
		return ""
	}
	text := recvNode.Utf8Text(source)
	text = strings.Trim(text, "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typ := fields[len(fields)-1]
	typ = strings.TrimPrefix(typ, "*")
	if i := strings.IndexByte(typ, '['); i >= 0 {
		typ = typ[:i]
	}
	return typ
}

func (w *goWalker) extractTypeDeclaration(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		w.extractTypeSpec(node, child, source, b)
	}
}

func (w *goWalker) extractTypeSpec(decl, node *tree_sitter.Node, source []byte, b *fileBuilder) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)

	typ := model.ElementStruct
	meta := docMetadata(decl)
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Kind() {
		case "interface_type":
			typ = model.ElementInterface
		case "struct_type":
			typ = model.ElementStruct
		default:
			if meta == nil {
				meta = make(map[string]any)
			}
			meta["kind"] = "alias"
		}
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       typ,
		LineNumber: start,
		EndLine:    end,
		Visibility: goVisibility(name),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

func (w *goWalker) extractCall(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier", "selector_expression":
		b.addCall(fnNode.Utf8Text(source))
	}
}

func goVisibility(name string) model.Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return model.VisibilityPublic
	}
	return model.VisibilityPackage
}

// docMetadata returns {"documented": true} when the node carries a doc
// comment, nil otherwise so undocumented elements stay metadata-free.
func docMetadata(node *tree_sitter.Node) map[string]any {
	if hasDocComment(node) {
		return map[string]any{"documented": true}
	}
	return nil
}
