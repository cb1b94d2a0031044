package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/archscope/archscope/internal/model"
)

// NewRustExtractor returns the grammar-backed extractor for Rust source files.
func NewRustExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		lang:       model.LangRust,
		tsLang:     tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		walker:     &rsWalker{},
		extensions: []string{".rs"},
	}
}

type rsWalker struct{}

func (w *rsWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, b *fileBuilder) {
	descend(cursor, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "function_item":
			// function_items inside impl blocks are emitted as methods by
			// extractImpl; skip them here.
			if !rsInsideImpl(node) {
				w.extractNamed(node, source, b, model.ElementFunction, nil)
			}

		case "struct_item":
			w.extractNamed(node, source, b, model.ElementStruct, nil)

		case "enum_item":
			w.extractNamed(node, source, b, model.ElementEnum, nil)

		case "trait_item":
			w.extractNamed(node, source, b, model.ElementTrait, nil)

		case "type_item":
			w.extractNamed(node, source, b, model.ElementStruct, map[string]any{"kind": "alias"})

		case "impl_item":
			w.extractImpl(node, source, b)

		case "use_declaration":
			w.extractUse(node, source, b)
			return false

		case "call_expression":
			w.extractCall(node, source, b)
		}
		return true
	})
}

func (w *rsWalker) extractNamed(node *tree_sitter.Node, source []byte, b *fileBuilder, typ model.ElementType, meta map[string]any) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	if hasDocComment(node) {
		if meta == nil {
			meta = make(map[string]any)
		}
		meta["documented"] = true
	}
	start, end := span(node)
	b.add(model.CodeElement{
		Name:       nameNode.Utf8Text(source),
		Type:       typ,
		LineNumber: start,
		EndLine:    end,
		Visibility: rsVisibility(node),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

// extractImpl emits the methods declared in an impl block and, for trait
// impls, records the type-implements-trait fact attached to the type's
// element at finish time.
func (w *rsWalker) extractImpl(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	typeNode := node.ChildByFieldName("type")
	typeName := ""
	if typeNode != nil {
		typeName = rsTypeName(typeNode.Utf8Text(source))
	}

	if traitNode := node.ChildByFieldName("trait"); traitNode != nil && typeName != "" {
		b.addImplements(typeName, rsTypeName(traitNode.Utf8Text(source)))
	}

	bodyNode := node.ChildByFieldName("body")
	if bodyNode == nil {
		return
	}
	for i := uint(0); i < bodyNode.ChildCount(); i++ {
		child := bodyNode.Child(i)
		if child == nil || child.Kind() != "function_item" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		var meta map[string]any
		if typeName != "" {
			meta = map[string]any{"receiver": typeName}
		}
		start, end := span(child)
		b.add(model.CodeElement{
			Name:       nameNode.Utf8Text(source),
			Type:       model.ElementMethod,
			LineNumber: start,
			EndLine:    end,
			Visibility: rsVisibility(child),
			ASTNode:    astRef(child),
			Metadata:   meta,
		})
	}
}

func (w *rsWalker) extractUse(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	argNode := node.ChildByFieldName("argument")
	if argNode == nil {
		return
	}
	importPath := argNode.Utf8Text(source)
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
			Kind:   rsImportKind(importPath),
			Source: "use",
		}},
	})
}

func (w *rsWalker) extractCall(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier", "scoped_identifier", "field_expression":
		b.addCall(fnNode.Utf8Text(source))
	}
}

// rsTypeName strips generic arguments and reference sigils from a type
// expression.
func rsTypeName(text string) string {
	text = strings.TrimLeft(text, "&")
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func rsInsideImpl(node *tree_sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Kind() == "impl_item" {
			return true
		}
	}
	return false
}

// rsVisibility checks for a leading visibility_modifier (pub, pub(crate)).
func rsVisibility(node *tree_sitter.Node) model.Visibility {
	first := node.Child(0)
	if first != nil && first.Kind() == "visibility_modifier" {
		return model.VisibilityPublic
	}
	return model.VisibilityPrivate
}

// rsImportKind treats crate-relative paths as internal.
func rsImportKind(importPath string) string {
	first, _, _ := strings.Cut(importPath, "::")
	switch first {
	case "crate", "self", "super":
		return "internal"
	}
	return "external"
}
