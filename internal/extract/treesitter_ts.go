package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/archscope/archscope/internal/model"
)

// NewTypeScriptExtractor returns the grammar-backed extractor for TypeScript
// source files. Plain JavaScript goes through the pattern extractor instead.
func NewTypeScriptExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		lang:       model.LangTypeScript,
		tsLang:     tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		walker:     &tsWalker{},
		extensions: []string{".ts", ".tsx"},
	}
}

type tsWalker struct{}

func (w *tsWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, b *fileBuilder) {
	descend(cursor, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "class_declaration":
			w.extractClass(node, source, b)

		case "interface_declaration":
			w.extractNamed(node, source, b, model.ElementInterface, nil)

		case "enum_declaration":
			w.extractNamed(node, source, b, model.ElementEnum, nil)

		case "type_alias_declaration":
			w.extractNamed(node, source, b, model.ElementStruct, map[string]any{"kind": "type_alias"})

		case "function_declaration":
			w.extractNamed(node, source, b, model.ElementFunction, nil)

		case "method_definition":
			w.extractMethod(node, source, b)

		case "lexical_declaration":
			w.extractArrowFunctions(node, source, b)

		case "import_statement":
			w.extractImport(node, source, b)
			return false

		case "call_expression":
			w.extractCall(node, source, b)
		}
		return true
	})
}

func (w *tsWalker) extractClass(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	meta := make(map[string]any)
	extends, implements := tsHeritage(node, source)
	if extends != "" {
		meta["extends"] = extends
	}
	if len(implements) > 0 {
		meta["implements"] = implements
	}
	if len(meta) == 0 {
		meta = nil
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       nameNode.Utf8Text(source),
		Type:       model.ElementClass,
		LineNumber: start,
		EndLine:    end,
		Visibility: tsVisibility(node),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

func (w *tsWalker) extractNamed(node *tree_sitter.Node, source []byte, b *fileBuilder, typ model.ElementType, meta map[string]any) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	start, end := span(node)
	b.add(model.CodeElement{
		Name:       nameNode.Utf8Text(source),
		Type:       typ,
		LineNumber: start,
		EndLine:    end,
		Visibility: tsVisibility(node),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

func (w *tsWalker) extractMethod(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)

	typ := model.ElementMethod
	if name == "constructor" {
		typ = model.ElementConstructor
	}

	var meta map[string]any
	if class := tsEnclosingClass(node, source); class != "" {
		meta = map[string]any{"class": class}
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       typ,
		LineNumber: start,
		EndLine:    end,
		Visibility: tsAccessibility(node, source),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

// extractArrowFunctions records "const foo = () => ..." declarators as
// functions.
func (w *tsWalker) extractArrowFunctions(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	vis := tsVisibility(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		valueNode := child.ChildByFieldName("value")
		if valueNode == nil || valueNode.Kind() != "arrow_function" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		start, end := span(child)
		b.add(model.CodeElement{
			Name:       nameNode.Utf8Text(source),
			Type:       model.ElementFunction,
			LineNumber: start,
			EndLine:    end,
			Visibility: vis,
			ASTNode:    astRef(child),
			Metadata:   map[string]any{"kind": "arrow_function"},
		})
	}
}

func (w *tsWalker) extractImport(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "string" {
				sourceNode = child
				break
			}
		}
	}
	if sourceNode == nil {
		return
	}
	importPath := trimQuotes(sourceNode.Utf8Text(source))
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
			Kind:   tsImportKind(importPath),
			Source: "import",
		}},
	})
}

func (w *tsWalker) extractCall(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier", "member_expression":
		b.addCall(fnNode.Utf8Text(source))
	}
}

// tsHeritage reads the class_heritage node: one optional extends clause and
// any number of implemented interfaces.
func tsHeritage(node *tree_sitter.Node, source []byte) (string, []string) {
	var extends string
	var implements []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			clause := child.Child(j)
			if clause == nil {
				continue
			}
			switch clause.Kind() {
			case "extends_clause":
				if value := clause.ChildByFieldName("value"); value != nil {
					extends = tsTypeName(value, source)
				} else if first := clause.NamedChild(0); first != nil {
					extends = tsTypeName(first, source)
				}
			case "implements_clause":
				for k := uint(0); k < clause.NamedChildCount(); k++ {
					if typ := clause.NamedChild(k); typ != nil {
						implements = append(implements, tsTypeName(typ, source))
					}
				}
			}
		}
	}
	return extends, implements
}

// tsTypeName strips generic arguments from a heritage type expression.
func tsTypeName(node *tree_sitter.Node, source []byte) string {
	if node.Kind() == "generic_type" {
		if name := node.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(source)
		}
	}
	return node.Utf8Text(source)
}

func tsEnclosingClass(node *tree_sitter.Node, source []byte) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Kind() != "class_declaration" && parent.Kind() != "class" {
			continue
		}
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
			return nameNode.Utf8Text(source)
		}
		return ""
	}
	return ""
}

// tsVisibility maps export status to visibility: exported declarations are
// public, everything else stays module private.
func tsVisibility(node *tree_sitter.Node) model.Visibility {
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		return model.VisibilityPublic
	}
	return model.VisibilityPackage
}

// tsAccessibility reads an explicit accessibility_modifier off a class
// member, defaulting to public as TypeScript does.
func tsAccessibility(node *tree_sitter.Node, source []byte) model.Visibility {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "accessibility_modifier" {
			continue
		}
		switch child.Utf8Text(source) {
		case "private":
			return model.VisibilityPrivate
		case "protected":
			return model.VisibilityProtected
		}
		return model.VisibilityPublic
	}
	return model.VisibilityPublic
}

// tsImportKind treats relative specifiers as internal and bare package
// specifiers as external.
func tsImportKind(importPath string) string {
	if len(importPath) > 0 && importPath[0] == '.' {
		return "internal"
	}
	return "external"
}
