package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/archscope/archscope/internal/model"
)

// NewPythonExtractor returns the grammar-backed extractor for Python source
// files.
func NewPythonExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		lang:       model.LangPython,
		tsLang:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		walker:     &pyWalker{},
		extensions: []string{".py"},
	}
}

type pyWalker struct{}

func (w *pyWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, b *fileBuilder) {
	descend(cursor, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "class_definition":
			w.extractClass(node, source, b)

		case "function_definition":
			typ := model.ElementFunction
			if pyEnclosingClass(node, source) != "" {
				typ = model.ElementMethod
			}
			w.extractFunction(node, source, b, typ)

		case "import_statement":
			w.extractImport(node, source, b)
			return false

		case "import_from_statement":
			w.extractFromImport(node, source, b)
			return false

		case "call":
			w.extractCall(node, source, b)
		}
		return true
	})
}

func (w *pyWalker) extractClass(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)

	meta := make(map[string]any)
	if bases := pyBases(node, source); len(bases) > 0 {
		meta["bases"] = bases
	}
	if decorators := pyDecorators(node, source); len(decorators) > 0 {
		meta["decorators"] = decorators
	}
	if pyHasDocstring(node) {
		meta["documented"] = true
	}
	if len(meta) == 0 {
		meta = nil
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       model.ElementClass,
		LineNumber: start,
		EndLine:    end,
		Visibility: pyVisibility(name),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

func (w *pyWalker) extractFunction(node *tree_sitter.Node, source []byte, b *fileBuilder, typ model.ElementType) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)

	meta := make(map[string]any)
	if typ == model.ElementMethod {
		if class := pyEnclosingClass(node, source); class != "" {
			meta["class"] = class
		}
		if name == "__init__" {
			typ = model.ElementConstructor
		}
	}
	if decorators := pyDecorators(node, source); len(decorators) > 0 {
		meta["decorators"] = decorators
	}
	if pyHasDocstring(node) {
		meta["documented"] = true
	}
	if len(meta) == 0 {
		meta = nil
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       typ,
		LineNumber: start,
		EndLine:    end,
		Visibility: pyVisibility(name),
		ASTNode:    astRef(node),
		Metadata:   meta,
	})
}

func (w *pyWalker) extractImport(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	// import_statement children: "import" keyword then dotted_name or
	// aliased_import entries.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		name := ""
		switch child.Kind() {
		case "dotted_name":
			name = child.Utf8Text(source)
		case "aliased_import":
			if dotted := child.ChildByFieldName("name"); dotted != nil {
				name = dotted.Utf8Text(source)
			}
		}
		if name == "" {
			continue
		}
		start, end := span(node)
		b.add(model.CodeElement{
			Name:       name,
			Type:       model.ElementImport,
			LineNumber: start,
			EndLine:    end,
			ASTNode:    astRef(node),
			Dependencies: []model.DependencyRef{{
				Name:   name,
				Kind:   pyImportKind(name),
				Source: "import",
			}},
		})
	}
}

func (w *pyWalker) extractFromImport(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && (child.Kind() == "dotted_name" || child.Kind() == "relative_import") {
				moduleNode = child
				break
			}
		}
	}
	if moduleNode == nil {
		return
	}
	name := moduleNode.Utf8Text(source)
	if name == "" {
		return
	}

	start, end := span(node)
	b.add(model.CodeElement{
		Name:       name,
		Type:       model.ElementImport,
		LineNumber: start,
		EndLine:    end,
		ASTNode:    astRef(node),
		Dependencies: []model.DependencyRef{{
			Name:   name,
			Kind:   pyImportKind(name),
			Source: "from_import",
		}},
	})
}

func (w *pyWalker) extractCall(node *tree_sitter.Node, source []byte, b *fileBuilder) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier", "attribute":
		b.addCall(fnNode.Utf8Text(source))
	}
}

// pyBases collects the superclass names from the argument_list of a class
// definition, skipping keyword arguments such as metaclass=.
func pyBases(node *tree_sitter.Node, source []byte) []string {
	args := node.ChildByFieldName("superclasses")
	if args == nil {
		return nil
	}
	var bases []string
	for i := uint(0); i < args.NamedChildCount(); i++ {
		child := args.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "attribute":
			bases = append(bases, child.Utf8Text(source))
		case "subscript":
			// Generic[T] and friends: keep the base name.
			if value := child.ChildByFieldName("value"); value != nil {
				bases = append(bases, value.Utf8Text(source))
			}
		}
	}
	return bases
}

// pyDecorators collects decorator names preceding a definition wrapped in a
// decorated_definition node.
func pyDecorators(node *tree_sitter.Node, source []byte) []string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var out []string
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child == nil || child.Kind() != "decorator" {
			continue
		}
		out = append(out, strings.TrimPrefix(child.Utf8Text(source), "@"))
	}
	return out
}

// pyHasDocstring reports whether a definition body opens with a string
// expression.
func pyHasDocstring(node *tree_sitter.Node) bool {
	body := node.ChildByFieldName("body")
	if body == nil {
		return false
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" {
		return false
	}
	inner := first.NamedChild(0)
	return inner != nil && inner.Kind() == "string"
}

// pyEnclosingClass walks parents to the nearest class definition and returns
// its name, or "" for module-level definitions. Functions nested inside other
// functions stay plain functions.
func pyEnclosingClass(node *tree_sitter.Node, source []byte) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "class_definition":
			nameNode := parent.ChildByFieldName("name")
			if nameNode == nil {
				return ""
			}
			return nameNode.Utf8Text(source)
		case "function_definition":
			return ""
		}
	}
	return ""
}

// pyImportKind treats dot-relative imports as internal and everything else
// as a best-effort external guess the resolver refines.
func pyImportKind(name string) string {
	if strings.HasPrefix(name, ".") {
		return "internal"
	}
	return "external"
}

func pyVisibility(name string) model.Visibility {
	if strings.HasPrefix(name, "_") {
		return model.VisibilityPrivate
	}
	return model.VisibilityPublic
}
