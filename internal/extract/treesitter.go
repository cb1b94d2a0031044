package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/archscope/archscope/internal/model"
)

// walker converts a parsed syntax tree into code elements on the builder.
type walker interface {
	walk(cursor *tree_sitter.TreeCursor, source []byte, b *fileBuilder)
}

// TreeSitterExtractor is a grammar-backed extractor for one language. A new
// tree-sitter parser is created per Extract call, so a single instance is
// safe for concurrent use across files.
type TreeSitterExtractor struct {
	lang       model.Language
	tsLang     *tree_sitter.Language
	walker     walker
	extensions []string
}

func (e *TreeSitterExtractor) Language() model.Language { return e.lang }

func (e *TreeSitterExtractor) CanHandle(path string) bool {
	ext := filepath.Ext(path)
	for _, candidate := range e.extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func (e *TreeSitterExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.CodeElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isBlank(source) {
		return nil, nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(e.tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", e.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: tree-sitter returned nil tree", path)
	}
	defer tree.Close()

	b := newFileBuilder(path, e.lang)
	b.setModuleEnd(countLOC(source))

	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	e.walker.walk(cursor, source, b)

	return b.finish(), nil
}

func (e *TreeSitterExtractor) DeriveRelationships(elements []model.CodeElement) []model.Relationship {
	return deriveRelationships(elements)
}

// descend recursively visits every node under the cursor, calling visit at
// each one. visit returning false prunes the subtree.
func descend(cursor *tree_sitter.TreeCursor, visit func(node *tree_sitter.Node) bool) {
	if !visit(cursor.Node()) {
		return
	}
	if cursor.GotoFirstChild() {
		descend(cursor, visit)
		for cursor.GotoNextSibling() {
			descend(cursor, visit)
		}
		cursor.GotoParent()
	}
}

// span returns the 1-based start and end lines of a node.
func span(node *tree_sitter.Node) (int, int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}

// astRef snapshots the node kind and span for provenance.
func astRef(node *tree_sitter.Node) *model.ASTNode {
	start, end := span(node)
	return &model.ASTNode{Kind: node.Kind(), StartLine: start, EndLine: end}
}

// hasDocComment reports whether the line preceding the node is a comment,
// the convention all four grammars share for attached documentation.
func hasDocComment(node *tree_sitter.Node) bool {
	prev := node.PrevNamedSibling()
	if prev == nil {
		return false
	}
	kind := prev.Kind()
	if kind != "comment" && kind != "line_comment" && kind != "block_comment" {
		return false
	}
	return prev.EndPosition().Row+1 >= node.StartPosition().Row
}

// trimQuotes strips matching string delimiters from a literal's text.
func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
