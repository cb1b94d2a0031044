package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archscope/archscope/internal/model"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// findElement returns the first element matching name and type, or nil.
func findElement(elements []model.CodeElement, name string, typ model.ElementType) *model.CodeElement {
	for i := range elements {
		if elements[i].Name == name && elements[i].Type == typ {
			return &elements[i]
		}
	}
	return nil
}

// elementsOfType returns all elements of the given type.
func elementsOfType(elements []model.CodeElement, typ model.ElementType) []model.CodeElement {
	var out []model.CodeElement
	for _, el := range elements {
		if el.Type == typ {
			out = append(out, el)
		}
	}
	return out
}

// relsOfType returns all relationships of the given type.
func relsOfType(rels []model.Relationship, typ model.RelationshipType) []model.Relationship {
	var out []model.Relationship
	for _, r := range rels {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func extractAll(t *testing.T, e Extractor, path string, source string) []model.CodeElement {
	t.Helper()
	elements, err := e.Extract(context.Background(), path, []byte(source))
	require.NoError(t, err)
	return elements
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_ForFile(t *testing.T) {
	r := DefaultRegistry()

	cases := []struct {
		path string
		lang model.Language
	}{
		{"pkg/server.go", model.LangGo},
		{"app/models.py", model.LangPython},
		{"src/index.ts", model.LangTypeScript},
		{"src/view.tsx", model.LangTypeScript},
		{"lib/main.rs", model.LangRust},
		{"web/app.js", model.LangJavaScript},
		{"svc/Main.java", model.LangJava},
	}
	for _, tc := range cases {
		e, ok := r.ForFile(tc.path)
		require.True(t, ok, "extractor for %s", tc.path)
		assert.Equal(t, tc.lang, e.Language(), tc.path)
	}

	_, ok := r.ForFile("README.md")
	assert.False(t, ok, "no extractor for markdown")
}

func TestDetectLanguage(t *testing.T) {
	lang, ok := DetectLanguage("a/b/c.py")
	require.True(t, ok)
	assert.Equal(t, model.LangPython, lang)

	_, ok = DetectLanguage("Makefile")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Go
// ---------------------------------------------------------------------------

const goSource = `package web

import (
	"fmt"
	"github.com/pkg/errors"
)

// Handler routes requests.
type Handler struct{}

type Store interface {
	Get(id string) (string, error)
}

func (h *Handler) Serve(id string) {
	fmt.Println(process(id))
}

func process(id string) string {
	return errors.Wrap(nil, id).Error()
}
`

func TestGoExtractor(t *testing.T) {
	e := NewGoExtractor()
	elements := extractAll(t, e, "handler.go", goSource)

	mod := findElement(elements, "web", model.ElementModule)
	require.NotNil(t, mod, "module element from package clause")
	assert.Equal(t, 1, mod.LineNumber)
	assert.Greater(t, mod.EndLine, 10)

	handler := findElement(elements, "Handler", model.ElementStruct)
	require.NotNil(t, handler)
	assert.Equal(t, model.VisibilityPublic, handler.Visibility)
	assert.Equal(t, "web", handler.Module)
	assert.Equal(t, true, handler.Metadata["documented"])

	store := findElement(elements, "Store", model.ElementInterface)
	require.NotNil(t, store)

	serve := findElement(elements, "Serve", model.ElementMethod)
	require.NotNil(t, serve)
	assert.Equal(t, "Handler", serve.Meta("receiver"))

	proc := findElement(elements, "process", model.ElementFunction)
	require.NotNil(t, proc)
	assert.Equal(t, model.VisibilityPackage, proc.Visibility)

	imports := elementsOfType(elements, model.ElementImport)
	require.Len(t, imports, 2)
	ext := findElement(elements, "github.com/pkg/errors", model.ElementImport)
	require.NotNil(t, ext)
	assert.Equal(t, "external", ext.Dependencies[0].Kind)
	std := findElement(elements, "fmt", model.ElementImport)
	require.NotNil(t, std)
	assert.Equal(t, "internal", std.Dependencies[0].Kind)

	assert.Contains(t, mod.MetaStrings("calls"), "process")
}

// ---------------------------------------------------------------------------
// Python
// ---------------------------------------------------------------------------

const pySource = `import os
from services import payment

class Base:
    """Shared behavior."""

    def ping(self):
        return "pong"

class Child(Base):
    def __init__(self, name):
        self.name = name

    def _hidden(self):
        helper()

def helper():
    pass
`

func TestPythonExtractor(t *testing.T) {
	e := NewPythonExtractor()
	elements := extractAll(t, e, "app/models.py", pySource)

	mod := findElement(elements, "models", model.ElementModule)
	require.NotNil(t, mod, "module named after file stem")

	base := findElement(elements, "Base", model.ElementClass)
	require.NotNil(t, base)
	assert.Empty(t, base.MetaStrings("bases"))
	assert.Equal(t, true, base.Metadata["documented"])

	child := findElement(elements, "Child", model.ElementClass)
	require.NotNil(t, child)
	assert.Equal(t, []string{"Base"}, child.MetaStrings("bases"))

	ping := findElement(elements, "ping", model.ElementMethod)
	require.NotNil(t, ping, "class body function becomes a method")
	assert.Equal(t, "Base", ping.Meta("class"))

	ctor := findElement(elements, "__init__", model.ElementConstructor)
	require.NotNil(t, ctor)
	assert.Equal(t, model.VisibilityPrivate, ctor.Visibility)

	hidden := findElement(elements, "_hidden", model.ElementMethod)
	require.NotNil(t, hidden)
	assert.Equal(t, model.VisibilityPrivate, hidden.Visibility)

	fn := findElement(elements, "helper", model.ElementFunction)
	require.NotNil(t, fn, "module level def stays a function")

	osImp := findElement(elements, "os", model.ElementImport)
	require.NotNil(t, osImp)
	assert.Equal(t, "import", osImp.Dependencies[0].Source)
	svcImp := findElement(elements, "services", model.ElementImport)
	require.NotNil(t, svcImp)
	assert.Equal(t, "from_import", svcImp.Dependencies[0].Source)
}

func TestPythonExtractor_DeriveRelationships(t *testing.T) {
	e := NewPythonExtractor()
	elements := extractAll(t, e, "app/models.py", pySource)
	rels := e.DeriveRelationships(elements)

	inherits := relsOfType(rels, model.RelInherits)
	require.Len(t, inherits, 1)
	child := findElement(elements, "Child", model.ElementClass)
	assert.Equal(t, child.ID, inherits[0].SourceID)
	assert.Equal(t, "Base", inherits[0].TargetID, "raw name until graph resolution")
	assert.Equal(t, 1.0, inherits[0].Strength)

	contains := relsOfType(rels, model.RelContains)
	assert.Len(t, contains, len(elements)-1, "module contains every other element")

	imports := relsOfType(rels, model.RelImports)
	assert.Len(t, imports, 2)

	calls := relsOfType(rels, model.RelCalls)
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].TargetID)
}

// ---------------------------------------------------------------------------
// TypeScript
// ---------------------------------------------------------------------------

const tsSource = `import { Repo } from "./repo";
import express from "express";

export interface Notifier {
  notify(msg: string): void;
}

export class UserService extends BaseService implements Notifier {
  constructor(private repo: Repo) { super(); }

  notify(msg: string): void {
    console.log(msg);
  }
}

export const listUsers = (repo: Repo) => repo.all();

enum Color { Red, Green }
`

func TestTypeScriptExtractor(t *testing.T) {
	e := NewTypeScriptExtractor()
	elements := extractAll(t, e, "src/service.ts", tsSource)

	svc := findElement(elements, "UserService", model.ElementClass)
	require.NotNil(t, svc)
	assert.Equal(t, model.VisibilityPublic, svc.Visibility)
	assert.Equal(t, "BaseService", svc.Meta("extends"))
	assert.Equal(t, []string{"Notifier"}, svc.MetaStrings("implements"))

	iface := findElement(elements, "Notifier", model.ElementInterface)
	require.NotNil(t, iface)

	ctor := findElement(elements, "constructor", model.ElementConstructor)
	require.NotNil(t, ctor)
	assert.Equal(t, "UserService", ctor.Meta("class"))

	arrow := findElement(elements, "listUsers", model.ElementFunction)
	require.NotNil(t, arrow)
	assert.Equal(t, "arrow_function", arrow.Meta("kind"))

	enum := findElement(elements, "Color", model.ElementEnum)
	require.NotNil(t, enum)
	assert.Equal(t, model.VisibilityPackage, enum.Visibility, "unexported declaration")

	rel := findElement(elements, "./repo", model.ElementImport)
	require.NotNil(t, rel)
	assert.Equal(t, "internal", rel.Dependencies[0].Kind)
	pkg := findElement(elements, "express", model.ElementImport)
	require.NotNil(t, pkg)
	assert.Equal(t, "external", pkg.Dependencies[0].Kind)
}

// ---------------------------------------------------------------------------
// Rust
// ---------------------------------------------------------------------------

const rsSource = `use std::collections::HashMap;
use crate::store::Store;

pub trait Repository {
    fn get(&self, id: u64) -> Option<String>;
}

pub struct MemRepo {
    items: HashMap<u64, String>,
}

impl Repository for MemRepo {
    fn get(&self, id: u64) -> Option<String> {
        self.items.get(&id).cloned()
    }
}

fn internal_helper() {}
`

func TestRustExtractor(t *testing.T) {
	e := NewRustExtractor()
	elements := extractAll(t, e, "src/repo.rs", rsSource)

	trait := findElement(elements, "Repository", model.ElementTrait)
	require.NotNil(t, trait)
	assert.Equal(t, model.VisibilityPublic, trait.Visibility)

	repo := findElement(elements, "MemRepo", model.ElementStruct)
	require.NotNil(t, repo)
	assert.Equal(t, []string{"Repository"}, repo.MetaStrings("implements"),
		"impl block folded onto the struct")

	get := findElement(elements, "get", model.ElementMethod)
	require.NotNil(t, get)
	assert.Equal(t, "MemRepo", get.Meta("receiver"))

	helper := findElement(elements, "internal_helper", model.ElementFunction)
	require.NotNil(t, helper)
	assert.Equal(t, model.VisibilityPrivate, helper.Visibility)

	crateUse := findElement(elements, "crate::store::Store", model.ElementImport)
	require.NotNil(t, crateUse)
	assert.Equal(t, "internal", crateUse.Dependencies[0].Kind)

	rels := e.DeriveRelationships(elements)
	impls := relsOfType(rels, model.RelImplements)
	require.Len(t, impls, 1)
	assert.Equal(t, repo.ID, impls[0].SourceID)
	assert.Equal(t, "Repository", impls[0].TargetID)
}

// ---------------------------------------------------------------------------
// Pattern extractors
// ---------------------------------------------------------------------------

const jsSource = `import { api } from './api';
const fs = require('fs');

class OrderController extends BaseController {
  create(req) { api.post(req); }
}

function normalize(order) {
  return order;
}
`

func TestJavaScriptExtractor(t *testing.T) {
	e := NewJavaScriptExtractor()
	elements := extractAll(t, e, "web/orders.js", jsSource)

	ctrl := findElement(elements, "OrderController", model.ElementClass)
	require.NotNil(t, ctrl)
	assert.Equal(t, "BaseController", ctrl.Meta("extends"))
	assert.Equal(t, "low", ctrl.Meta("confidence"))

	fn := findElement(elements, "normalize", model.ElementFunction)
	require.NotNil(t, fn)

	imp := findElement(elements, "./api", model.ElementImport)
	require.NotNil(t, imp)
	assert.Equal(t, "internal", imp.Dependencies[0].Kind)

	req := findElement(elements, "fs", model.ElementRequire)
	require.NotNil(t, req)
	assert.Equal(t, "fs", req.Dependencies[0].Name)
	assert.Equal(t, "require", req.Dependencies[0].Source)

	rels := e.DeriveRelationships(elements)
	assert.Len(t, relsOfType(rels, model.RelExtends), 1)
	assert.Len(t, relsOfType(rels, model.RelRequires), 1)
}

const javaSource = `package com.shop.orders;

import java.util.List;
import com.shop.inventory.StockClient;

public class OrderService extends BaseService implements Auditable, Closeable {
    public List<String> list() {
        return null;
    }
}
`

func TestJavaExtractor(t *testing.T) {
	e := NewJavaExtractor()
	elements := extractAll(t, e, "svc/OrderService.java", javaSource)

	pkg := findElement(elements, "com.shop.orders", model.ElementPackage)
	require.NotNil(t, pkg)

	cls := findElement(elements, "OrderService", model.ElementClass)
	require.NotNil(t, cls)
	assert.Equal(t, model.VisibilityPublic, cls.Visibility)
	assert.Contains(t, cls.Modifiers, "public")
	assert.Equal(t, "BaseService", cls.Meta("extends"))
	assert.Equal(t, []string{"Auditable", "Closeable"}, cls.MetaStrings("implements"))

	std := findElement(elements, "java.util.List", model.ElementImport)
	require.NotNil(t, std)
	assert.Equal(t, "internal", std.Dependencies[0].Kind)
	ext := findElement(elements, "com.shop.inventory.StockClient", model.ElementImport)
	require.NotNil(t, ext)
	assert.Equal(t, "external", ext.Dependencies[0].Kind)
}

// ---------------------------------------------------------------------------
// Shared behavior
// ---------------------------------------------------------------------------

func TestExtract_EmptySource(t *testing.T) {
	for _, e := range []Extractor{NewGoExtractor(), NewPythonExtractor(), NewJavaScriptExtractor()} {
		elements, err := e.Extract(context.Background(), "empty.src", []byte("   \n\t\n"))
		require.NoError(t, err)
		assert.Empty(t, elements, "%s extractor on blank input", e.Language())
	}
}

func TestExtract_DeterministicIDs(t *testing.T) {
	e := NewPythonExtractor()
	first := extractAll(t, e, "app/models.py", pySource)
	second := extractAll(t, e, "app/models.py", pySource)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	base := findElement(first, "Base", model.ElementClass)
	assert.Equal(t, model.ElementID("app/models.py", model.ElementClass, "Base", 0), base.ID)
}

func TestExtract_DuplicateNamesGetOccurrenceIndexes(t *testing.T) {
	src := `def run():
    pass

def run():
    pass
`
	e := NewPythonExtractor()
	elements := extractAll(t, e, "dup.py", src)

	funcs := elementsOfType(elements, model.ElementFunction)
	require.Len(t, funcs, 2)
	assert.Equal(t, model.ElementID("dup.py", model.ElementFunction, "run", 0), funcs[0].ID)
	assert.Equal(t, model.ElementID("dup.py", model.ElementFunction, "run", 1), funcs[1].ID)
}
