package extract

import (
	"fmt"

	"github.com/archscope/archscope/internal/model"
)

// implPair records a "type implements trait" fact discovered away from the
// type's own declaration, as Rust impl blocks are.
type implPair struct {
	typeName  string
	traitName string
}

// fileBuilder accumulates one file's elements with deterministic ids.
// Identifiers are derived purely from file path, element type, name, and
// occurrence index, so repeated extraction of the same bytes yields the
// same ids regardless of worker scheduling.
type fileBuilder struct {
	path      string
	lang      model.Language
	modName   string
	modEnd    int
	counts    map[string]int
	elements  []model.CodeElement
	calls     []string
	callSeen  map[string]bool
	implPairs []implPair
}

func newFileBuilder(path string, lang model.Language) *fileBuilder {
	return &fileBuilder{
		path:     path,
		lang:     lang,
		modName:  moduleName(path),
		counts:   make(map[string]int),
		callSeen: make(map[string]bool),
	}
}

// setModule overrides the default file-stem module name, used when the
// language declares one (Go package clause, Java package statement).
func (b *fileBuilder) setModule(name string) {
	if name != "" {
		b.modName = name
	}
}

func (b *fileBuilder) setModuleEnd(endLine int) {
	b.modEnd = endLine
}

// add assigns a deterministic id, appends the element, and returns the id.
func (b *fileBuilder) add(el model.CodeElement) string {
	key := fmt.Sprintf("%s:%s", el.Type, el.Name)
	occ := b.counts[key]
	b.counts[key] = occ + 1

	el.ID = model.ElementID(b.path, el.Type, el.Name, occ)
	el.FilePath = b.path
	el.Language = b.lang
	if el.Visibility == "" {
		el.Visibility = model.VisibilityPublic
	}
	b.elements = append(b.elements, el)
	return el.ID
}

// addCall records a callee name once per file. Call sites collapse to the
// module level: the graph cares that this file reaches the callee, not how
// many times.
func (b *fileBuilder) addCall(callee string) {
	if callee == "" || b.callSeen[callee] {
		return
	}
	b.callSeen[callee] = true
	b.calls = append(b.calls, callee)
}

// addImplements records an out-of-line trait implementation. finish attaches
// it to the named type's metadata when the type is declared in this file.
func (b *fileBuilder) addImplements(typeName, traitName string) {
	if typeName == "" || traitName == "" {
		return
	}
	b.implPairs = append(b.implPairs, implPair{typeName: typeName, traitName: traitName})
}

// finish materializes the module element, stamps every element with the
// module name, and folds recorded calls and impl pairs into metadata.
func (b *fileBuilder) finish() []model.CodeElement {
	mod := model.CodeElement{
		Type:       model.ElementModule,
		Name:       b.modName,
		LineNumber: 1,
		EndLine:    b.modEnd,
		Visibility: model.VisibilityPublic,
	}
	if len(b.calls) > 0 {
		mod.Metadata = map[string]any{"calls": b.calls}
	}
	mod.ID = model.ElementID(b.path, mod.Type, mod.Name, 0)
	mod.FilePath = b.path
	mod.Language = b.lang

	out := make([]model.CodeElement, 0, len(b.elements)+1)
	out = append(out, mod)
	out = append(out, b.elements...)

	for i := range out {
		out[i].Module = b.modName
	}
	for _, p := range b.implPairs {
		for i := range out {
			el := &out[i]
			if el.Name != p.typeName || !classLike(el.Type) {
				continue
			}
			if el.Metadata == nil {
				el.Metadata = make(map[string]any)
			}
			existing, _ := el.Metadata["implements"].([]string)
			el.Metadata["implements"] = append(existing, p.traitName)
			break
		}
	}
	return out
}

func classLike(t model.ElementType) bool {
	switch t {
	case model.ElementClass, model.ElementInterface, model.ElementStruct,
		model.ElementEnum, model.ElementTrait:
		return true
	}
	return false
}
