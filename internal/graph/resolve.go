package graph

import (
	"sort"
	"strings"

	"github.com/archscope/archscope/internal/model"
)

// resolver maps raw relationship targets (type names, callee expressions,
// import specifiers) to element ids extracted in the same run. Resolution is
// best-effort and deterministic: ambiguity breaks toward the same file, then
// the same module, then the lexicographically first candidate.
type resolver struct {
	declsByName   map[string][]*model.CodeElement
	modulesByName map[string][]*model.CodeElement
}

func newResolver(elements []model.CodeElement) *resolver {
	r := &resolver{
		declsByName:   make(map[string][]*model.CodeElement),
		modulesByName: make(map[string][]*model.CodeElement),
	}
	for i := range elements {
		el := &elements[i]
		switch el.Type {
		case model.ElementModule, model.ElementPackage, model.ElementNamespace, model.ElementFile:
			r.modulesByName[el.Name] = append(r.modulesByName[el.Name], el)
		case model.ElementImport, model.ElementRequire, model.ElementExport:
			// Import elements never serve as resolution targets.
		default:
			r.declsByName[el.Name] = append(r.declsByName[el.Name], el)
		}
	}
	for _, m := range [2]map[string][]*model.CodeElement{r.declsByName, r.modulesByName} {
		for _, candidates := range m {
			sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
		}
	}
	return r
}

// resolve maps one raw target to an element id. src is the element the edge
// leaves from, used for same-file and same-module preference.
func (r *resolver) resolve(raw string, src *model.CodeElement) (string, bool) {
	if raw == "" {
		return "", false
	}

	if id, ok := r.lookupDecl(raw, src); ok {
		return id, true
	}

	// Qualified names: "models.Base", "store::Store", "pkg.Func". Try the
	// last segment as a declaration scoped to the prefix module, then fall
	// back to module elements.
	if segments := splitQualified(raw); len(segments) > 1 {
		last := segments[len(segments)-1]
		prefix := segments[len(segments)-2]
		if id, ok := r.lookupDeclInModule(last, prefix); ok {
			return id, true
		}
		if id, ok := r.lookupModule(last); ok {
			return id, true
		}
		return r.lookupModule(prefix)
	}

	// Bare names that are not declarations may still name a module, which
	// is how plain imports land.
	return r.lookupModule(raw)
}

func (r *resolver) lookupDecl(name string, src *model.CodeElement) (string, bool) {
	candidates := r.declsByName[name]
	if len(candidates) == 0 {
		return "", false
	}
	if src != nil {
		for _, c := range candidates {
			if c.FilePath == src.FilePath {
				return c.ID, true
			}
		}
		for _, c := range candidates {
			if c.Module != "" && c.Module == src.Module {
				return c.ID, true
			}
		}
	}
	return candidates[0].ID, true
}

func (r *resolver) lookupDeclInModule(name, module string) (string, bool) {
	for _, c := range r.declsByName[name] {
		if c.Module == module {
			return c.ID, true
		}
	}
	return "", false
}

// lookupModule matches a specifier against module elements by name, trying
// the full specifier and then its final path segment so "./repo",
// "services.payment", and "crate::store" all land on their module.
func (r *resolver) lookupModule(spec string) (string, bool) {
	if candidates := r.modulesByName[spec]; len(candidates) > 0 {
		return candidates[0].ID, true
	}
	segments := splitQualified(spec)
	if len(segments) > 0 {
		if last := segments[len(segments)-1]; last != spec {
			if candidates := r.modulesByName[last]; len(candidates) > 0 {
				return candidates[0].ID, true
			}
		}
	}
	return "", false
}

// splitQualified breaks a raw target on the separators the extractors emit:
// dots (Python, Java, attribute calls), double colons (Rust), and slashes
// (import paths).
func splitQualified(raw string) []string {
	raw = strings.ReplaceAll(raw, "::", "/")
	raw = strings.ReplaceAll(raw, ".", "/")
	var out []string
	for _, seg := range strings.Split(raw, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
