package extract

import "github.com/archscope/archscope/internal/model"

// deriveRelationships produces relationship candidates from one file's
// elements. Containment edges target real element ids; inheritance, import,
// and call edges target raw names the graph builder resolves against the
// whole run. Duplicate candidates collapse by id.
func deriveRelationships(elements []model.CodeElement) []model.Relationship {
	var moduleID string
	for _, el := range elements {
		if el.Type == model.ElementModule {
			moduleID = el.ID
			break
		}
	}

	seen := make(map[string]bool)
	var rels []model.Relationship
	add := func(sourceID, target string, typ model.RelationshipType) {
		if sourceID == "" || target == "" || sourceID == target {
			return
		}
		id := model.RelationshipID(sourceID, target, typ)
		if seen[id] {
			return
		}
		seen[id] = true
		rels = append(rels, model.Relationship{
			ID:       id,
			SourceID: sourceID,
			TargetID: target,
			Type:     typ,
			Strength: 1.0,
		})
	}

	for _, el := range elements {
		switch {
		case classLike(el.Type):
			for _, base := range el.MetaStrings("bases") {
				add(el.ID, base, model.RelInherits)
			}
			for _, iface := range el.MetaStrings("implements") {
				add(el.ID, iface, model.RelImplements)
			}
			if ext := el.Meta("extends"); ext != "" {
				add(el.ID, ext, model.RelExtends)
			}
		case el.Type == model.ElementImport:
			for _, dep := range el.Dependencies {
				add(el.ID, dep.Name, model.RelImports)
			}
		case el.Type == model.ElementRequire:
			for _, dep := range el.Dependencies {
				add(el.ID, dep.Name, model.RelRequires)
			}
		}
		if el.Type != model.ElementModule {
			add(moduleID, el.ID, model.RelContains)
		}
	}

	if moduleID != "" {
		for _, el := range elements {
			if el.ID != moduleID {
				continue
			}
			for _, callee := range el.MetaStrings("calls") {
				add(moduleID, callee, model.RelCalls)
			}
			break
		}
	}
	return rels
}
