package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/archscope/archscope/internal/model"
)

// mermaidEdgeTypes are the relationship types drawn as arrows. Contains edges
// are omitted: they duplicate the subgraph nesting.
var mermaidEdgeTypes = map[model.RelationshipType]bool{
	model.RelInherits:   true,
	model.RelImplements: true,
	model.RelExtends:    true,
	model.RelImports:    true,
	model.RelRequires:   true,
	model.RelCalls:      true,
	model.RelDependsOn:  true,
}

// GenerateMermaid produces a Mermaid graph TD diagram from an analysis
// result. Elements are grouped into subgraphs by service boundary; dependency
// relationships become arrows.
func GenerateMermaid(result *model.AnalysisResult) string {
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, b := range result.Boundaries {
		if len(b.Elements) == 0 {
			continue
		}
		members := make([]string, len(b.Elements))
		copy(members, b.Elements)
		sort.Strings(members)

		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID(b.ID), b.Name))
		for _, member := range members {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(member), elementLabel(result, member)))
		}
		sb.WriteString("  end\n")
	}

	for _, rel := range result.Relationships {
		if !mermaidEdgeTypes[rel.Type] {
			continue
		}
		srcID := getID(rel.SourceID)
		tgtID := getID(rel.TargetID)
		sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", srcID, rel.Type, tgtID))
	}

	return sb.String()
}

// elementLabel prefers the element name; external ids fall back to their last
// two path segments for readability.
func elementLabel(result *model.AnalysisResult, id string) string {
	if el := result.ElementByID(id); el != nil {
		return el.Name
	}
	return shortPath(id)
}

func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
