package model

import "fmt"

// RelationshipType classifies directed edges between code elements.
type RelationshipType string

const (
	RelInherits   RelationshipType = "inherits"
	RelImplements RelationshipType = "implements"
	RelExtends    RelationshipType = "extends"
	RelDependsOn  RelationshipType = "depends_on"
	RelImports    RelationshipType = "imports"
	RelRequires   RelationshipType = "requires"
	RelCalls      RelationshipType = "calls"
	RelReferences RelationshipType = "references"
	RelUses       RelationshipType = "uses"
	RelReturns    RelationshipType = "returns"
	RelContains   RelationshipType = "contains"
	RelBelongsTo  RelationshipType = "belongs_to"
	RelOverrides  RelationshipType = "overrides"
)

var relationshipTypes = map[RelationshipType]bool{
	RelInherits: true, RelImplements: true, RelExtends: true,
	RelDependsOn: true, RelImports: true, RelRequires: true,
	RelCalls: true, RelReferences: true, RelUses: true,
	RelReturns: true, RelContains: true, RelBelongsTo: true,
	RelOverrides: true,
}

// Relationship is a typed directed edge between two code elements.
//
// TargetID may reference an element absent from the current run (an external
// or unresolved dependency). That is not an error: the graph builder keeps
// the edge and models the target as a node with no extracted attributes.
type Relationship struct {
	ID            string           `json:"id"`
	SourceID      string           `json:"sourceId"`
	TargetID      string           `json:"targetId"`
	Type          RelationshipType `json:"type"`
	Strength      float64          `json:"strength"`
	Bidirectional bool             `json:"bidirectional,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
}

// RelationshipID derives a deterministic edge identifier.
func RelationshipID(sourceID, targetID string, typ RelationshipType) string {
	return fmt.Sprintf("%s->%s:%s", sourceID, targetID, typ)
}

// Validate checks enum membership and the strength range.
func (r *Relationship) Validate() error {
	if r.SourceID == "" || r.TargetID == "" {
		return fmt.Errorf("relationship %s: empty endpoint", r.ID)
	}
	if !relationshipTypes[r.Type] {
		return fmt.Errorf("relationship %s: unknown type %q", r.ID, r.Type)
	}
	if r.Strength < 0 || r.Strength > 1 {
		return fmt.Errorf("relationship %s: strength %f out of [0,1]", r.ID, r.Strength)
	}
	return nil
}
