package model

import "fmt"

// ServiceType classifies the architectural role of a detected boundary.
// Declaration order matters: keyword-vote ties are broken by taking the
// first type in this order with the maximum count.
type ServiceType string

const (
	ServiceAPI            ServiceType = "api_service"
	ServiceData           ServiceType = "data_service"
	ServiceBusiness       ServiceType = "business_service"
	ServiceInfrastructure ServiceType = "infrastructure_service"
	ServiceUtility        ServiceType = "utility_service"
)

// ServiceTypeOrder is the declaration order used for deterministic
// tie-breaking in role classification.
var ServiceTypeOrder = []ServiceType{
	ServiceAPI,
	ServiceData,
	ServiceBusiness,
	ServiceInfrastructure,
	ServiceUtility,
}

// ServiceBoundary is a detected, scored group of elements treated as one
// architectural unit. Boundaries are derived: each analysis run recomputes
// them from scratch, never mutates them incrementally.
type ServiceBoundary struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Type            ServiceType    `json:"type"`
	Elements        []string       `json:"elements"`     // sorted element ids
	Dependencies    []string       `json:"dependencies"` // external element ids touched
	CohesionScore   float64        `json:"cohesionScore"`
	CouplingScore   float64        `json:"couplingScore"`
	ComplexityScore float64        `json:"complexityScore"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Validate checks the documented score ranges.
func (b *ServiceBoundary) Validate() error {
	if b.CohesionScore < 0 || b.CohesionScore > 1 {
		return fmt.Errorf("boundary %s: cohesion %f out of [0,1]", b.Name, b.CohesionScore)
	}
	if b.CouplingScore < 0 || b.CouplingScore > 1 {
		return fmt.Errorf("boundary %s: coupling %f out of [0,1]", b.Name, b.CouplingScore)
	}
	if b.ComplexityScore < 0 {
		return fmt.Errorf("boundary %s: negative complexity %f", b.Name, b.ComplexityScore)
	}
	return nil
}

// Layer names in level order. Level 0 is the lowest layer.
const (
	LayerInfrastructure = "infrastructure"
	LayerDomain         = "domain"
	LayerApplication    = "application"
	LayerPresentation   = "presentation"
)

// LayerLevels maps layer names to their fixed levels.
var LayerLevels = map[string]int{
	LayerInfrastructure: 0,
	LayerDomain:         1,
	LayerApplication:    2,
	LayerPresentation:   3,
}

// ArchitectureLayer is a named, leveled grouping of elements with the set of
// layers it depends on. Derived per run, like ServiceBoundary.
type ArchitectureLayer struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Level        int            `json:"level"`
	Elements     []string       `json:"elements"`
	Dependencies []string       `json:"dependencies"` // names of layers depended on
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Validate checks the level invariant.
func (l *ArchitectureLayer) Validate() error {
	if l.Level < 0 {
		return fmt.Errorf("layer %s: negative level %d", l.Name, l.Level)
	}
	return nil
}

// AntiPattern is one entry in the read-only anti-pattern report.
type AntiPattern struct {
	Type        string   `json:"type"` // god_object, circular_dependency, high_coupling
	ElementIDs  []string `json:"elementIds,omitempty"`
	BoundaryID  string   `json:"boundaryId,omitempty"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
}
