package model

import "time"

// MetricCategory groups related metrics.
type MetricCategory string

const (
	MetricComplexity      MetricCategory = "complexity"
	MetricCoupling        MetricCategory = "coupling"
	MetricCohesion        MetricCategory = "cohesion"
	MetricSize            MetricCategory = "size"
	MetricQuality         MetricCategory = "quality"
	MetricArchitecture    MetricCategory = "architecture"
	MetricMaintainability MetricCategory = "maintainability"
)

// Severity levels for metric threshold comparison and diagnostics.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// MetricValue is one computed metric with its unit, documentation, and the
// severity derived from comparing the value against the metric's threshold.
type MetricValue struct {
	Name        string         `json:"name"`
	Value       float64        `json:"value"`
	Unit        string         `json:"unit"`
	Description string         `json:"description"`
	Category    MetricCategory `json:"category"`
	Threshold   float64        `json:"threshold,omitempty"`
	Severity    string         `json:"severity"`
}

// GraphStats summarizes the dependency graph.
type GraphStats struct {
	NodeCount int     `json:"nodeCount"`
	EdgeCount int     `json:"edgeCount"`
	Density   float64 `json:"density"`
}

// DependencyGraph is the graph view attached to an analysis result: node ids,
// edges, and the computed cycle and SCC sets.
//
// Cycles lists every elementary cycle as a closed-walk id sequence, bounded
// by the builder's cycle cap; CyclesTruncated reports whether the cap was
// hit. SCCs lists strongly connected components with more than one member
// (singletons without a self-loop are not circular dependencies).
type DependencyGraph struct {
	Nodes           []string       `json:"nodes"`
	Edges           []Relationship `json:"edges"`
	Cycles          [][]string     `json:"cycles"`
	CyclesTruncated bool           `json:"cyclesTruncated,omitempty"`
	SCCs            [][]string     `json:"stronglyConnectedComponents"`
	MaxDepth        int            `json:"maxDepth"`
	Stats           GraphStats     `json:"stats"`
}

// Diagnostic records a recovered failure (skipped file, omitted metric
// category). Diagnostics degrade the result instead of aborting the run.
type Diagnostic struct {
	Severity string `json:"severity"`
	FilePath string `json:"filePath,omitempty"`
	Message  string `json:"message"`
}

// RunMetadata describes one analysis run.
type RunMetadata struct {
	RootPath      string         `json:"rootPath"`
	FileCount     int            `json:"fileCount"`
	LanguageStats map[string]int `json:"languageStats"` // language -> element count
	StartedAt     time.Time      `json:"startedAt"`
	Duration      time.Duration  `json:"duration"`
}

// AnalysisResult is the immutable snapshot produced by one analysis run.
// Every consumer reads it as-is; a new run produces an entirely new result.
//
// Every id referenced by relationships, boundaries, or layers either resolves
// to an entry in Elements or is an explicitly unresolved external reference;
// consumers must not assume every id resolves.
type AnalysisResult struct {
	RunID         string                 `json:"runId"`
	Elements      []CodeElement          `json:"elements"`
	Relationships []Relationship         `json:"relationships"`
	Boundaries    []ServiceBoundary      `json:"serviceBoundaries"`
	Microservices []ServiceBoundary      `json:"microserviceCandidates,omitempty"`
	Layers        []ArchitectureLayer    `json:"architectureLayers"`
	Graph         *DependencyGraph       `json:"dependencyGraph"`
	Communities   [][]string             `json:"communities,omitempty"`
	Metrics       map[string]MetricValue `json:"metrics"`
	AntiPatterns  []AntiPattern          `json:"antiPatterns"`
	Diagnostics   []Diagnostic           `json:"diagnostics,omitempty"`
	Metadata      RunMetadata            `json:"metadata"`
}

// ElementByID returns the element with the given id, or nil when the id is
// an external reference.
func (r *AnalysisResult) ElementByID(id string) *CodeElement {
	for i := range r.Elements {
		if r.Elements[i].ID == id {
			return &r.Elements[i]
		}
	}
	return nil
}

// RelationshipsFor returns every relationship touching the given element.
func (r *AnalysisResult) RelationshipsFor(id string) []Relationship {
	var out []Relationship
	for _, rel := range r.Relationships {
		if rel.SourceID == id || rel.TargetID == id {
			out = append(out, rel)
		}
	}
	return out
}

// ElementsByType returns all elements of the given type.
func (r *AnalysisResult) ElementsByType(typ ElementType) []CodeElement {
	var out []CodeElement
	for _, e := range r.Elements {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
