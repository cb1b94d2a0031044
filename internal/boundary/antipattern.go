package boundary

import (
	"fmt"

	"github.com/archscope/archscope/internal/model"
)

// Thresholds for anti-pattern detection.
const (
	godObjectMethodLimit  = 20
	highCouplingThreshold = 0.8
)

// DetectAntiPatterns reports god objects, circular dependencies, and highly
// coupled boundaries. The report is advisory: entries carry ids and a
// description, nothing here blocks analysis.
func (d *Detector) DetectAntiPatterns(
	elements []model.CodeElement,
	boundaries []model.ServiceBoundary,
	graph *model.DependencyGraph,
) []model.AntiPattern {
	var out []model.AntiPattern

	methodsPerFile := make(map[string]int)
	for _, el := range elements {
		if el.Type == model.ElementMethod {
			methodsPerFile[el.FilePath]++
		}
	}
	for _, el := range elements {
		if el.Type != model.ElementClass {
			continue
		}
		if n := methodsPerFile[el.FilePath]; n > godObjectMethodLimit {
			out = append(out, model.AntiPattern{
				Type:        "god_object",
				ElementIDs:  []string{el.ID},
				Severity:    "high",
				Description: fmt.Sprintf("class %s has %d methods", el.Name, n),
			})
		}
	}

	if graph != nil {
		for _, cycle := range graph.Cycles {
			out = append(out, model.AntiPattern{
				Type:        "circular_dependency",
				ElementIDs:  cycle,
				Severity:    "high",
				Description: fmt.Sprintf("circular dependency involving %d elements", len(cycle)-1),
			})
		}
	}

	for _, b := range boundaries {
		if b.CouplingScore > highCouplingThreshold {
			out = append(out, model.AntiPattern{
				Type:        "high_coupling",
				BoundaryID:  b.ID,
				Severity:    "medium",
				Description: fmt.Sprintf("service %s has coupling score %.2f", b.Name, b.CouplingScore),
			})
		}
	}
	return out
}
