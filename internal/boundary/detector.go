// Package boundary groups code elements into service boundaries, assigns
// architectural layers, and reports structural anti-patterns. Everything here
// is derived per run from elements and relationships; nothing is mutated
// incrementally.
package boundary

import (
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/archscope/archscope/internal/model"
)

// Detector holds the compiled naming heuristics for service and layer
// classification.
type Detector struct {
	servicePatterns map[model.ServiceType][]*regexp.Regexp
	layerPatterns   map[string][]*regexp.Regexp
}

// NewDetector compiles the built-in pattern tables.
func NewDetector() *Detector {
	compile := func(patterns []string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			out[i] = regexp.MustCompile(p)
		}
		return out
	}
	return &Detector{
		servicePatterns: map[model.ServiceType][]*regexp.Regexp{
			model.ServiceAPI: compile([]string{
				`api[_-]?service`, `controller`, `endpoint`, `route`,
				`restcontroller`, `fastapi`, `flask`, `express`,
			}),
			model.ServiceData: compile([]string{
				`data[_-]?service`, `repository`, `dao`, `database`,
				`entity`, `model`, `dataaccess`, `orm`,
			}),
			model.ServiceBusiness: compile([]string{
				`business[_-]?service`, `service[_-]?layer`, `domain[_-]?service`,
				`service`, `businesslogic`, `domainservice`, `applicationservice`,
			}),
			model.ServiceInfrastructure: compile([]string{
				`infrastructure[_-]?service`, `config`, `infrastructure`, `common`,
			}),
			model.ServiceUtility: compile([]string{
				`utility[_-]?service`, `util`, `helper`, `tool`, `shared`,
			}),
		},
		layerPatterns: map[string][]*regexp.Regexp{
			model.LayerPresentation:   compile([]string{`controller`, `view`, `ui`, `presentation`, `handler`}),
			model.LayerApplication:    compile([]string{`service`, `application`, `usecase`}),
			model.LayerDomain:         compile([]string{`domain`, `entity`, `model`}),
			model.LayerInfrastructure: compile([]string{`repository`, `dao`, `config`, `store`, `adapter`}),
		},
	}
}

// DetectServices groups elements into boundaries by naming heuristics and
// scores each group. Output is sorted by boundary name.
func (d *Detector) DetectServices(elements []model.CodeElement, rels []model.Relationship) []model.ServiceBoundary {
	groups := d.groupByService(elements)

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	boundaries := make([]model.ServiceBoundary, 0, len(names))
	for _, name := range names {
		members := groups[name]
		memberIDs := make(map[string]bool, len(members))
		ids := make([]string, 0, len(members))
		languages := make(map[string]bool)
		files := make(map[string]bool)
		for _, el := range members {
			memberIDs[el.ID] = true
			ids = append(ids, el.ID)
			languages[string(el.Language)] = true
			if el.FilePath != "" {
				files[el.FilePath] = true
			}
		}
		sort.Strings(ids)

		boundaries = append(boundaries, model.ServiceBoundary{
			ID:              "boundary:" + name,
			Name:            name,
			Type:            d.classify(members),
			Elements:        ids,
			Dependencies:    externalDependencies(memberIDs, rels),
			CohesionScore:   cohesion(len(members), memberIDs, rels),
			CouplingScore:   coupling(len(members), memberIDs, rels),
			ComplexityScore: complexity(members),
			Metadata: map[string]any{
				"element_count": len(members),
				"file_count":    len(files),
				"languages":     sortedKeys(languages),
			},
		})
	}
	return boundaries
}

// DetectMicroservices filters boundaries down to microservice candidates:
// cohesive, loosely coupled, non-trivial groups with at least one external
// dependency. Candidates are reported as API services.
func (d *Detector) DetectMicroservices(boundaries []model.ServiceBoundary) []model.ServiceBoundary {
	var out []model.ServiceBoundary
	for _, b := range boundaries {
		if b.CohesionScore > 0.7 && b.CouplingScore < 0.3 &&
			len(b.Elements) > 5 && len(b.Dependencies) > 0 {
			candidate := b
			candidate.Type = model.ServiceAPI
			out = append(out, candidate)
		}
	}
	return out
}

// groupByService assigns each element a boundary name: the first matching
// path segment, then the element name, then a module segment, then the
// parent directory as a fallback.
func (d *Detector) groupByService(elements []model.CodeElement) map[string][]model.CodeElement {
	groups := make(map[string][]model.CodeElement)
	for _, el := range elements {
		name := d.serviceName(el)
		groups[name] = append(groups[name], el)
	}
	return groups
}

func (d *Detector) serviceName(el model.CodeElement) string {
	if el.FilePath != "" {
		for _, part := range strings.Split(filepath.ToSlash(el.FilePath), "/") {
			if d.matchesAnyService(strings.ToLower(part)) {
				return part
			}
		}
	}
	if d.matchesAnyService(strings.ToLower(el.Name)) {
		return el.Name
	}
	if el.Module != "" {
		for _, part := range strings.Split(el.Module, ".") {
			if d.matchesAnyService(strings.ToLower(part)) {
				return part
			}
		}
	}
	if el.FilePath != "" {
		slashed := filepath.ToSlash(el.FilePath)
		if dir := path.Base(path.Dir(slashed)); dir != "." && dir != "/" {
			return dir
		}
		base := path.Base(slashed)
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return "default_service"
}

func (d *Detector) matchesAnyService(s string) bool {
	for _, patterns := range d.servicePatterns {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
	}
	return false
}

// classify votes each member's name and element type against the service
// pattern tables. Ties break by ServiceTypeOrder, so classification is
// stable across runs.
func (d *Detector) classify(members []model.CodeElement) model.ServiceType {
	votes := make(map[model.ServiceType]int, len(model.ServiceTypeOrder))
	for _, el := range members {
		name := strings.ToLower(el.Name)
		typ := strings.ToLower(string(el.Type))
		for svcType, patterns := range d.servicePatterns {
			for _, re := range patterns {
				if re.MatchString(name) || re.MatchString(typ) {
					votes[svcType]++
				}
			}
		}
	}

	best := model.ServiceTypeOrder[0]
	bestVotes := votes[best]
	for _, svcType := range model.ServiceTypeOrder[1:] {
		if votes[svcType] > bestVotes {
			best, bestVotes = svcType, votes[svcType]
		}
	}
	return best
}

// cohesion is the ratio of relationships internal to the group over the
// possible undirected pairs, capped at 1.0. Single-element groups are
// trivially cohesive.
func cohesion(size int, memberIDs map[string]bool, rels []model.Relationship) float64 {
	if size <= 1 {
		return 1.0
	}
	internal := 0
	for _, rel := range rels {
		if memberIDs[rel.SourceID] && memberIDs[rel.TargetID] {
			internal++
		}
	}
	possible := float64(size*(size-1)) / 2
	score := float64(internal) / possible
	if score > 1.0 {
		return 1.0
	}
	return score
}

// coupling is the count of relationships crossing the group border divided
// by the group size, capped at 1.0.
func coupling(size int, memberIDs map[string]bool, rels []model.Relationship) float64 {
	if size == 0 {
		return 0.0
	}
	crossing := 0
	for _, rel := range rels {
		srcIn, dstIn := memberIDs[rel.SourceID], memberIDs[rel.TargetID]
		if srcIn != dstIn {
			crossing++
		}
	}
	score := float64(crossing) / float64(size)
	if score > 1.0 {
		return 1.0
	}
	return score
}

// complexityFactors weights element kinds by how much structure they bring.
var complexityFactors = map[model.ElementType]float64{
	model.ElementClass:     2.0,
	model.ElementInterface: 1.5,
	model.ElementStruct:    1.5,
	model.ElementMethod:    1.5,
	model.ElementFunction:  1.0,
	model.ElementEnum:      0.5,
}

func complexity(members []model.CodeElement) float64 {
	if len(members) == 0 {
		return 0.0
	}
	total := 0.0
	for _, el := range members {
		if factor, ok := complexityFactors[el.Type]; ok {
			total += factor
		} else {
			total += 1.0
		}
	}
	return total / float64(len(members))
}

// externalDependencies collects the ids outside the group that its members
// touch in either direction, sorted.
func externalDependencies(memberIDs map[string]bool, rels []model.Relationship) []string {
	deps := make(map[string]bool)
	for _, rel := range rels {
		srcIn, dstIn := memberIDs[rel.SourceID], memberIDs[rel.TargetID]
		switch {
		case srcIn && !dstIn:
			deps[rel.TargetID] = true
		case dstIn && !srcIn:
			deps[rel.SourceID] = true
		}
	}
	return sortedKeys(deps)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
