package boundary

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/archscope/archscope/internal/model"
)

// Communities partitions the element graph by modularity (Louvain) and
// returns the detected groups as sorted id slices. It complements the
// keyword-driven boundary detection with a purely structural view.
//
// The random source is fixed so repeated runs over the same input partition
// identically.
func Communities(elements []model.CodeElement, rels []model.Relationship) [][]string {
	if len(elements) == 0 {
		return nil
	}

	g := simple.NewUndirectedGraph()
	ids := make(map[string]int64, len(elements))
	names := make(map[int64]string, len(elements))
	for i := range elements {
		id := elements[i].ID
		if _, ok := ids[id]; ok {
			continue
		}
		nodeID := int64(len(ids))
		ids[id] = nodeID
		names[nodeID] = id
		g.AddNode(simple.Node(nodeID))
	}
	for _, rel := range rels {
		from, okFrom := ids[rel.SourceID]
		to, okTo := ids[rel.TargetID]
		if !okFrom || !okTo || from == to {
			continue
		}
		if !g.HasEdgeBetween(from, to) {
			g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	reduced := community.Modularize(g, 1.0, rand.NewPCG(1, 1))

	var out [][]string
	for _, group := range reduced.Communities() {
		members := make([]string, 0, len(group))
		for _, n := range group {
			members = append(members, names[n.ID()])
		}
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// BoundariesFromCommunities scores structural communities the same way
// DetectServices scores keyword groups. Used when keyword grouping collapses
// everything into one catch-all boundary.
func (d *Detector) BoundariesFromCommunities(communities [][]string, elements []model.CodeElement, rels []model.Relationship) []model.ServiceBoundary {
	byID := make(map[string]model.CodeElement, len(elements))
	for _, el := range elements {
		byID[el.ID] = el
	}

	boundaries := make([]model.ServiceBoundary, 0, len(communities))
	for i, group := range communities {
		memberIDs := make(map[string]bool, len(group))
		members := make([]model.CodeElement, 0, len(group))
		languages := make(map[string]bool)
		files := make(map[string]bool)
		for _, id := range group {
			memberIDs[id] = true
			el, ok := byID[id]
			if !ok {
				continue
			}
			members = append(members, el)
			languages[string(el.Language)] = true
			if el.FilePath != "" {
				files[el.FilePath] = true
			}
		}
		name := fmt.Sprintf("community_%d", i)
		boundaries = append(boundaries, model.ServiceBoundary{
			ID:              "boundary:" + name,
			Name:            name,
			Type:            d.classify(members),
			Elements:        append([]string(nil), group...),
			Dependencies:    externalDependencies(memberIDs, rels),
			CohesionScore:   cohesion(len(group), memberIDs, rels),
			CouplingScore:   coupling(len(group), memberIDs, rels),
			ComplexityScore: complexity(members),
			Metadata: map[string]any{
				"element_count": len(group),
				"file_count":    len(files),
				"languages":     sortedKeys(languages),
				"grouping":      "community",
			},
		})
	}
	return boundaries
}
