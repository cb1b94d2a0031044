// Package graph builds the directed dependency graph over extracted code
// elements and computes its cycle, component, and depth structure.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/archscope/archscope/internal/model"
)

// Defaults for cycle enumeration bounds.
const (
	DefaultMaxCycles   = 1000
	DefaultMaxCycleLen = 32
)

// Options bounds the cycle search. Elementary cycle counts grow factorially
// in pathological graphs, so enumeration always runs capped.
type Options struct {
	MaxCycles   int
	MaxCycleLen int
}

func (o Options) withDefaults() Options {
	if o.MaxCycles <= 0 {
		o.MaxCycles = DefaultMaxCycles
	}
	if o.MaxCycleLen <= 0 {
		o.MaxCycleLen = DefaultMaxCycleLen
	}
	return o
}

// Graph is the element dependency graph. Element ids map to gonum node ids;
// unresolved relationship targets become external nodes carrying the raw
// name. Self-referential edges are tracked outside the gonum structure,
// which rejects self-loops.
type Graph struct {
	dg        *simple.DirectedGraph
	ids       map[string]int64
	names     map[int64]string
	nextID    int64
	elements  map[string]*model.CodeElement
	external  map[string]bool
	edges     map[string]model.Relationship
	selfLoops map[string][]model.Relationship
}

func newGraph() *Graph {
	return &Graph{
		dg:        simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		names:     make(map[int64]string),
		elements:  make(map[string]*model.CodeElement),
		external:  make(map[string]bool),
		edges:     make(map[string]model.Relationship),
		selfLoops: make(map[string][]model.Relationship),
	}
}

// Build constructs the graph from a run's elements and relationship
// candidates. Raw-name targets are resolved against the run's declarations;
// targets that stay unresolved are kept as external nodes rather than
// dropped, so third-party dependencies remain visible.
func Build(elements []model.CodeElement, rels []model.Relationship) *Graph {
	g := newGraph()
	for i := range elements {
		g.addElement(&elements[i])
	}

	res := newResolver(elements)
	for _, rel := range rels {
		if _, ok := g.elements[rel.SourceID]; !ok {
			continue
		}
		if _, ok := g.elements[rel.TargetID]; !ok {
			src := g.elements[rel.SourceID]
			if resolved, ok := res.resolve(rel.TargetID, src); ok {
				rel.TargetID = resolved
				rel.ID = model.RelationshipID(rel.SourceID, rel.TargetID, rel.Type)
			} else {
				g.ensureExternal(rel.TargetID)
			}
		}
		g.addEdge(rel)
	}
	return g
}

func (g *Graph) addElement(el *model.CodeElement) {
	if _, ok := g.ids[el.ID]; ok {
		return
	}
	g.elements[el.ID] = el
	g.addNode(el.ID)
}

func (g *Graph) ensureExternal(id string) {
	if _, ok := g.ids[id]; ok {
		return
	}
	g.external[id] = true
	g.addNode(id)
}

func (g *Graph) addNode(id string) {
	nodeID := g.nextID
	g.nextID++
	g.ids[id] = nodeID
	g.names[nodeID] = id
	g.dg.AddNode(simple.Node(nodeID))
}

func (g *Graph) addEdge(rel model.Relationship) {
	if _, ok := g.edges[rel.ID]; ok {
		return
	}
	g.edges[rel.ID] = rel

	if rel.SourceID == rel.TargetID {
		g.selfLoops[rel.SourceID] = append(g.selfLoops[rel.SourceID], rel)
		return
	}
	// The gonum graph is a simple projection of the multi-edge relationship
	// set: parallel relationships of different types between the same pair
	// share one topological edge, while each stays visible in edges.
	from, to := g.ids[rel.SourceID], g.ids[rel.TargetID]
	if !g.dg.HasEdgeFromTo(from, to) {
		g.dg.SetEdge(g.dg.NewEdge(simple.Node(from), simple.Node(to)))
	}
}

// Nodes returns every node id, elements and externals, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.ids))
	for id := range g.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Relationships returns every resolved edge, self-loops included, sorted by
// edge id.
func (g *Graph) Relationships() []model.Relationship {
	out := make([]model.Relationship, 0, len(g.edges))
	for _, rel := range g.edges {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsExternal reports whether the node id names an unresolved reference.
func (g *Graph) IsExternal(id string) bool { return g.external[id] }

// successors returns the out-neighbors of a node id, sorted, self excluded.
func (g *Graph) successors(id string) []string {
	nodeID, ok := g.ids[id]
	if !ok {
		return nil
	}
	var out []string
	it := g.dg.From(nodeID)
	for it.Next() {
		out = append(out, g.names[it.Node().ID()])
	}
	sort.Strings(out)
	return out
}

// Analyze computes the full graph view: sorted nodes and edges, strongly
// connected components, bounded elementary cycles, and the maximum
// dependency depth.
func (g *Graph) Analyze(opts Options) *model.DependencyGraph {
	opts = opts.withDefaults()

	nodes := g.Nodes()
	edges := g.Relationships()
	cycles, truncated := g.findCycles(opts)

	stats := model.GraphStats{
		NodeCount: len(nodes),
		EdgeCount: len(edges),
	}
	if n := len(nodes); n > 1 {
		stats.Density = float64(len(edges)) / float64(n*(n-1))
	}

	return &model.DependencyGraph{
		Nodes:           nodes,
		Edges:           edges,
		Cycles:          cycles,
		CyclesTruncated: truncated,
		SCCs:            g.components(),
		MaxDepth:        g.maxDepth(),
		Stats:           stats,
	}
}

// components returns strongly connected components that represent circular
// structure: multi-node components plus single nodes with a self-loop.
func (g *Graph) components() [][]string {
	var out [][]string
	for _, scc := range topo.TarjanSCC(g.dg) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, g.names[n.ID()])
		}
		sort.Strings(ids)
		out = append(out, ids)
	}
	for id := range g.selfLoops {
		if !g.inMultiNodeSCC(id, out) {
			out = append(out, []string{id})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func (g *Graph) inMultiNodeSCC(id string, sccs [][]string) bool {
	for _, scc := range sccs {
		for _, member := range scc {
			if member == id {
				return true
			}
		}
	}
	return false
}

// maxDepth runs an independent BFS per zero-in-degree root and returns the
// deepest level reached across all of them. Each root gets its own visited
// set: a node near one root can still sit deep under another. When no roots
// exist because every node participates in a cycle, every node seeds a BFS
// instead.
func (g *Graph) maxDepth() int {
	var roots []string
	for id, nodeID := range g.ids {
		if g.dg.To(nodeID).Len() == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		roots = g.Nodes()
	}
	sort.Strings(roots)

	max := 0
	for _, root := range roots {
		if d := g.bfsDepth(root); d > max {
			max = d
		}
	}
	return max
}

// bfsDepth returns the maximum BFS level reachable from root.
func (g *Graph) bfsDepth(root string) int {
	type item struct {
		id    string
		depth int
	}
	visited := map[string]bool{root: true}
	queue := []item{{id: root}}
	max := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > max {
			max = cur.depth
		}
		for _, next := range g.successors(cur.id) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, item{id: next, depth: cur.depth + 1})
			}
		}
	}
	return max
}
