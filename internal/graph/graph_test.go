package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archscope/archscope/internal/model"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func classElement(file, module, name string) model.CodeElement {
	return model.CodeElement{
		ID:         model.ElementID(file, model.ElementClass, name, 0),
		Name:       name,
		Type:       model.ElementClass,
		Language:   model.LangPython,
		FilePath:   file,
		Module:     module,
		Visibility: model.VisibilityPublic,
	}
}

func moduleElement(file, name string) model.CodeElement {
	return model.CodeElement{
		ID:         model.ElementID(file, model.ElementModule, name, 0),
		Name:       name,
		Type:       model.ElementModule,
		Language:   model.LangPython,
		FilePath:   file,
		Module:     name,
		Visibility: model.VisibilityPublic,
	}
}

func edge(sourceID, target string, typ model.RelationshipType) model.Relationship {
	return model.Relationship{
		ID:       model.RelationshipID(sourceID, target, typ),
		SourceID: sourceID,
		TargetID: target,
		Type:     typ,
		Strength: 1.0,
	}
}

// ---------------------------------------------------------------------------
// Build and resolution
// ---------------------------------------------------------------------------

func TestBuild_ResolvesRawNamesToElements(t *testing.T) {
	base := classElement("base.py", "base", "Base")
	child := classElement("child.py", "child", "Child")
	rels := []model.Relationship{edge(child.ID, "Base", model.RelInherits)}

	g := Build([]model.CodeElement{base, child}, rels)

	edges := g.Relationships()
	require.Len(t, edges, 1)
	assert.Equal(t, base.ID, edges[0].TargetID, "raw name resolved to the declared class")
	assert.False(t, g.IsExternal(base.ID))
}

func TestBuild_SameFilePreferredOnAmbiguity(t *testing.T) {
	a := classElement("a.py", "a", "Handler")
	b := classElement("b.py", "b", "Handler")
	caller := classElement("b.py", "b", "Caller")
	rels := []model.Relationship{edge(caller.ID, "Handler", model.RelReferences)}

	g := Build([]model.CodeElement{a, b, caller}, rels)

	edges := g.Relationships()
	require.Len(t, edges, 1)
	assert.Equal(t, b.ID, edges[0].TargetID)
}

func TestBuild_QualifiedNameResolvesThroughModule(t *testing.T) {
	mod := moduleElement("models.py", "models")
	base := classElement("models.py", "models", "Base")
	caller := classElement("app.py", "app", "App")
	rels := []model.Relationship{edge(caller.ID, "models.Base", model.RelReferences)}

	g := Build([]model.CodeElement{mod, base, caller}, rels)

	edges := g.Relationships()
	require.Len(t, edges, 1)
	assert.Equal(t, base.ID, edges[0].TargetID)
}

func TestBuild_ImportSpecifierResolvesToModule(t *testing.T) {
	mod := moduleElement("src/repo.ts", "repo")
	caller := moduleElement("src/service.ts", "service")
	rels := []model.Relationship{edge(caller.ID, "./repo", model.RelImports)}

	g := Build([]model.CodeElement{mod, caller}, rels)

	edges := g.Relationships()
	require.Len(t, edges, 1)
	assert.Equal(t, mod.ID, edges[0].TargetID)
}

func TestBuild_UnresolvedTargetKeptExternal(t *testing.T) {
	caller := moduleElement("app.py", "app")
	rels := []model.Relationship{edge(caller.ID, "django.http", model.RelImports)}

	g := Build([]model.CodeElement{caller}, rels)

	edges := g.Relationships()
	require.Len(t, edges, 1, "dangling edge is retained, not dropped")
	assert.Equal(t, "django.http", edges[0].TargetID)
	assert.True(t, g.IsExternal("django.http"))
	assert.Contains(t, g.Nodes(), "django.http")
}

func TestBuild_DuplicateRelationshipsCollapse(t *testing.T) {
	a := classElement("a.py", "a", "A")
	b := classElement("b.py", "b", "B")
	rel := edge(a.ID, b.ID, model.RelReferences)

	g := Build([]model.CodeElement{a, b}, []model.Relationship{rel, rel, rel})
	assert.Len(t, g.Relationships(), 1)
}

// ---------------------------------------------------------------------------
// Analysis
// ---------------------------------------------------------------------------

func TestAnalyze_EmptyGraph(t *testing.T) {
	g := Build(nil, nil)
	dg := g.Analyze(Options{})

	assert.Empty(t, dg.Nodes)
	assert.Empty(t, dg.Edges)
	assert.Empty(t, dg.Cycles)
	assert.Empty(t, dg.SCCs)
	assert.Equal(t, 0, dg.MaxDepth)
	assert.Equal(t, 0, dg.Stats.NodeCount)
}

func TestAnalyze_TriangleCycle(t *testing.T) {
	a := classElement("a.py", "a", "A")
	b := classElement("b.py", "b", "B")
	c := classElement("c.py", "c", "C")
	rels := []model.Relationship{
		edge(a.ID, b.ID, model.RelReferences),
		edge(b.ID, c.ID, model.RelReferences),
		edge(c.ID, a.ID, model.RelReferences),
	}

	g := Build([]model.CodeElement{a, b, c}, rels)
	dg := g.Analyze(Options{})

	require.Len(t, dg.Cycles, 1)
	assert.Equal(t, []string{a.ID, b.ID, c.ID, a.ID}, dg.Cycles[0],
		"closed walk starting at the smallest member")
	assert.False(t, dg.CyclesTruncated)

	require.Len(t, dg.SCCs, 1)
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, dg.SCCs[0])

	assert.Equal(t, 2, dg.MaxDepth, "rootless graph measured from every node")
}

func TestAnalyze_SelfLoop(t *testing.T) {
	a := classElement("a.py", "a", "A")
	rels := []model.Relationship{edge(a.ID, a.ID, model.RelCalls)}

	g := Build([]model.CodeElement{a}, rels)
	dg := g.Analyze(Options{})

	require.Len(t, dg.Cycles, 1)
	assert.Equal(t, []string{a.ID, a.ID}, dg.Cycles[0])
	require.Len(t, dg.SCCs, 1)
	assert.Equal(t, []string{a.ID}, dg.SCCs[0])
	require.Len(t, dg.Edges, 1, "self-loop stays visible as an edge")
}

func TestAnalyze_MaxDepthFromRoots(t *testing.T) {
	chain := make([]model.CodeElement, 4)
	var rels []model.Relationship
	for i := range chain {
		chain[i] = classElement(fmt.Sprintf("f%d.py", i), fmt.Sprintf("f%d", i), fmt.Sprintf("C%d", i))
	}
	for i := 0; i < len(chain)-1; i++ {
		rels = append(rels, edge(chain[i].ID, chain[i+1].ID, model.RelReferences))
	}

	g := Build(chain, rels)
	dg := g.Analyze(Options{})

	assert.Equal(t, 3, dg.MaxDepth)
	assert.Empty(t, dg.Cycles)
	assert.Equal(t, 4, dg.Stats.NodeCount)
	assert.Equal(t, 3, dg.Stats.EdgeCount)
	assert.InDelta(t, 0.25, dg.Stats.Density, 1e-9)
}

func TestAnalyze_MaxDepthPerRoot(t *testing.T) {
	// R1 -> A and R2 -> B -> A. A sits at depth 1 under R1 but depth 2
	// under R2; the deeper placement wins.
	r1 := classElement("r1.py", "r1", "R1")
	r2 := classElement("r2.py", "r2", "R2")
	a := classElement("a.py", "a", "A")
	b := classElement("b.py", "b", "B")
	rels := []model.Relationship{
		edge(r1.ID, a.ID, model.RelReferences),
		edge(r2.ID, b.ID, model.RelReferences),
		edge(b.ID, a.ID, model.RelReferences),
	}

	g := Build([]model.CodeElement{r1, r2, a, b}, rels)
	dg := g.Analyze(Options{})

	assert.Equal(t, 2, dg.MaxDepth)
}

func TestAnalyze_LengthCapTruncates(t *testing.T) {
	// A ring longer than the default length cap: the lone cycle is
	// unreportable, but the truncation flag and the SCC still say
	// something is there.
	const n = 40
	ring := make([]model.CodeElement, n)
	var rels []model.Relationship
	for i := range ring {
		ring[i] = classElement(fmt.Sprintf("r%02d.py", i), fmt.Sprintf("r%02d", i), fmt.Sprintf("R%02d", i))
	}
	for i := range ring {
		rels = append(rels, edge(ring[i].ID, ring[(i+1)%n].ID, model.RelReferences))
	}

	g := Build(ring, rels)
	dg := g.Analyze(Options{})

	assert.Empty(t, dg.Cycles)
	assert.True(t, dg.CyclesTruncated, "length cap pruned the ring")
	require.Len(t, dg.SCCs, 1)
	assert.Len(t, dg.SCCs[0], n)
}

func TestAnalyze_CycleCapTruncates(t *testing.T) {
	// Two disjoint 2-cycles but room for only one.
	a := classElement("a.py", "a", "A")
	b := classElement("b.py", "b", "B")
	c := classElement("c.py", "c", "C")
	d := classElement("d.py", "d", "D")
	rels := []model.Relationship{
		edge(a.ID, b.ID, model.RelReferences),
		edge(b.ID, a.ID, model.RelReferences),
		edge(c.ID, d.ID, model.RelReferences),
		edge(d.ID, c.ID, model.RelReferences),
	}

	g := Build([]model.CodeElement{a, b, c, d}, rels)
	dg := g.Analyze(Options{MaxCycles: 1})

	assert.Len(t, dg.Cycles, 1)
	assert.True(t, dg.CyclesTruncated)
	assert.Len(t, dg.SCCs, 2, "SCCs are not subject to the cycle cap")
}

func TestAnalyze_Deterministic(t *testing.T) {
	elements := []model.CodeElement{
		classElement("a.py", "a", "A"),
		classElement("b.py", "b", "B"),
		classElement("c.py", "c", "C"),
	}
	rels := []model.Relationship{
		edge(elements[0].ID, elements[1].ID, model.RelReferences),
		edge(elements[1].ID, elements[2].ID, model.RelReferences),
		edge(elements[2].ID, elements[0].ID, model.RelReferences),
		edge(elements[0].ID, "numpy", model.RelImports),
	}

	first := Build(elements, rels).Analyze(Options{})
	second := Build(elements, rels).Analyze(Options{})
	assert.Equal(t, first, second)
}
