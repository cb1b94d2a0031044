//go:build cgo

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archscope/archscope/internal/model"
)

// newTestStore creates a fresh in-memory KuzuStore with an initialized schema.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	s, err := NewKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.InitSchema(ctx))
}

func TestKuzuStore_ElementRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	el := model.CodeElement{
		ID:         model.ElementID("svc/user.go", model.ElementStruct, "UserService", 0),
		Name:       "UserService",
		Type:       model.ElementStruct,
		Language:   model.LangGo,
		FilePath:   "svc/user.go",
		LineNumber: 3,
		EndLine:    20,
		Module:     "user",
		Visibility: model.VisibilityPublic,
		Metadata:   map[string]any{"documented": true},
	}
	require.NoError(t, s.AddElement(ctx, el))

	got, err := s.GetElement(ctx, el.ID)
	require.NoError(t, err)
	assert.Equal(t, el.Name, got.Name)
	assert.Equal(t, el.Type, got.Type)
	assert.Equal(t, el.LineNumber, got.LineNumber)
	assert.Equal(t, true, got.Metadata["documented"])

	_, err = s.GetElement(ctx, "missing")
	assert.Error(t, err)
}

func TestKuzuStore_RelationshipWithExternalTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := model.CodeElement{
		ID: "a.go:module:a#0", Name: "a", Type: model.ElementModule,
		Language: model.LangGo, FilePath: "a.go", LineNumber: 1,
	}
	require.NoError(t, s.AddElement(ctx, src))

	// Target was never extracted; a placeholder node keeps the edge.
	rel := model.Relationship{
		ID:       model.RelationshipID(src.ID, "github.com/lib/pq", model.RelImports),
		SourceID: src.ID,
		TargetID: "github.com/lib/pq",
		Type:     model.RelImports,
		Strength: 1.0,
	}
	require.NoError(t, s.AddRelationship(ctx, rel))

	rels, err := s.AllRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, rel.ID, rels[0].ID)
	assert.Equal(t, model.RelImports, rels[0].Type)
}

func TestKuzuStore_QueryElements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"UserService", "OrderService", "Truncate"} {
		el := model.CodeElement{
			ID: model.ElementID("x.go", model.ElementFunction, name, 0), Name: name,
			Type: model.ElementFunction, Language: model.LangGo, FilePath: "x.go", LineNumber: 1,
		}
		require.NoError(t, s.AddElement(ctx, el))
	}

	out, err := s.QueryElements(ctx, "Service", 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "OrderService", out[0].Name)

	limited, err := s.QueryElements(ctx, "Service", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestKuzuStore_BoundaryAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := model.CodeElement{
		ID: "a.go:struct:A#0", Name: "A", Type: model.ElementStruct,
		Language: model.LangGo, FilePath: "a.go", LineNumber: 1,
	}
	b := model.CodeElement{
		ID: "b.go:struct:B#0", Name: "B", Type: model.ElementStruct,
		Language: model.LangGo, FilePath: "b.go", LineNumber: 1,
	}
	require.NoError(t, s.AddElement(ctx, a))
	require.NoError(t, s.AddElement(ctx, b))
	require.NoError(t, s.AddRelationship(ctx, model.Relationship{
		ID: model.RelationshipID(a.ID, b.ID, model.RelDependsOn),
		SourceID: a.ID, TargetID: b.ID, Type: model.RelDependsOn, Strength: 1.0,
	}))
	require.NoError(t, s.AddBoundary(ctx, model.ServiceBoundary{
		ID: "boundary:core", Name: "core", Type: model.ServiceBusiness,
		Elements: []string{a.ID, b.ID}, Dependencies: []string{"ext"},
		CohesionScore: 1.0, CouplingScore: 0.5, ComplexityScore: 1.5,
	}))

	boundaries, err := s.GetBoundaries(ctx)
	require.NoError(t, err)
	require.Len(t, boundaries, 1)
	assert.Equal(t, []string{a.ID, b.ID}, boundaries[0].Elements)
	assert.Equal(t, []string{"ext"}, boundaries[0].Dependencies)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{ElementCount: 2, RelationshipCount: 1, BoundaryCount: 1}, stats)

	deps, err := s.Dependents(ctx, b.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, deps)
}
