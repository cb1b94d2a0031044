// Package store persists analysis results to a queryable graph backend.
// MemStore backs tests and single-shot runs; KuzuStore keeps results in an
// embedded graph database that survives across sessions.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/archscope/archscope/internal/model"
)

// Store is the persistence interface for analysis results. All graph DB
// access goes through this interface.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddElement(ctx context.Context, el model.CodeElement) error
	AddRelationship(ctx context.Context, rel model.Relationship) error
	AddBoundary(ctx context.Context, b model.ServiceBoundary) error

	// Read operations.
	GetElement(ctx context.Context, id string) (*model.CodeElement, error)
	QueryElements(ctx context.Context, query string, limit int) ([]model.CodeElement, error)
	GetBoundaries(ctx context.Context) ([]model.ServiceBoundary, error)
	AllRelationships(ctx context.Context) ([]model.Relationship, error)

	// Dependents walks incoming relationships from the given element up to
	// maxDepth hops and returns the ids reached, sorted.
	Dependents(ctx context.Context, id string, maxDepth int) ([]string, error)

	// Stats.
	Stats(ctx context.Context) (*Stats, error)
}

// Stats counts what the store holds.
type Stats struct {
	ElementCount      int
	RelationshipCount int
	BoundaryCount     int
}

// SaveResult initializes the schema and writes one analysis result. Elements
// go first so relationship endpoints can be matched by the backend.
func SaveResult(ctx context.Context, s Store, result *model.AnalysisResult) error {
	if err := s.InitSchema(ctx); err != nil {
		return err
	}
	for _, el := range result.Elements {
		if err := s.AddElement(ctx, el); err != nil {
			return fmt.Errorf("store element %s: %w", el.ID, err)
		}
	}
	for _, rel := range result.Relationships {
		if err := s.AddRelationship(ctx, rel); err != nil {
			return fmt.Errorf("store relationship %s: %w", rel.ID, err)
		}
	}
	for _, b := range result.Boundaries {
		if err := s.AddBoundary(ctx, b); err != nil {
			return fmt.Errorf("store boundary %s: %w", b.ID, err)
		}
	}
	return nil
}
