package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/archscope/archscope/internal/model"
)

// MemStore is an in-memory Store. Safe for concurrent use.
type MemStore struct {
	mu         sync.RWMutex
	elements   map[string]model.CodeElement
	rels       map[string]model.Relationship
	boundaries map[string]model.ServiceBoundary
	incoming   map[string][]string // target id -> source ids
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		elements:   make(map[string]model.CodeElement),
		rels:       make(map[string]model.Relationship),
		boundaries: make(map[string]model.ServiceBoundary),
		incoming:   make(map[string][]string),
	}
}

// InitSchema is a no-op for the memory backend.
func (s *MemStore) InitSchema(ctx context.Context) error { return nil }

// Close is a no-op for the memory backend.
func (s *MemStore) Close() error { return nil }

func (s *MemStore) AddElement(ctx context.Context, el model.CodeElement) error {
	if err := el.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[el.ID] = el
	return nil
}

func (s *MemStore) AddRelationship(ctx context.Context, rel model.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rels[rel.ID]; !exists {
		s.incoming[rel.TargetID] = append(s.incoming[rel.TargetID], rel.SourceID)
	}
	s.rels[rel.ID] = rel
	return nil
}

func (s *MemStore) AddBoundary(ctx context.Context, b model.ServiceBoundary) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundaries[b.ID] = b
	return nil
}

func (s *MemStore) GetElement(ctx context.Context, id string) (*model.CodeElement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok {
		return nil, fmt.Errorf("element %s not found", id)
	}
	return &el, nil
}

// QueryElements matches the query case-insensitively against element names
// and file paths. Results are sorted by id; limit <= 0 means no limit.
func (s *MemStore) QueryElements(ctx context.Context, query string, limit int) ([]model.CodeElement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []model.CodeElement
	for _, el := range s.elements {
		if q == "" ||
			strings.Contains(strings.ToLower(el.Name), q) ||
			strings.Contains(strings.ToLower(el.FilePath), q) {
			out = append(out, el)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) GetBoundaries(ctx context.Context) ([]model.ServiceBoundary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ServiceBoundary, 0, len(s.boundaries))
	for _, b := range s.boundaries {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) AllRelationships(ctx context.Context) ([]model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Relationship, 0, len(s.rels))
	for _, rel := range s.rels {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Dependents walks incoming edges breadth-first from id, up to maxDepth hops.
// The starting element is not included in the result.
func (s *MemStore) Dependents(ctx context.Context, id string, maxDepth int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if maxDepth <= 0 {
		maxDepth = 1
	}
	visited := map[string]bool{id: true}
	frontier := []string{id}
	var result []string
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, src := range s.incoming[cur] {
				if visited[src] {
					continue
				}
				visited[src] = true
				result = append(result, src)
				next = append(next, src)
			}
		}
		frontier = next
	}
	sort.Strings(result)
	return result, nil
}

func (s *MemStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Stats{
		ElementCount:      len(s.elements),
		RelationshipCount: len(s.rels),
		BoundaryCount:     len(s.boundaries),
	}, nil
}
