//go:build cgo

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/archscope/archscope/internal/model"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself for new
// databases; for existing ones the path must contain valid KuzuDB files.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables. Slice-valued
// fields (dependencies, metadata) are stored as JSON strings.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Element(
		id STRING,
		name STRING,
		type STRING,
		language STRING,
		file_path STRING,
		line INT64,
		end_line INT64,
		module STRING,
		visibility STRING,
		metadata STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Boundary(
		id STRING,
		name STRING,
		type STRING,
		cohesion DOUBLE,
		coupling DOUBLE,
		complexity DOUBLE,
		dependencies STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS RELATES(FROM Element TO Element, rel_type STRING, strength DOUBLE)`,
	`CREATE REL TABLE IF NOT EXISTS MEMBER_OF(FROM Element TO Boundary)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddElement upserts an Element node.
func (s *KuzuStore) AddElement(_ context.Context, el model.CodeElement) error {
	if err := el.Validate(); err != nil {
		return err
	}
	meta := ""
	if len(el.Metadata) > 0 {
		raw, err := json.Marshal(el.Metadata)
		if err != nil {
			return fmt.Errorf("kuzu: marshal metadata for %s: %w", el.ID, err)
		}
		meta = string(raw)
	}
	if err := s.exec("MERGE (e:Element {id: $id})", map[string]any{"id": el.ID}); err != nil {
		return err
	}
	return s.exec(
		`MATCH (e:Element {id: $id})
		 SET e.name = $name,
			 e.type = $type,
			 e.language = $lang,
			 e.file_path = $fp,
			 e.line = $line,
			 e.end_line = $el,
			 e.module = $module,
			 e.visibility = $vis,
			 e.metadata = $meta`,
		map[string]any{
			"id":     el.ID,
			"name":   el.Name,
			"type":   string(el.Type),
			"lang":   string(el.Language),
			"fp":     el.FilePath,
			"line":   int64(el.LineNumber),
			"el":     int64(el.EndLine),
			"module": el.Module,
			"vis":    string(el.Visibility),
			"meta":   meta,
		},
	)
}

// AddRelationship inserts a RELATES edge. Endpoints that were never added as
// elements (external or unresolved targets) get placeholder nodes so the edge
// is kept.
func (s *KuzuStore) AddRelationship(_ context.Context, rel model.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	for _, id := range []string{rel.SourceID, rel.TargetID} {
		if err := s.exec("MERGE (e:Element {id: $id})", map[string]any{"id": id}); err != nil {
			return err
		}
	}
	return s.exec(
		`MATCH (a:Element {id: $src}), (b:Element {id: $dst})
		 CREATE (a)-[:RELATES {rel_type: $type, strength: $strength}]->(b)`,
		map[string]any{
			"src":      rel.SourceID,
			"dst":      rel.TargetID,
			"type":     string(rel.Type),
			"strength": rel.Strength,
		},
	)
}

// AddBoundary inserts a Boundary node and MEMBER_OF edges for its elements.
func (s *KuzuStore) AddBoundary(_ context.Context, b model.ServiceBoundary) error {
	if err := b.Validate(); err != nil {
		return err
	}
	deps := ""
	if len(b.Dependencies) > 0 {
		raw, err := json.Marshal(b.Dependencies)
		if err != nil {
			return fmt.Errorf("kuzu: marshal dependencies for %s: %w", b.ID, err)
		}
		deps = string(raw)
	}
	err := s.exec(
		`CREATE (b:Boundary {
			id: $id,
			name: $name,
			type: $type,
			cohesion: $cohesion,
			coupling: $coupling,
			complexity: $complexity,
			dependencies: $deps
		})`,
		map[string]any{
			"id":         b.ID,
			"name":       b.Name,
			"type":       string(b.Type),
			"cohesion":   b.CohesionScore,
			"coupling":   b.CouplingScore,
			"complexity": b.ComplexityScore,
			"deps":       deps,
		},
	)
	if err != nil {
		return err
	}
	for _, elID := range b.Elements {
		err := s.exec(
			`MATCH (e:Element {id: $eid}), (b:Boundary {id: $bid})
			 CREATE (e)-[:MEMBER_OF]->(b)`,
			map[string]any{"eid": elID, "bid": b.ID},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

// GetElement retrieves a single Element node by id.
func (s *KuzuStore) GetElement(_ context.Context, id string) (*model.CodeElement, error) {
	rows, err := s.query(
		`MATCH (e:Element {id: $id})
		 RETURN e.id, e.name, e.type, e.language, e.file_path, e.line, e.end_line, e.module, e.visibility, e.metadata`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("element %s not found", id)
	}
	return rowToElement(rows[0]), nil
}

// QueryElements returns elements whose name or file path contains the query
// string, sorted by id. limit <= 0 means no limit.
func (s *KuzuStore) QueryElements(_ context.Context, queryStr string, limit int) ([]model.CodeElement, error) {
	cypher := `MATCH (e:Element)
		 WHERE e.name CONTAINS $q OR e.file_path CONTAINS $q
		 RETURN e.id, e.name, e.type, e.language, e.file_path, e.line, e.end_line, e.module, e.visibility, e.metadata
		 ORDER BY e.id`
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]model.CodeElement, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToElement(r))
	}
	return out, nil
}

// GetBoundaries returns all Boundary nodes with their member element ids.
func (s *KuzuStore) GetBoundaries(_ context.Context) ([]model.ServiceBoundary, error) {
	rows, err := s.query(
		`MATCH (b:Boundary)
		 RETURN b.id, b.name, b.type, b.cohesion, b.coupling, b.complexity, b.dependencies
		 ORDER BY b.id`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]model.ServiceBoundary, 0, len(rows))
	for _, r := range rows {
		b := model.ServiceBoundary{
			ID:              toString(r[0]),
			Name:            toString(r[1]),
			Type:            model.ServiceType(toString(r[2])),
			CohesionScore:   toFloat64(r[3]),
			CouplingScore:   toFloat64(r[4]),
			ComplexityScore: toFloat64(r[5]),
		}
		if deps := toString(r[6]); deps != "" {
			if err := json.Unmarshal([]byte(deps), &b.Dependencies); err != nil {
				return nil, fmt.Errorf("kuzu: unmarshal dependencies for %s: %w", b.ID, err)
			}
		}
		memberRows, err := s.query(
			"MATCH (e:Element)-[:MEMBER_OF]->(b:Boundary {id: $id}) RETURN e.id",
			map[string]any{"id": b.ID},
		)
		if err != nil {
			return nil, err
		}
		for _, mr := range memberRows {
			b.Elements = append(b.Elements, toString(mr[0]))
		}
		sort.Strings(b.Elements)
		out = append(out, b)
	}
	return out, nil
}

// AllRelationships returns all RELATES edges, sorted by id.
func (s *KuzuStore) AllRelationships(_ context.Context) ([]model.Relationship, error) {
	rows, err := s.query(
		`MATCH (a:Element)-[r:RELATES]->(b:Element)
		 RETURN a.id, b.id, r.rel_type, r.strength`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]model.Relationship, 0, len(rows))
	for _, r := range rows {
		src := toString(r[0])
		dst := toString(r[1])
		typ := model.RelationshipType(toString(r[2]))
		out = append(out, model.Relationship{
			ID:       model.RelationshipID(src, dst, typ),
			SourceID: src,
			TargetID: dst,
			Type:     typ,
			Strength: toFloat64(r[3]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------- Graph traversal ----------

// Dependents walks incoming RELATES edges breadth-first from id, up to
// maxDepth hops. The starting element is not included in the result.
func (s *KuzuStore) Dependents(_ context.Context, id string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	visited := map[string]bool{id: true}
	frontier := []string{id}
	var result []string
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			rows, err := s.query(
				"MATCH (a:Element)-[:RELATES]->(b:Element {id: $id}) RETURN a.id",
				map[string]any{"id": cur},
			)
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				src := toString(r[0])
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

// ---------- Stats ----------

// Stats returns counts of the Element and Boundary node tables and the
// RELATES edge table.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	elements, err := s.countTable("Element")
	if err != nil {
		return nil, err
	}
	boundaries, err := s.countTable("Boundary")
	if err != nil {
		return nil, err
	}
	rels, err := s.countEdges("RELATES")
	if err != nil {
		return nil, err
	}
	return &Stats{
		ElementCount:      elements,
		RelationshipCount: rels,
		BoundaryCount:     boundaries,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countEdges returns the number of edges in a relationship table.
func (s *KuzuStore) countEdges(table string) (int, error) {
	cypher := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToElement converts a 10-column result row into a CodeElement.
// Column order: id, name, type, language, file_path, line, end_line, module,
// visibility, metadata.
func rowToElement(r []any) *model.CodeElement {
	el := &model.CodeElement{
		ID:         toString(r[0]),
		Name:       toString(r[1]),
		Type:       model.ElementType(toString(r[2])),
		Language:   model.Language(toString(r[3])),
		FilePath:   toString(r[4]),
		LineNumber: toInt(r[5]),
		EndLine:    toInt(r[6]),
		Module:     toString(r[7]),
		Visibility: model.Visibility(toString(r[8])),
	}
	if meta := toString(r[9]); meta != "" {
		var m map[string]any
		if json.Unmarshal([]byte(meta), &m) == nil {
			el.Metadata = m
		}
	}
	return el
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
