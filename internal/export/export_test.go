package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archscope/archscope/internal/model"
)

func sampleResult() *model.AnalysisResult {
	a := model.CodeElement{
		ID: "a.go:struct:Handler#0", Name: "Handler", Type: model.ElementStruct,
		Language: model.LangGo, FilePath: "a.go", LineNumber: 3,
	}
	b := model.CodeElement{
		ID: "b.go:interface:Store#0", Name: "Store", Type: model.ElementInterface,
		Language: model.LangGo, FilePath: "b.go", LineNumber: 5,
	}
	rel := model.Relationship{
		ID:       model.RelationshipID(a.ID, b.ID, model.RelDependsOn),
		SourceID: a.ID, TargetID: b.ID,
		Type: model.RelDependsOn, Strength: 1.0,
	}
	return &model.AnalysisResult{
		RunID:         "run-42",
		Elements:      []model.CodeElement{a, b},
		Relationships: []model.Relationship{rel},
		Boundaries: []model.ServiceBoundary{{
			ID: "boundary:core", Name: "core", Type: model.ServiceBusiness,
			Elements: []string{a.ID, b.ID}, CohesionScore: 1.0,
		}},
		Graph: &model.DependencyGraph{
			Nodes: []string{a.ID, b.ID},
			Edges: []model.Relationship{rel},
			Stats: model.GraphStats{NodeCount: 2, EdgeCount: 1, Density: 0.5},
		},
		Metrics: map[string]model.MetricValue{
			"lines_of_code": {
				Name: "lines_of_code", Value: 40, Unit: "lines",
				Category: model.MetricSize, Severity: model.SeverityInfo,
			},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	result := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, result))

	// Enum fields serialize as string tags.
	assert.Contains(t, buf.String(), `"type": "depends_on"`)
	assert.Contains(t, buf.String(), `"type": "business_service"`)

	decoded, err := DecodeJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, result, decoded)
}

func TestWriteJSONCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "result.json")
	require.NoError(t, WriteJSON(path, sampleResult()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := DecodeJSON(f)
	require.NoError(t, err)
	assert.Equal(t, "run-42", decoded.RunID)
}

func TestGenerateMermaid(t *testing.T) {
	out := GenerateMermaid(sampleResult())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "graph TD", lines[0])
	assert.Contains(t, out, `subgraph N0["core"]`)
	assert.Contains(t, out, `["Handler"]`)
	assert.Contains(t, out, `["Store"]`)
	assert.Contains(t, out, "-->|depends_on|")
	// contains edges are not drawn
	assert.NotContains(t, out, "contains")
}

func TestGenerateMermaidExternalLabel(t *testing.T) {
	result := sampleResult()
	result.Relationships = append(result.Relationships, model.Relationship{
		ID:       "x", // external target with no extracted element
		SourceID: result.Elements[0].ID,
		TargetID: "github.com/lib/pq",
		Type:     model.RelImports,
		Strength: 1.0,
	})
	out := GenerateMermaid(result)
	assert.Contains(t, out, "-->|imports|")
}
