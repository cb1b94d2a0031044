// Package analyzer orchestrates one analysis run: enumerate source files,
// extract elements in parallel, build the dependency graph, detect service
// boundaries and layers, and compute metrics. The output is one immutable
// AnalysisResult; per-file failures degrade into diagnostics instead of
// aborting the run.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/archscope/archscope/internal/boundary"
	"github.com/archscope/archscope/internal/extract"
	"github.com/archscope/archscope/internal/graph"
	"github.com/archscope/archscope/internal/metrics"
	"github.com/archscope/archscope/internal/model"
)

// DefaultMaxFileSize caps per-file source size; oversized files are skipped
// with a diagnostic.
const DefaultMaxFileSize = 1 << 20

// Options tunes an analysis run. The zero value analyzes everything with
// sensible defaults.
type Options struct {
	// IgnorePatterns are matched against entry names and root-relative paths.
	IgnorePatterns []string

	// MaxDepth caps directory recursion depth; 0 means unlimited.
	MaxDepth int

	// Languages restricts extraction to the given languages; empty means all
	// registered languages.
	Languages []model.Language

	// MaxFileSize in bytes; 0 uses DefaultMaxFileSize.
	MaxFileSize int64

	// MaxFiles caps how many files one run reads; 0 means unlimited.
	MaxFiles int

	// Workers bounds extraction parallelism; 0 uses GOMAXPROCS.
	Workers int

	// Graph tunes cycle enumeration.
	Graph graph.Options

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// FileInput is one pre-loaded source file for AnalyzeFiles.
type FileInput struct {
	Path   string
	Source []byte
}

// Analyzer runs the extraction and analysis pipeline.
type Analyzer struct {
	registry *extract.Registry
	opts     Options
	log      *slog.Logger
}

// New builds an Analyzer with the default extractor registry.
func New(opts Options) *Analyzer {
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{
		registry: extract.DefaultRegistry(),
		opts:     opts,
		log:      log,
	}
}

// Analyze walks root and analyzes every supported source file under it.
// It returns ErrRootNotFound when root does not exist; all other failures
// become diagnostics on the result.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*model.AnalysisResult, error) {
	paths, diags, err := a.collectFiles(root)
	if err != nil {
		return nil, err
	}
	a.log.Info("analysis started", "root", root, "files", len(paths))

	inputs := make([]FileInput, 0, len(paths))
	for _, rel := range paths {
		source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			diags = append(diags, model.Diagnostic{
				Severity: model.SeverityWarning,
				FilePath: rel,
				Message:  fmt.Sprintf("read failed: %v", err),
			})
			continue
		}
		inputs = append(inputs, FileInput{Path: rel, Source: source})
	}

	result, err := a.AnalyzeFiles(ctx, inputs)
	if err != nil {
		return nil, err
	}
	result.Diagnostics = append(diags, result.Diagnostics...)
	result.Metadata.RootPath = root
	return result, nil
}

// fileOutput carries one file's extraction output through the fan-in merge.
type fileOutput struct {
	elements []model.CodeElement
	rels     []model.Relationship
	diag     *model.Diagnostic
}

// AnalyzeFiles runs the pipeline over pre-loaded sources. Extraction fans out
// across a bounded worker pool; everything after the merge is sequential.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, inputs []FileInput) (*model.AnalysisResult, error) {
	started := time.Now()

	outputs := make([]fileOutput, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			ex, ok := a.registry.ForFile(in.Path)
			if !ok {
				outputs[i].diag = &model.Diagnostic{
					Severity: model.SeverityInfo,
					FilePath: in.Path,
					Message:  "no extractor for file",
				}
				return nil
			}
			elements, err := ex.Extract(gctx, in.Path, in.Source)
			if err != nil {
				outputs[i].diag = &model.Diagnostic{
					Severity: model.SeverityWarning,
					FilePath: in.Path,
					Message:  fmt.Sprintf("extraction failed: %v", err),
				}
				return nil
			}
			outputs[i] = fileOutput{
				elements: elements,
				rels:     ex.DeriveRelationships(elements),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only context cancellation reaches here; extractor errors degrade.
		return nil, err
	}

	var (
		elements []model.CodeElement
		rels     []model.Relationship
		diags    []model.Diagnostic
	)
	for _, out := range outputs {
		elements = append(elements, out.elements...)
		rels = append(rels, out.rels...)
		if out.diag != nil {
			diags = append(diags, *out.diag)
		}
	}
	sortElements(elements)
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })

	// Graph build resolves raw relationship targets to element ids; the
	// resolved edges are what the rest of the pipeline and the result use.
	depGraph := graph.Build(elements, rels).Analyze(a.opts.Graph)

	detector := boundary.NewDetector()
	boundaries := detector.DetectServices(elements, depGraph.Edges)
	communities := boundary.Communities(elements, depGraph.Edges)
	if len(boundaries) == 1 && len(communities) > 1 {
		a.log.Debug("keyword grouping collapsed, using communities",
			"communities", len(communities))
		boundaries = detector.BoundariesFromCommunities(communities, elements, depGraph.Edges)
	}
	microservices := detector.DetectMicroservices(boundaries)
	layers := detector.DetectLayers(elements, depGraph.Edges)
	antiPatterns := detector.DetectAntiPatterns(elements, boundaries, depGraph)

	metricValues, metricDiags := metrics.NewEngine().Calculate(metrics.Input{
		Elements:      elements,
		Relationships: depGraph.Edges,
		Boundaries:    boundaries,
	})
	diags = append(diags, metricDiags...)

	result := &model.AnalysisResult{
		RunID:         uuid.NewString(),
		Elements:      elements,
		Relationships: depGraph.Edges,
		Boundaries:    boundaries,
		Microservices: microservices,
		Layers:        layers,
		Graph:         depGraph,
		Communities:   communities,
		Metrics:       metricValues,
		AntiPatterns:  antiPatterns,
		Diagnostics:   diags,
		Metadata: model.RunMetadata{
			FileCount:     len(inputs),
			LanguageStats: languageStats(elements),
			StartedAt:     started,
			Duration:      time.Since(started),
		},
	}
	a.log.Info("analysis complete",
		"elements", len(elements),
		"relationships", len(rels),
		"boundaries", len(boundaries),
		"duration", result.Metadata.Duration)
	return result, nil
}

// sortElements orders elements by (file path, line, id) so results are
// reproducible under arbitrary extraction parallelism.
func sortElements(elements []model.CodeElement) {
	sort.Slice(elements, func(i, j int) bool {
		a, b := elements[i], elements[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		return a.ID < b.ID
	})
}

func languageStats(elements []model.CodeElement) map[string]int {
	stats := make(map[string]int)
	for _, el := range elements {
		stats[string(el.Language)]++
	}
	return stats
}
