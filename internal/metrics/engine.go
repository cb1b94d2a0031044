// Package metrics computes codebase health metrics from a run's elements,
// relationships, and detected boundaries. Categories are independent: a
// failure in one is recovered and reported as a diagnostic while the others
// still land in the result.
package metrics

import (
	"fmt"
	"sort"

	"github.com/archscope/archscope/internal/model"
)

// Input carries everything the engine reads. All fields are optional; absent
// data yields zero-valued metrics, never errors.
type Input struct {
	Elements      []model.CodeElement
	Relationships []model.Relationship
	Boundaries    []model.ServiceBoundary
}

// metricDef documents one metric and, when thresholded, how to judge it.
type metricDef struct {
	unit           string
	description    string
	threshold      float64
	hasThreshold   bool
	higherIsBetter bool
}

var metricDefs = map[string]metricDef{
	"cyclomatic_complexity_avg": {
		unit: "complexity units", description: "Average cyclomatic complexity across all code elements",
		threshold: 10.0, hasThreshold: true,
	},
	"cyclomatic_complexity_total": {
		unit: "complexity units", description: "Total cyclomatic complexity of the codebase",
	},
	"max_nesting_depth": {
		unit: "levels", description: "Maximum nesting depth found in the codebase",
		threshold: 5.0, hasThreshold: true,
	},
	"afferent_coupling_avg": {
		unit: "dependencies", description: "Average number of incoming dependencies",
		threshold: 10.0, hasThreshold: true,
	},
	"afferent_coupling_max": {
		unit: "dependencies", description: "Highest incoming dependency count on a single element",
	},
	"efferent_coupling_avg": {
		unit: "dependencies", description: "Average number of outgoing dependencies",
		threshold: 10.0, hasThreshold: true,
	},
	"efferent_coupling_max": {
		unit: "dependencies", description: "Highest outgoing dependency count on a single element",
	},
	"instability_avg": {
		unit: "score", description: "Average instability score (higher = more unstable)",
		threshold: 0.7, hasThreshold: true,
	},
	"lcom_avg": {
		unit: "cohesion units", description: "Average lack of cohesion of methods",
		threshold: 0.8, hasThreshold: true,
	},
	"total_lines_of_code": {
		unit: "lines", description: "Total lines of code across analyzed files",
	},
	"total_files": {
		unit: "files", description: "Number of analyzed source files",
	},
	"avg_file_size": {
		unit: "lines", description: "Average lines of code per file",
	},
	"total_classes": {
		unit: "classes", description: "Number of extracted classes",
	},
	"total_functions": {
		unit: "functions", description: "Number of extracted functions",
	},
	"documentation_coverage": {
		unit: "percentage", description: "Share of elements carrying documentation",
	},
	"boundary_violations": {
		unit: "dependencies", description: "Relationships crossing service boundaries",
	},
	"architecture_compliance": {
		unit: "percentage", description: "Percentage of architecture rules followed",
		threshold: 0.8, hasThreshold: true, higherIsBetter: true,
	},
	"modularity_index": {
		unit: "score", description: "Detected boundaries relative to codebase size",
	},
	"maintainability_index": {
		unit: "score", description: "Overall maintainability score (0-100)",
		threshold: 50.0, hasThreshold: true, higherIsBetter: true,
	},
}

// Engine computes the metric catalog.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Calculate runs every category and returns the named metric values plus
// diagnostics for any category that had to be skipped.
func (e *Engine) Calculate(in Input) (map[string]model.MetricValue, []model.Diagnostic) {
	out := make(map[string]model.MetricValue)
	var diags []model.Diagnostic

	categories := []struct {
		category model.MetricCategory
		compute  func(Input) map[string]float64
	}{
		{model.MetricComplexity, complexityMetrics},
		{model.MetricCoupling, couplingMetrics},
		{model.MetricCohesion, cohesionMetrics},
		{model.MetricSize, sizeMetrics},
		{model.MetricQuality, qualityMetrics},
		{model.MetricArchitecture, architectureMetrics},
		{model.MetricMaintainability, maintainabilityMetrics},
	}

	for _, c := range categories {
		values, err := safeCompute(c.compute, in)
		if err != nil {
			diags = append(diags, model.Diagnostic{
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("metric category %s omitted: %v", c.category, err),
			})
			continue
		}
		for name, value := range values {
			out[name] = makeValue(name, value, c.category)
		}
	}
	return out, diags
}

// safeCompute isolates one category: a panic becomes an error instead of
// taking the whole run down.
func safeCompute(fn func(Input) map[string]float64, in Input) (values map[string]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return fn(in), nil
}

func makeValue(name string, value float64, category model.MetricCategory) model.MetricValue {
	def := metricDefs[name]
	mv := model.MetricValue{
		Name:        name,
		Value:       value,
		Unit:        def.unit,
		Description: def.description,
		Category:    category,
		Severity:    model.SeverityInfo,
	}
	if mv.Unit == "" {
		mv.Unit = "units"
	}
	if mv.Description == "" {
		mv.Description = "Metric: " + name
	}
	if def.hasThreshold {
		mv.Threshold = def.threshold
		mv.Severity = severityFor(value, def.threshold, def.higherIsBetter)
	}
	return mv
}

// severityFor bands a value against its threshold with a 20% tolerance zone.
func severityFor(value, threshold float64, higherIsBetter bool) string {
	if higherIsBetter {
		switch {
		case value >= threshold:
			return model.SeverityInfo
		case value >= threshold*0.8:
			return model.SeverityWarning
		default:
			return model.SeverityError
		}
	}
	switch {
	case value <= threshold:
		return model.SeverityInfo
	case value <= threshold*1.2:
		return model.SeverityWarning
	default:
		return model.SeverityError
	}
}

// --- Category calculators ---

// elementComplexity reads a per-element complexity override from metadata,
// defaulting to 1. Extraction does not compute control-flow complexity yet.
func elementComplexity(el model.CodeElement) float64 {
	if el.Metadata != nil {
		switch v := el.Metadata["complexity"].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 1.0
}

func complexityMetrics(in Input) map[string]float64 {
	out := map[string]float64{
		"cyclomatic_complexity_avg":   0,
		"cyclomatic_complexity_total": 0,
		"max_nesting_depth":           0,
	}
	if len(in.Elements) == 0 {
		return out
	}
	total := 0.0
	maxNesting := 1.0
	for _, el := range in.Elements {
		total += elementComplexity(el)
		if el.Metadata != nil {
			if depth, ok := el.Metadata["nesting_depth"].(float64); ok && depth > maxNesting {
				maxNesting = depth
			}
		}
	}
	out["cyclomatic_complexity_total"] = total
	out["cyclomatic_complexity_avg"] = total / float64(len(in.Elements))
	out["max_nesting_depth"] = maxNesting
	return out
}

func couplingMetrics(in Input) map[string]float64 {
	afferent := make(map[string]int)
	efferent := make(map[string]int)
	for _, rel := range in.Relationships {
		afferent[rel.TargetID]++
		efferent[rel.SourceID]++
	}

	out := map[string]float64{
		"afferent_coupling_avg": avgCount(afferent),
		"afferent_coupling_max": maxCount(afferent),
		"efferent_coupling_avg": avgCount(efferent),
		"efferent_coupling_max": maxCount(efferent),
	}

	touched := make(map[string]bool, len(afferent)+len(efferent))
	for id := range afferent {
		touched[id] = true
	}
	for id := range efferent {
		touched[id] = true
	}
	// Float accumulation in map order drifts in the last ulp between runs,
	// so sum in key order.
	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sum, n := 0.0, 0
	for _, id := range ids {
		total := efferent[id] + afferent[id]
		if total > 0 {
			sum += float64(efferent[id]) / float64(total)
			n++
		}
	}
	if n > 0 {
		out["instability_avg"] = sum / float64(n)
	} else {
		out["instability_avg"] = 0
	}
	return out
}

// cohesionMetrics scores lack of cohesion per class from its method count;
// classes are matched to methods via the extractor's class/receiver tags.
func cohesionMetrics(in Input) map[string]float64 {
	methodsPerClass := make(map[string]int)
	for _, el := range in.Elements {
		if el.Type != model.ElementMethod && el.Type != model.ElementConstructor {
			continue
		}
		owner := el.Meta("class")
		if owner == "" {
			owner = el.Meta("receiver")
		}
		if owner != "" {
			methodsPerClass[el.FilePath+":"+owner]++
		}
	}

	owners := make([]string, 0, len(methodsPerClass))
	for owner := range methodsPerClass {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	sum, n := 0.0, 0
	for _, owner := range owners {
		if count := methodsPerClass[owner]; count > 1 {
			sum += float64(count) * 0.3
			n++
		}
	}
	out := map[string]float64{"lcom_avg": 0}
	if n > 0 {
		out["lcom_avg"] = sum / float64(n)
	}
	return out
}

func sizeMetrics(in Input) map[string]float64 {
	files := make(map[string]bool)
	totalLOC := 0.0
	classes, functions := 0, 0
	for _, el := range in.Elements {
		if el.FilePath != "" {
			files[el.FilePath] = true
		}
		switch el.Type {
		case model.ElementModule:
			totalLOC += float64(el.EndLine)
		case model.ElementClass:
			classes++
		case model.ElementFunction:
			functions++
		}
	}

	out := map[string]float64{
		"total_lines_of_code": totalLOC,
		"total_files":         float64(len(files)),
		"total_classes":       float64(classes),
		"total_functions":     float64(functions),
		"avg_file_size":       0,
	}
	if len(files) > 0 {
		out["avg_file_size"] = totalLOC / float64(len(files))
	}
	return out
}

func qualityMetrics(in Input) map[string]float64 {
	out := map[string]float64{"documentation_coverage": 0}
	if len(in.Elements) == 0 {
		return out
	}
	documented := 0
	for _, el := range in.Elements {
		if el.Metadata != nil {
			if v, ok := el.Metadata["documented"].(bool); ok && v {
				documented++
			}
		}
	}
	out["documentation_coverage"] = float64(documented) / float64(len(in.Elements))
	return out
}

func architectureMetrics(in Input) map[string]float64 {
	boundaryOf := make(map[string]string)
	for _, b := range in.Boundaries {
		for _, id := range b.Elements {
			boundaryOf[id] = b.ID
		}
	}

	violations := 0
	for _, rel := range in.Relationships {
		src, okSrc := boundaryOf[rel.SourceID]
		dst, okDst := boundaryOf[rel.TargetID]
		if okSrc && okDst && src != dst {
			violations++
		}
	}

	out := map[string]float64{
		"boundary_violations":     float64(violations),
		"architecture_compliance": 1.0,
		"modularity_index":        0,
	}
	if len(in.Relationships) > 0 {
		out["architecture_compliance"] = 1.0 - float64(violations)/float64(len(in.Relationships))
	}
	if len(in.Elements) > 0 {
		boundaries := len(in.Boundaries)
		if boundaries == 0 {
			boundaries = 1
		}
		out["modularity_index"] = float64(boundaries) / float64(len(in.Elements))
	}
	return out
}

// maintainabilityMetrics folds average complexity and coupling into a single
// 0-100 score, floored at zero.
func maintainabilityMetrics(in Input) map[string]float64 {
	complexity := complexityMetrics(in)
	coupling := couplingMetrics(in)

	avgComplexity := complexity["cyclomatic_complexity_avg"]
	avgCoupling := coupling["afferent_coupling_avg"] + coupling["efferent_coupling_avg"]

	index := 100 - (avgComplexity*2 + avgCoupling*3)
	if index < 0 {
		index = 0
	}
	return map[string]float64{"maintainability_index": index}
}

func avgCount(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	return float64(sum) / float64(len(counts))
}

func maxCount(counts map[string]int) float64 {
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return float64(max)
}
