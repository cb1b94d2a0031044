package boundary

import (
	"sort"
	"strings"

	"github.com/archscope/archscope/internal/model"
)

// DetectLayers assigns every element to one of the four architectural layers
// and reports, per layer, which other layers it depends on. All four layers
// appear in the output even when empty, ordered by level.
func (d *Detector) DetectLayers(elements []model.CodeElement, rels []model.Relationship) []model.ArchitectureLayer {
	groups := map[string][]string{
		model.LayerInfrastructure: {},
		model.LayerDomain:         {},
		model.LayerApplication:    {},
		model.LayerPresentation:   {},
	}
	layerOf := make(map[string]string, len(elements))
	languages := make(map[string]map[string]bool)

	for _, el := range elements {
		layer := d.layerFor(el)
		groups[layer] = append(groups[layer], el.ID)
		layerOf[el.ID] = layer
		if languages[layer] == nil {
			languages[layer] = make(map[string]bool)
		}
		languages[layer][string(el.Language)] = true
	}

	deps := make(map[string]map[string]bool)
	for _, rel := range rels {
		src, ok := layerOf[rel.SourceID]
		if !ok {
			continue
		}
		dst, ok := layerOf[rel.TargetID]
		if !ok || dst == src {
			continue
		}
		if deps[src] == nil {
			deps[src] = make(map[string]bool)
		}
		deps[src][dst] = true
	}

	names := []string{
		model.LayerInfrastructure,
		model.LayerDomain,
		model.LayerApplication,
		model.LayerPresentation,
	}
	layers := make([]model.ArchitectureLayer, 0, len(names))
	for _, name := range names {
		ids := groups[name]
		sort.Strings(ids)
		layers = append(layers, model.ArchitectureLayer{
			ID:           "layer:" + name,
			Name:         name,
			Level:        model.LayerLevels[name],
			Elements:     ids,
			Dependencies: sortedKeys(deps[name]),
			Metadata: map[string]any{
				"element_count": len(ids),
				"languages":     sortedKeys(languages[name]),
			},
		})
	}
	return layers
}

// layerFor matches element name and type against the layer patterns, falling
// back to the application layer.
func (d *Detector) layerFor(el model.CodeElement) string {
	name := strings.ToLower(el.Name)
	typ := strings.ToLower(string(el.Type))

	// Fixed probe order keeps classification independent of map iteration.
	for _, layer := range []string{
		model.LayerPresentation,
		model.LayerApplication,
		model.LayerDomain,
		model.LayerInfrastructure,
	} {
		for _, re := range d.layerPatterns[layer] {
			if re.MatchString(name) || re.MatchString(typ) {
				return layer
			}
		}
	}
	return model.LayerApplication
}
