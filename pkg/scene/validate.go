package scene

import (
	"fmt"
	"math"

	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/validation"
)

// ValidateScene performs structural validation on an assembled scene.
// It checks id integrity, knot shapes, group index consistency, and bounds
// enclosure.
func ValidateScene(s *Scene) *validation.Report {
	r := validation.NewReport()

	if s == nil {
		r.AddError(validation.Result{
			Level:   validation.LevelScene,
			Message: "scene is nil",
		})
		return r
	}

	validateLayerIDs(s, r)
	validateKnots(s, r)
	validateGroupIndices(s, r)
	validateBoundsEnclosure(s, r)

	return r
}

func validateLayerIDs(s *Scene, r *validation.Report) {
	seen := make(map[string]int, len(s.Layers))

	for i, l := range s.Layers {
		if l.ID == "" {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("layer at index %d has empty ID", i),
				Path:        fmt.Sprintf("layers[%d].id", i),
				ActualValue: "",
				Expected:    "non-empty string",
			})
			continue
		}
		if prev, exists := seen[l.ID]; exists {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("duplicate layer ID %q at indices %d and %d", l.ID, prev, i),
				Path:        fmt.Sprintf("layers[%d].id", i),
				ActualValue: l.ID,
			})
		}
		seen[l.ID] = i
	}
}

func validateKnots(s *Scene, r *validation.Report) {
	seen := make(map[string]int, len(s.Knots))

	for i, k := range s.Knots {
		path := fmt.Sprintf("knots[%d]", i)
		if k.ID == "" {
			r.AddError(validation.Result{
				Level:    validation.LevelScene,
				Message:  fmt.Sprintf("knot at index %d has empty ID", i),
				Path:     path + ".id",
				Expected: "non-empty string",
			})
		} else if prev, exists := seen[k.ID]; exists {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("duplicate knot ID %q at indices %d and %d", k.ID, prev, i),
				Path:        path + ".id",
				ActualValue: k.ID,
			})
		} else {
			seen[k.ID] = i
		}

		l := s.LayerByID(k.Layer)
		if l == nil {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Kind:        linkerr.KindNotFound,
				Message:     fmt.Sprintf("knot %q renders on unknown layer %q", k.ID, k.Layer),
				Path:        path + ".layer",
				ActualValue: k.Layer,
				Expected:    "existing layer ID",
			})
			continue
		}
		validateKnotValues(path, k, l, r)
	}
}

func validateKnotValues(path string, k Knot, l *Layer, r *validation.Report) {
	if k.Timesteps != len(k.Values) {
		r.AddError(validation.Result{
			Level:       validation.LevelScene,
			Kind:        linkerr.KindShape,
			Message:     fmt.Sprintf("knot %q declares %d timesteps but carries %d", k.ID, k.Timesteps, len(k.Values)),
			Path:        path + ".timesteps",
			ActualValue: k.Timesteps,
			Expected:    fmt.Sprint(len(k.Values)),
		})
	}

	nonFinite := 0
	for t, row := range k.Values {
		if len(row) != l.Vertices {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Kind:        linkerr.KindShape,
				Message:     fmt.Sprintf("knot %q timestep %d has %d values for %d vertices of %q", k.ID, t, len(row), l.Vertices, l.ID),
				Path:        fmt.Sprintf("%s.values[%d]", path, t),
				ActualValue: len(row),
				Expected:    fmt.Sprint(l.Vertices),
			})
			return
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				nonFinite++
			}
		}
	}

	if nonFinite > 0 {
		r.AddWarning(validation.Result{
			Level:       validation.LevelScene,
			Message:     fmt.Sprintf("knot %q carries %d non-finite values", k.ID, nonFinite),
			Path:        path + ".values",
			ActualValue: nonFinite,
		})
	}
}

func validateGroupIndices(s *Scene, r *validation.Report) {
	layerIDs := make(map[string]bool, len(s.Layers))
	for _, l := range s.Layers {
		layerIDs[l.ID] = true
	}
	knotIDs := make(map[string]bool, len(s.Knots))
	for _, k := range s.Knots {
		knotIDs[k.ID] = true
	}

	check := func(groupType, groupName string, ids []string, known map[string]bool) {
		for _, id := range ids {
			if !known[id] {
				r.AddError(validation.Result{
					Level:       validation.LevelScene,
					Message:     fmt.Sprintf("group %s.%s references non-existent id %q", groupType, groupName, id),
					Path:        fmt.Sprintf("groups.%s.%s", groupType, groupName),
					ActualValue: id,
				})
			}
		}
	}

	for name, ids := range s.Groups.Layers {
		if !layerIDs[name] {
			r.AddError(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("group layers.%s names a non-existent layer", name),
				Path:        "groups.layers",
				ActualValue: name,
			})
		}
		check("layers", name, ids, knotIDs)
	}
	for name, ids := range s.Groups.KnotGroups {
		check("knot_groups", name, ids, knotIDs)
	}
	for t, ids := range s.Groups.Types {
		check("types", string(t), ids, layerIDs)
	}
}

func validateBoundsEnclosure(s *Scene, r *validation.Report) {
	bounds := s.Metadata.Bounds
	tolerance := 1e-6

	for i, l := range s.Layers {
		if l.Vertices == 0 {
			continue
		}
		b := l.Bounds
		if b.Min.X < bounds.Min.X-tolerance || b.Min.Y < bounds.Min.Y-tolerance || b.Min.Z < bounds.Min.Z-tolerance ||
			b.Max.X > bounds.Max.X+tolerance || b.Max.Y > bounds.Max.Y+tolerance || b.Max.Z > bounds.Max.Z+tolerance {
			r.AddWarning(validation.Result{
				Level:   validation.LevelScene,
				Message: fmt.Sprintf("layer %q extends outside the scene bounds", l.ID),
				Path:    fmt.Sprintf("layers[%d].bounds", i),
			})
		}
	}
}
