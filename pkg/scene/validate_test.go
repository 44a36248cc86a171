package scene

import (
	"math"
	"testing"

	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/validation"
)

func smallScene() *Scene {
	s := NewScene("test")
	s.Metadata.Bounds = BoundingBox{Max: geo.Vec3{X: 10, Y: 10, Z: 10}}
	addLayer(s, Layer{
		ID:         "blocks",
		Type:       layer.TypeBuildings,
		Components: 1,
		Vertices:   3,
		Bounds:     BoundingBox{Max: geo.Vec3{X: 1, Y: 1, Z: 5}},
	})
	addKnot(s, Knot{
		ID:        "heat",
		Layer:     "blocks",
		Timesteps: 1,
		Values:    aggregate.Matrix{{1, 2, 3}},
	})
	return s
}

func hasError(r *validation.Report, path string) bool {
	for _, e := range r.Errors {
		if e.Path == path {
			return true
		}
	}
	return false
}

func TestValidateSceneDowntown(t *testing.T) {
	s := downtownScene(t, Options{})
	r := ValidateScene(s)
	if !r.Valid {
		t.Errorf("expected valid scene, got %d errors: %v", len(r.Errors), r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", r.Warnings)
	}
}

func TestValidateSceneNil(t *testing.T) {
	r := ValidateScene(nil)
	if r.Valid {
		t.Error("a nil scene is invalid")
	}
}

func TestValidateSceneSmall(t *testing.T) {
	r := ValidateScene(smallScene())
	if !r.Valid {
		t.Errorf("expected valid scene, got %v", r.Errors)
	}
}

func TestValidateSceneDuplicateIDs(t *testing.T) {
	s := smallScene()
	s.Layers = append(s.Layers, s.Layers[0])
	s.Knots = append(s.Knots, s.Knots[0])

	r := ValidateScene(s)
	if !hasError(r, "layers[1].id") {
		t.Errorf("expected duplicate layer error, got %v", r.Errors)
	}
	if !hasError(r, "knots[1].id") {
		t.Errorf("expected duplicate knot error, got %v", r.Errors)
	}
}

func TestValidateSceneEmptyLayerID(t *testing.T) {
	s := smallScene()
	s.Layers[0].ID = ""
	r := ValidateScene(s)
	if !hasError(r, "layers[0].id") {
		t.Errorf("expected empty id error, got %v", r.Errors)
	}
}

func TestValidateSceneUnknownLayer(t *testing.T) {
	s := smallScene()
	s.Knots[0].Layer = "harbour"
	r := ValidateScene(s)
	if !hasError(r, "knots[0].layer") {
		t.Errorf("expected unknown layer error, got %v", r.Errors)
	}
	if !r.HasKind("not_found") {
		t.Error("expected a not_found error")
	}
}

func TestValidateSceneShape(t *testing.T) {
	s := smallScene()
	s.Knots[0].Values = aggregate.Matrix{{1, 2}}
	r := ValidateScene(s)
	if !hasError(r, "knots[0].values[0]") {
		t.Errorf("expected a row width error, got %v", r.Errors)
	}

	s = smallScene()
	s.Knots[0].Timesteps = 3
	r = ValidateScene(s)
	if !hasError(r, "knots[0].timesteps") {
		t.Errorf("expected a timesteps error, got %v", r.Errors)
	}
}

func TestValidateSceneNonFinite(t *testing.T) {
	s := smallScene()
	s.Knots[0].Values = aggregate.Matrix{{1, math.NaN(), math.Inf(-1)}}
	r := ValidateScene(s)
	if !r.Valid {
		t.Errorf("non-finite values only warn, got %v", r.Errors)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", r.Warnings)
	}
}

func TestValidateSceneGroups(t *testing.T) {
	s := smallScene()
	s.Groups.KnotGroups["noise"] = []string{"heat", "ghost"}
	s.Groups.Types[layer.TypePoints] = []string{"sensors"}
	s.Groups.Layers["parks"] = []string{}

	r := ValidateScene(s)
	if !hasError(r, "groups.knot_groups.noise") {
		t.Errorf("expected knot group error, got %v", r.Errors)
	}
	if !hasError(r, "groups.types.POINTS_LAYER") {
		t.Errorf("expected types group error, got %v", r.Errors)
	}
	if !hasError(r, "groups.layers") {
		t.Errorf("expected layers group error, got %v", r.Errors)
	}
}

func TestValidateSceneBounds(t *testing.T) {
	s := smallScene()
	s.Layers[0].Bounds.Max.Z = 50
	r := ValidateScene(s)
	if !r.Valid {
		t.Errorf("bounds overflow only warns, got %v", r.Errors)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Path != "layers[0].bounds" {
		t.Errorf("expected a bounds warning, got %v", r.Warnings)
	}
}
