// Package scene assembles resolved knots into the payload handed to the
// renderer: one entry per layer, one per knot, and group indices for fast
// filtering.
package scene

import (
	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/spec"
)

// BoundingBox defines an axis-aligned bounding box.
type BoundingBox struct {
	Min geo.Vec3 `json:"min"`
	Max geo.Vec3 `json:"max"`
}

func boxOf(b geo.Bounds) BoundingBox {
	if b.Empty() {
		return BoundingBox{}
	}
	return BoundingBox{Min: b.Min, Max: b.Max}
}

// Layer describes one registered layer.
type Layer struct {
	ID           string      `json:"id"`
	Type         layer.Type  `json:"type"`
	ZOrder       int         `json:"z_order"`
	Dimensions   int         `json:"dimensions"`
	StyleKey     string      `json:"style_key"`
	RenderStyles []string    `json:"render_styles,omitempty"`
	Components   int         `json:"components"`
	Vertices     int         `json:"vertices"`
	Bounds       BoundingBox `json:"bounds"`
	Highlighted  []bool      `json:"highlighted,omitempty"` // per component
	Filtered     []bool      `json:"filtered,omitempty"`    // per component
}

// Knot carries the render-ready values of one resolved knot.
type Knot struct {
	ID       string          `json:"id"`
	Layer    string          `json:"layer"`
	Level    spec.Level      `json:"level,omitempty"`
	External bool            `json:"external,omitempty"`
	ColorMap string          `json:"color_map,omitempty"`
	Range    []float64       `json:"range,omitempty"`
	Domain   []float64       `json:"domain,omitempty"`
	Scale    string          `json:"scale,omitempty"`
	Group    *spec.KnotGroup `json:"group,omitempty"`

	Timesteps int     `json:"timesteps"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`

	// Values is the function buffer, [timestep][vertex].
	Values aggregate.Matrix `json:"values"`
	// ObjectValues is the per-component mean, [timestep][component].
	ObjectValues aggregate.Matrix `json:"object_values,omitempty"`
}

// Scene is the complete render hand-off.
type Scene struct {
	ID       string   `json:"id"`
	Metadata Metadata `json:"metadata"`
	Layers   []Layer  `json:"layers"`
	Knots    []Knot   `json:"knots"`
	Groups   Groups   `json:"groups"`
}

// Metadata holds scene-level information.
type Metadata struct {
	GeneratedAt string      `json:"generated_at"`
	Bounds      BoundingBox `json:"bounds"`
	Filter      *geo.BBox2D `json:"filter,omitempty"`
}

// Groups organizes knot and layer ids for fast filtering.
type Groups struct {
	// Layers maps a layer id to the knots rendered on it.
	Layers map[string][]string `json:"layers"`
	// KnotGroups maps a group name to its knots, ordered by position.
	KnotGroups map[string][]string `json:"knot_groups"`
	// Types maps a layer type to its layers.
	Types map[layer.Type][]string `json:"types"`
}

// NewScene creates an empty scene.
func NewScene(id string) *Scene {
	return &Scene{
		ID:     id,
		Layers: []Layer{},
		Knots:  []Knot{},
		Groups: Groups{
			Layers:     make(map[string][]string),
			KnotGroups: make(map[string][]string),
			Types:      make(map[layer.Type][]string),
		},
	}
}

// LayerByID returns the layer entry with id, or nil.
func (s *Scene) LayerByID(id string) *Layer {
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			return &s.Layers[i]
		}
	}
	return nil
}

// KnotByID returns the knot entry with id, or nil.
func (s *Scene) KnotByID(id string) *Knot {
	for i := range s.Knots {
		if s.Knots[i].ID == id {
			return &s.Knots[i]
		}
	}
	return nil
}
