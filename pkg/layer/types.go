package layer

import (
	"strings"

	"github.com/sajal1123/curio/pkg/geometry"
)

// Type is the closed set of layer type tags.
type Type string

const (
	TypeTriangles2D Type = "TRIANGLES_2D_LAYER"
	TypeTriangles3D Type = "TRIANGLES_3D_LAYER"
	TypeLines2D     Type = "LINES_2D_LAYER"
	TypeLines3D     Type = "LINES_3D_LAYER"
	TypeBuildings   Type = "BUILDINGS_LAYER"
	TypeHeatmap     Type = "HEATMAP_LAYER"
	TypePoints      Type = "POINTS_LAYER"
)

// Types lists every supported tag.
var Types = []Type{
	TypeTriangles2D, TypeTriangles3D,
	TypeLines2D, TypeLines3D,
	TypeBuildings, TypeHeatmap, TypePoints,
}

// Valid reports whether t is a supported tag.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

func (t *Type) UnmarshalText(b []byte) error {
	*t = Type(strings.ToUpper(strings.TrimSpace(string(b))))
	return nil
}

// Descriptor is the layer file header plus, optionally, its features.
type Descriptor struct {
	ID          string             `json:"id" yaml:"id"`
	Type        Type               `json:"type" yaml:"type"`
	StyleKey    string             `json:"styleKey" yaml:"styleKey"`
	RenderStyle []string           `json:"renderStyle,omitempty" yaml:"renderStyle,omitempty"`
	Data        []geometry.Feature `json:"data,omitempty" yaml:"-"`
}
