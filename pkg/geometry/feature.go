// Package geometry is the per-layer geometry store: flat render buffers,
// the partition of vertices into components, and groupings of those
// vertices by geometry level, computed on first use.
package geometry

// Feature is one component of a layer as delivered by the loader.
type Feature struct {
	Geometry     FeatureGeometry `json:"geometry"`
	Highlight    bool            `json:"highlight,omitempty"`
	HighlightIDs []int           `json:"highlightIds,omitempty"`
}

// FeatureGeometry holds the raw buffers of a feature. Coordinates are x,y,z
// triples; Indices and IDs are local to the feature.
type FeatureGeometry struct {
	Coordinates []float64   `json:"coordinates"`
	Normals     []float64   `json:"normals,omitempty"`
	Function    [][]float64 `json:"function,omitempty"` // [timestep][vertex]
	Indices     []int       `json:"indices,omitempty"`  // triangles
	IDs         []int       `json:"ids,omitempty"`      // cell id per triangle

	Heights          []float64   `json:"heights,omitempty"`
	MinHeights       []float64   `json:"minHeights,omitempty"`
	OrientedEnvelope [][]float64 `json:"orientedEnvelope,omitempty"`
	SectionFootprint [][]float64 `json:"sectionFootprint,omitempty"` // x,y outline per section
	UV               []float64   `json:"uv,omitempty"`
	Width            []float64   `json:"width,omitempty"`
	PointsPerSection []int       `json:"pointsPerSection,omitempty"`

	DiscardFuncInterval []float64 `json:"discardFuncInterval,omitempty"`
	VaryOpByFunc        *float64  `json:"varyOpByFunc,omitempty"`
}

// VertexCount returns the number of complete x,y,z triples.
func (g FeatureGeometry) VertexCount() int {
	return len(g.Coordinates) / 3
}
