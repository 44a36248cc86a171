package scene2d

// Scene2D is a top-down plan of an assembled scene for an SVG renderer.
// Components are reduced to a 2D outline and their per-object knot values
// at one timestep.
type Scene2D struct {
	Metadata Metadata  `json:"metadata"`
	Layers   []Layer2D `json:"layers"`
}

// Metadata holds plan-level summary data.
type Metadata struct {
	SceneID     string     `json:"scene_id"`
	Timestep    int        `json:"timestep"`
	Bounds      [4]float64 `json:"bounds"` // minx, miny, maxx, maxy
	GeneratedAt string     `json:"generated_at"`
}

// Layer2D is one layer of the plan, drawn in z-order.
type Layer2D struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	ZOrder   int         `json:"z_order"`
	Knots    []string    `json:"knots"`
	Features []Feature2D `json:"features"`
}

// Feature2D is one component. Boundary is the footprint outline for
// buildings, the planar bounding rectangle for meshes and lines, and empty
// for points.
type Feature2D struct {
	Index       int                `json:"index"`
	Center      [2]float64         `json:"center"`
	Boundary    [][2]float64       `json:"boundary,omitempty"`
	AreaM2      float64            `json:"area_m2"`
	Highlighted bool               `json:"highlighted,omitempty"`
	Filtered    bool               `json:"filtered,omitempty"`
	Values      map[string]float64 `json:"values,omitempty"` // knot id -> object value
}
