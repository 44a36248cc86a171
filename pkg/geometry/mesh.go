package geometry

import (
	"sort"
	"sync"

	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/spec"
)

// Mesh holds the concatenated buffers of every feature of a layer.
//
// Buffers are immutable between calls to Replace. Groupings by level are
// built on first access and dropped by Replace.
type Mesh struct {
	coords        []float64
	coordsPerComp []int
	offsets       []int // offsets[i] is the first vertex of component i; len = comps+1
	indices       []int
	cellIDs       []int
	footprints    [][]geo.Polygon
	functions     [][]float64
	highlights    []bool

	mu       sync.Mutex
	groups   map[spec.Level][][]geo.Vec3
	bounds   *geo.Bounds
	filtered []bool
}

// NewMesh builds a mesh from features.
func NewMesh(features []Feature) *Mesh {
	m := &Mesh{}
	m.Replace(features)
	return m
}

// Replace swaps the mesh geometry for features and clears every cache.
// Triangle indices are rebased onto the concatenated vertex buffer and cell
// ids are rebased so that cells of different components never collide.
func (m *Mesh) Replace(features []Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	timesteps := 0
	for _, f := range features {
		total += f.Geometry.VertexCount()
		if len(f.Geometry.Function) > timesteps {
			timesteps = len(f.Geometry.Function)
		}
	}

	m.coords = make([]float64, 0, total*3)
	m.coordsPerComp = make([]int, 0, len(features))
	m.offsets = make([]int, 0, len(features)+1)
	m.indices = nil
	m.cellIDs = nil
	m.footprints = make([][]geo.Polygon, 0, len(features))
	m.highlights = make([]bool, total)
	m.functions = nil
	if timesteps > 0 {
		m.functions = make([][]float64, timesteps)
		for k := range m.functions {
			m.functions[k] = make([]float64, total)
		}
	}

	vertexBase, cellBase := 0, 0
	for _, f := range features {
		g := f.Geometry
		n := g.VertexCount()

		m.offsets = append(m.offsets, vertexBase)
		m.coordsPerComp = append(m.coordsPerComp, n)
		m.coords = append(m.coords, g.Coordinates[:n*3]...)

		for _, idx := range g.Indices {
			m.indices = append(m.indices, idx+vertexBase)
		}

		maxID := -1
		for _, id := range g.IDs {
			m.cellIDs = append(m.cellIDs, id+cellBase)
			if id > maxID {
				maxID = id
			}
		}
		cellBase += maxID + 1

		sections := make([]geo.Polygon, 0, len(g.SectionFootprint))
		for _, outline := range g.SectionFootprint {
			sections = append(sections, geo.PolygonFromFlat(outline))
		}
		m.footprints = append(m.footprints, sections)

		for k, values := range g.Function {
			copy(m.functions[k][vertexBase:vertexBase+n], values)
		}

		if f.Highlight {
			if len(f.HighlightIDs) == 0 {
				for i := 0; i < n; i++ {
					m.highlights[vertexBase+i] = true
				}
			}
			for _, id := range f.HighlightIDs {
				if id >= 0 && id < n {
					m.highlights[vertexBase+id] = true
				}
			}
		}

		vertexBase += n
	}
	m.offsets = append(m.offsets, vertexBase)

	m.groups = nil
	m.bounds = nil
	m.filtered = nil
}

// NumVertices returns the number of render (3D) vertices.
func (m *Mesh) NumVertices() int {
	return len(m.coords) / 3
}

// NumComponents returns the number of components (features).
func (m *Mesh) NumComponents() int {
	return len(m.coordsPerComp)
}

// NumTriangles returns the number of indexed triangles.
func (m *Mesh) NumTriangles() int {
	return len(m.indices) / 3
}

// CoordsPerComp returns the vertex count of each component, in order.
func (m *Mesh) CoordsPerComp() []int {
	return m.coordsPerComp
}

// ComponentOffset returns the index of the first vertex of component i.
func (m *Mesh) ComponentOffset(i int) int {
	return m.offsets[i]
}

// ComponentOf returns the component owning vertex v, or -1 when v is out of range.
func (m *Mesh) ComponentOf(v int) int {
	if v < 0 || v >= m.NumVertices() {
		return -1
	}
	// offsets is sorted; find the last offset <= v.
	i := sort.Search(len(m.coordsPerComp), func(i int) bool { return m.offsets[i+1] > v })
	return i
}

// Coordinates returns the flat x,y,z buffer.
func (m *Mesh) Coordinates() []float64 {
	return m.coords
}

// Indices returns triangle vertex indices into the concatenated buffer.
func (m *Mesh) Indices() []int {
	return m.indices
}

// CellIDs returns one cell id per triangle.
func (m *Mesh) CellIDs() []int {
	return m.cellIDs
}

// Footprints returns the section outlines of each component.
func (m *Mesh) Footprints() [][]geo.Polygon {
	return m.footprints
}

// FootprintVertexCount returns the number of footprint outline vertices
// across all components and sections.
func (m *Mesh) FootprintVertexCount() int {
	n := 0
	for _, sections := range m.footprints {
		for _, p := range sections {
			n += p.Len()
		}
	}
	return n
}

// HasFootprints reports whether any component carries a section outline.
func (m *Mesh) HasFootprints() bool {
	return m.FootprintVertexCount() > 0
}

// Functions returns the per-vertex function values shipped with the
// geometry, indexed [timestep][vertex]. Nil when none were provided.
func (m *Mesh) Functions() [][]float64 {
	return m.functions
}

// Highlights returns one highlight flag per vertex.
func (m *Mesh) Highlights() []bool {
	return m.highlights
}

// Grouping returns the vertices grouped by level: one single-vertex group
// per element for COORDINATES and COORDINATES3D, one group per component
// for OBJECTS. COORDINATES uses the footprint outlines when the mesh has
// them (z = 0) and the render vertices otherwise.
func (m *Mesh) Grouping(level spec.Level) [][]geo.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.groups[level]; ok {
		return g
	}

	var out [][]geo.Vec3
	switch level {
	case spec.LevelCoordinates:
		if m.hasFootprintsLocked() {
			for _, sections := range m.footprints {
				for _, p := range sections {
					for _, v := range p.Vertices {
						out = append(out, []geo.Vec3{{X: v.X, Y: v.Y}})
					}
				}
			}
			break
		}
		out = m.vertexGroups()
	case spec.LevelCoordinates3D:
		out = m.vertexGroups()
	case spec.LevelObjects:
		verts := geo.Vec3s(m.coords)
		out = make([][]geo.Vec3, len(m.coordsPerComp))
		for i, n := range m.coordsPerComp {
			out[i] = verts[m.offsets[i] : m.offsets[i]+n]
		}
	default:
		return nil
	}

	if m.groups == nil {
		m.groups = make(map[spec.Level][][]geo.Vec3, len(spec.Levels))
	}
	m.groups[level] = out
	return out
}

func (m *Mesh) hasFootprintsLocked() bool {
	for _, sections := range m.footprints {
		for _, p := range sections {
			if p.Len() > 0 {
				return true
			}
		}
	}
	return false
}

func (m *Mesh) vertexGroups() [][]geo.Vec3 {
	verts := geo.Vec3s(m.coords)
	out := make([][]geo.Vec3, len(verts))
	for i := range verts {
		out[i] = verts[i : i+1]
	}
	return out
}

// Bounds returns the bounding box of all render vertices.
func (m *Mesh) Bounds() geo.Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bounds == nil {
		var b geo.Bounds
		for _, v := range geo.Vec3s(m.coords) {
			b.Extend(v)
		}
		m.bounds = &b
	}
	return *m.bounds
}

// SetFilter marks components with no vertex inside bbox as filtered out.
// A nil bbox clears the filter.
func (m *Mesh) SetFilter(bbox *geo.BBox2D) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bbox == nil {
		m.filtered = nil
		return
	}

	verts := geo.Vec3s(m.coords)
	m.filtered = make([]bool, len(m.coordsPerComp))
	for i, n := range m.coordsPerComp {
		out := true
		for _, v := range verts[m.offsets[i] : m.offsets[i]+n] {
			if bbox.Contains(v.XY()) {
				out = false
				break
			}
		}
		m.filtered[i] = out
	}
}

// Filtered returns one flag per component, true when the component is
// filtered out. Nil when no filter is set.
func (m *Mesh) Filtered() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filtered
}
