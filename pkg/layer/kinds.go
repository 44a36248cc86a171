package layer

import (
	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/geometry"
	"github.com/sajal1123/curio/pkg/linkerr"
)

// Triangles is a plain triangulated surface (parks, water, zoning).
// COORDINATES and COORDINATES3D both address its render vertices.
type Triangles struct {
	base
}

// Lines is a polyline layer (roads, transit routes).
type Lines struct {
	base
}

// Points is a point cloud; each feature is one component.
type Points struct {
	base
}

// Heatmap is a 2D grid surface coloured by its function values.
type Heatmap struct {
	base
}

// Buildings is an extruded building layer. Its COORDINATES level is the
// footprint outline of each building section, which carries no function
// values; values live on the render vertices or on whole buildings.
type Buildings struct {
	base
}

func newLayer(d Descriptor, zOrder int, features []geometry.Feature) (Layer, error) {
	switch d.Type {
	case TypeTriangles2D:
		return &Triangles{newBase(d, 2, zOrder, features)}, nil
	case TypeTriangles3D:
		return &Triangles{newBase(d, 3, zOrder, features)}, nil
	case TypeLines2D:
		return &Lines{newBase(d, 2, zOrder, features)}, nil
	case TypeLines3D:
		return &Lines{newBase(d, 3, zOrder, features)}, nil
	case TypePoints:
		return &Points{newBase(d, 3, zOrder, features)}, nil
	case TypeHeatmap:
		return &Heatmap{newBase(d, 2, zOrder, features)}, nil
	case TypeBuildings:
		b := &Buildings{newBase(d, 3, zOrder, features)}
		b.footprintCoords = true
		return b, nil
	}
	return nil, linkerr.New("layer.Create", linkerr.ErrUnknownLayerType, d.ID, string(d.Type))
}

// DistributeFunctionValues smooths per-vertex values over the building
// surface cells: each triangle takes the mean of its vertices, each cell
// the mean of its triangles, and every vertex of a cell ends up with the
// cell value. Meshes without cell ids are passed through.
func (b *Buildings) DistributeFunctionValues(m aggregate.Matrix) (aggregate.Matrix, error) {
	const op = "layer.DistributeFunctionValues"
	if err := b.checkWidth(op, m); err != nil {
		return nil, err
	}

	mesh := b.mesh
	if len(mesh.CellIDs()) == 0 || len(mesh.CellIDs()) != mesh.NumTriangles() {
		return copyMatrix(m), nil
	}

	out, err := aggregate.SmoothByCell(m, mesh.Indices(), mesh.CellIDs(), mesh.NumVertices())
	if err != nil {
		return nil, linkerr.WithStep(err, op, -1, b.id)
	}
	return out, nil
}
