// Package layer holds the loaded layers and the level contract each layer
// kind implements: how many elements a geometry level has, where an
// element's value sits in the per-vertex function buffer, and which level
// conversions are legal.
package layer

import (
	"fmt"

	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/geometry"
	"github.com/sajal1123/curio/pkg/join"
	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
)

// Layer is implemented by every layer kind.
//
// Function values always travel as a per-vertex buffer: one entry per
// render vertex (COORDINATES3D). A value attached at OBJECTS is repeated on
// every vertex of its component.
type Layer interface {
	ID() string
	Type() Type
	ZOrder() int
	Dimensions() int
	StyleKey() string
	RenderStyles() []string
	Mesh() *geometry.Mesh

	// Joins returns the join index, or nil when none was loaded.
	Joins() *join.Index
	SetJoins(ix *join.Index)
	External() *join.External
	SetExternal(ext *join.External)

	// UpdateGeometry replaces the mesh and drops its cached groupings.
	UpdateGeometry(features []geometry.Feature)

	// FunctionWidth is the length of a function buffer row.
	FunctionWidth() int
	// CheckLevel fails when level cannot carry function values.
	CheckLevel(level spec.Level) error
	// ElementCount is the number of elements at level.
	ElementCount(level spec.Level) (int, error)
	// FunctionValueIndex maps an element id at level to its position in
	// the function buffer.
	FunctionValueIndex(id int, level spec.Level) (int, error)
	// Distribute widens one value per element at level into a function buffer.
	Distribute(m aggregate.Matrix, level spec.Level) (aggregate.Matrix, error)
	// Convert aggregates a function buffer from one level to another with
	// op and returns it as a function buffer again.
	Convert(m aggregate.Matrix, from, to spec.Level, op spec.Operation) (aggregate.Matrix, error)
	// ObjectValues reduces a function buffer to one value per component.
	ObjectValues(m aggregate.Matrix, op spec.Operation) (aggregate.Matrix, error)
	// DistributeFunctionValues prepares a function buffer for rendering.
	DistributeFunctionValues(m aggregate.Matrix) (aggregate.Matrix, error)

	CoordsByLevel(level spec.Level) ([][]geo.Vec3, error)
	HighlightsByLevel(level spec.Level) ([]bool, error)
}

// base carries what every layer kind shares. footprintCoords marks kinds
// whose COORDINATES level is the 2D footprint outline rather than the
// render vertices; such kinds cannot carry function values there.
type base struct {
	id           string
	typ          Type
	styleKey     string
	renderStyles []string
	dims         int
	zOrder       int
	mesh         *geometry.Mesh

	joins    *join.Index
	external *join.External

	footprintCoords bool
}

func newBase(d Descriptor, dims, zOrder int, features []geometry.Feature) base {
	return base{
		id:           d.ID,
		typ:          d.Type,
		styleKey:     d.StyleKey,
		renderStyles: d.RenderStyle,
		dims:         dims,
		zOrder:       zOrder,
		mesh:         geometry.NewMesh(features),
	}
}

func (b *base) ID() string                     { return b.id }
func (b *base) Type() Type                     { return b.typ }
func (b *base) ZOrder() int                    { return b.zOrder }
func (b *base) Dimensions() int                { return b.dims }
func (b *base) StyleKey() string               { return b.styleKey }
func (b *base) RenderStyles() []string         { return b.renderStyles }
func (b *base) Mesh() *geometry.Mesh           { return b.mesh }
func (b *base) Joins() *join.Index             { return b.joins }
func (b *base) SetJoins(ix *join.Index)        { b.joins = ix }
func (b *base) External() *join.External       { return b.external }
func (b *base) SetExternal(ext *join.External) { b.external = ext }

func (b *base) UpdateGeometry(features []geometry.Feature) {
	b.mesh.Replace(features)
}

func (b *base) FunctionWidth() int {
	return b.mesh.NumVertices()
}

func (b *base) unsupported(op string, level spec.Level, msg string) error {
	return linkerr.New(op, linkerr.ErrUnsupportedLevelConversion, b.id, fmt.Sprintf("%s: %s", level, msg))
}

// checkValueLevel fails for levels that cannot carry function values.
func (b *base) checkValueLevel(op string, level spec.Level) error {
	if !level.Valid() {
		return b.unsupported(op, level, "unknown geometry level")
	}
	if level == spec.LevelCoordinates && b.footprintCoords {
		return b.unsupported(op, level, fmt.Sprintf("COORDINATES refers to the footprints of the %s and carries no function values", b.typ))
	}
	return nil
}

func (b *base) CheckLevel(level spec.Level) error {
	return b.checkValueLevel("layer.CheckLevel", level)
}

func (b *base) ElementCount(level spec.Level) (int, error) {
	switch level {
	case spec.LevelObjects:
		return b.mesh.NumComponents(), nil
	case spec.LevelCoordinates3D:
		return b.mesh.NumVertices(), nil
	case spec.LevelCoordinates:
		if b.footprintCoords {
			return b.mesh.FootprintVertexCount(), nil
		}
		return b.mesh.NumVertices(), nil
	}
	return 0, b.unsupported("layer.ElementCount", level, "unknown geometry level")
}

func (b *base) FunctionValueIndex(id int, level spec.Level) (int, error) {
	const op = "layer.FunctionValueIndex"
	if err := b.checkValueLevel(op, level); err != nil {
		return 0, err
	}

	n, _ := b.ElementCount(level)
	if id < 0 || id >= n {
		return 0, linkerr.New(op, linkerr.ErrShapeMismatch, b.id, fmt.Sprintf("id %d out of range for %d %s elements", id, n, level))
	}

	if level == spec.LevelObjects {
		if b.mesh.CoordsPerComp()[id] == 0 {
			return 0, linkerr.New(op, linkerr.ErrShapeMismatch, b.id, fmt.Sprintf("object %d has no vertices to carry a value", id))
		}
		// all vertices of an object carry the same value; the first stands for it
		return b.mesh.ComponentOffset(id), nil
	}
	return id, nil
}

func (b *base) Distribute(m aggregate.Matrix, level spec.Level) (aggregate.Matrix, error) {
	const op = "layer.Distribute"
	if err := b.checkValueLevel(op, level); err != nil {
		return nil, err
	}

	if level == spec.LevelObjects {
		out, err := aggregate.DistributeToVertices(m, b.mesh.CoordsPerComp())
		if err != nil {
			return nil, linkerr.WithStep(err, op, -1, b.id)
		}
		return out, nil
	}

	width := b.FunctionWidth()
	out := make(aggregate.Matrix, len(m))
	for k, row := range m {
		if len(row) != width {
			return nil, linkerr.New(op, linkerr.ErrShapeMismatch, b.id,
				fmt.Sprintf("timestep %d has %d values for %d %s elements", k, len(row), width, level))
		}
		out[k] = append([]float64(nil), row...)
	}
	return out, nil
}

func (b *base) checkWidth(op string, m aggregate.Matrix) error {
	width := b.FunctionWidth()
	for k, row := range m {
		if len(row) != width {
			return linkerr.New(op, linkerr.ErrShapeMismatch, b.id,
				fmt.Sprintf("timestep %d has %d values for a function buffer of %d", k, len(row), width))
		}
	}
	return nil
}

func (b *base) Convert(m aggregate.Matrix, from, to spec.Level, op spec.Operation) (aggregate.Matrix, error) {
	const fn = "layer.Convert"
	if err := b.checkValueLevel(fn, from); err != nil {
		return nil, err
	}
	if err := b.checkValueLevel(fn, to); err != nil {
		return nil, err
	}
	if err := b.checkWidth(fn, m); err != nil {
		return nil, err
	}

	switch {
	case from == to, from.PerVertex() && to.PerVertex():
		return copyMatrix(m), nil
	case from == spec.LevelObjects:
		if b.footprintCoords {
			return nil, b.unsupported(fn, to, fmt.Sprintf("only conversions ending at OBJECTS are supported for the %s", b.typ))
		}
		// values are constant per component; any vertex stands for it
		op = spec.OpDiscard
	}

	objects, err := aggregate.AggregateToObjects(m, b.mesh.CoordsPerComp(), op)
	if err != nil {
		return nil, linkerr.WithStep(err, fn, -1, b.id)
	}
	return aggregate.DistributeToVertices(objects, b.mesh.CoordsPerComp())
}

func (b *base) ObjectValues(m aggregate.Matrix, op spec.Operation) (aggregate.Matrix, error) {
	const fn = "layer.ObjectValues"
	if err := b.checkWidth(fn, m); err != nil {
		return nil, err
	}
	out, err := aggregate.AggregateToObjects(m, b.mesh.CoordsPerComp(), op)
	if err != nil {
		return nil, linkerr.WithStep(err, fn, -1, b.id)
	}
	return out, nil
}

func (b *base) DistributeFunctionValues(m aggregate.Matrix) (aggregate.Matrix, error) {
	if err := b.checkWidth("layer.DistributeFunctionValues", m); err != nil {
		return nil, err
	}
	return copyMatrix(m), nil
}

func copyMatrix(m aggregate.Matrix) aggregate.Matrix {
	out := make(aggregate.Matrix, len(m))
	for k, row := range m {
		out[k] = append([]float64(nil), row...)
	}
	return out
}

func (b *base) CoordsByLevel(level spec.Level) ([][]geo.Vec3, error) {
	if !level.Valid() {
		return nil, b.unsupported("layer.CoordsByLevel", level, "unknown geometry level")
	}
	return b.mesh.Grouping(level), nil
}

// HighlightsByLevel collapses per-vertex highlight flags to one flag per
// element. An element counts as highlighted only when all of its vertices are.
func (b *base) HighlightsByLevel(level spec.Level) ([]bool, error) {
	if err := b.checkValueLevel("layer.HighlightsByLevel", level); err != nil {
		return nil, err
	}

	flags := b.mesh.Highlights()
	if level.PerVertex() {
		return append([]bool(nil), flags...), nil
	}

	out := make([]bool, b.mesh.NumComponents())
	for i, n := range b.mesh.CoordsPerComp() {
		start := b.mesh.ComponentOffset(i)
		all := true
		for _, f := range flags[start : start+n] {
			if !f {
				all = false
				break
			}
		}
		out[i] = all
	}
	return out, nil
}
