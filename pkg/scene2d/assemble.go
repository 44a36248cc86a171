package scene2d

import (
	"fmt"
	"math"

	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/scene"
	"github.com/sajal1123/curio/pkg/spec"
)

// Assemble2D projects an assembled scene onto the ground plane. Knot values
// are taken from each knot's per-object matrix at timestep; knots with
// fewer timesteps are left out of the feature values.
func Assemble2D(reg *layer.Registry, sc *scene.Scene, timestep int) (*Scene2D, error) {
	if timestep < 0 {
		return nil, fmt.Errorf("timestep %d is negative", timestep)
	}

	out := &Scene2D{
		Metadata: Metadata{
			SceneID:     sc.ID,
			Timestep:    timestep,
			Bounds:      planBounds(sc.Metadata.Bounds),
			GeneratedAt: sc.Metadata.GeneratedAt,
		},
		Layers: make([]Layer2D, 0, len(sc.Layers)),
	}

	for _, sl := range sc.Layers {
		l, err := reg.Find("scene2d.Assemble2D", sl.ID)
		if err != nil {
			return nil, err
		}
		l2, err := assembleLayer(l, sl, sc, timestep)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", sl.ID, err)
		}
		out.Layers = append(out.Layers, l2)
	}
	return out, nil
}

func planBounds(b scene.BoundingBox) [4]float64 {
	return [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
}

func assembleLayer(l layer.Layer, sl scene.Layer, sc *scene.Scene, timestep int) (Layer2D, error) {
	groups, err := l.CoordsByLevel(spec.LevelObjects)
	if err != nil {
		return Layer2D{}, err
	}
	footprints := l.Mesh().Footprints()

	knots := sc.Groups.Layers[sl.ID]
	l2 := Layer2D{
		ID:       sl.ID,
		Type:     string(sl.Type),
		ZOrder:   sl.ZOrder,
		Knots:    knots,
		Features: make([]Feature2D, len(groups)),
	}

	for i, verts := range groups {
		f := Feature2D{Index: i}
		switch {
		case i < len(footprints) && hasOutline(footprints[i]):
			outlineFeature(&f, footprints[i])
		case l.Type() == layer.TypePoints:
			f.Center = mean(verts)
		default:
			rectFeature(&f, verts)
		}

		if i < len(sl.Highlighted) {
			f.Highlighted = sl.Highlighted[i]
		}
		if i < len(sl.Filtered) {
			f.Filtered = sl.Filtered[i]
		}
		l2.Features[i] = f
	}

	for _, id := range knots {
		k := sc.KnotByID(id)
		if k == nil || timestep >= len(k.ObjectValues) {
			continue
		}
		row := k.ObjectValues[timestep]
		for i := range l2.Features {
			if i >= len(row) || math.IsNaN(row[i]) {
				continue
			}
			if l2.Features[i].Values == nil {
				l2.Features[i].Values = make(map[string]float64, len(knots))
			}
			l2.Features[i].Values[id] = row[i]
		}
	}
	return l2, nil
}

func hasOutline(sections []geo.Polygon) bool {
	for _, p := range sections {
		if !p.IsEmpty() {
			return true
		}
	}
	return false
}

// outlineFeature uses the largest footprint section as the boundary and
// sums every section's area.
func outlineFeature(f *Feature2D, sections []geo.Polygon) {
	var largest geo.Polygon
	for _, p := range sections {
		if p.IsEmpty() {
			continue
		}
		a := p.Area()
		f.AreaM2 += a
		if a >= largest.Area() {
			largest = p
		}
	}
	c := largest.Centroid()
	f.Center = [2]float64{c.X, c.Y}
	f.Boundary = make([][2]float64, largest.Len())
	for i, v := range largest.Vertices {
		f.Boundary[i] = [2]float64{v.X, v.Y}
	}
}

func rectFeature(f *Feature2D, verts []geo.Vec3) {
	if len(verts) == 0 {
		return
	}
	pts := make([]geo.Point2D, len(verts))
	for i, v := range verts {
		pts[i] = v.XY()
	}
	lo, hi := geo.NewPolygon(pts...).BoundingBox()
	rect := geo.NewPolygon(lo, geo.Pt(hi.X, lo.Y), hi, geo.Pt(lo.X, hi.Y))

	f.Center = mean(verts)
	f.AreaM2 = rect.Area()
	f.Boundary = [][2]float64{{lo.X, lo.Y}, {hi.X, lo.Y}, {hi.X, hi.Y}, {lo.X, hi.Y}}
}

func mean(verts []geo.Vec3) [2]float64 {
	if len(verts) == 0 {
		return [2]float64{}
	}
	var sx, sy float64
	for _, v := range verts {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(verts))
	return [2]float64{sx / n, sy / n}
}
