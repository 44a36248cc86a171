package scene

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/resolve"
	"github.com/sajal1123/curio/pkg/spec"
)

// Options controls Assemble.
type Options struct {
	// Filter, when set, marks the components of every layer that fall
	// entirely outside the box.
	Filter *geo.BBox2D
	// ObjectOp reduces each knot's function buffer to per-component values.
	// Defaults to AVG.
	ObjectOp spec.Operation
}

// Assemble converts a registry and the resolved knots of g into a scene.
// Knot values go through the layer's DistributeFunctionValues, so building
// values arrive smoothed per surface cell.
func Assemble(reg *layer.Registry, g *spec.Grammar, results []*resolve.Result, opts Options) (*Scene, error) {
	if opts.ObjectOp == "" {
		opts.ObjectOp = spec.OpAvg
	}

	s := NewScene(uuid.NewString())

	var bounds geo.Bounds
	for _, l := range reg.All() {
		mesh := l.Mesh()
		mesh.SetFilter(opts.Filter)
		b := mesh.Bounds()
		bounds.Union(b)

		highlighted, err := l.HighlightsByLevel(spec.LevelObjects)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.ID(), err)
		}
		if !anyTrue(highlighted) {
			highlighted = nil
		}

		addLayer(s, Layer{
			ID:           l.ID(),
			Type:         l.Type(),
			ZOrder:       l.ZOrder(),
			Dimensions:   l.Dimensions(),
			StyleKey:     l.StyleKey(),
			RenderStyles: l.RenderStyles(),
			Components:   mesh.NumComponents(),
			Vertices:     mesh.NumVertices(),
			Bounds:       boxOf(b),
			Highlighted:  highlighted,
			Filtered:     mesh.Filtered(),
		})
	}

	for _, res := range results {
		k, err := assembleKnot(reg, g, res, opts.ObjectOp)
		if err != nil {
			return nil, err
		}
		addKnot(s, k)
	}
	sortGroups(s)

	s.Metadata = Metadata{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Bounds:      boxOf(bounds),
		Filter:      opts.Filter,
	}
	return s, nil
}

func assembleKnot(reg *layer.Registry, g *spec.Grammar, res *resolve.Result, objectOp spec.Operation) (Knot, error) {
	l, err := reg.Find("scene.Assemble", res.Layer)
	if err != nil {
		return Knot{}, fmt.Errorf("knot %q: %w", res.KnotID, err)
	}

	k := Knot{
		ID:       res.KnotID,
		Layer:    res.Layer,
		Level:    res.Level,
		External: res.External,
	}
	describeKnot(&k, g)

	if len(res.Matrix) == 0 {
		k.Values = aggregate.Matrix{}
		return k, nil
	}

	k.Values, err = l.DistributeFunctionValues(res.Matrix)
	if err != nil {
		return Knot{}, fmt.Errorf("knot %q: %w", res.KnotID, err)
	}
	k.ObjectValues, err = l.ObjectValues(k.Values, objectOp)
	if err != nil {
		return Knot{}, fmt.Errorf("knot %q: %w", res.KnotID, err)
	}
	k.Timesteps = k.Values.Timesteps()
	k.Min, k.Max = extent(k.Values)
	return k, nil
}

// describeKnot copies the rendering attributes declared in the grammar.
func describeKnot(k *Knot, g *spec.Grammar) {
	if g == nil {
		return
	}
	if gk := g.KnotByID(k.ID); gk != nil && !k.External {
		k.ColorMap, k.Range, k.Domain, k.Scale, k.Group = gk.ColorMap, gk.Range, gk.Domain, gk.Scale, gk.Group
		return
	}
	for _, ex := range g.ExKnots {
		if ex.ID == k.ID {
			k.ColorMap, k.Range, k.Domain, k.Scale, k.Group = ex.ColorMap, ex.Range, ex.Domain, ex.Scale, ex.Group
			return
		}
	}
}

// extent returns the finite minimum and maximum of m, or zeros when m
// holds no finite value.
func extent(m aggregate.Matrix) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func addLayer(s *Scene, l Layer) {
	s.Layers = append(s.Layers, l)
	s.Groups.Types[l.Type] = append(s.Groups.Types[l.Type], l.ID)
	if _, ok := s.Groups.Layers[l.ID]; !ok {
		s.Groups.Layers[l.ID] = []string{}
	}
}

func addKnot(s *Scene, k Knot) {
	s.Knots = append(s.Knots, k)
	s.Groups.Layers[k.Layer] = append(s.Groups.Layers[k.Layer], k.ID)
	if k.Group != nil && k.Group.GroupName != "" {
		s.Groups.KnotGroups[k.Group.GroupName] = append(s.Groups.KnotGroups[k.Group.GroupName], k.ID)
	}
}

// sortGroups orders each knot group by declared position.
func sortGroups(s *Scene) {
	for _, ids := range s.Groups.KnotGroups {
		sort.SliceStable(ids, func(i, j int) bool {
			return position(s, ids[i]) < position(s, ids[j])
		})
	}
}

func position(s *Scene, id string) int {
	if k := s.KnotByID(id); k != nil && k.Group != nil {
		return k.Group.Position
	}
	return 0
}
