package resolve

import (
	"testing"

	"github.com/sajal1123/curio/pkg/geometry"
	"github.com/sajal1123/curio/pkg/join"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/spec"
)

// benchChain builds an abstract link onto n sensors and a physical link
// from n/4 blocks of 24 vertices, each block covering four sensors, over
// 24 timesteps.
func benchChain(b *testing.B, n int) (*Resolver, []spec.LinkDescription) {
	b.Helper()

	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = 1
	}
	blockSizes := make([]int, n/4)
	for i := range blockSizes {
		blockSizes[i] = 24
	}

	reg := layer.NewRegistry()
	sensors, err := reg.Create(layer.Descriptor{ID: "sensors", Type: layer.TypePoints}, components(sizes...))
	if err != nil {
		b.Fatal(err)
	}
	blocks, err := reg.Create(layer.Descriptor{ID: "blocks", Type: layer.TypeBuildings}, []geometry.Feature{})
	if err != nil {
		b.Fatal(err)
	}
	blocks.UpdateGeometry(components(blockSizes...))

	chain := []spec.LinkDescription{
		abstractLink("sensors", spec.LevelObjects),
		physicalLink("blocks", "sensors", spec.OpAvg),
	}

	values := make(join.Values, n)
	for i := range values {
		s := make(join.Series, 24)
		for k := range s {
			s[k] = float64(i + k)
		}
		values[i] = s
	}
	ids := make([][]int, n/4)
	for i := range ids {
		ids[i] = []int{i * 4, i*4 + 1, i*4 + 2, i*4 + 3}
	}

	sensorsIx := &join.Index{}
	sensorsIx.Add(join.JoinedLayer{LayerID: "census", OutLevel: spec.LevelObjects, InLevel: spec.LevelObjects, Abstract: true},
		join.JoinedObjects{InValues: values})
	sensors.SetJoins(sensorsIx)

	blocksIx := &join.Index{}
	blocksIx.Add(join.JoinedLayer{SpatialRelation: spec.RelationIntersects, LayerID: "sensors", OutLevel: spec.LevelObjects, InLevel: spec.LevelObjects},
		join.JoinedObjects{InIDs: ids})
	blocks.SetJoins(blocksIx)

	return New(reg), chain
}

func BenchmarkResolve(b *testing.B) {
	r, chain := benchChain(b, 4000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Resolve(chain); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolveSmall(b *testing.B) {
	r, chain := benchChain(b, 40)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Resolve(chain); err != nil {
			b.Fatal(err)
		}
	}
}
