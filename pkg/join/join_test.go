package join

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajal1123/curio/pkg/spec"
)

func link(out, in string, outLevel, inLevel spec.Level, rel spec.SpatialRelation, abstract bool) spec.LinkDescription {
	return spec.LinkDescription{
		SpatialRelation: rel,
		Out:             spec.LevelRef{Name: out, Level: outLevel},
		In:              &spec.LevelRef{Name: in, Level: inLevel},
		Operation:       spec.OpAvg,
		Abstract:        abstract,
	}
}

func TestLookupMatchesAllFields(t *testing.T) {
	var ix Index
	ix.Add(JoinedLayer{SpatialRelation: spec.RelationIntersects, LayerID: "parks", OutLevel: spec.LevelObjects, InLevel: spec.LevelObjects},
		JoinedObjects{InIDs: [][]int{{0}}})
	ix.Add(JoinedLayer{SpatialRelation: spec.RelationIntersects, LayerID: "shadow", OutLevel: spec.LevelObjects, InLevel: spec.LevelObjects, Abstract: true},
		JoinedObjects{InValues: Scalars(1, 2)})

	tests := []struct {
		name  string
		link  spec.LinkDescription
		found bool
		index int
	}{
		{"physical", link("buildings", "parks", spec.LevelObjects, spec.LevelObjects, spec.RelationIntersects, false), true, 0},
		{"abstract", link("buildings", "shadow", spec.LevelObjects, spec.LevelObjects, spec.RelationIntersects, true), true, 1},
		{"abstract flag differs", link("buildings", "parks", spec.LevelObjects, spec.LevelObjects, spec.RelationIntersects, true), false, 0},
		{"relation differs", link("buildings", "parks", spec.LevelObjects, spec.LevelObjects, spec.RelationContains, false), false, 0},
		{"out level differs", link("buildings", "parks", spec.LevelCoordinates3D, spec.LevelObjects, spec.RelationIntersects, false), false, 0},
		{"in level differs", link("buildings", "parks", spec.LevelObjects, spec.LevelCoordinates, spec.RelationIntersects, false), false, 0},
		{"target differs", link("buildings", "roads", spec.LevelObjects, spec.LevelObjects, spec.RelationIntersects, false), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jo, ok := ix.Lookup(tt.link)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.index, jo.JoinedLayerIndex)
			}
		})
	}
}

func TestLookupWithoutInSide(t *testing.T) {
	var ix Index
	ix.Add(JoinedLayer{LayerID: "shadow", Abstract: true}, JoinedObjects{InValues: Scalars(1)})

	_, ok := ix.Lookup(spec.LinkDescription{Out: spec.LevelRef{Name: "buildings"}, Abstract: true})
	assert.False(t, ok)
}

func TestLookupFirstMatchWins(t *testing.T) {
	jl := JoinedLayer{SpatialRelation: spec.RelationNearest, LayerID: "sensors", OutLevel: spec.LevelObjects, InLevel: spec.LevelObjects}
	var ix Index
	ix.Add(jl, JoinedObjects{InIDs: [][]int{{1}}})
	ix.Add(jl, JoinedObjects{InIDs: [][]int{{2}}})

	jo, ok := ix.Lookup(link("buildings", "sensors", spec.LevelObjects, spec.LevelObjects, spec.RelationNearest, false))
	require.True(t, ok)
	assert.Equal(t, [][]int{{1}}, jo.InIDs)
}

func TestLookupNilIndex(t *testing.T) {
	var ix *Index
	_, ok := ix.Lookup(link("a", "b", spec.LevelObjects, spec.LevelObjects, "", true))
	assert.False(t, ok)
}

func TestIndexValidate(t *testing.T) {
	var ok Index
	ok.Add(JoinedLayer{LayerID: "a"}, JoinedObjects{InIDs: [][]int{nil}})
	assert.NoError(t, ok.Validate())

	both := Index{
		JoinedLayers:  []JoinedLayer{{LayerID: "a"}},
		JoinedObjects: []JoinedObjects{{InValues: Scalars(1), InIDs: [][]int{{0}}}},
	}
	assert.Error(t, both.Validate())

	neither := Index{
		JoinedLayers:  []JoinedLayer{{LayerID: "a"}},
		JoinedObjects: []JoinedObjects{{}},
	}
	assert.Error(t, neither.Validate())

	dangling := Index{
		JoinedLayers:  []JoinedLayer{{LayerID: "a"}},
		JoinedObjects: []JoinedObjects{{JoinedLayerIndex: 3, InIDs: [][]int{}}},
	}
	assert.Error(t, dangling.Validate())
}

func TestDecodeJoinedJSON(t *testing.T) {
	doc := []byte(`{
		"joinedLayers": [
			{"spatial_relation": "intersects", "layerId": "parks", "outLevel": "objects", "inLevel": "OBJECTS", "abstract": false},
			{"spatial_relation": "INTERSECTS", "layerId": "shadow", "outLevel": "OBJECTS", "inLevel": "OBJECTS", "abstract": true}
		],
		"joinedObjects": [
			{"joinedLayerIndex": 0, "inIds": [[0], [1, 2], null]},
			{"joinedLayerIndex": 1, "inValues": [0.5, [1, 2, 3], null]}
		]
	}`)

	var ix Index
	require.NoError(t, json.Unmarshal(doc, &ix))
	require.NoError(t, ix.Validate())

	assert.Equal(t, spec.RelationIntersects, ix.JoinedLayers[0].SpatialRelation)
	assert.Equal(t, spec.LevelObjects, ix.JoinedLayers[0].OutLevel)
	assert.Equal(t, [][]int{{0}, {1, 2}, nil}, ix.JoinedObjects[0].InIDs)

	vals := ix.JoinedObjects[1].InValues
	require.Len(t, vals, 3)
	assert.Equal(t, Series{0.5}, vals[0])
	assert.Equal(t, Series{1, 2, 3}, vals[1])
	assert.Nil(t, vals[2])
	assert.Equal(t, 3, vals.Timesteps())
}

func TestDecodeValuesRejectsGarbage(t *testing.T) {
	var v Values
	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a": 1}`), &v))
}

func TestExternalValues(t *testing.T) {
	ext := &External{
		ID:          "buildings",
		IncomingIDs: []string{"shadow", "sky"},
		InValues:    [][][]float64{{{1, 2}}, {{3, 4}, {5, 6}}},
	}

	vals, ok := ext.Values("sky")
	require.True(t, ok)
	assert.Equal(t, [][]float64{{3, 4}, {5, 6}}, vals)

	_, ok = ext.Values("noise")
	assert.False(t, ok)

	var missing *External
	_, ok = missing.Values("sky")
	assert.False(t, ok)
}
