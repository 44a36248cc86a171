// Package join models the precomputed join results attached to a layer and
// looks them up for a link description.
//
// The index is written once by the loader and read by the resolver.
package join

import (
	"fmt"

	"github.com/sajal1123/curio/pkg/spec"
)

// JoinedLayer describes one precomputed link from the owning layer to a target.
type JoinedLayer struct {
	SpatialRelation spec.SpatialRelation `json:"spatial_relation"`
	LayerID         string               `json:"layerId"`
	OutLevel        spec.Level           `json:"outLevel"` // level on the owning layer
	InLevel         spec.Level           `json:"inLevel"`  // level on the target layer
	Abstract        bool                 `json:"abstract"`
}

// Matches reports whether link selects this descriptor. All five fields must
// be equal; a link without an in side never matches.
func (jl JoinedLayer) Matches(link spec.LinkDescription) bool {
	if link.In == nil {
		return false
	}
	return jl.Abstract == link.Abstract &&
		jl.LayerID == link.In.Name &&
		jl.InLevel == link.In.Level &&
		jl.OutLevel == link.Out.Level &&
		jl.SpatialRelation == link.SpatialRelation
}

// JoinedObjects is the result of one JoinedLayer.
//
// InValues is set when the target is abstract: one series per element of
// the owning layer's out level. InIDs is set when the target is physical:
// for each element, the ids matched in the target at its in level. A nil
// or empty id list means the element matched nothing.
type JoinedObjects struct {
	JoinedLayerIndex int     `json:"joinedLayerIndex"`
	InValues         Values  `json:"inValues,omitempty"`
	InIDs            [][]int `json:"inIds,omitempty"`
}

// HasValues reports whether the result carries literal values.
func (jo *JoinedObjects) HasValues() bool {
	return jo.InValues != nil
}

// HasIDs reports whether the result carries matched id lists.
func (jo *JoinedObjects) HasIDs() bool {
	return jo.InIDs != nil
}

// Validate checks that exactly one of InValues and InIDs is populated.
func (jo *JoinedObjects) Validate() error {
	switch {
	case jo.HasValues() && jo.HasIDs():
		return fmt.Errorf("joined objects %d carry both inValues and inIds", jo.JoinedLayerIndex)
	case !jo.HasValues() && !jo.HasIDs():
		return fmt.Errorf("joined objects %d carry neither inValues nor inIds", jo.JoinedLayerIndex)
	}
	return nil
}

// Index is the join data of one layer, as stored in its joined json file.
type Index struct {
	JoinedLayers  []JoinedLayer   `json:"joinedLayers"`
	JoinedObjects []JoinedObjects `json:"joinedObjects"`
}

// Lookup returns the join result selected by link. The first matching
// descriptor in declaration order wins.
func (ix *Index) Lookup(link spec.LinkDescription) (*JoinedObjects, bool) {
	if ix == nil {
		return nil, false
	}

	target := -1
	for i, jl := range ix.JoinedLayers {
		if jl.Matches(link) {
			target = i
			break
		}
	}
	if target == -1 {
		return nil, false
	}

	for i := range ix.JoinedObjects {
		if ix.JoinedObjects[i].JoinedLayerIndex == target {
			return &ix.JoinedObjects[i], true
		}
	}
	return nil, false
}

// Validate checks every result: indices point at a descriptor and each
// result is either values or ids.
func (ix *Index) Validate() error {
	if ix == nil {
		return nil
	}
	for i := range ix.JoinedObjects {
		jo := &ix.JoinedObjects[i]
		if jo.JoinedLayerIndex < 0 || jo.JoinedLayerIndex >= len(ix.JoinedLayers) {
			return fmt.Errorf("joined objects %d: joinedLayerIndex %d out of range [0,%d)", i, jo.JoinedLayerIndex, len(ix.JoinedLayers))
		}
		if err := jo.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Add appends a descriptor and its result, wiring the index between them.
func (ix *Index) Add(jl JoinedLayer, jo JoinedObjects) {
	jo.JoinedLayerIndex = len(ix.JoinedLayers)
	ix.JoinedLayers = append(ix.JoinedLayers, jl)
	ix.JoinedObjects = append(ix.JoinedObjects, jo)
}
