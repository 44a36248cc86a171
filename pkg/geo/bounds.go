package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bounds is an axis-aligned 3D bounding box. The zero value is empty.
type Bounds struct {
	Min   Vec3 `json:"min"`
	Max   Vec3 `json:"max"`
	valid bool
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return !b.valid
}

// Extend grows b to include v.
func (b *Bounds) Extend(v Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = v, v, true
		return
	}
	b.Min.X = math.Min(b.Min.X, v.X)
	b.Min.Y = math.Min(b.Min.Y, v.Y)
	b.Min.Z = math.Min(b.Min.Z, v.Z)
	b.Max.X = math.Max(b.Max.X, v.X)
	b.Max.Y = math.Max(b.Max.Y, v.Y)
	b.Max.Z = math.Max(b.Max.Z, v.Z)
}

// Union grows b to include o.
func (b *Bounds) Union(o Bounds) {
	if o.Empty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// BBox2D is a planar filter box [minx, miny, maxx, maxy].
type BBox2D [4]float64

// Contains reports whether p lies inside the box, edges included.
func (bb BBox2D) Contains(p Point2D) bool {
	return p.X >= bb[0] && p.Y >= bb[1] && p.X <= bb[2] && p.Y <= bb[3]
}

// ParseBBox2D reads a "minx,miny,maxx,maxy" box. An empty string yields nil.
func ParseBBox2D(raw string) (*BBox2D, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox needs 4 numbers, got %d", len(parts))
	}
	var bb BBox2D
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox: %w", err)
		}
		bb[i] = v
	}
	if bb[0] > bb[2] || bb[1] > bb[3] {
		return nil, fmt.Errorf("bbox min exceeds max")
	}
	return &bb, nil
}
