package geo

import (
	"math"
	"testing"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// --- Point tests ---

func TestPointDistance(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(3, 4)
	if !approxEqual(a.Distance(b), 5.0, tolerance) {
		t.Errorf("expected distance 5.0, got %f", a.Distance(b))
	}
}

func TestVec3sSplitsTriples(t *testing.T) {
	vs := Vec3s([]float64{1, 2, 3, 4, 5, 6, 7})
	if len(vs) != 2 {
		t.Fatalf("expected 2 vertices, got %d", len(vs))
	}
	if vs[1] != (Vec3{4, 5, 6}) {
		t.Errorf("second vertex = %+v, want {4 5 6}", vs[1])
	}
	if vs[0].XY() != Pt(1, 2) {
		t.Errorf("XY = %+v, want (1,2)", vs[0].XY())
	}
}

// --- Polygon tests ---

func TestPolygonAreaSquare(t *testing.T) {
	// 10x10 square
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	area := sq.Area()
	if !approxEqual(area, 100, tolerance) {
		t.Errorf("expected area 100, got %f", area)
	}
}

func TestPolygonFromFlat(t *testing.T) {
	tri := PolygonFromFlat([]float64{0, 0, 10, 0, 0, 10})
	if tri.Len() != 3 {
		t.Fatalf("expected 3 vertices, got %d", tri.Len())
	}
	if !approxEqual(tri.Area(), 50, tolerance) {
		t.Errorf("expected area 50, got %f", tri.Area())
	}
}

func TestPolygonCentroid(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	c := sq.Centroid()
	if !approxEqual(c.X, 5, tolerance) || !approxEqual(c.Y, 5, tolerance) {
		t.Errorf("expected centroid (5,5), got (%f,%f)", c.X, c.Y)
	}
}

func TestPolygonCentroidDegenerate(t *testing.T) {
	line := NewPolygon(Pt(0, 0), Pt(4, 0))
	c := line.Centroid()
	if !approxEqual(c.X, 2, tolerance) || !approxEqual(c.Y, 0, tolerance) {
		t.Errorf("expected centroid (2,0), got (%f,%f)", c.X, c.Y)
	}
}

func TestPolygonContains(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if !sq.Contains(Pt(5, 5)) {
		t.Error("expected (5,5) inside square")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Error("expected (15,5) outside square")
	}
	if sq.Contains(Pt(-1, 5)) {
		t.Error("expected (-1,5) outside square")
	}
}

func TestPolygonBoundingBox(t *testing.T) {
	sq := NewPolygon(Pt(-5, -3), Pt(10, 0), Pt(7, 12))
	mn, mx := sq.BoundingBox()
	if !approxEqual(mn.X, -5, tolerance) || !approxEqual(mn.Y, -3, tolerance) {
		t.Errorf("expected min (-5,-3), got (%f,%f)", mn.X, mn.Y)
	}
	if !approxEqual(mx.X, 10, tolerance) || !approxEqual(mx.Y, 12, tolerance) {
		t.Errorf("expected max (10,12), got (%f,%f)", mx.X, mx.Y)
	}
}

// --- Bounds tests ---

func TestBoundsExtend(t *testing.T) {
	var b Bounds
	if !b.Empty() {
		t.Fatal("zero bounds should be empty")
	}
	b.Extend(Vec3{1, 2, 3})
	b.Extend(Vec3{-1, 5, 0})
	if b.Min != (Vec3{-1, 2, 0}) {
		t.Errorf("min = %+v, want {-1 2 0}", b.Min)
	}
	if b.Max != (Vec3{1, 5, 3}) {
		t.Errorf("max = %+v, want {1 5 3}", b.Max)
	}

	var other Bounds
	other.Extend(Vec3{10, 10, 10})
	b.Union(other)
	if b.Max != (Vec3{10, 10, 10}) {
		t.Errorf("max after union = %+v, want {10 10 10}", b.Max)
	}
}

func TestBBox2DContains(t *testing.T) {
	bb := BBox2D{0, 0, 10, 10}
	if !bb.Contains(Pt(10, 0)) {
		t.Error("expected edge point inside")
	}
	if bb.Contains(Pt(10.1, 5)) {
		t.Error("expected (10.1,5) outside")
	}
}

func TestParseBBox2D(t *testing.T) {
	bb, err := ParseBBox2D("")
	if err != nil || bb != nil {
		t.Fatalf("empty input: got %v, %v", bb, err)
	}

	bb, err = ParseBBox2D("0, 1, 2, 3")
	if err != nil {
		t.Fatal(err)
	}
	if *bb != (BBox2D{0, 1, 2, 3}) {
		t.Errorf("bbox = %v, want [0 1 2 3]", *bb)
	}

	for _, raw := range []string{"1,2", "4,0,2,3", "a,0,2,3"} {
		if _, err := ParseBBox2D(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
