package geo

import "math"

// Point2D is a planar map coordinate (footprint vertex).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a shorthand constructor for Point2D.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Y - q.Y}
}

// Scale returns p * s.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{p.X * s, p.Y * s}
}

// Length returns the Euclidean length of the vector.
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance from p to q.
func (p Point2D) Distance(q Point2D) float64 {
	return p.Sub(q).Length()
}

// Vec3 is a render vertex. Z is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY drops the height component.
func (v Vec3) XY() Point2D {
	return Point2D{X: v.X, Y: v.Y}
}

// Vec3s splits a flat x,y,z buffer into vertices. A trailing partial
// triple is ignored.
func Vec3s(flat []float64) []Vec3 {
	n := len(flat) / 3
	out := make([]Vec3, n)
	for i := 0; i < n; i++ {
		out[i] = Vec3{X: flat[i*3], Y: flat[i*3+1], Z: flat[i*3+2]}
	}
	return out
}

// Points2D splits a flat x,y buffer into points.
func Points2D(flat []float64) []Point2D {
	n := len(flat) / 2
	out := make([]Point2D, n)
	for i := 0; i < n; i++ {
		out[i] = Point2D{X: flat[i*2], Y: flat[i*2+1]}
	}
	return out
}
