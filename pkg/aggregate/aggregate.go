// Package aggregate converts function values between geometry levels.
//
// Everything here works on plain float slices plus partition metadata
// (vertex counts per component, triangle indices, cell ids). Values are
// indexed [element] for a single timestep and [timestep][element] for a
// Matrix.
package aggregate

import (
	"fmt"
	"math"

	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
)

// Matrix holds one row of element values per timestep.
type Matrix [][]float64

// Timesteps returns the number of rows.
func (m Matrix) Timesteps() int {
	return len(m)
}

// Width returns the element count of the first row, or 0 for an empty matrix.
func (m Matrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Reduce collapses values with op.
//
// MIN starts at +Inf and MAX at -Inf, so an empty list yields the seed.
// AVG and DISCARD of an empty list yield NaN. COUNT ignores the values.
// NONE and unknown operations fail with ErrIllegalOperator.
func Reduce(op spec.Operation, values []float64) (float64, error) {
	switch op {
	case spec.OpMax:
		acc := math.Inf(-1)
		for _, v := range values {
			acc = math.Max(acc, v)
		}
		return acc, nil
	case spec.OpMin:
		acc := math.Inf(1)
		for _, v := range values {
			acc = math.Min(acc, v)
		}
		return acc, nil
	case spec.OpAvg:
		if len(values) == 0 {
			return math.NaN(), nil
		}
		return sum(values) / float64(len(values)), nil
	case spec.OpSum:
		return sum(values), nil
	case spec.OpCount:
		return float64(len(values)), nil
	case spec.OpDiscard:
		if len(values) == 0 {
			return math.NaN(), nil
		}
		return values[0], nil
	case spec.OpNone:
		return 0, linkerr.New("aggregate.Reduce", linkerr.ErrIllegalOperator, "", "NONE cannot reduce a list of values")
	}
	return 0, linkerr.New("aggregate.Reduce", linkerr.ErrIllegalOperator, "", fmt.Sprintf("unknown operation %q", op))
}

func sum(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}

func partitionSize(coordsPerComp []int) int {
	n := 0
	for _, c := range coordsPerComp {
		n += c
	}
	return n
}

// ToObjects reduces per-vertex values to one value per component.
// coordsPerComp partitions values in order.
func ToObjects(values []float64, coordsPerComp []int, op spec.Operation) ([]float64, error) {
	if !op.Reduces() {
		_, err := Reduce(op, nil)
		return nil, err
	}
	if n := partitionSize(coordsPerComp); n != len(values) {
		return nil, linkerr.New("aggregate.ToObjects", linkerr.ErrShapeMismatch, "",
			fmt.Sprintf("%d values for a partition of %d vertices", len(values), n))
	}

	out := make([]float64, len(coordsPerComp))
	read := 0
	for i, n := range coordsPerComp {
		v, err := Reduce(op, values[read:read+n])
		if err != nil {
			return nil, err
		}
		out[i] = v
		read += n
	}
	return out, nil
}

// ToVertices broadcasts each component value onto all of its vertices.
func ToVertices(objectValues []float64, coordsPerComp []int) ([]float64, error) {
	if len(objectValues) != len(coordsPerComp) {
		return nil, linkerr.New("aggregate.ToVertices", linkerr.ErrShapeMismatch, "",
			fmt.Sprintf("%d values for %d components", len(objectValues), len(coordsPerComp)))
	}

	out := make([]float64, 0, partitionSize(coordsPerComp))
	for i, n := range coordsPerComp {
		for j := 0; j < n; j++ {
			out = append(out, objectValues[i])
		}
	}
	return out, nil
}

// AggregateToObjects applies ToObjects to every timestep.
func AggregateToObjects(m Matrix, coordsPerComp []int, op spec.Operation) (Matrix, error) {
	out := make(Matrix, len(m))
	for k, row := range m {
		agg, err := ToObjects(row, coordsPerComp, op)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", k, err)
		}
		out[k] = agg
	}
	return out, nil
}

// DistributeToVertices applies ToVertices to every timestep.
func DistributeToVertices(m Matrix, coordsPerComp []int) (Matrix, error) {
	out := make(Matrix, len(m))
	for k, row := range m {
		dist, err := ToVertices(row, coordsPerComp)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", k, err)
		}
		out[k] = dist
	}
	return out, nil
}
