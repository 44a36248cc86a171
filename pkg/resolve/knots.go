package resolve

import (
	"fmt"

	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
)

// Result is the resolved function buffer of one knot.
type Result struct {
	KnotID   string           `json:"knotId"`
	Layer    string           `json:"layer"`
	Level    spec.Level       `json:"level,omitempty"`
	External bool             `json:"external,omitempty"`
	Matrix   aggregate.Matrix `json:"values"`
}

// ResolveKnot resolves the integration scheme of k.
func (r *Resolver) ResolveKnot(k spec.Knot) (*Result, error) {
	m, err := r.Resolve(k.IntegrationScheme)
	if err != nil {
		return nil, fmt.Errorf("knot %q: %w", k.ID, err)
	}
	phys := k.PhysicalLayer()
	return &Result{KnotID: k.ID, Layer: phys.Name, Level: phys.Level, Matrix: m}, nil
}

// ExternalValues returns the matrix precomputed for layerID from the
// incoming layer inName. An incoming layer that is not listed yields an
// empty matrix.
func (r *Resolver) ExternalValues(layerID, inName string) (aggregate.Matrix, error) {
	const op = "resolve.ExternalValues"

	l, err := r.registry.Find(op, layerID)
	if err != nil {
		return nil, err
	}

	values, ok := l.External().Values(inName)
	if !ok {
		return aggregate.Matrix{}, nil
	}

	width := l.FunctionWidth()
	m := make(aggregate.Matrix, len(values))
	for k, row := range values {
		if len(row) != width {
			return nil, linkerr.New(op, linkerr.ErrShapeMismatch, layerID,
				fmt.Sprintf("timestep %d of %q has %d values for a function buffer of %d", k, inName, len(row), width))
		}
		m[k] = append([]float64(nil), row...)
	}
	return m, nil
}

// ResolveExKnot loads the precomputed values of an external knot.
func (r *Resolver) ResolveExKnot(ex spec.ExKnot) (*Result, error) {
	m, err := r.ExternalValues(ex.OutName, ex.InName)
	if err != nil {
		return nil, fmt.Errorf("knot %q: %w", ex.ID, err)
	}
	return &Result{KnotID: ex.ID, Layer: ex.OutName, External: true, Matrix: m}, nil
}

// ResolveAll resolves every knot of g, then every external knot, in
// declaration order. The first failure aborts and nothing is returned.
func (r *Resolver) ResolveAll(g *spec.Grammar) ([]*Result, error) {
	out := make([]*Result, 0, len(g.Knots)+len(g.ExKnots))
	for _, k := range g.Knots {
		res, err := r.ResolveKnot(k)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	for _, ex := range g.ExKnots {
		res, err := r.ResolveExKnot(ex)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}

	r.logger.Debug("grammar resolved", "knots", len(g.Knots), "ex_knots", len(g.ExKnots))
	return out, nil
}
