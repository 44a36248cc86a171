// Package resolve walks join chains over the layers of a registry and
// produces the per-timestep function buffer of the chain's last layer.
//
// Resolution is synchronous and fail-fast: the first missing layer,
// missing join result, illegal level or illegal operator aborts the chain
// and no partial matrix is returned.
package resolve

import (
	"fmt"
	"log/slog"

	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/join"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
)

// NullJoinValue is written for elements whose join matched nothing, unless
// the link carries a defaultValue.
const NullJoinValue = 0.0

// Resolver resolves chains against one registry.
type Resolver struct {
	registry *layer.Registry
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a resolver reading layers from registry.
func New(registry *layer.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver reads from.
func (r *Resolver) Registry() *layer.Registry {
	return r.registry
}

// Resolve walks chain left to right. The first step must be abstract; each
// physical step reads the previous step's output through the ids matched
// in its join result. The result is the function buffer of the last
// step's out layer, indexed [timestep][vertex].
func (r *Resolver) Resolve(chain []spec.LinkDescription) (aggregate.Matrix, error) {
	const op = "resolve.Resolve"

	if len(chain) == 0 {
		return nil, linkerr.New(op, linkerr.ErrInvalidChain, "", "empty chain")
	}
	if !chain[0].Abstract {
		return nil, linkerr.AtStep(op, 0, linkerr.ErrInvalidChain, chain[0].Out.Name,
			"the first link must pull values from an abstract layer")
	}
	for i, link := range chain {
		if link.SpatialRelation == spec.RelationInnerAgg {
			return nil, linkerr.AtStep(op, i, linkerr.ErrInvalidChain, link.Out.Name,
				"inner aggregation is no longer supported")
		}
	}

	var values aggregate.Matrix
	var prev layer.Layer
	for i, link := range chain {
		out, err := r.registry.Find(op, link.Out.Name)
		if err != nil {
			return nil, linkerr.WithStep(err, op, i, link.Out.Name)
		}

		if link.Abstract {
			values, err = r.abstractStep(out, link)
		} else {
			values, err = r.physicalStep(out, prev, link, values)
		}
		if err != nil {
			return nil, linkerr.WithStep(err, op, i, link.Out.Name)
		}

		r.logger.Debug("link resolved",
			"step", i,
			"link", link.String(),
			"timesteps", values.Timesteps(),
			"width", values.Width(),
		)
		prev = out
	}
	return values, nil
}

func (r *Resolver) lookup(out layer.Layer, link spec.LinkDescription) (*join.JoinedObjects, error) {
	jo, ok := out.Joins().Lookup(link)
	if !ok {
		return nil, linkerr.New("resolve.lookup", linkerr.ErrJoinNotFound, out.ID(), link.String())
	}
	return jo, nil
}

func nullValue(link spec.LinkDescription) float64 {
	if link.DefaultValue != nil {
		return *link.DefaultValue
	}
	return NullJoinValue
}

// abstractStep reshapes literal join values into one row per timestep and
// widens them to the out layer's function buffer. An element with a single
// value keeps it on every timestep.
func (r *Resolver) abstractStep(out layer.Layer, link spec.LinkDescription) (aggregate.Matrix, error) {
	const op = "resolve.abstractStep"

	if err := out.CheckLevel(link.Out.Level); err != nil {
		return nil, err
	}
	jo, err := r.lookup(out, link)
	if err != nil {
		return nil, err
	}
	if !jo.HasValues() {
		return nil, linkerr.New(op, linkerr.ErrJoinNotFound, out.ID(), "abstract join result carries no inValues")
	}

	n, err := out.ElementCount(link.Out.Level)
	if err != nil {
		return nil, err
	}
	if len(jo.InValues) != n {
		return nil, linkerr.New(op, linkerr.ErrShapeMismatch, out.ID(),
			fmt.Sprintf("%d values for %d %s elements", len(jo.InValues), n, link.Out.Level))
	}

	timesteps := max(jo.InValues.Timesteps(), 1)
	fill := nullValue(link)

	m := make(aggregate.Matrix, timesteps)
	for k := range m {
		m[k] = make([]float64, n)
	}
	for e, series := range jo.InValues {
		switch len(series) {
		case 0:
			for k := range m {
				m[k][e] = fill
			}
		case 1:
			for k := range m {
				m[k][e] = series[0]
			}
		case timesteps:
			for k, v := range series {
				m[k][e] = v
			}
		default:
			return nil, linkerr.New(op, linkerr.ErrShapeMismatch, out.ID(),
				fmt.Sprintf("element %d has %d timesteps, expected 1 or %d", e, len(series), timesteps))
		}
	}

	return out.Distribute(m, link.Out.Level)
}

// physicalStep reduces, for every out element, the previous step's values
// at the ids matched in the in layer.
func (r *Resolver) physicalStep(out, prev layer.Layer, link spec.LinkDescription, values aggregate.Matrix) (aggregate.Matrix, error) {
	const op = "resolve.physicalStep"

	if link.In == nil {
		return nil, linkerr.New(op, linkerr.ErrInvalidChain, out.ID(), "physical link has no in layer")
	}
	if link.In.Name == link.Out.Name {
		return nil, linkerr.New(op, linkerr.ErrInvalidChain, out.ID(), "a physical link cannot join a layer to itself")
	}
	if !link.Operation.Reduces() {
		return nil, linkerr.New(op, linkerr.ErrIllegalOperator, out.ID(),
			fmt.Sprintf("operation %q cannot reduce joined values", link.Operation))
	}

	in, err := r.registry.Find(op, link.In.Name)
	if err != nil {
		return nil, err
	}
	if prev == nil || prev.ID() != in.ID() {
		return nil, linkerr.New(op, linkerr.ErrInvalidChain, out.ID(),
			fmt.Sprintf("in layer %q does not hold the values of the previous link", in.ID()))
	}
	if err := in.CheckLevel(link.In.Level); err != nil {
		return nil, err
	}
	if err := out.CheckLevel(link.Out.Level); err != nil {
		return nil, err
	}

	jo, err := r.lookup(out, link)
	if err != nil {
		return nil, err
	}
	if !jo.HasIDs() {
		return nil, linkerr.New(op, linkerr.ErrJoinNotFound, out.ID(), "physical join result carries no inIds")
	}

	n, err := out.ElementCount(link.Out.Level)
	if err != nil {
		return nil, err
	}
	if len(jo.InIDs) != n {
		return nil, linkerr.New(op, linkerr.ErrShapeMismatch, out.ID(),
			fmt.Sprintf("%d id lists for %d %s elements", len(jo.InIDs), n, link.Out.Level))
	}

	// resolve value positions once; they do not depend on the timestep
	positions := make([][]int, n)
	for e, ids := range jo.InIDs {
		if len(ids) == 0 {
			continue
		}
		positions[e] = make([]int, len(ids))
		for j, id := range ids {
			pos, err := in.FunctionValueIndex(id, link.In.Level)
			if err != nil {
				return nil, err
			}
			positions[e][j] = pos
		}
	}

	fill := nullValue(link)
	m := make(aggregate.Matrix, len(values))
	matched := make([]float64, 0, 8)
	for k, row := range values {
		m[k] = make([]float64, n)
		for e, pos := range positions {
			if pos == nil {
				m[k][e] = fill
				continue
			}
			matched = matched[:0]
			for _, p := range pos {
				if p >= len(row) {
					return nil, linkerr.New(op, linkerr.ErrShapeMismatch, in.ID(),
						fmt.Sprintf("timestep %d has %d values, position %d requested", k, len(row), p))
				}
				matched = append(matched, row[p])
			}
			v, err := aggregate.Reduce(link.Operation, matched)
			if err != nil {
				return nil, err
			}
			m[k][e] = v
		}
	}

	return out.Distribute(m, link.Out.Level)
}
