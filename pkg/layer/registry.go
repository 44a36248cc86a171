package layer

import (
	"log/slog"
	"sync"

	"github.com/sajal1123/curio/pkg/geometry"
	"github.com/sajal1123/curio/pkg/linkerr"
)

// Registry owns the layers of one workflow. It is passed explicitly to
// everything that resolves layers by id; there is no package-level registry.
type Registry struct {
	mu     sync.RWMutex
	layers []Layer
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report rejected descriptors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create builds the layer variant selected by desc.Type from features and
// appends it. The new layer's z-order is the registry size after insertion.
// An unknown type tag or a duplicate id leaves the registry unchanged.
func (r *Registry) Create(desc Descriptor, features []geometry.Feature) (Layer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(desc.ID) != nil {
		return nil, linkerr.New("layer.Create", linkerr.ErrDuplicateLayer, desc.ID, "")
	}

	l, err := newLayer(desc, len(r.layers)+1, features)
	if err != nil {
		r.logger.Error("layer type not supported", "layer", desc.ID, "type", string(desc.Type))
		return nil, err
	}
	r.layers = append(r.layers, l)

	r.logger.Debug("layer created",
		"layer", l.ID(),
		"type", string(l.Type()),
		"z", l.ZOrder(),
		"components", l.Mesh().NumComponents(),
		"vertices", l.Mesh().NumVertices(),
	)
	return l, nil
}

// FindByID returns the layer with id, if any.
func (r *Registry) FindByID(id string) (Layer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l := r.findLocked(id)
	return l, l != nil
}

// Find is FindByID returning a LayerNotFound error attributed to op.
func (r *Registry) Find(op, id string) (Layer, error) {
	if l, ok := r.FindByID(id); ok {
		return l, nil
	}
	return nil, linkerr.New(op, linkerr.ErrLayerNotFound, id, "")
}

func (r *Registry) findLocked(id string) Layer {
	for _, l := range r.layers {
		if l.ID() == id {
			return l
		}
	}
	return nil
}

// All returns the layers in creation order.
func (r *Registry) All() []Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Layer(nil), r.layers...)
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layers)
}

// Remove drops the layer with id. Z-orders of the remaining layers are
// left as assigned.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.layers {
		if l.ID() == id {
			r.layers = append(r.layers[:i], r.layers[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every layer.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers = nil
}
