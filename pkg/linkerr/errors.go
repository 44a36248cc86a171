// Package linkerr defines the error taxonomy shared by the layer registry,
// the level aggregation engine and the join-chain resolver.
//
// Every failure is a grammar, data or programming error, never a transient
// one: callers match with errors.Is against the sentinels below and surface
// the message as an invalid grammar.
package linkerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrLayerNotFound indicates a chain step names a layer the registry does not hold.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrJoinNotFound indicates no join result matches a link description.
	ErrJoinNotFound = errors.New("joined objects not found")

	// ErrInvalidChain indicates a structurally illegal join chain: empty,
	// physical first step, same-layer physical join or a deprecated relation.
	ErrInvalidChain = errors.New("invalid join chain")

	// ErrUnsupportedLevelConversion indicates a layer kind cannot produce or
	// consume values at the requested geometry level.
	ErrUnsupportedLevelConversion = errors.New("unsupported level conversion")

	// ErrIllegalOperator indicates NONE (or an unknown operator) was used where
	// a reduction is required.
	ErrIllegalOperator = errors.New("illegal operator")

	// ErrShapeMismatch indicates a value array does not line up with the
	// element count of the geometry level it is attached to.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDuplicateLayer indicates a layer id is already registered.
	ErrDuplicateLayer = errors.New("duplicate layer id")

	// ErrUnknownLayerType indicates a descriptor carries a type tag outside the closed set.
	ErrUnknownLayerType = errors.New("unknown layer type")
)

// Kind names the category of a failure for reporting.
type Kind string

const (
	KindNotFound Kind = "not_found"
	KindChain    Kind = "chain"
	KindLevel    Kind = "level"
	KindOperator Kind = "operator"
	KindShape    Kind = "shape"
	KindRegistry Kind = "registry"
)

// Error carries the operation and chain position that failed.
//
// Step is the zero-based index into the join chain, or -1 when the failure
// did not happen while walking a chain.
type Error struct {
	Op    string
	Kind  Kind
	Step  int
	Layer string
	Msg   string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var prefix string
	switch {
	case e.Step >= 0 && e.Layer != "":
		prefix = fmt.Sprintf("%s: step %d (%s)", e.Op, e.Step, e.Layer)
	case e.Step >= 0:
		prefix = fmt.Sprintf("%s: step %d", e.Op, e.Step)
	case e.Layer != "":
		prefix = fmt.Sprintf("%s (%s)", e.Op, e.Layer)
	default:
		prefix = e.Op
	}

	if e.Msg != "" {
		return fmt.Sprintf("%s: %v: %s", prefix, e.Err, e.Msg)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error outside of a chain walk.
func New(op string, sentinel error, layer, msg string) *Error {
	return &Error{
		Op:    op,
		Kind:  KindOf(sentinel),
		Step:  -1,
		Layer: layer,
		Msg:   msg,
		Err:   sentinel,
	}
}

// AtStep builds an Error attributed to a chain step.
func AtStep(op string, step int, sentinel error, layer, msg string) *Error {
	e := New(op, sentinel, layer, msg)
	e.Step = step
	return e
}

// WithStep attributes err to a chain step. An unattributed *Error is copied
// with the step set; any other error, including one that wraps an *Error,
// is wrapped so its own context stays in the message. Errors already
// attributed to a step are returned unchanged.
func WithStep(err error, op string, step int, layer string) error {
	if err == nil {
		return nil
	}
	if le, ok := err.(*Error); ok {
		if le.Step >= 0 {
			return err
		}
		cp := *le
		cp.Step = step
		if cp.Layer == "" {
			cp.Layer = layer
		}
		return &cp
	}

	var inner *Error
	if errors.As(err, &inner) {
		if inner.Step >= 0 {
			return err
		}
		if inner.Layer != "" {
			layer = inner.Layer
		}
	}
	return &Error{Op: op, Kind: KindOf(err), Step: step, Layer: layer, Err: err}
}

// KindOf maps a sentinel (or an error wrapping one) to its Kind.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrLayerNotFound), errors.Is(err, ErrJoinNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidChain):
		return KindChain
	case errors.Is(err, ErrUnsupportedLevelConversion):
		return KindLevel
	case errors.Is(err, ErrIllegalOperator):
		return KindOperator
	case errors.Is(err, ErrShapeMismatch):
		return KindShape
	case errors.Is(err, ErrDuplicateLayer), errors.Is(err, ErrUnknownLayerType):
		return KindRegistry
	}
	return ""
}
