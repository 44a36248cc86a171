package spec

import (
	"fmt"
	"strings"
)

// Grammar is the top-level declarative description of a workflow view.
// Layers are loaded separately; the grammar only names them through knots.
type Grammar struct {
	Variables []Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
	Layers    []string   `yaml:"layers,omitempty" json:"layers,omitempty"`
	Knots     []Knot     `yaml:"knots" json:"knots"`
	ExKnots   []ExKnot   `yaml:"ex_knots,omitempty" json:"ex_knots,omitempty"`
}

type Variable struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// KnotByID returns the knot with the given id, or nil if not found.
func (g *Grammar) KnotByID(id string) *Knot {
	for i := range g.Knots {
		if g.Knots[i].ID == id {
			return &g.Knots[i]
		}
	}
	return nil
}

// Knot drives one join chain and its rendering.
type Knot struct {
	ID                string            `yaml:"id" json:"id"`
	Group             *KnotGroup        `yaml:"group,omitempty" json:"group,omitempty"`
	KnotOp            bool              `yaml:"knot_op,omitempty" json:"knot_op,omitempty"`
	ColorMap          string            `yaml:"color_map,omitempty" json:"color_map,omitempty"`
	IntegrationScheme []LinkDescription `yaml:"integration_scheme" json:"integration_scheme"`
	Range             []float64         `yaml:"range,omitempty" json:"range,omitempty"`
	Domain            []float64         `yaml:"domain,omitempty" json:"domain,omitempty"`
	Scale             string            `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// PhysicalLayer returns the layer that receives the knot's final values:
// the out side of the last link.
func (k Knot) PhysicalLayer() LevelRef {
	if len(k.IntegrationScheme) == 0 {
		return LevelRef{}
	}
	return k.IntegrationScheme[len(k.IntegrationScheme)-1].Out
}

// ExKnot is a knot whose values were precomputed outside the grammar and
// attached to the out layer's external joined json.
type ExKnot struct {
	ID       string     `yaml:"id" json:"id"`
	OutName  string     `yaml:"out_name" json:"out_name"`
	InName   string     `yaml:"in_name,omitempty" json:"in_name,omitempty"`
	Group    *KnotGroup `yaml:"group,omitempty" json:"group,omitempty"`
	ColorMap string     `yaml:"color_map,omitempty" json:"color_map,omitempty"`
	Range    []float64  `yaml:"range,omitempty" json:"range,omitempty"`
	Domain   []float64  `yaml:"domain,omitempty" json:"domain,omitempty"`
	Scale    string     `yaml:"scale,omitempty" json:"scale,omitempty"`
}

type KnotGroup struct {
	GroupName string `yaml:"group_name" json:"group_name"`
	Position  int    `yaml:"position" json:"position"`
}

// LevelRef names one side of a link: a layer and the geometry level used on it.
type LevelRef struct {
	Name  string `yaml:"name" json:"name"`
	Level Level  `yaml:"level" json:"level"`
}

// LinkDescription is one step of a join chain.
type LinkDescription struct {
	SpatialRelation SpatialRelation `yaml:"spatial_relation,omitempty" json:"spatial_relation,omitempty"`
	Out             LevelRef        `yaml:"out" json:"out"`
	In              *LevelRef       `yaml:"in,omitempty" json:"in,omitempty"`
	Operation       Operation       `yaml:"operation" json:"operation"`
	Abstract        bool            `yaml:"abstract,omitempty" json:"abstract,omitempty"`

	// MaxDistance bounds NEAREST joins, in meters of the layers' CRS.
	MaxDistance *float64 `yaml:"maxDistance,omitempty" json:"maxDistance,omitempty"`
	// DefaultValue replaces the null-join placeholder when set.
	DefaultValue *float64 `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
}

// InName returns the in-side layer name, or "" when the link has no in side.
func (l LinkDescription) InName() string {
	if l.In == nil {
		return ""
	}
	return l.In.Name
}

// InLevel returns the in-side geometry level, or "" when the link has no in side.
func (l LinkDescription) InLevel() Level {
	if l.In == nil {
		return ""
	}
	return l.In.Level
}

func (l LinkDescription) String() string {
	if l.In == nil {
		return fmt.Sprintf("%s[%s] %s %s", l.Out.Name, l.Out.Level, l.SpatialRelation, l.Operation)
	}
	return fmt.Sprintf("%s[%s] <-%s/%s- %s[%s]", l.Out.Name, l.Out.Level, l.SpatialRelation, l.Operation, l.In.Name, l.In.Level)
}

// Level is the granularity at which a value is attached.
type Level string

const (
	LevelCoordinates   Level = "COORDINATES"
	LevelCoordinates3D Level = "COORDINATES3D"
	LevelObjects       Level = "OBJECTS"
)

// Levels lists every geometry level.
var Levels = []Level{LevelCoordinates, LevelCoordinates3D, LevelObjects}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelCoordinates, LevelCoordinates3D, LevelObjects:
		return true
	}
	return false
}

// PerVertex reports whether values at this level map one-to-one to vertices.
func (l Level) PerVertex() bool {
	return l == LevelCoordinates || l == LevelCoordinates3D
}

func (l *Level) UnmarshalText(b []byte) error {
	*l = Level(strings.ToUpper(strings.TrimSpace(string(b))))
	return nil
}

// Operation is the reduction applied when many values collapse into one.
type Operation string

const (
	OpMax     Operation = "MAX"
	OpMin     Operation = "MIN"
	OpAvg     Operation = "AVG"
	OpSum     Operation = "SUM"
	OpCount   Operation = "COUNT"
	OpDiscard Operation = "DISCARD"
	OpNone    Operation = "NONE"
)

// Valid reports whether o is one of the known operations, NONE included.
func (o Operation) Valid() bool {
	switch o {
	case OpMax, OpMin, OpAvg, OpSum, OpCount, OpDiscard, OpNone:
		return true
	}
	return false
}

// Reduces reports whether o collapses a list to a single value.
func (o Operation) Reduces() bool {
	return o.Valid() && o != OpNone
}

func (o *Operation) UnmarshalText(b []byte) error {
	*o = Operation(strings.ToUpper(strings.TrimSpace(string(b))))
	return nil
}

// SpatialRelation is the geometric predicate used to precompute a join.
type SpatialRelation string

const (
	RelationIntersects SpatialRelation = "INTERSECTS"
	RelationContains   SpatialRelation = "CONTAINS"
	RelationWithin     SpatialRelation = "WITHIN"
	RelationTouches    SpatialRelation = "TOUCHES"
	RelationCrosses    SpatialRelation = "CROSSES"
	RelationOverlaps   SpatialRelation = "OVERLAPS"
	RelationNearest    SpatialRelation = "NEAREST"
	RelationDirect     SpatialRelation = "DIRECT"

	// RelationInnerAgg changed levels inside one layer. It is rejected by the resolver.
	RelationInnerAgg SpatialRelation = "INNERAGG"
)

var relationAliases = map[string]SpatialRelation{
	"INNER-AGGREGATION": RelationInnerAgg,
	"INNER_AGGREGATION": RelationInnerAgg,
	"INNER_AGG":         RelationInnerAgg,
}

// ParseSpatialRelation normalizes case and the inner-aggregation aliases.
func ParseSpatialRelation(s string) SpatialRelation {
	up := strings.ToUpper(strings.TrimSpace(s))
	if r, ok := relationAliases[up]; ok {
		return r
	}
	return SpatialRelation(up)
}

// Valid reports whether r is one of the known relations. The empty relation
// is valid: abstract links often omit it.
func (r SpatialRelation) Valid() bool {
	switch r {
	case "", RelationIntersects, RelationContains, RelationWithin, RelationTouches,
		RelationCrosses, RelationOverlaps, RelationNearest, RelationDirect, RelationInnerAgg:
		return true
	}
	return false
}

func (r *SpatialRelation) UnmarshalText(b []byte) error {
	*r = ParseSpatialRelation(string(b))
	return nil
}
