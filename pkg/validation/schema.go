package validation

import (
	"fmt"

	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
)

// ValidateSchema performs structural validation of a parsed grammar. It
// looks at the grammar alone, before any layer is loaded.
func ValidateSchema(g *spec.Grammar) *Report {
	r := NewReport()

	if len(g.Knots) == 0 && len(g.ExKnots) == 0 {
		r.AddWarning(Result{
			Level:   LevelSchema,
			Message: "grammar declares no knots",
			Path:    "knots",
		})
	}

	validateKnotIDs(g, r)
	for i, k := range g.Knots {
		validateKnot(fmt.Sprintf("knots[%d]", i), k, r)
	}
	for i, ex := range g.ExKnots {
		validateExKnot(fmt.Sprintf("ex_knots[%d]", i), ex, r)
	}

	return r
}

func validateKnotIDs(g *spec.Grammar, r *Report) {
	seen := make(map[string]string)
	check := func(path, id string) {
		if id == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  "knot id must not be empty",
				Path:     path + ".id",
				Expected: "non-empty id",
			})
			return
		}
		if prev, ok := seen[id]; ok {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("knot id %q is already used by %s", id, prev),
				Path:        path + ".id",
				ActualValue: id,
				Expected:    "unique id",
			})
			return
		}
		seen[id] = path
	}

	for i, k := range g.Knots {
		check(fmt.Sprintf("knots[%d]", i), k.ID)
	}
	for i, ex := range g.ExKnots {
		check(fmt.Sprintf("ex_knots[%d]", i), ex.ID)
	}
}

func validateKnot(path string, k spec.Knot, r *Report) {
	if len(k.IntegrationScheme) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Kind:     linkerr.KindChain,
			Message:  fmt.Sprintf("knot %q has an empty integration_scheme", k.ID),
			Path:     path + ".integration_scheme",
			Expected: "at least one link",
		})
	}

	for i, link := range k.IntegrationScheme {
		validateLink(fmt.Sprintf("%s.integration_scheme[%d]", path, i), link, r)
	}

	if len(k.Range) != 0 && len(k.Range) != 2 {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("knot %q range should hold [min, max]", k.ID),
			Path:        path + ".range",
			ActualValue: k.Range,
		})
	}
	if len(k.Domain) == 2 && k.Domain[0] >= k.Domain[1] {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("knot %q domain is empty or reversed", k.ID),
			Path:        path + ".domain",
			ActualValue: k.Domain,
			Expected:    "domain[0] < domain[1]",
		})
	}
}

func validateLink(path string, link spec.LinkDescription, r *Report) {
	if link.Out.Name == "" {
		r.AddError(Result{
			Level:   LevelSchema,
			Message: "link has no out layer",
			Path:    path + ".out.name",
		})
	}
	if !link.Out.Level.Valid() {
		r.AddError(Result{
			Level:       LevelSchema,
			Kind:        linkerr.KindLevel,
			Message:     fmt.Sprintf("unknown geometry level %q", link.Out.Level),
			Path:        path + ".out.level",
			ActualValue: link.Out.Level,
			Expected:    "COORDINATES, COORDINATES3D or OBJECTS",
		})
	}
	if link.In != nil && !link.In.Level.Valid() {
		r.AddError(Result{
			Level:       LevelSchema,
			Kind:        linkerr.KindLevel,
			Message:     fmt.Sprintf("unknown geometry level %q", link.In.Level),
			Path:        path + ".in.level",
			ActualValue: link.In.Level,
			Expected:    "COORDINATES, COORDINATES3D or OBJECTS",
		})
	}
	if !link.Operation.Valid() {
		r.AddError(Result{
			Level:       LevelSchema,
			Kind:        linkerr.KindOperator,
			Message:     fmt.Sprintf("unknown operation %q", link.Operation),
			Path:        path + ".operation",
			ActualValue: link.Operation,
			Expected:    "MAX, MIN, AVG, SUM, COUNT, DISCARD or NONE",
		})
	}
	if !link.SpatialRelation.Valid() {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("unknown spatial relation %q", link.SpatialRelation),
			Path:        path + ".spatial_relation",
			ActualValue: link.SpatialRelation,
		})
	}
	if link.MaxDistance != nil && *link.MaxDistance <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "maxDistance must be > 0",
			Path:        path + ".maxDistance",
			ActualValue: *link.MaxDistance,
			Expected:    "> 0",
		})
	}
	if link.MaxDistance != nil && link.SpatialRelation != spec.RelationNearest {
		r.AddWarning(Result{
			Level:   LevelSchema,
			Message: fmt.Sprintf("maxDistance only applies to NEAREST joins, relation is %q", link.SpatialRelation),
			Path:    path + ".maxDistance",
		})
	}
}

func validateExKnot(path string, ex spec.ExKnot, r *Report) {
	if ex.OutName == "" {
		r.AddError(Result{
			Level:   LevelSchema,
			Message: fmt.Sprintf("external knot %q has no out_name", ex.ID),
			Path:    path + ".out_name",
		})
	}
	if ex.InName == "" {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("external knot %q has no in_name and will resolve to no values", ex.ID),
			Path:        path + ".in_name",
			Suggestions: []string{"Set in_name to one of the incomingId entries of the layer's external file"},
		})
	}
}
