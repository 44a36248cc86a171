package validation

import (
	"errors"
	"fmt"

	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
)

// ValidateChain checks a join chain without computing any values and
// reports every problem found, where the resolver stops at the first one.
// With a nil registry only the chain rules are checked.
func ValidateChain(path string, chain []spec.LinkDescription, reg *layer.Registry) *Report {
	r := NewReport()

	if len(chain) == 0 {
		r.AddError(Result{
			Level:    LevelChain,
			Kind:     linkerr.KindChain,
			Message:  "join chain is empty",
			Path:     path,
			Expected: "at least one link",
		})
		return r
	}
	if !chain[0].Abstract {
		r.AddError(Result{
			Level:       LevelChain,
			Kind:        linkerr.KindChain,
			Message:     "the first link must pull values from an abstract layer",
			Path:        path + "[0].abstract",
			ActualValue: false,
			Expected:    "true",
		})
	}

	for i, link := range chain {
		lp := fmt.Sprintf("%s[%d]", path, i)
		validateChainLink(lp, i, chain, r)
		if reg != nil {
			validateLinkData(lp, link, reg, r)
		}
	}
	return r
}

func validateChainLink(lp string, i int, chain []spec.LinkDescription, r *Report) {
	link := chain[i]

	if link.SpatialRelation == spec.RelationInnerAgg {
		r.AddError(Result{
			Level:       LevelChain,
			Kind:        linkerr.KindChain,
			Message:     "inner aggregation is no longer supported",
			Path:        lp + ".spatial_relation",
			ActualValue: link.SpatialRelation,
			Suggestions: []string{"Precompute the level change as a join between two layers"},
		})
	}
	if link.Abstract {
		return
	}

	if link.In == nil {
		r.AddError(Result{
			Level:   LevelChain,
			Kind:    linkerr.KindChain,
			Message: "physical link has no in layer",
			Path:    lp + ".in",
		})
		return
	}
	if link.In.Name == link.Out.Name {
		r.AddError(Result{
			Level:       LevelChain,
			Kind:        linkerr.KindChain,
			Message:     fmt.Sprintf("physical link joins layer %q to itself", link.Out.Name),
			Path:        lp + ".in.name",
			ActualValue: link.In.Name,
		})
	}
	if !link.Operation.Reduces() {
		r.AddError(Result{
			Level:       LevelChain,
			Kind:        linkerr.KindOperator,
			Message:     fmt.Sprintf("operation %q cannot reduce joined values", link.Operation),
			Path:        lp + ".operation",
			ActualValue: link.Operation,
			Expected:    "MAX, MIN, AVG, SUM, COUNT or DISCARD",
		})
	}
	if i > 0 && chain[i-1].Out.Name != link.In.Name {
		r.AddError(Result{
			Level:       LevelChain,
			Kind:        linkerr.KindChain,
			Message:     fmt.Sprintf("in layer %q does not hold the values of the previous link (%q)", link.In.Name, chain[i-1].Out.Name),
			Path:        lp + ".in.name",
			ActualValue: link.In.Name,
			Expected:    chain[i-1].Out.Name,
		})
	}
}

func levelResult(lp string, err error) Result {
	res := Result{
		Level:   LevelData,
		Kind:    linkerr.KindOf(err),
		Message: err.Error(),
		Path:    lp,
	}
	var le *linkerr.Error
	if errors.As(err, &le) && le.Msg != "" {
		res.Message = fmt.Sprintf("%s: %s", le.Err, le.Msg)
	}
	return res
}

func validateLinkData(lp string, link spec.LinkDescription, reg *layer.Registry, r *Report) {
	out, ok := reg.FindByID(link.Out.Name)
	if !ok {
		r.AddError(Result{
			Level:       LevelData,
			Kind:        linkerr.KindNotFound,
			Message:     fmt.Sprintf("layer %q not found", link.Out.Name),
			Path:        lp + ".out.name",
			ActualValue: link.Out.Name,
		})
		return
	}
	if err := out.CheckLevel(link.Out.Level); err != nil {
		r.AddError(levelResult(lp+".out.level", err))
		return
	}

	var in layer.Layer
	if !link.Abstract && link.In != nil && link.In.Name != link.Out.Name {
		in, ok = reg.FindByID(link.In.Name)
		if !ok {
			r.AddError(Result{
				Level:       LevelData,
				Kind:        linkerr.KindNotFound,
				Message:     fmt.Sprintf("layer %q not found", link.In.Name),
				Path:        lp + ".in.name",
				ActualValue: link.In.Name,
			})
		} else if err := in.CheckLevel(link.In.Level); err != nil {
			r.AddError(levelResult(lp+".in.level", err))
			in = nil
		}
	}

	jo, ok := out.Joins().Lookup(link)
	if !ok {
		r.AddError(Result{
			Level:       LevelData,
			Kind:        linkerr.KindNotFound,
			Message:     fmt.Sprintf("layer %q has no join result for %s", out.ID(), link),
			Path:        lp,
			Suggestions: []string{"Regenerate the joined file of the out layer for this link"},
		})
		return
	}

	n, _ := out.ElementCount(link.Out.Level)
	switch {
	case link.Abstract && !jo.HasValues():
		r.AddError(Result{
			Level:   LevelData,
			Kind:    linkerr.KindNotFound,
			Message: "abstract join result carries no inValues",
			Path:    lp,
		})
	case link.Abstract && len(jo.InValues) != n:
		r.AddError(Result{
			Level:       LevelData,
			Kind:        linkerr.KindShape,
			Message:     fmt.Sprintf("%d values for %d %s elements of %q", len(jo.InValues), n, link.Out.Level, out.ID()),
			Path:        lp,
			ActualValue: len(jo.InValues),
			Expected:    fmt.Sprint(n),
		})
	case !link.Abstract && !jo.HasIDs():
		r.AddError(Result{
			Level:   LevelData,
			Kind:    linkerr.KindNotFound,
			Message: "physical join result carries no inIds",
			Path:    lp,
		})
	case !link.Abstract && len(jo.InIDs) != n:
		r.AddError(Result{
			Level:       LevelData,
			Kind:        linkerr.KindShape,
			Message:     fmt.Sprintf("%d id lists for %d %s elements of %q", len(jo.InIDs), n, link.Out.Level, out.ID()),
			Path:        lp,
			ActualValue: len(jo.InIDs),
			Expected:    fmt.Sprint(n),
		})
	case !link.Abstract && in != nil:
		validateJoinedIDs(lp, jo.InIDs, in, link.In.Level, r)
	}
}

// validateJoinedIDs reports the first id that falls outside the in layer.
func validateJoinedIDs(lp string, ids [][]int, in layer.Layer, level spec.Level, r *Report) {
	matched := 0
	for e, list := range ids {
		for _, id := range list {
			if _, err := in.FunctionValueIndex(id, level); err != nil {
				r.AddError(Result{
					Level:       LevelData,
					Kind:        linkerr.KindShape,
					Message:     fmt.Sprintf("element %d references %s id %d outside layer %q", e, level, id, in.ID()),
					Path:        lp + ".inIds",
					ActualValue: id,
				})
				return
			}
		}
		if len(list) > 0 {
			matched++
		}
	}

	if matched == 0 && len(ids) > 0 {
		r.AddWarning(Result{
			Level:   LevelData,
			Message: "no element matched anything; the link resolves to the null placeholder everywhere",
			Path:    lp + ".inIds",
		})
	}
}

// ValidateProject validates the grammar and every knot against reg.
func ValidateProject(g *spec.Grammar, reg *layer.Registry) *Report {
	r := ValidateSchema(g)

	for i, k := range g.Knots {
		if len(k.IntegrationScheme) == 0 {
			continue
		}
		r.Merge(ValidateChain(fmt.Sprintf("knots[%d].integration_scheme", i), k.IntegrationScheme, reg))
	}

	if reg == nil {
		return r
	}
	for i, ex := range g.ExKnots {
		path := fmt.Sprintf("ex_knots[%d]", i)
		l, ok := reg.FindByID(ex.OutName)
		if !ok {
			r.AddError(Result{
				Level:       LevelData,
				Kind:        linkerr.KindNotFound,
				Message:     fmt.Sprintf("layer %q not found", ex.OutName),
				Path:        path + ".out_name",
				ActualValue: ex.OutName,
			})
			continue
		}
		if _, ok := l.External().Values(ex.InName); !ok {
			r.AddWarning(Result{
				Level:   LevelData,
				Message: fmt.Sprintf("layer %q has no external values from %q", ex.OutName, ex.InName),
				Path:    path + ".in_name",
			})
		}
	}

	r.AddInfo(Result{
		Level:   LevelData,
		Message: fmt.Sprintf("%d layers, %d knots, %d external knots checked", reg.Len(), len(g.Knots), len(g.ExKnots)),
	})
	return r
}
