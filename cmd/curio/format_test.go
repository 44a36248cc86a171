package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/spec"
	"github.com/sajal1123/curio/pkg/validation"
)

func TestPrintValidationReport(t *testing.T) {
	r := validation.NewReport()
	r.AddError(validation.Result{
		Level:       validation.LevelChain,
		Kind:        linkerr.KindOperator,
		Message:     "operation cannot reduce",
		Path:        "knots[0].integration_scheme[1].operation",
		ActualValue: "NONE",
		Suggestions: []string{"use AVG"},
	})

	var buf bytes.Buffer
	printValidationReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"ERRORS (1):",
		"[chain/operator] operation cannot reduce",
		"-> knots[0].integration_scheme[1].operation = NONE",
		"* use AVG",
		"Result: INVALID",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintLayerTable(t *testing.T) {
	var buf bytes.Buffer
	printLayerTable(&buf, []layer.Summary{{
		ID:       "buildings",
		Type:     layer.TypeBuildings,
		ZOrder:   3,
		Elements: map[spec.Level]int{spec.LevelObjects: 2, spec.LevelCoordinates3D: 12},
		Joins:    1,
		External: []string{"shadow"},
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and 1 row, got %d lines", len(lines))
	}
	row := strings.Fields(lines[2])
	want := []string{"3", "buildings", "BUILDINGS_LAYER", "2", "12", "-", "1", "shadow"}
	if strings.Join(row, " ") != strings.Join(want, " ") {
		t.Errorf("row = %v, want %v", row, want)
	}
}
