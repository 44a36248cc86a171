package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/spec"
	"github.com/sajal1123/curio/pkg/validation"
)

func printResults(w io.Writer, title string, results []validation.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(results))
	for _, e := range results {
		if e.Kind != "" {
			fmt.Fprintf(w, "  [%s/%s] %s\n", e.Level, e.Kind, e.Message)
		} else {
			fmt.Fprintf(w, "  [%s] %s\n", e.Level, e.Message)
		}
		if e.Path != "" {
			if e.ActualValue != nil {
				fmt.Fprintf(w, "    -> %s = %v\n", e.Path, e.ActualValue)
			} else {
				fmt.Fprintf(w, "    -> %s\n", e.Path)
			}
		}
		if e.Expected != "" {
			fmt.Fprintf(w, "    expected: %s\n", e.Expected)
		}
		for _, s := range e.Suggestions {
			fmt.Fprintf(w, "    * %s\n", s)
		}
	}
	fmt.Fprintln(w)
}

func printValidationReport(w io.Writer, r *validation.Report) {
	printResults(w, "ERRORS", r.Errors)
	printResults(w, "WARNINGS", r.Warnings)

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printLayerTable(w io.Writer, summaries []layer.Summary) {
	fmt.Fprintf(w, "%-3s %-20s %-20s %8s %14s %10s %6s  %s\n",
		"Z", "Layer", "Type", "Objects", "Coordinates3D", "Coords", "Joins", "External")
	fmt.Fprintf(w, "%-3s %-20s %-20s %8s %14s %10s %6s  %s\n",
		"---", "--------------------", "--------------------", "--------", "--------------", "----------", "------", "--------")

	for _, s := range summaries {
		fmt.Fprintf(w, "%-3d %-20s %-20s %8s %14s %10s %6d  %s\n",
			s.ZOrder, s.ID, s.Type,
			count(s, spec.LevelObjects),
			count(s, spec.LevelCoordinates3D),
			count(s, spec.LevelCoordinates),
			s.Joins,
			strings.Join(s.External, ","))
	}
}

// count renders an element count, or "-" when the layer rejects the level.
func count(s layer.Summary, level spec.Level) string {
	n, ok := s.Elements[level]
	if !ok {
		return "-"
	}
	return fmt.Sprint(n)
}
