package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"

	"github.com/sajal1123/curio/internal/config"
	"github.com/sajal1123/curio/internal/server"
	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/loader"
	"github.com/sajal1123/curio/pkg/resolve"
	"github.com/sajal1123/curio/pkg/scene"
	"github.com/sajal1123/curio/pkg/scene2d"
	"github.com/sajal1123/curio/pkg/validation"
)

// setup loads the project configuration and applies flag overrides.
// Logs go to stderr so command output on stdout stays machine-readable.
func setup(projectPath string, flags *globalFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(projectPath)
	if err != nil {
		return cfg, nil, err
	}
	if flags.logLevel != "" {
		if _, err := config.ParseLevel(flags.logLevel); err != nil {
			return cfg, nil, err
		}
		cfg.Log.Level = flags.logLevel
	}
	return cfg, cfg.NewLogger(os.Stderr), nil
}

// openProject loads the grammar and layers of a project.
func openProject(ctx context.Context, projectPath string, flags *globalFlags) (*loader.Project, *slog.Logger, error) {
	cfg, logger, err := setup(projectPath, flags)
	if err != nil {
		return nil, nil, err
	}
	p, err := loader.OpenProject(ctx, projectPath, cfg.ProjectOptions(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("loading project: %w", err)
	}
	return p, logger, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runResolve(ctx context.Context, projectPath, knotID string, flags *globalFlags) error {
	p, logger, err := openProject(ctx, projectPath, flags)
	if err != nil {
		return err
	}
	r := resolve.New(p.Registry, resolve.WithLogger(logger))

	if knotID == "" {
		results, err := r.ResolveAll(p.Grammar)
		if err != nil {
			return err
		}
		return writeJSON(results)
	}

	if k := p.Grammar.KnotByID(knotID); k != nil {
		res, err := r.ResolveKnot(*k)
		if err != nil {
			return err
		}
		return writeJSON(res)
	}
	for _, ex := range p.Grammar.ExKnots {
		if ex.ID == knotID {
			res, err := r.ResolveExKnot(ex)
			if err != nil {
				return err
			}
			return writeJSON(res)
		}
	}
	return fmt.Errorf("knot %q not found in grammar", knotID)
}

func runValidate(ctx context.Context, projectPath string, flags *globalFlags) error {
	p, _, err := openProject(ctx, projectPath, flags)
	if err != nil {
		return err
	}

	report := validation.ValidateProject(p.Grammar, p.Registry)
	printValidationReport(os.Stdout, report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func runLayers(ctx context.Context, projectPath string, flags *globalFlags) error {
	p, _, err := openProject(ctx, projectPath, flags)
	if err != nil {
		return err
	}

	summaries := make([]layer.Summary, 0, p.Registry.Len())
	for _, l := range p.Registry.All() {
		summaries = append(summaries, layer.Summarize(l))
	}
	printLayerTable(os.Stdout, summaries)
	return nil
}

type sceneOptions struct {
	bbox     string
	plan     bool
	timestep int
}

func runScene(ctx context.Context, projectPath string, opts sceneOptions, flags *globalFlags) error {
	filter, err := geo.ParseBBox2D(opts.bbox)
	if err != nil {
		return err
	}
	p, logger, err := openProject(ctx, projectPath, flags)
	if err != nil {
		return err
	}

	results, err := resolve.New(p.Registry, resolve.WithLogger(logger)).ResolveAll(p.Grammar)
	if err != nil {
		return err
	}
	sc, err := scene.Assemble(p.Registry, p.Grammar, results, scene.Options{Filter: filter})
	if err != nil {
		return err
	}

	report := scene.ValidateScene(sc)
	if !report.Valid {
		printValidationReport(os.Stderr, report)
		return fmt.Errorf("assembled scene failed validation")
	}

	if opts.plan {
		plan, err := scene2d.Assemble2D(p.Registry, sc, opts.timestep)
		if err != nil {
			return err
		}
		return writeJSON(plan)
	}

	return writeJSON(map[string]any{
		"scene":      sc,
		"validation": report,
	})
}

func runServe(ctx context.Context, projectPath string, port int, flags *globalFlags) error {
	cfg, logger, err := setup(projectPath, flags)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	srv, err := server.New(ctx, projectPath, cfg, logger)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
