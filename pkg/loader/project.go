package loader

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/spec"
)

// Project is a grammar together with the registry holding its layers.
type Project struct {
	Dir      string
	Grammar  *spec.Grammar
	Registry *layer.Registry
	Layers   []layer.Layer
}

// ProjectOptions controls OpenProject. Empty fields take the defaults.
type ProjectOptions struct {
	GrammarFile string
	LayersDir   string
	Concurrency int
	Logger      *slog.Logger
}

// OpenProject parses the grammar in dir and loads its layers into a fresh
// registry. Layers named by the grammar are loaded in grammar order;
// without a list every file in the layers directory is loaded.
func OpenProject(ctx context.Context, dir string, opts ProjectOptions) (*Project, error) {
	if opts.GrammarFile == "" {
		opts.GrammarFile = spec.DefaultGrammarFile
	}
	if opts.LayersDir == "" {
		opts.LayersDir = DefaultLayersDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g, err := spec.LoadProjectFile(dir, opts.GrammarFile)
	if err != nil {
		return nil, err
	}

	layersDir := opts.LayersDir
	if !filepath.IsAbs(layersDir) {
		layersDir = filepath.Join(dir, layersDir)
	}

	reg := layer.NewRegistry(layer.WithLogger(logger))
	layers, err := Load(ctx, reg, Options{
		Dir:         layersDir,
		IDs:         g.Layers,
		Concurrency: opts.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("project opened", "dir", dir, "layers", len(layers), "knots", len(g.Knots), "ex_knots", len(g.ExKnots))
	return &Project{Dir: dir, Grammar: g, Registry: reg, Layers: layers}, nil
}
