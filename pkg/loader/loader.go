// Package loader reads a project's layer files into a layer registry.
//
// A project directory holds the grammar and a layers directory with, per
// layer id:
//
//	<id>.json           descriptor and features ({"id", "type", "styleKey", "data": [...]})
//	<id>_joined.json    optional join index ({"joinedLayers", "joinedObjects"})
//	<id>_external.json  optional external values ({"id", "incomingId", "inValues"})
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/sajal1123/curio/pkg/join"
	"github.com/sajal1123/curio/pkg/layer"
)

// DefaultLayersDir is the layers directory relative to the project.
const DefaultLayersDir = "layers"

const (
	joinedSuffix   = "_joined.json"
	externalSuffix = "_external.json"
)

// File is one decoded layer with its optional join data.
type File struct {
	Descriptor layer.Descriptor
	Joins      *join.Index
	External   *join.External
}

// Options controls Load.
type Options struct {
	// Dir is the layers directory.
	Dir string
	// IDs restricts and orders the layers to load. Empty loads every layer
	// file in the directory, sorted by id.
	IDs []string
	// Concurrency bounds parallel decoding. Zero means unbounded.
	Concurrency int
	Logger      *slog.Logger
}

// Load decodes the layer files concurrently and inserts them into reg in
// order, so z-orders follow opts.IDs (or file name order). A decoding
// failure aborts before the registry is touched; a rejected descriptor
// stops insertion and the layers inserted so far are returned.
func Load(ctx context.Context, reg *layer.Registry, opts Options) ([]layer.Layer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ids := opts.IDs
	if len(ids) == 0 {
		var err error
		ids, err = ListIDs(opts.Dir)
		if err != nil {
			return nil, err
		}
	}

	files := make([]*File, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := ReadLayer(opts.Dir, id)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	layers := make([]layer.Layer, 0, len(files))
	for _, f := range files {
		l, err := reg.Create(f.Descriptor, f.Descriptor.Data)
		if err != nil {
			return layers, fmt.Errorf("loading layer %q: %w", f.Descriptor.ID, err)
		}
		l.SetJoins(f.Joins)
		l.SetExternal(f.External)
		layers = append(layers, l)

		logger.Info("layer loaded",
			"layer", l.ID(),
			"type", string(l.Type()),
			"components", l.Mesh().NumComponents(),
			"joins", f.Joins != nil,
			"external", f.External != nil,
		)
	}
	return layers, nil
}

// ListIDs returns the ids of every layer file in dir, sorted.
func ListIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading layers directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if strings.HasSuffix(name, joinedSuffix) || strings.HasSuffix(name, externalSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadLayer decodes the files of layer id in dir. The descriptor id
// defaults to the file name when the file omits it.
func ReadLayer(dir, id string) (*File, error) {
	f := &File{}
	if err := readJSON(filepath.Join(dir, id+".json"), &f.Descriptor); err != nil {
		return nil, fmt.Errorf("layer %q: %w", id, err)
	}
	if f.Descriptor.ID == "" {
		f.Descriptor.ID = id
	}
	if f.Descriptor.ID != id {
		return nil, fmt.Errorf("layer %q: file declares id %q", id, f.Descriptor.ID)
	}

	var ix join.Index
	switch err := readJSON(filepath.Join(dir, id+joinedSuffix), &ix); {
	case err == nil:
		if err := ix.Validate(); err != nil {
			return nil, fmt.Errorf("layer %q joins: %w", id, err)
		}
		f.Joins = &ix
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("layer %q joins: %w", id, err)
	}

	var ext join.External
	switch err := readJSON(filepath.Join(dir, id+externalSuffix), &ext); {
	case err == nil:
		f.External = &ext
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("layer %q external values: %w", id, err)
	}

	return f, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
