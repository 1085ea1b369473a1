// Package loader reads and decodes every discovered class file into an
// immutable snapshot of descriptors.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/classgraph/internal/classfile"
	"github.com/olehluchkiv/classgraph/internal/model"
	"github.com/olehluchkiv/classgraph/internal/resolver"
)

// InputError reports a source that could not be read or decoded.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Load decodes src.Paths with at most workers files in flight (0 means one per
// CPU). Descriptors come back in the same order as src.Paths. The first failure
// cancels the remaining reads and is returned as an *InputError.
func Load(ctx context.Context, src *resolver.Sources, workers int, logger *slog.Logger) ([]model.ClassDescriptor, error) {
	logger = logger.With("component", "loader")

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(src.Paths) {
		workers = len(src.Paths)
	}

	descs := make([]model.ClassDescriptor, len(src.Paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, p := range src.Paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := readOne(src.FS, p)
			if err != nil {
				return &InputError{Path: src.Display(p), Err: err}
			}
			d.Source = src.Display(p)
			descs[i] = *d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("classes loaded", "count", len(descs), "workers", workers)
	return descs, nil
}

func readOne(fsys fs.FS, p string) (*model.ClassDescriptor, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return classfile.NewReader().Read(f)
}
