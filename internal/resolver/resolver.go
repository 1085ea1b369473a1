package resolver

import (
	"archive/zip"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options selects which files under the input are class files.
type Options struct {
	Include []string // doublestar patterns, slash-separated, relative to the input root
	Exclude []string
}

// DefaultOptions matches every .class file except those under META-INF,
// where multi-release jars keep their per-version copies.
func DefaultOptions() Options {
	return Options{
		Include: []string{"**/*.class"},
		Exclude: []string{"META-INF/**"},
	}
}

// Matches reports whether a slash-separated path relative to the input root
// would be discovered.
func (o Options) Matches(rel string) bool {
	if excluded(rel, o.Exclude) {
		return false
	}
	for _, p := range o.Include {
		if ok, _ := doublestar.Match(path.Clean(p), rel); ok {
			return true
		}
	}
	return false
}

// Sources is the discovered input: a file system plus the sorted class file
// paths within it.
type Sources struct {
	Root    string // absolute input path
	Archive bool   // Root is a jar or zip file
	FS      fs.FS
	Paths   []string
}

// Display returns a human-readable location for a path in the sources.
func (s *Sources) Display(p string) string {
	if s.Archive {
		return s.Root + "!/" + p
	}
	return filepath.Join(s.Root, filepath.FromSlash(p))
}

// IsArchive reports whether name looks like a jar or zip file.
func IsArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jar", ".zip":
		return true
	}
	return false
}

// Resolve takes an input (a directory or a jar) and returns the class files it
// contains, plus a cleanup function that releases any open archive.
func Resolve(ctx context.Context, input string, opts Options, logger *slog.Logger) (src *Sources, cleanup func(), err error) {
	cleanup = func() {} // default no-op

	if err := validatePatterns(opts); err != nil {
		return nil, cleanup, err
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return nil, cleanup, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, cleanup, fmt.Errorf("stat %s: %w", absPath, err)
	}

	src = &Sources{Root: absPath}
	switch {
	case info.IsDir():
		src.FS = os.DirFS(absPath)
	case IsArchive(absPath):
		rc, err := zip.OpenReader(absPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("opening archive %s: %w", absPath, err)
		}
		cleanup = func() { _ = rc.Close() }
		src.FS = &rc.Reader
		src.Archive = true
	default:
		return nil, cleanup, fmt.Errorf("%s is not a directory or jar archive", absPath)
	}

	paths, err := discover(ctx, src.FS, opts)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	src.Paths = paths

	logger.Info("resolved input",
		"component", "resolver",
		"input", input,
		"root", absPath,
		"archive", src.Archive,
		"class_files", len(paths))

	return src, cleanup, nil
}

func validatePatterns(opts Options) error {
	if len(opts.Include) == 0 {
		return fmt.Errorf("no include patterns")
	}
	for _, group := range [][]string{opts.Include, opts.Exclude} {
		for _, p := range group {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("invalid pattern %q: %w", p, doublestar.ErrBadPattern)
			}
		}
	}
	return nil
}

// discover globs every include pattern, drops excluded paths, and returns the
// de-duplicated result in lexical order.
func discover(ctx context.Context, fsys fs.FS, opts Options) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range opts.Include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(fsys, path.Clean(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || excluded(m, opts.Exclude) {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		// Patterns were validated, so Match cannot fail here.
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
