// Package pipeline runs one complete resolve, load, analyze, render and write
// pass over an input.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/config"
	"github.com/olehluchkiv/classgraph/internal/diagram"
	"github.com/olehluchkiv/classgraph/internal/loader"
	"github.com/olehluchkiv/classgraph/internal/output"
	"github.com/olehluchkiv/classgraph/internal/resolver"
)

// Summary describes a completed run.
type Summary struct {
	Input         string
	Output        string
	Format        diagram.Format
	ClassFiles    int
	Classes       int
	Packages      int
	Relationships int
	Skipped       analyzer.SkipCounts
	Elapsed       time.Duration
}

// Rendered is a graph in text form plus the analysis it was rendered from.
type Rendered struct {
	Text       string
	Result     *analyzer.Result
	ClassFiles int
}

// Render resolves input and renders it. Nothing is written.
func Render(ctx context.Context, input string, cfg *config.Config, logger *slog.Logger) (*Rendered, error) {
	logger = logger.With("component", "pipeline")

	// Step 1: Discover class files.
	logger.Info("resolving input", "input", input)
	src, cleanup, err := resolver.Resolve(ctx, input, cfg.ResolverOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	defer cleanup()

	// Step 2: Decode every class file.
	descs, err := loader.Load(ctx, src, cfg.Scan.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	// Step 3: Build the hierarchy, identifiers and relationships.
	result := analyzer.Analyze(descs, cfg.AnalyzeOptions(), logger)

	// Step 4: Render.
	r, err := diagram.New(cfg.DiagramFormat(), cfg.DiagramOptions())
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &Rendered{
		Text:       r.Render(result.Table, result.Relationships),
		Result:     result,
		ClassFiles: len(src.Paths),
	}, nil
}

// Run renders input and writes the result to cfg.OutputPath(). The destination is
// only touched once rendering has fully succeeded.
func Run(ctx context.Context, input string, cfg *config.Config, logger *slog.Logger) (*Summary, error) {
	start := time.Now()

	out, err := Render(ctx, input, cfg, logger)
	if err != nil {
		return nil, err
	}

	dest := cfg.OutputPath()
	if err := output.WriteFile(dest, []byte(out.Text), 0o644); err != nil {
		return nil, err
	}

	s := &Summary{
		Input:         input,
		Output:        dest,
		Format:        cfg.DiagramFormat(),
		ClassFiles:    out.ClassFiles,
		Classes:       out.Result.Table.Len(),
		Packages:      len(out.Result.Table.Packages()),
		Relationships: len(out.Result.Relationships),
		Skipped:       out.Result.Skipped,
		Elapsed:       time.Since(start),
	}
	logger.Info("output written",
		"component", "pipeline",
		"output", s.Output,
		"format", s.Format,
		"classes", s.Classes,
		"relationships", s.Relationships,
		"elapsed", s.Elapsed)
	return s, nil
}
