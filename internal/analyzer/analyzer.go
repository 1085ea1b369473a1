// Package analyzer turns a snapshot of class descriptors into a sorted
// identifier space and the typed relationships between analyzed classes.
package analyzer

import (
	"log/slog"

	"github.com/olehluchkiv/classgraph/internal/model"
)

// Analyze filters descs, builds the hierarchy and identifier table, and extracts
// relationships. descs is not modified; nothing in the result changes afterwards.
func Analyze(descs []model.ClassDescriptor, opts AnalyzeOptions, logger *slog.Logger) *Result {
	logger = logger.With("component", "analyzer")

	kept, skipped := Filter(descs, opts)
	logger.Info("classes selected",
		"loaded", len(descs),
		"analyzed", len(kept),
		"module_skipped", skipped.Module,
		"nested_skipped", skipped.Nested,
		"package_skipped", skipped.Package)
	for _, name := range skipped.Duplicates {
		logger.Warn("duplicate class, keeping first occurrence", "class", name)
	}

	h := BuildHierarchy(kept)
	table := AssignIndices(h)
	logger.Debug("identifiers assigned", "packages", len(table.Packages()), "classes", table.Len())

	rels := ExtractRelationships(h, table)
	counts := CountByKind(rels)
	logger.Info("analysis complete",
		"relationships", len(rels),
		"extends", counts[model.Extends],
		"implements", counts[model.Implements],
		"calls", counts[model.Calls],
		"refers_to_literal", counts[model.RefersToLiteral])

	return &Result{
		Hierarchy:     h,
		Table:         table,
		Relationships: rels,
		Skipped:       skipped,
	}
}
