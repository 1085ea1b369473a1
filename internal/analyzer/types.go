package analyzer

import "github.com/olehluchkiv/classgraph/internal/model"

// Hierarchy is the name-keyed view of the analyzed class set.
type Hierarchy struct {
	Classes  map[string]*model.ClassDescriptor   // qualified name -> descriptor
	ParentOf map[string]string                   // child name -> parent name, both analyzed
	Packages map[string][]*model.ClassDescriptor // package name -> members, unordered
}

// PackageEntry is one package in the sorted index space.
type PackageEntry struct {
	Name    string
	Classes []*model.ClassDescriptor // sorted by Name
}

// Result holds the complete analysis output.
type Result struct {
	Hierarchy     *Hierarchy
	Table         *IdentifierTable
	Relationships []model.Relationship
	Skipped       SkipCounts
}

// SkipCounts records how many loaded classes Filter removed and why.
type SkipCounts struct {
	Module     int // module-info descriptors
	Nested     int
	Package    int
	Duplicates []string // names seen more than once; the first occurrence is kept
}

// AnalyzeOptions controls analysis behavior.
type AnalyzeOptions struct {
	Packages        []string // package prefix filter (dotted or internal form); empty keeps all
	NestedHeuristic bool     // also treat names containing '$' as nested
}

// DefaultAnalyzeOptions returns the options matching the historical behavior.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{NestedHeuristic: true}
}
