package analyzer

import (
	"strings"

	"github.com/olehluchkiv/classgraph/internal/model"
)

// Filter selects the classes that take part in the analysis. Module
// descriptors, nested classes, classes outside the package filter and repeated
// names are dropped; input order is preserved, so the first occurrence of a
// duplicated name wins.
func Filter(descs []model.ClassDescriptor, opts AnalyzeOptions) ([]model.ClassDescriptor, SkipCounts) {
	var skipped SkipCounts
	prefixes := normalizePrefixes(opts.Packages)
	seen := make(map[string]bool, len(descs))
	reported := make(map[string]bool)

	out := make([]model.ClassDescriptor, 0, len(descs))
	for _, d := range descs {
		if d.Module {
			skipped.Module++
			continue
		}
		if IsNested(d, opts.NestedHeuristic) {
			skipped.Nested++
			continue
		}
		if !inPackages(d.Name, prefixes) {
			skipped.Package++
			continue
		}
		if seen[d.Name] {
			if !reported[d.Name] {
				reported[d.Name] = true
				skipped.Duplicates = append(skipped.Duplicates, d.Name)
			}
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out, skipped
}

// IsNested reports whether a class is a nested, inner, local or anonymous
// class. The class file's own marker is authoritative; the name heuristic
// covers class files compiled without InnerClasses or NestHost attributes.
func IsNested(d model.ClassDescriptor, heuristic bool) bool {
	if d.Nested {
		return true
	}
	return heuristic && strings.Contains(model.SimpleName(d.Name), model.NestingMarker)
}

func normalizePrefixes(pkgs []string) []string {
	var out []string
	for _, p := range pkgs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, strings.TrimSuffix(model.InternalName(p), model.Separator))
	}
	return out
}

// inPackages matches whole package components: "com/acme" keeps
// "com/acme/A" and "com/acme/io/B" but not "com/acmex/C".
func inPackages(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	pkg := model.PackageOf(name)
	for _, p := range prefixes {
		if pkg == p || strings.HasPrefix(pkg, p+model.Separator) {
			return true
		}
	}
	return false
}
