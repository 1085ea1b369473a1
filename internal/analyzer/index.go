package analyzer

import (
	"sort"

	"github.com/olehluchkiv/classgraph/internal/model"
)

// IdentifierTable assigns every analyzed class a (package, class) position in
// ordinal-sorted order and resolves names to those positions.
type IdentifierTable struct {
	packages []PackageEntry
	ids      map[string]model.ClassIdentifier
}

// AssignIndices sorts packages by name and classes within each package by
// qualified name, then numbers both from zero.
func AssignIndices(h *Hierarchy) *IdentifierTable {
	names := make([]string, 0, len(h.Packages))
	for name := range h.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &IdentifierTable{
		packages: make([]PackageEntry, len(names)),
		ids:      make(map[string]model.ClassIdentifier, len(h.Classes)),
	}
	for p, name := range names {
		classes := append([]*model.ClassDescriptor(nil), h.Packages[name]...)
		sort.Slice(classes, func(i, j int) bool {
			return classes[i].Name < classes[j].Name
		})
		t.packages[p] = PackageEntry{Name: name, Classes: classes}
		for c, cls := range classes {
			t.ids[cls.Name] = model.NewClassIdentifier(p, c)
		}
	}
	return t
}

// ByName resolves a qualified name. Names outside the analyzed set yield model.Unknown.
func (t *IdentifierTable) ByName(name string) model.ClassIdentifier {
	if id, ok := t.ids[name]; ok {
		return id
	}
	return model.Unknown
}

// ByDescriptor resolves a descriptor by its qualified name.
func (t *IdentifierTable) ByDescriptor(d *model.ClassDescriptor) model.ClassIdentifier {
	if d == nil {
		return model.Unknown
	}
	return t.ByName(d.Name)
}

// Packages returns the sorted packages. Callers must not modify the result.
func (t *IdentifierTable) Packages() []PackageEntry {
	return t.packages
}

// Class returns the descriptor at a known identifier.
func (t *IdentifierTable) Class(id model.ClassIdentifier) (*model.ClassDescriptor, bool) {
	if !id.Known() || id.Package >= len(t.packages) {
		return nil, false
	}
	classes := t.packages[id.Package].Classes
	if id.Class >= len(classes) {
		return nil, false
	}
	return classes[id.Class], true
}

// Len returns the number of analyzed classes.
func (t *IdentifierTable) Len() int {
	return len(t.ids)
}
