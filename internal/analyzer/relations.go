package analyzer

import (
	"sort"

	"github.com/olehluchkiv/classgraph/internal/model"
)

// ExtractRelationships derives the typed edges between analyzed classes. Classes
// are visited in the table's sorted order and every name set is sorted before
// emission, so identical input always yields an identical sequence. Edges whose
// target is not analyzed are dropped.
func ExtractRelationships(h *Hierarchy, t *IdentifierTable) []model.Relationship {
	var rels []model.Relationship
	emit := func(from model.ClassIdentifier, target string, kind model.RelationKind) {
		to := t.ByName(target)
		if from.Known() && to.Known() {
			rels = append(rels, model.Relationship{From: from, To: to, Kind: kind})
		}
	}

	for _, pkg := range t.Packages() {
		for _, cls := range pkg.Classes {
			id := t.ByDescriptor(cls)

			if parent, ok := h.Parent(cls.Name); ok {
				emit(id, parent.Name, model.Extends)
			}
			for _, iface := range sortedSet(cls.Interfaces) {
				emit(id, iface, model.Implements)
			}

			called, literals := references(cls)
			for _, owner := range sortedKeys(called) {
				emit(id, owner, model.Calls)
			}
			// A type that is called needs no separate literal edge.
			for name := range called {
				delete(literals, name)
			}
			for _, name := range sortedKeys(literals) {
				emit(id, name, model.RefersToLiteral)
			}
		}
	}
	return rels
}

// references collects the distinct call-site owners and class literals across
// every method of cls.
func references(cls *model.ClassDescriptor) (called, literals map[string]struct{}) {
	called = make(map[string]struct{})
	literals = make(map[string]struct{})
	for _, m := range cls.Methods {
		for _, insn := range m.Instructions {
			switch insn.Kind {
			case model.Invoke:
				called[insn.Owner] = struct{}{}
			case model.LoadClassLiteral:
				literals[insn.Literal] = struct{}{}
			}
		}
	}
	return called, literals
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(names []string) []string {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return sortedKeys(set)
}

// CountByKind tallies relationships per kind.
func CountByKind(rels []model.Relationship) map[model.RelationKind]int {
	counts := make(map[model.RelationKind]int, len(model.RelationKinds))
	for _, r := range rels {
		counts[r.Kind]++
	}
	return counts
}
