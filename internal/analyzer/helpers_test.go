package analyzer

import (
	"io"
	"log/slog"

	"github.com/olehluchkiv/classgraph/internal/model"
)

// makeClass creates a minimal descriptor extending super (empty for none).
func makeClass(name, super string, ifaces ...string) model.ClassDescriptor {
	return model.ClassDescriptor{Name: name, SuperName: super, Interfaces: ifaces}
}

// withCalls adds a method invoking each owner in order.
func withCalls(d model.ClassDescriptor, owners ...string) model.ClassDescriptor {
	var insns []model.Instruction
	for _, o := range owners {
		insns = append(insns, model.NewOther(0x2a), model.NewInvoke(0xb6, o))
	}
	d.Methods = append(d.Methods, model.MethodDescriptor{Name: "calls", Descriptor: "()V", Instructions: insns})
	return d
}

// withLiterals adds a method loading each class literal in order.
func withLiterals(d model.ClassDescriptor, names ...string) model.ClassDescriptor {
	var insns []model.Instruction
	for _, n := range names {
		insns = append(insns, model.NewClassLiteral(0x12, n), model.NewOther(0x57))
	}
	d.Methods = append(d.Methods, model.MethodDescriptor{Name: "literals", Descriptor: "()V", Instructions: insns})
	return d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// edge is a readable form of a relationship for assertions.
type edge struct {
	From, To string
	Kind     model.RelationKind
}

func edgesOf(t *IdentifierTable, rels []model.Relationship) []edge {
	out := make([]edge, 0, len(rels))
	for _, r := range rels {
		from, _ := t.Class(r.From)
		to, _ := t.Class(r.To)
		out = append(out, edge{From: from.Name, To: to.Name, Kind: r.Kind})
	}
	return out
}

func analyze(descs ...model.ClassDescriptor) (*IdentifierTable, []model.Relationship) {
	h := BuildHierarchy(descs)
	table := AssignIndices(h)
	return table, ExtractRelationships(h, table)
}
