package model

import (
	"fmt"
	"strings"
)

// Separator delimits components of an internal class name (e.g. "java/lang/String").
const Separator = "/"

// NestingMarker appears in compiler-generated names of nested and anonymous classes.
const NestingMarker = "$"

// InstructionKind classifies a decoded bytecode instruction.
type InstructionKind int

const (
	Other InstructionKind = iota
	Invoke
	LoadClassLiteral
)

// Instruction is one bytecode instruction, reduced to the symbolic reference it carries.
type Instruction struct {
	Op      byte
	Kind    InstructionKind
	Owner   string // set iff Kind == Invoke
	Literal string // set iff Kind == LoadClassLiteral
}

// NewInvoke builds a call-site instruction referencing a method owned by owner.
func NewInvoke(op byte, owner string) Instruction {
	return Instruction{Op: op, Kind: Invoke, Owner: owner}
}

// NewClassLiteral builds an instruction that loads the class literal name.
func NewClassLiteral(op byte, name string) Instruction {
	return Instruction{Op: op, Kind: LoadClassLiteral, Literal: name}
}

// NewOther builds an instruction with no symbolic class reference.
func NewOther(op byte) Instruction {
	return Instruction{Op: op, Kind: Other}
}

// MethodDescriptor is one method and its ordered instruction list.
type MethodDescriptor struct {
	Name         string
	Descriptor   string
	Instructions []Instruction
}

// ClassDescriptor is the structured form of one compiled class.
// Identity is Name; two descriptors with the same Name describe the same class.
type ClassDescriptor struct {
	Name       string
	SuperName  string // empty when the class has no superclass
	Interfaces []string
	Methods    []MethodDescriptor
	Module     bool // ACC_MODULE: a module-info descriptor, not a class
	Nested     bool // the class file itself marks the class as nested
	Source     string
}

// PackageOf returns the package part of an internal class name, or "" for the
// default package.
func PackageOf(name string) string {
	i := strings.LastIndex(name, Separator)
	if i < 0 {
		return ""
	}
	return name[:i]
}

// SimpleName returns the class name without its package.
func SimpleName(name string) string {
	i := strings.LastIndex(name, Separator)
	if i < 0 {
		return name
	}
	return name[i+len(Separator):]
}

// DottedName converts an internal package or class name to its source form.
func DottedName(name string) string {
	return strings.ReplaceAll(name, Separator, ".")
}

// InternalName converts a dotted name to internal form. Internal names pass through.
func InternalName(name string) string {
	return strings.ReplaceAll(name, ".", Separator)
}

// ClassIdentifier locates a class in the sorted package/class index space.
// The zero value is not Unknown; use Unknown or NewClassIdentifier.
type ClassIdentifier struct {
	Package int
	Class   int
	known   bool
}

// Unknown is returned for names outside the analyzed set.
var Unknown = ClassIdentifier{Package: -1, Class: -1}

// NewClassIdentifier returns a known identifier.
func NewClassIdentifier(pkg, cls int) ClassIdentifier {
	return ClassIdentifier{Package: pkg, Class: cls, known: true}
}

// Known reports whether the identifier refers to an analyzed class.
func (id ClassIdentifier) Known() bool {
	return id.known
}

func (id ClassIdentifier) String() string {
	if !id.known {
		return "unknown"
	}
	return fmt.Sprintf("(%d,%d)", id.Package, id.Class)
}

// RelationKind is the type of a structural edge between two classes.
type RelationKind int

const (
	Extends RelationKind = iota
	Implements
	Calls
	RefersToLiteral
)

// RelationKinds lists every kind in rendering order.
var RelationKinds = []RelationKind{Extends, Implements, Calls, RefersToLiteral}

func (k RelationKind) String() string {
	switch k {
	case Extends:
		return "extends"
	case Implements:
		return "implements"
	case Calls:
		return "calls"
	case RefersToLiteral:
		return "refers_to_literal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseRelationKind is the inverse of RelationKind.String.
func ParseRelationKind(s string) (RelationKind, error) {
	for _, k := range RelationKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown relation kind: %s", s)
}

// Relationship is a directed edge between two analyzed classes.
type Relationship struct {
	From ClassIdentifier
	To   ClassIdentifier
	Kind RelationKind
}
