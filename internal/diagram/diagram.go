// Package diagram renders an identifier table and its relationships as a
// package-clustered graph description.
package diagram

import (
	"fmt"
	"strings"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/model"
)

// Format names an output syntax.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// Formats lists the supported formats, canonical first.
var Formats = []Format{FormatDOT, FormatMermaid}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want dot or mermaid)", s)
}

// Extension returns the conventional file extension for f, including the dot.
func (f Format) Extension() string {
	if f == FormatMermaid {
		return ".mmd"
	}
	return ".dot"
}

// Renderer turns analysis output into text. Implementations are pure: the same
// table and relationships always produce the same text.
type Renderer interface {
	Format() Format
	Render(t *analyzer.IdentifierTable, rels []model.Relationship) string
}

// Options controls the presentation attributes shared by all formats.
type Options struct {
	Name                string // graph name
	FontName            string
	FontSize            int
	ClusterFontSize     int
	ClusterColor        string
	NodeStyle           string
	DefaultPackageLabel string // label for classes without a package
	MermaidInit         bool   // include %%{init:}%% directive carrying the font
	Colors              map[model.RelationKind]string
}

// DefaultOptions returns the stock presentation.
func DefaultOptions() Options {
	return Options{
		Name:                "G",
		FontName:            "Helvetica",
		FontSize:            8,
		ClusterFontSize:     15,
		ClusterColor:        "blue",
		NodeStyle:           "filled",
		DefaultPackageLabel: "(default package)",
		Colors:              DefaultColors(),
	}
}

// DefaultColors returns the stock edge colour per relation kind.
func DefaultColors() map[model.RelationKind]string {
	return map[model.RelationKind]string{
		model.Extends:         "blue",
		model.Implements:      "green",
		model.Calls:           "grey",
		model.RefersToLiteral: "black",
	}
}

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	switch format {
	case FormatDOT:
		return &dotRenderer{opts: opts}, nil
	case FormatMermaid:
		return &mermaidRenderer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want dot or mermaid)", format)
	}
}

// NodeID returns the node identifier for a class position, cls_<p>_<c>.
func NodeID(id model.ClassIdentifier) string {
	return fmt.Sprintf("cls_%d_%d", id.Package, id.Class)
}

// packageLabel is the human-readable package name.
func (o Options) packageLabel(pkg string) string {
	if pkg == "" {
		return o.DefaultPackageLabel
	}
	return model.DottedName(pkg)
}

// edgeColor falls back to the stock colour for kinds the caller left unset.
func (o Options) edgeColor(kind model.RelationKind) string {
	if c, ok := o.Colors[kind]; ok && c != "" {
		return c
	}
	return DefaultColors()[kind]
}
