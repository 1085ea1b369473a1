package diagram

import (
	"fmt"
	"strings"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/model"
)

type mermaidRenderer struct {
	opts Options
}

func (r *mermaidRenderer) Format() Format { return FormatMermaid }

// Render produces a Mermaid flowchart with one subgraph per package. Each edge
// is followed by a linkStyle line numbered by its position.
func (r *mermaidRenderer) Render(t *analyzer.IdentifierTable, rels []model.Relationship) string {
	var b strings.Builder

	// Header for standalone .mmd files.
	if r.opts.MermaidInit {
		fmt.Fprintf(&b, "%%%%{init: {'themeVariables': {'fontFamily': '%s', 'fontSize': '%dpx'}}}%%%%\n",
			strings.ReplaceAll(r.opts.FontName, "'", ""), r.opts.FontSize)
	}
	b.WriteString("flowchart LR\n")

	for p, pkg := range t.Packages() {
		fmt.Fprintf(&b, "    subgraph pkg_%d[%s]\n", p, quoteMermaid(r.opts.packageLabel(pkg.Name)))
		for c, cls := range pkg.Classes {
			id := model.NewClassIdentifier(p, c)
			fmt.Fprintf(&b, "        %s[%s]\n", NodeID(id), quoteMermaid(model.SimpleName(cls.Name)))
		}
		b.WriteString("    end\n")
	}

	for _, rel := range rels {
		fmt.Fprintf(&b, "    %s %s %s\n", NodeID(rel.From), mermaidArrow(rel.Kind), NodeID(rel.To))
	}
	for i, rel := range rels {
		fmt.Fprintf(&b, "    linkStyle %d stroke:%s\n", i, r.opts.edgeColor(rel.Kind))
	}

	return b.String()
}

// mermaidArrow draws structural and call edges solid, the rest dotted.
func mermaidArrow(kind model.RelationKind) string {
	switch kind {
	case model.Implements, model.RefersToLiteral:
		return "-.->"
	default:
		return "-->"
	}
}

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "\n", " ", "\r", "")

// quoteMermaid returns s as a quoted Mermaid label.
func quoteMermaid(s string) string {
	return `"` + mermaidEscaper.Replace(s) + `"`
}
