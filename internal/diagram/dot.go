package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/model"
)

type dotRenderer struct {
	opts Options
}

func (r *dotRenderer) Format() Format { return FormatDOT }

// Render produces a Graphviz digraph: one cluster per package in table order,
// then every edge in the order given.
func (r *dotRenderer) Render(t *analyzer.IdentifierTable, rels []model.Relationship) string {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s {\n", dotID(r.opts.Name))
	fmt.Fprintf(&b, "  fontname = %s\n", quoteDOT(r.opts.FontName))
	fmt.Fprintf(&b, "  fontsize = %d\n", r.opts.FontSize)

	for p, pkg := range t.Packages() {
		writeCluster(&b, p, pkg, r.opts)
	}
	for _, rel := range rels {
		fmt.Fprintf(&b, "  %s -> %s [color=%s];\n", NodeID(rel.From), NodeID(rel.To), dotID(r.opts.edgeColor(rel.Kind)))
	}

	b.WriteString("}\n")
	return b.String()
}

func writeCluster(b *strings.Builder, p int, pkg analyzer.PackageEntry, opts Options) {
	fmt.Fprintf(b, "  subgraph cluster_%d {\n", p)
	fmt.Fprintf(b, "    node [style=%s];\n", dotID(opts.NodeStyle))
	for c, cls := range pkg.Classes {
		id := model.NewClassIdentifier(p, c)
		fmt.Fprintf(b, "    %s [label=%s];\n", NodeID(id), quoteDOT(model.SimpleName(cls.Name)))
	}
	fmt.Fprintf(b, "    label = %s;\n", quoteDOT(opts.packageLabel(pkg.Name)))
	fmt.Fprintf(b, "    color=%s;\n", dotID(opts.ClusterColor))
	fmt.Fprintf(b, "    fontsize=%d;\n", opts.ClusterFontSize)
	b.WriteString("  }\n")
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// quoteDOT returns s as a quoted DOT string.
func quoteDOT(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

var bareDOTID = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*|-?(?:\.[0-9]+|[0-9]+(?:\.[0-9]*)?))$`)

var dotKeywords = map[string]bool{
	"node": true, "edge": true, "graph": true, "digraph": true, "subgraph": true, "strict": true,
}

// dotID leaves plain identifiers and numerals bare and quotes anything else,
// including keywords.
func dotID(s string) string {
	if bareDOTID.MatchString(s) && !dotKeywords[strings.ToLower(s)] {
		return s
	}
	return quoteDOT(s)
}
