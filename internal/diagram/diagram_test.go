package diagram

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// parseClasses reads one class per line: a qualified name followed by
// optional extends=, implements=, calls= and literals= fields (comma lists).
func parseClasses(t *testing.T, data []byte) []model.ClassDescriptor {
	t.Helper()
	var descs []model.ClassDescriptor
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		d := model.ClassDescriptor{Name: fields[0]}
		var insns []model.Instruction
		for _, f := range fields[1:] {
			key, value, ok := strings.Cut(f, "=")
			require.True(t, ok, "bad field %q", f)
			list := strings.Split(value, ",")
			switch key {
			case "extends":
				d.SuperName = value
			case "implements":
				d.Interfaces = list
			case "calls":
				for _, owner := range list {
					insns = append(insns, model.NewInvoke(0xb8, owner))
				}
			case "literals":
				for _, name := range list {
					insns = append(insns, model.NewClassLiteral(0x12, name))
				}
			default:
				t.Fatalf("unknown field %q", key)
			}
		}
		if len(insns) > 0 {
			d.Methods = []model.MethodDescriptor{{Name: "run", Descriptor: "()V", Instructions: insns}}
		}
		descs = append(descs, d)
	}
	return descs
}

func build(descs []model.ClassDescriptor) (*analyzer.IdentifierTable, []model.Relationship) {
	h := analyzer.BuildHierarchy(descs)
	table := analyzer.AssignIndices(h)
	return table, analyzer.ExtractRelationships(h, table)
}

func TestRender_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			require.NoError(t, err)

			sections := make(map[string]string)
			for _, f := range ar.Files {
				sections[f.Name] = string(f.Data)
			}
			table, rels := build(parseClasses(t, []byte(sections["classes"])))

			for _, format := range Formats {
				want, ok := sections[string(format)]
				require.True(t, ok, "missing %s section", format)

				r, err := New(format, DefaultOptions())
				require.NoError(t, err)
				assert.Equal(t, format, r.Format())
				assert.Equal(t, want, r.Render(table, rels), "format %s", format)
			}
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	descs := []model.ClassDescriptor{
		{Name: "p/A"},
		{Name: "p/B", SuperName: "p/A", Interfaces: []string{"q/I"}},
		{Name: "q/I"},
	}
	for _, format := range Formats {
		r, err := New(format, DefaultOptions())
		require.NoError(t, err)

		ta, ra := build(descs)
		tb, rb := build(descs)
		assert.Equal(t, r.Render(ta, ra), r.Render(tb, rb), "format %s", format)
	}
}

func TestRender_EveryEdgeEndpointIsDeclared(t *testing.T) {
	descs := []model.ClassDescriptor{
		{Name: "a/X", SuperName: "b/Y"},
		{Name: "b/Y", Interfaces: []string{"c/Z", "ext/Missing"}},
		{Name: "c/Z"},
		{Name: "Top", SuperName: "a/X"},
	}
	table, rels := build(descs)
	require.NotEmpty(t, rels)

	r, err := New(FormatDOT, DefaultOptions())
	require.NoError(t, err)
	out := r.Render(table, rels)

	for _, rel := range rels {
		for _, id := range []model.ClassIdentifier{rel.From, rel.To} {
			assert.Contains(t, out, "    "+NodeID(id)+" [label=", "edge endpoint %s has no node", id)
		}
	}
}

func TestRender_CustomOptions(t *testing.T) {
	table, rels := build([]model.ClassDescriptor{{Name: "A"}, {Name: "B", SuperName: "A"}})

	opts := DefaultOptions()
	opts.Name = "class graph"
	opts.FontName = "Fira Sans"
	opts.FontSize = 11
	opts.ClusterFontSize = 20
	opts.ClusterColor = "#336699"
	opts.NodeStyle = "rounded"
	opts.DefaultPackageLabel = "<root>"
	opts.Colors = map[model.RelationKind]string{model.Extends: "red"}

	r, err := New(FormatDOT, opts)
	require.NoError(t, err)
	assert.Equal(t, `digraph "class graph" {
  fontname = "Fira Sans"
  fontsize = 11
  subgraph cluster_0 {
    node [style=rounded];
    cls_0_0 [label="A"];
    cls_0_1 [label="B"];
    label = "<root>";
    color="#336699";
    fontsize=20;
  }
  cls_0_1 -> cls_0_0 [color=red];
}
`, r.Render(table, rels))
}

func TestRender_MissingColorFallsBack(t *testing.T) {
	opts := DefaultOptions()
	opts.Colors = nil
	for _, kind := range model.RelationKinds {
		assert.Equal(t, DefaultColors()[kind], opts.edgeColor(kind), kind.String())
	}
}

func TestMermaid_InitHeader(t *testing.T) {
	opts := DefaultOptions()
	opts.MermaidInit = true
	r, err := New(FormatMermaid, opts)
	require.NoError(t, err)

	table, rels := build(nil)
	assert.Equal(t, "%%{init: {'themeVariables': {'fontFamily': 'Helvetica', 'fontSize': '8px'}}}%%\nflowchart LR\n",
		r.Render(table, rels))
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteDOT("plain"))
	assert.Equal(t, `"say \"hi\""`, quoteDOT(`say "hi"`))
	assert.Equal(t, `"a\\b"`, quoteDOT(`a\b`))
	assert.Equal(t, `"one\ntwo"`, quoteDOT("one\ntwo"))

	assert.Equal(t, `"say #quot;hi#quot;"`, quoteMermaid(`say "hi"`))
	assert.Equal(t, `"one two"`, quoteMermaid("one\ntwo"))

	assert.Equal(t, "blue", dotID("blue"))
	assert.Equal(t, "1.5", dotID("1.5"))
	assert.Equal(t, `"light blue"`, dotID("light blue"))
	assert.Equal(t, `"node"`, dotID("node"))
	assert.Equal(t, `""`, dotID(""))
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "cls_0_0", NodeID(model.NewClassIdentifier(0, 0)))
	assert.Equal(t, "cls_12_345", NodeID(model.NewClassIdentifier(12, 345)))
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat(" DOT ")
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, f)

	f, err = ParseFormat("mermaid")
	require.NoError(t, err)
	assert.Equal(t, FormatMermaid, f)
	assert.Equal(t, ".mmd", f.Extension())
	assert.Equal(t, ".dot", FormatDOT.Extension())

	_, err = ParseFormat("svg")
	assert.Error(t, err)

	_, err = New("svg", DefaultOptions())
	assert.Error(t, err)
}
