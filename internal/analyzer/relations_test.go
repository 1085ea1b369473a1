package analyzer

import (
	"testing"

	"github.com/olehluchkiv/classgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ExtendsWithinPackage(t *testing.T) {
	table, rels := analyze(
		makeClass("p/A", "java/lang/Object"),
		makeClass("p/B", "p/A"),
	)

	require.Len(t, rels, 1)
	assert.Equal(t, model.Relationship{
		From: table.ByName("p/B"),
		To:   table.ByName("p/A"),
		Kind: model.Extends,
	}, rels[0])
}

func TestExtract_CallToUnanalyzedClassIsDropped(t *testing.T) {
	_, rels := analyze(withCalls(makeClass("p/C", ""), "q/External"))
	assert.Empty(t, rels)
}

func TestExtract_CallWinsOverLiteral(t *testing.T) {
	d := withLiterals(withCalls(makeClass("p/D", ""), "p/E"), "p/E")
	table, rels := analyze(d, makeClass("p/E", ""))

	assert.Equal(t, []edge{{From: "p/D", To: "p/E", Kind: model.Calls}}, edgesOf(table, rels))
}

func TestExtract_AllKindsInOrder(t *testing.T) {
	impl := makeClass("p/Impl", "p/Base", "p/Zed", "p/Iface", "java/io/Serializable")
	impl = withCalls(impl, "p/Util", "p/Base", "p/Util", "java/lang/Object")
	impl = withLiterals(impl, "p/Token", "p/Util", "java/lang/String", "p/Alpha")

	table, rels := analyze(
		impl,
		makeClass("p/Base", ""),
		makeClass("p/Iface", ""),
		makeClass("p/Zed", ""),
		makeClass("p/Util", ""),
		makeClass("p/Token", ""),
		makeClass("p/Alpha", ""),
	)

	assert.Equal(t, []edge{
		{"p/Impl", "p/Base", model.Extends},
		{"p/Impl", "p/Iface", model.Implements},
		{"p/Impl", "p/Zed", model.Implements},
		{"p/Impl", "p/Base", model.Calls},
		{"p/Impl", "p/Util", model.Calls},
		{"p/Impl", "p/Alpha", model.RefersToLiteral},
		{"p/Impl", "p/Token", model.RefersToLiteral},
	}, edgesOf(table, rels))
}

func TestExtract_SourceOrderFollowsTable(t *testing.T) {
	table, rels := analyze(
		makeClass("q/Y", "p/A"),
		makeClass("p/B", "p/A"),
		makeClass("p/A", ""),
		makeClass("Main", "p/A"),
	)

	assert.Equal(t, []edge{
		{"Main", "p/A", model.Extends},
		{"p/B", "p/A", model.Extends},
		{"q/Y", "p/A", model.Extends},
	}, edgesOf(table, rels))
}

func TestExtract_CrossPackageAndSelfReference(t *testing.T) {
	a := withCalls(makeClass("p/A", ""), "p/A", "q/B")
	table, rels := analyze(a, makeClass("q/B", ""))

	assert.Equal(t, []edge{
		{"p/A", "p/A", model.Calls},
		{"p/A", "q/B", model.Calls},
	}, edgesOf(table, rels))
}

func TestExtract_Deterministic(t *testing.T) {
	build := func() []model.ClassDescriptor {
		var descs []model.ClassDescriptor
		for _, n := range []string{"a/A", "a/B", "b/C", "b/D", "c/E"} {
			d := makeClass(n, "a/A", "b/D", "b/C")
			d = withCalls(d, "c/E", "a/B", "b/C", "x/Y")
			d = withLiterals(d, "b/D", "a/A", "c/E")
			descs = append(descs, d)
		}
		return descs
	}

	_, first := analyze(build()...)
	for i := 0; i < 20; i++ {
		_, again := analyze(build()...)
		require.Equal(t, first, again, "run %d differs", i)
	}
}

func TestExtract_EdgeKindDisjointness(t *testing.T) {
	var descs []model.ClassDescriptor
	names := []string{"p/A", "p/B", "p/C", "q/D"}
	for _, n := range names {
		d := withCalls(makeClass(n, ""), "p/A", "q/D")
		d = withLiterals(d, "p/A", "p/B", "q/D", "p/C")
		descs = append(descs, d)
	}
	table, rels := analyze(descs...)

	calls := make(map[[2]model.ClassIdentifier]bool)
	for _, r := range rels {
		if r.Kind == model.Calls {
			calls[[2]model.ClassIdentifier{r.From, r.To}] = true
		}
	}
	require.NotEmpty(t, calls)
	for _, r := range rels {
		if r.Kind == model.RefersToLiteral {
			assert.False(t, calls[[2]model.ClassIdentifier{r.From, r.To}],
				"literal edge %v duplicates a call edge", edgesOf(table, []model.Relationship{r}))
		}
	}
}

func TestExtract_ClosedWorld(t *testing.T) {
	d := makeClass("p/A", "lib/Base", "lib/Iface")
	d = withCalls(d, "lib/Util")
	d = withLiterals(d, "lib/Type", "[Lp/A;")
	_, rels := analyze(d)
	assert.Empty(t, rels)
}

func TestExtract_DuplicateInterfaceNamesEmitOnce(t *testing.T) {
	table, rels := analyze(makeClass("p/A", "", "p/I", "p/I"), makeClass("p/I", ""))
	assert.Equal(t, []edge{{"p/A", "p/I", model.Implements}}, edgesOf(table, rels))
}

func TestExtract_Empty(t *testing.T) {
	_, rels := analyze()
	assert.Empty(t, rels)
}

func TestCountByKind(t *testing.T) {
	_, rels := analyze(
		withCalls(makeClass("p/B", "p/A", "p/I"), "p/A"),
		makeClass("p/A", ""),
		makeClass("p/I", ""),
	)
	counts := CountByKind(rels)
	assert.Equal(t, 1, counts[model.Extends])
	assert.Equal(t, 1, counts[model.Implements])
	assert.Equal(t, 1, counts[model.Calls])
	assert.Equal(t, 0, counts[model.RefersToLiteral])
}
