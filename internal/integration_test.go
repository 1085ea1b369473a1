package internal_test

import (
	"archive/zip"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/classfile/classfiletest"
	"github.com/olehluchkiv/classgraph/internal/diagram"
	"github.com/olehluchkiv/classgraph/internal/loader"
	"github.com/olehluchkiv/classgraph/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// writeTree stores each class under a fresh directory at its internal name.
func writeTree(t *testing.T, classes []*classfiletest.Builder) string {
	t.Helper()
	root := t.TempDir()
	for _, c := range classes {
		path := filepath.Join(root, filepath.FromSlash(c.Name()+".class"))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, c.Bytes(), 0o644))
	}
	return root
}

// writeJar stores each class in a fresh jar at its internal name.
func writeJar(t *testing.T, classes []*classfiletest.Builder) string {
	t.Helper()
	jar := filepath.Join(t.TempDir(), "fixture.jar")
	f, err := os.Create(jar)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, c := range classes {
		w, err := zw.Create(c.Name() + ".class")
		require.NoError(t, err)
		_, err = w.Write(c.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return jar
}

// renderInput runs discovery, decoding, analysis and DOT rendering on input.
func renderInput(t *testing.T, input string, opts analyzer.AnalyzeOptions) string {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	src, cleanup, err := resolver.Resolve(ctx, input, resolver.DefaultOptions(), logger)
	require.NoError(t, err)
	defer cleanup()

	descs, err := loader.Load(ctx, src, 4, logger)
	require.NoError(t, err)

	result := analyzer.Analyze(descs, opts, logger)
	r, err := diagram.New(diagram.FormatDOT, diagram.DefaultOptions())
	require.NoError(t, err)
	return r.Render(result.Table, result.Relationships)
}

// edgeLines returns the edge statements of a DOT graph in order.
func edgeLines(dot string) []string {
	var edges []string
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, " -> ") {
			edges = append(edges, strings.TrimSpace(line))
		}
	}
	return edges
}

func TestEndToEnd(t *testing.T) {
	defaults := analyzer.DefaultAnalyzeOptions()

	tests := []struct {
		name     string
		classes  func() []*classfiletest.Builder
		opts     analyzer.AnalyzeOptions
		validate func(t *testing.T, got string)
	}{
		{
			name: "01_extends",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("p/A"),
					classfiletest.New("p/B").Super("p/A"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				assert.Equal(t, 1, strings.Count(got, "subgraph cluster_"))
				assert.Contains(t, got, `label = "p";`)
				assert.Contains(t, got, `cls_0_0 [label="A"];`)
				assert.Contains(t, got, `cls_0_1 [label="B"];`)
				assert.Equal(t, []string{"cls_0_1 -> cls_0_0 [color=blue];"}, edgeLines(got))
			},
		},
		{
			name: "02_external_call",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("p/C").
						Method("run", "()V").InvokeStatic("q/External", "call", "()V").Return().Done(),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				assert.Empty(t, edgeLines(got))
				assert.NotContains(t, got, "External")
			},
		},
		{
			name:    "03_empty",
			classes: func() []*classfiletest.Builder { return nil },
			opts:    defaults,
			validate: func(t *testing.T, got string) {
				assert.Equal(t, "digraph G {\n  fontname = \"Helvetica\"\n  fontsize = 8\n}\n", got)
			},
		},
		{
			name: "04_call_and_literal",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("p/D").
						Method("run", "()V").
						Invoke("p/E", "work", "()V").
						ClassLiteral("p/E").
						Return().Done(),
					classfiletest.New("p/E"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				assert.Equal(t, []string{"cls_0_0 -> cls_0_1 [color=grey];"}, edgeLines(got))
			},
		},
		{
			name: "05_interfaces",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("shapes/Shape").AsInterface(),
					classfiletest.New("shapes/Named").AsInterface(),
					classfiletest.New("shapes/Circle").Implements("shapes/Shape", "shapes/Named", "java/io/Serializable"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				// Circle(0), Named(1), Shape(2)
				assert.Equal(t, []string{
					"cls_0_0 -> cls_0_1 [color=green];",
					"cls_0_0 -> cls_0_2 [color=green];",
				}, edgeLines(got))
			},
		},
		{
			name: "06_cross_package",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("com/acme/app/Main").
						Method("main", "([Ljava/lang/String;)V").
						InvokeStatic("com/acme/util/Strings", "join", "()V").
						InvokeInterface("com/acme/api/Service", "start", "()V").
						ClassLiteral("com/acme/api/Service").
						ClassLiteral("com/acme/util/Config").
						Return().Done(),
					classfiletest.New("com/acme/api/Service").AsInterface(),
					classfiletest.New("com/acme/util/Strings"),
					classfiletest.New("com/acme/util/Config"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				// packages: api(0), app(1), util(2); util: Config(0), Strings(1)
				assert.Contains(t, got, `label = "com.acme.api";`)
				assert.Contains(t, got, `label = "com.acme.app";`)
				assert.Contains(t, got, `label = "com.acme.util";`)
				assert.Equal(t, []string{
					"cls_1_0 -> cls_0_0 [color=grey];",
					"cls_1_0 -> cls_2_1 [color=grey];",
					"cls_1_0 -> cls_2_0 [color=black];",
				}, edgeLines(got))
			},
		},
		{
			name: "07_nested_classes",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("p/Outer").Member("p/Outer$Inner").
						Method("run", "()V").Invoke("p/Outer$Inner", "go", "()V").Return().Done(),
					classfiletest.New("p/Outer$Inner").NestedIn("p/Outer"),
					classfiletest.New("p/Outer$1").NestHost("p/Outer"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				assert.Contains(t, got, `[label="Outer"];`)
				assert.NotContains(t, got, "Inner")
				assert.NotContains(t, got, "Outer$1")
				assert.Empty(t, edgeLines(got))
			},
		},
		{
			name: "08_default_package",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("Main").Super("lib/Base"),
					classfiletest.New("lib/Base"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				assert.Contains(t, got, `label = "(default package)";`)
				assert.Equal(t, []string{"cls_0_0 -> cls_1_0 [color=blue];"}, edgeLines(got))
			},
		},
		{
			name: "09_package_filter",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("com/acme/A"),
					classfiletest.New("com/acme/B").Super("com/acme/A"),
					classfiletest.New("org/other/C").Super("com/acme/A"),
				}
			},
			opts: analyzer.AnalyzeOptions{Packages: []string{"com.acme"}, NestedHeuristic: true},
			validate: func(t *testing.T, got string) {
				assert.NotContains(t, got, "org.other")
				assert.Equal(t, []string{"cls_0_1 -> cls_0_0 [color=blue];"}, edgeLines(got))
			},
		},
		{
			name: "10_diamond",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("d/Top").AsInterface(),
					classfiletest.New("d/Left").AsInterface().Implements("d/Top"),
					classfiletest.New("d/Right").AsInterface().Implements("d/Top"),
					classfiletest.New("d/Bottom").Implements("d/Left", "d/Right"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				// Bottom(0), Left(1), Right(2), Top(3)
				assert.Equal(t, []string{
					"cls_0_0 -> cls_0_1 [color=green];",
					"cls_0_0 -> cls_0_2 [color=green];",
					"cls_0_1 -> cls_0_3 [color=green];",
					"cls_0_2 -> cls_0_3 [color=green];",
				}, edgeLines(got))
			},
		},
		{
			name: "11_module_descriptor",
			classes: func() []*classfiletest.Builder {
				return []*classfiletest.Builder{
					classfiletest.New("module-info").AsModule(),
					classfiletest.New("p/A"),
				}
			},
			opts: defaults,
			validate: func(t *testing.T, got string) {
				assert.NotContains(t, got, "module-info")
				assert.NotContains(t, got, "(default package)")
				assert.Equal(t, 1, strings.Count(got, "subgraph cluster_"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTree(t, tt.classes())
			got := renderInput(t, dir, tt.opts)
			tt.validate(t, got)

			jar := writeJar(t, tt.classes())
			assert.Equal(t, got, renderInput(t, jar, tt.opts), "jar and directory render identically")
			assert.Equal(t, got, renderInput(t, dir, tt.opts), "rendering is repeatable")
		})
	}
}
