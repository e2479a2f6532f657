package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreapp "javakg/internal/core/app"
	"javakg/internal/core/config"
	"javakg/internal/engine/extract"
	"javakg/internal/engine/graph"
	"javakg/internal/engine/resolver"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--out", "kg.json", "--workers", "3", "--no-compact", "--dot", "g.dot", "./src"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "kg.json", opts.out)
	assert.Equal(t, 3, opts.workers)
	assert.True(t, opts.noCompact)
	assert.Equal(t, []string{"./src"}, opts.args)
	assert.True(t, opts.set["out"])
	assert.False(t, opts.set["mermaid"])
}

func TestParseOptionsRejectsSeveralRoots(t *testing.T) {
	_, err := parseOptions([]string{"a", "b"}, io.Discard)
	assert.Error(t, err)

	_, err = parseOptions([]string{"--no-such-flag"}, io.Discard)
	assert.Error(t, err)
}

func TestApplyOptionsOverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Output.JSON = "from-config.json"
	cfg.Output.DOT = "from-config.dot"

	opts, err := parseOptions([]string{"--out", "flag.json", "--workers", "2", "--no-compact", "--verify-syntax", "project"}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, applyOptions(opts, cfg))

	assert.Equal(t, "project", cfg.Source.Root)
	assert.Equal(t, "flag.json", cfg.Output.JSON)
	assert.Equal(t, "from-config.dot", cfg.Output.DOT, "flags that were not given keep the config value")
	assert.Equal(t, 2, cfg.Extract.Workers)
	assert.False(t, cfg.Output.CompactEnabled())
	assert.True(t, cfg.Extract.VerifySyntax)
}

func TestApplyOptionsValidates(t *testing.T) {
	cfg := config.Default()
	opts, err := parseOptions([]string{"--workers", "0", "--id-style", "random"}, io.Discard)
	require.NoError(t, err)
	err = applyOptions(opts, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutputJSON, cfg.Output.JSON)

	require.NoError(t, os.WriteFile(config.DefaultFile, []byte("[output]\njson = \"custom.json\"\n"), 0o644))
	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "custom.json", cfg.Output.JSON)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	src := "package p;\n\npublic class A {\n    void run() {}\n}\n\ninterface B {}\n"
	rec := extract.Extract("p/A.java", []byte(src))
	g := graph.NewAssembler(nil).Assemble(graph.Input{
		Root:    "/project",
		Sources: []graph.SourceInput{{Rel: "p/A.java", Record: rec, Local: resolver.Localize(rec)}},
	})

	out := renderSummary(&coreapp.Result{
		Graph:    g,
		Files:    1,
		Readable: 1,
		Outputs:  []string{"java_code_knowledge_graph.json"},
	})
	for _, want := range []string{"Knowledge graph", "Classes", "Interfaces", "Methods", "java_code_knowledge_graph.json"} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.NotContains(t, out, "Export failures")

	assert.Empty(t, renderSummary(nil))
}

func TestPrintQuery(t *testing.T) {
	rec := extract.Extract("p/A.java", []byte("package p;\n\npublic class A implements B {}\n\ninterface B {}\n"))
	g := graph.NewAssembler(nil).Assemble(graph.Input{
		Root:    "/project",
		Sources: []graph.SourceInput{{Rel: "p/A.java", Record: rec, Local: resolver.Localize(rec)}},
	})

	opts, err := parseOptions([]string{"--query", `SELECT edges WHERE kind = "IMPLEMENTS"`}, io.Discard)
	require.NoError(t, err)

	var buf strings.Builder
	assert.Equal(t, 0, printQuery(&buf, &coreapp.Result{Graph: g}, opts))
	assert.Equal(t, "IMPLEMENTS\ttype:p.A\ttype:p.B\n", buf.String())

	_, err = parseOptions([]string{"--query", "DROP nodes"}, io.Discard)
	assert.Error(t, err)
}
