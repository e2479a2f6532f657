// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	coreerrors "javakg/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
[source]
root = "./src"
exclude_dirs = ["generated", "target"]
exclude_files = ["*Test.java"]
extra_build_files = ["deps/bom.xml"]
use_gitignore = false

[extract]
workers = 3
verify_syntax = true

[limits]
max_file_bytes = 1024
read_timeout = "2s"
files_per_second = 50.0

[graph]
id_style = "uuid"

[output]
json = "out/graph.json"
compact = false
dot = "out/graph.dot"
mermaid = "out/graph.mmd"

[output.neo4j]
uri = "bolt://localhost:7687"
username = "neo4j"

[watch]
debounce = "1s"
`
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./src", cfg.Source.Root)
	assert.Equal(t, []string{"generated", "target"}, cfg.Source.ExcludeDirs)
	assert.False(t, cfg.Source.GitignoreEnabled())
	assert.Equal(t, 3, cfg.Extract.Workers)
	assert.True(t, cfg.Extract.VerifySyntax)
	assert.Equal(t, int64(1024), cfg.Limits.MaxFileBytes)
	assert.Equal(t, 2*time.Second, cfg.Limits.ReadTimeout)
	assert.Equal(t, 50.0, cfg.Limits.FilesPerSecond)
	assert.Equal(t, "uuid", cfg.Graph.IDStyle)
	assert.False(t, cfg.Output.CompactEnabled())
	assert.True(t, cfg.Output.Neo4j.Enabled())
	assert.Equal(t, "neo4j", cfg.Output.Neo4j.Database)
	assert.Equal(t, DefaultNeo4jBatch, cfg.Output.Neo4j.BatchSize)
	assert.False(t, cfg.Output.Artifact.Enabled())
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	rules := cfg.Rules("/repo")
	assert.Equal(t, "/repo", rules.Root)
	assert.Equal(t, []string{"*Test.java"}, rules.ExcludeFiles)
	assert.Equal(t, []string{"deps/bom.xml"}, rules.ExtraBuildFiles)
	assert.False(t, rules.UseGitignore)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, ".", cfg.Source.Root)
	assert.Equal(t, []string{".java"}, cfg.Source.Extensions)
	assert.Contains(t, cfg.Source.ExcludeDirs, "target")
	assert.Contains(t, cfg.Source.BuildFiles, "pom.xml")
	assert.True(t, cfg.Source.GitignoreEnabled())
	assert.Equal(t, runtime.NumCPU(), cfg.Extract.Workers)
	assert.Equal(t, int64(DefaultMaxFileBytes), cfg.Limits.MaxFileBytes)
	assert.Equal(t, DefaultReadTimeout, cfg.Limits.ReadTimeout)
	assert.Equal(t, "path", cfg.Graph.IDStyle)
	assert.Equal(t, DefaultOutputJSON, cfg.Output.JSON)
	assert.True(t, cfg.Output.CompactEnabled())
	assert.Empty(t, Validate(cfg))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotFound))
}

func TestParseRejectsBadTOML(t *testing.T) {
	_, err := Parse("[source\nroot = 1")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Graph.IDStyle = "numeric"
	cfg.Source.Extensions = []string{"java"}
	cfg.Output.DOT = "graph.out"
	cfg.Output.Mermaid = "./graph.out"
	cfg.Output.Artifact.Endpoint = "localhost:9000"
	cfg.Output.Neo4j.URI = "localhost:7687"

	errs := Validate(cfg)
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "graph.id_style")
	assert.Contains(t, joined, `source.extensions entry "java"`)
	assert.Contains(t, joined, "output conflict: output.dot and output.mermaid")
	assert.Contains(t, joined, "output.artifact requires both endpoint and bucket")
	assert.Contains(t, joined, "output.neo4j.uri")
	assert.Len(t, errs, 5)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JAVAKG_EXTRACT_WORKERS", "7")
	t.Setenv("JAVAKG_LIMITS_READ_TIMEOUT", "250ms")
	t.Setenv("JAVAKG_SOURCE_EXCLUDE_DIRS", "a, b,,c")
	t.Setenv("JAVAKG_OUTPUT_NEO4J_PASSWORD", "secret")
	t.Setenv("JAVAKG_CACHES_RECORDS", "not-a-number")

	cfg, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Extract.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Limits.ReadTimeout)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Source.ExcludeDirs)
	assert.Equal(t, "secret", cfg.Output.Neo4j.Password)
	assert.Equal(t, DefaultRecordCache, cfg.Caches.Records)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("JAVAKG_TEST_DOTENV_KEY=from-file\n"), 0o644))
	t.Setenv("JAVAKG_TEST_DOTENV_KEY", "")
	os.Unsetenv("JAVAKG_TEST_DOTENV_KEY")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "from-file", os.Getenv("JAVAKG_TEST_DOTENV_KEY"))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
