package graphdb

import (
	"context"
	"path/filepath"
	"testing"

	"javakg/internal/engine/serialize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *serialize.Document {
	return &serialize.Document{
		Metadata: serialize.Metadata{Root: "/work", GeneratedAt: "2024-01-01T00:00:00Z", ToolVersion: "test"},
		Nodes: []serialize.Node{
			{ID: "pkg:p", Kind: "Package", Name: "p"},
			{ID: "file:p/A.java", Kind: "File", Name: "A.java", Attributes: map[string]any{"package": "p"}},
			{ID: "type:p.A", Kind: "Class", Name: "A", Attributes: map[string]any{"line": 3}},
			{ID: "ref:B", Kind: "UnresolvedReference", Name: "B"},
		},
		Edges: []serialize.Edge{
			{SourceID: "pkg:p", TargetID: "file:p/A.java", Kind: "CONTAINS"},
			{SourceID: "file:p/A.java", TargetID: "type:p.A", Kind: "CONTAINS"},
			{SourceID: "type:p.A", TargetID: "ref:B", Kind: "EXTENDS"},
		},
		Diagnostics: []serialize.Diagnostic{
			{File: "p/Broken.java", Severity: "warning", Code: "MALFORMED", Message: "partial record"},
		},
	}
}

func TestSaveDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	none, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	runID, err := store.SaveDocument(ctx, "", sampleDocument())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := store.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, "/work", run.Root)
	assert.Equal(t, 4, run.NodeCount)
	assert.Equal(t, 3, run.EdgeCount)
	assert.Equal(t, 1, run.DiagnosticCount)

	counts, err := store.CountByKind(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Package": 1, "File": 1, "Class": 1, "UnresolvedReference": 1}, counts)

	edges, err := store.Neighbors(ctx, runID, "type:p.A")
	require.NoError(t, err)
	assert.Equal(t, []serialize.Edge{{SourceID: "type:p.A", TargetID: "ref:B", Kind: "EXTENDS"}}, edges)
}

func TestSaveDocumentKeepsRunsApart(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	first, err := store.SaveDocument(ctx, "", sampleDocument())
	require.NoError(t, err)
	second, err := store.SaveDocument(ctx, "", sampleDocument())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	counts, err := store.CountByKind(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["Class"])
}

func TestSaveDocumentRejectsCompacted(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	doc := sampleDocument()
	doc.Dictionary = &serialize.Dictionary{Prefixes: []string{"com.acme."}}
	_, err = store.SaveDocument(context.Background(), "", doc)
	assert.Error(t, err)
}

func TestOpenRejectsDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	again, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
