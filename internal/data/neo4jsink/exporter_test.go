package neo4jsink

import (
	"context"
	"errors"
	"strings"
	"testing"

	"javakg/internal/engine/graph"
	"javakg/internal/engine/serialize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	cypher string
	rows   int
}

type recordingRunner struct {
	calls  []call
	failOn string
}

func (r *recordingRunner) Run(_ context.Context, cypher string, params map[string]any) error {
	if r.failOn != "" && strings.Contains(cypher, r.failOn) {
		return errors.New("boom")
	}
	rows := 0
	if batch, ok := params["batch"].([]map[string]any); ok {
		rows = len(batch)
	}
	r.calls = append(r.calls, call{cypher: cypher, rows: rows})
	return nil
}

func document() *serialize.Document {
	doc := &serialize.Document{}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		doc.Nodes = append(doc.Nodes, serialize.Node{
			ID: "type:p." + name, Kind: "Class", Name: name,
			Attributes: map[string]any{
				"line":        1,
				"modifiers":   []string{"public"},
				"annotations": []graph.Annotation{{Name: "Entity"}},
			},
		})
	}
	doc.Nodes = append(doc.Nodes, serialize.Node{ID: "pkg:p", Kind: "Package", Name: "p"})
	doc.Edges = []serialize.Edge{
		{SourceID: "type:p.A", TargetID: "type:p.B", Kind: "EXTENDS"},
		{SourceID: "pkg:p", TargetID: "type:p.A", Kind: "CONTAINS"},
	}
	return doc
}

func TestExportBatchesByKind(t *testing.T) {
	r := &recordingRunner{}
	require.NoError(t, NewExporter(r, 2, nil).Export(context.Background(), document()))

	require.NotEmpty(t, r.calls)
	assert.Contains(t, r.calls[0].cypher, "CREATE CONSTRAINT")

	var classRows []int
	var sawPackage, sawExtends, sawContains bool
	for _, c := range r.calls[1:] {
		switch {
		case strings.Contains(c.cypher, "SET n:`Class`"):
			classRows = append(classRows, c.rows)
		case strings.Contains(c.cypher, "SET n:`Package`"):
			sawPackage = true
		case strings.Contains(c.cypher, "MERGE (a)-[:`EXTENDS`]->(b)"):
			sawExtends = true
		case strings.Contains(c.cypher, "MERGE (a)-[:`CONTAINS`]->(b)"):
			sawContains = true
		}
	}
	assert.Equal(t, []int{2, 2, 1}, classRows)
	assert.True(t, sawPackage)
	assert.True(t, sawExtends)
	assert.True(t, sawContains)
}

func TestExportStopsOnError(t *testing.T) {
	r := &recordingRunner{failOn: "EXTENDS"}
	err := NewExporter(r, 10, nil).Export(context.Background(), document())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXTENDS")
}

func TestExportRejectsCompacted(t *testing.T) {
	doc := document()
	doc.Dictionary = &serialize.Dictionary{}
	assert.Error(t, NewExporter(&recordingRunner{}, 10, nil).Export(context.Background(), doc))
}

func TestPropertiesFlattenStructuredValues(t *testing.T) {
	props := properties(map[string]any{
		"line":        4,
		"deprecated":  true,
		"throws":      []string{"IOException"},
		"annotations": []graph.Annotation{{Name: "Table", Args: `name = "t"`}},
	})
	assert.Equal(t, 4, props["line"])
	assert.Equal(t, true, props["deprecated"])
	assert.Equal(t, []string{"IOException"}, props["throws"])
	assert.Equal(t, `[{"name":"Table","args":"name = \"t\""}]`, props["annotations"])
}

func TestIdentifierStripsBackticks(t *testing.T) {
	assert.Equal(t, "`Class`", identifier("Cl`ass"))
}
