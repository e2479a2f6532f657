package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/diagnostic"
)

func TestAddNodeRequiresOwner(t *testing.T) {
	g := New("/r")
	err := g.AddNode(Node{ID: TypeID("a.A"), Kind: KindClass, Name: "A"}, FileID("a/A.java"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
	assert.False(t, g.Has(TypeID("a.A")))

	require.NoError(t, g.AddNode(Node{ID: PackageID("a"), Kind: KindPackage, Name: "a"}, ""))
	require.NoError(t, g.AddNode(Node{ID: FileID("a/A.java"), Kind: KindFile, Name: "A.java"}, PackageID("a")))
	require.NoError(t, g.AddNode(Node{ID: TypeID("a.A"), Kind: KindClass, Name: "A"}, FileID("a/A.java")))

	err = g.AddNode(Node{ID: TypeID("a.A"), Kind: KindClass, Name: "A"}, FileID("a/A.java"))
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))

	assert.ElementsMatch(t, []Edge{
		{SourceID: "pkg:a", TargetID: "file:a/A.java", Kind: EdgeContains},
		{SourceID: "file:a/A.java", TargetID: "type:a.A", Kind: EdgeContains},
	}, g.Edges())
}

func TestFinalizeDropsDanglingAndSorts(t *testing.T) {
	g := New("/r")
	g.Ensure(Node{ID: "pkg:b", Kind: KindPackage, Name: "b"})
	g.Ensure(Node{ID: "pkg:a", Kind: KindPackage, Name: "a"})
	assert.True(t, g.AddEdge("pkg:b", "pkg:a", EdgeImports))
	assert.False(t, g.AddEdge("pkg:b", "pkg:a", EdgeImports))
	g.AddEdge("pkg:a", "pkg:b", EdgeImports)
	g.AddEdge("pkg:a", "ref:gone", EdgeExtends)

	g.Finalize()
	g.Finalize()

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "pkg:a", nodes[0].ID)
	assert.Equal(t, []Edge{
		{SourceID: "pkg:a", TargetID: "pkg:b", Kind: EdgeImports},
		{SourceID: "pkg:b", TargetID: "pkg:a", Kind: EdgeImports},
	}, g.Edges())

	diags := g.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.CodeDanglingEdge, diags[0].Code)
	assert.Equal(t, diagnostic.SeverityWarning, diags[0].Severity)

	meta := g.Metadata()
	assert.Equal(t, 2, meta.NodeCount)
	assert.Equal(t, 2, meta.EdgeCount)
	assert.Equal(t, 1, meta.DiagnosticCount)
	assert.Equal(t, 2, meta.EdgesByKind[EdgeImports])

	assert.False(t, g.AddEdge("pkg:a", "pkg:a", EdgeImports))
	assert.False(t, g.SetAttr("pkg:a", "x", 1))
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "pkg:(default)", PackageID(""))
	assert.Equal(t, "member:a.B#m(String,int[])", MethodID("a.B", "m", []string{"String", "int[]"}))
	assert.Equal(t, "member:a.B#f", FieldID("a.B", "f"))
	assert.Equal(t, "ref:java.util.*", RefID("java.util.*"))
}
