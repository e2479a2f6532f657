package query

import (
	"testing"

	"javakg/internal/engine/extract"
	"javakg/internal/engine/graph"
	"javakg/internal/engine/resolver"
)

func TestParseCQL(t *testing.T) {
	query, err := ParseCQL(`SELECT nodes WHERE fan_in > 0 AND name CONTAINS "Repo"`)
	if err != nil {
		t.Fatalf("parse cql: %v", err)
	}
	if query.Target != TargetNodes {
		t.Fatalf("expected target nodes, got %q", query.Target)
	}
	if len(query.Conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(query.Conditions))
	}
	if !query.Conditions[0].IsInt || query.Conditions[1].Op != "contains" {
		t.Fatalf("unexpected conditions: %+v", query.Conditions)
	}
}

func TestParseCQL_Invalid(t *testing.T) {
	for _, raw := range []string{
		"DELETE FROM nodes",
		"SELECT modules",
		"SELECT nodes WHERE name ~ 'x'",
		"SELECT edges WHERE line > 3",
	} {
		if _, err := ParseCQL(raw); err == nil {
			t.Fatalf("expected %q to fail", raw)
		}
	}
}

func seedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	files := map[string]string{
		"app/Repo.java":    "package app;\n\npublic interface Repo {\n    void save();\n}\n",
		"app/SqlRepo.java": "package app;\n\n@Deprecated\npublic class SqlRepo implements Repo {\n    public void save() {}\n}\n",
		"app/MemRepo.java": "package app;\n\npublic class MemRepo implements Repo {\n    public void save() {}\n}\n",
	}
	in := graph.Input{Root: "/project"}
	for _, rel := range []string{"app/MemRepo.java", "app/Repo.java", "app/SqlRepo.java"} {
		rec := extract.Extract(rel, []byte(files[rel]))
		in.Sources = append(in.Sources, graph.SourceInput{Rel: rel, Record: rec, Local: resolver.Localize(rec)})
	}
	return graph.NewAssembler(nil).Assemble(in)
}

func TestExecuteNodes(t *testing.T) {
	g := seedGraph(t)

	res, err := Execute(g, `SELECT nodes WHERE kind = "Interface" AND fan_in >= 2`, 0)
	if err != nil {
		t.Fatalf("execute cql: %v", err)
	}
	if len(res.Nodes) != 1 || res.Nodes[0].ID != graph.TypeID("app.Repo") {
		t.Fatalf("expected app.Repo, got %+v", res.Nodes)
	}

	res, err = Execute(g, `SELECT nodes WHERE kind = "Class" AND deprecated = "true"`, 0)
	if err != nil {
		t.Fatalf("execute cql: %v", err)
	}
	if len(res.Nodes) != 1 || res.Nodes[0].Name != "SqlRepo" {
		t.Fatalf("expected SqlRepo, got %+v", res.Nodes)
	}

	res, err = Execute(g, `SELECT nodes WHERE name contains "repo"`, 2)
	if err != nil {
		t.Fatalf("execute cql: %v", err)
	}
	if len(res.Nodes) != 2 {
		t.Fatalf("expected limit to cap rows at 2, got %d", len(res.Nodes))
	}
}

func TestExecuteEdges(t *testing.T) {
	g := seedGraph(t)

	res, err := Execute(g, `SELECT edges WHERE kind = "IMPLEMENTS"`, 0)
	if err != nil {
		t.Fatalf("execute cql: %v", err)
	}
	if len(res.Edges) != 2 {
		t.Fatalf("expected two IMPLEMENTS edges, got %d", len(res.Edges))
	}
	for _, e := range res.Edges {
		if e.TargetID != graph.TypeID("app.Repo") {
			t.Fatalf("unexpected target %s", e.TargetID)
		}
	}
	if len(res.Nodes) != 0 {
		t.Fatal("edge query must not return nodes")
	}
}
