// # internal/engine/visualize/visualize.go
package visualize

import (
	"sort"

	"javakg/internal/engine/graph"
)

// Options controls what a diagram shows. Member nodes dominate real graphs,
// so they are hidden unless asked for.
type Options struct {
	Members bool
	Title   string
}

func DefaultOptions() Options {
	return Options{Title: "javakg"}
}

// DOT renders view as a Graphviz digraph with default options.
func DOT(view graph.View) string {
	return NewDOTGenerator(DefaultOptions()).Generate(view)
}

// Mermaid renders view as a Mermaid flowchart with default options.
func Mermaid(view graph.View) string {
	return NewMermaidGenerator(DefaultOptions()).Generate(view)
}

// selection is the filtered, ordered slice of a view that both renderers draw.
type selection struct {
	nodes   []graph.Node
	edges   []graph.Edge
	byID    map[string]graph.Node
	pkgOf   map[string]string // node id -> owning package id, via CONTAINS
	pkgs    []string
	loose   []string // nodes outside any package, in id order
	members map[string][]string
}

func selectView(view graph.View, opts Options) *selection {
	s := &selection{
		byID:    make(map[string]graph.Node),
		pkgOf:   make(map[string]string),
		members: make(map[string][]string),
	}
	for _, n := range view.Nodes() {
		if !opts.Members && isMember(n.Kind) {
			continue
		}
		s.nodes = append(s.nodes, n)
		s.byID[n.ID] = n
	}
	sort.Slice(s.nodes, func(i, j int) bool { return s.nodes[i].ID < s.nodes[j].ID })

	parent := make(map[string]string)
	for _, e := range view.Edges() {
		if _, ok := s.byID[e.SourceID]; !ok {
			continue
		}
		if _, ok := s.byID[e.TargetID]; !ok {
			continue
		}
		s.edges = append(s.edges, e)
		if e.Kind == graph.EdgeContains {
			parent[e.TargetID] = e.SourceID
		}
	}
	sort.Slice(s.edges, func(i, j int) bool {
		a, b := s.edges[i], s.edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.TargetID < b.TargetID
	})

	for _, n := range s.nodes {
		if n.Kind == graph.KindPackage {
			s.pkgs = append(s.pkgs, n.ID)
			continue
		}
		pkg := owningPackage(n.ID, parent, s.byID)
		if pkg == "" {
			s.loose = append(s.loose, n.ID)
			continue
		}
		s.pkgOf[n.ID] = pkg
		s.members[pkg] = append(s.members[pkg], n.ID)
	}
	return s
}

func owningPackage(id string, parent map[string]string, byID map[string]graph.Node) string {
	seen := make(map[string]bool)
	for cur := parent[id]; cur != "" && !seen[cur]; cur = parent[cur] {
		seen[cur] = true
		if byID[cur].Kind == graph.KindPackage {
			return cur
		}
	}
	return ""
}

func isMember(k graph.NodeKind) bool {
	return k == graph.KindMethod || k == graph.KindField
}

func external(k graph.NodeKind) bool {
	return k == graph.KindDependency || k == graph.KindUnresolved
}

func label(n graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}
