// # internal/engine/graph/graph.go
package graph

import (
	"fmt"
	"sort"
	"sync"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/diagnostic"
)

// Graph is the assembled knowledge graph. Mutation happens on a single
// goroutine during assembly; after Finalize the graph is read-only and its
// accessors may be called concurrently.
type Graph struct {
	mu sync.RWMutex

	root      string
	nodes     map[string]*Node
	edges     map[Edge]struct{}
	edgeOrder []Edge
	diags     diagnostic.List

	finalized   bool
	sortedNodes []Node
	sortedEdges []Edge
	meta        Metadata
}

func New(root string) *Graph {
	return &Graph{
		root:  root,
		nodes: make(map[string]*Node),
		edges: make(map[Edge]struct{}),
	}
}

// AddNode inserts n and, when owner is set, the owner CONTAINS n edge. The
// owner must already exist, so containment can never dangle.
func (g *Graph) AddNode(n Node, owner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalized {
		return coreerrors.New(coreerrors.CodeInternal, "graph is finalized")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeValidationError, "duplicate node id"), coreerrors.CtxSymbol, n.ID)
	}
	if owner != "" {
		if _, ok := g.nodes[owner]; !ok {
			return coreerrors.AddContext(
				coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("owner %s missing", owner)),
				coreerrors.CtxSymbol, n.ID)
		}
	}
	g.insertLocked(n)
	if owner != "" {
		g.addEdgeLocked(Edge{SourceID: owner, TargetID: n.ID, Kind: EdgeContains})
	}
	return nil
}

// Ensure adds n unless a node with its id exists. It returns the id.
func (g *Graph) Ensure(n Node) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[n.ID]; !exists && !g.finalized {
		g.insertLocked(n)
	}
	return n.ID
}

func (g *Graph) insertLocked(n Node) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]any)
	}
	g.nodes[n.ID] = &n
}

func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// SetAttr sets one attribute on an existing node before finalization.
func (g *Graph) SetAttr(id, key string, value any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok || g.finalized {
		return false
	}
	n.Attributes[key] = value
	return true
}

// UnsetAttr removes one attribute from an existing node before finalization.
func (g *Graph) UnsetAttr(id, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok || g.finalized {
		return false
	}
	delete(n.Attributes, key)
	return true
}

// AppendAttr appends to a []string attribute.
func (g *Graph) AppendAttr(id, key, value string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok || g.finalized {
		return false
	}
	existing, _ := n.Attributes[key].([]string)
	n.Attributes[key] = append(existing, value)
	return true
}

// AddEdge records an edge once. Endpoints are checked in Finalize.
func (g *Graph) AddEdge(source, target string, kind EdgeKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finalized {
		return false
	}
	return g.addEdgeLocked(Edge{SourceID: source, TargetID: target, Kind: kind})
}

func (g *Graph) addEdgeLocked(e Edge) bool {
	if _, dup := g.edges[e]; dup {
		return false
	}
	g.edges[e] = struct{}{}
	g.edgeOrder = append(g.edgeOrder, e)
	return true
}

func (g *Graph) AddDiagnostics(ds ...diagnostic.Diagnostic) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.diags = append(g.diags, ds...)
}

// Finalize drops dangling edges with a warning, fixes node and edge order
// and computes metadata. It is idempotent.
func (g *Graph) Finalize() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finalized {
		return
	}

	kept := make([]Edge, 0, len(g.edgeOrder))
	for _, e := range g.edgeOrder {
		_, okSource := g.nodes[e.SourceID]
		_, okTarget := g.nodes[e.TargetID]
		if okSource && okTarget {
			kept = append(kept, e)
			continue
		}
		delete(g.edges, e)
		g.diags.Warn("", diagnostic.CodeDanglingEdge, "dropped %s edge %s -> %s: endpoint missing",
			e.Kind, e.SourceID, e.TargetID)
	}
	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.TargetID < b.TargetID
	})
	g.sortedEdges = kept

	g.sortedNodes = make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		g.sortedNodes = append(g.sortedNodes, *n)
	}
	sort.Slice(g.sortedNodes, func(i, j int) bool { return g.sortedNodes[i].ID < g.sortedNodes[j].ID })

	g.diags.Sort()
	g.meta = g.computeMetadataLocked()
	g.finalized = true
}

func (g *Graph) computeMetadataLocked() Metadata {
	m := Metadata{
		Root:                  g.root,
		NodeCount:             len(g.sortedNodes),
		EdgeCount:             len(g.sortedEdges),
		DiagnosticCount:       len(g.diags),
		NodesByKind:           make(map[NodeKind]int),
		EdgesByKind:           make(map[EdgeKind]int),
		DiagnosticsBySeverity: make(map[string]int),
	}
	for _, n := range g.sortedNodes {
		m.NodesByKind[n.Kind]++
	}
	annotations := make(map[string]struct{})
	for _, e := range g.sortedEdges {
		m.EdgesByKind[e.Kind]++
		if e.Kind == EdgeAnnotatedBy {
			annotations[e.TargetID] = struct{}{}
		}
	}
	for sev, n := range g.diags.CountBySeverity() {
		m.DiagnosticsBySeverity[string(sev)] = n
	}
	m.Stats = Statistics{
		Files:               m.NodesByKind[KindFile],
		Packages:            m.NodesByKind[KindPackage],
		Classes:             m.NodesByKind[KindClass],
		Interfaces:          m.NodesByKind[KindInterface],
		Enums:               m.NodesByKind[KindEnum],
		Annotations:         m.NodesByKind[KindAnnotationType],
		Methods:             m.NodesByKind[KindMethod],
		Fields:              m.NodesByKind[KindField],
		Imports:             m.EdgesByKind[EdgeImports],
		Dependencies:        m.NodesByKind[KindDependency],
		Unresolved:          m.NodesByKind[KindUnresolved],
		DistinctAnnotations: len(annotations),
	}
	return m
}

func (g *Graph) Finalized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.finalized
}

// Nodes returns nodes sorted by id. Before Finalize the order is unspecified.
// Attribute maps are shared and must not be modified.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.finalized {
		return append([]Node(nil), g.sortedNodes...)
	}
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	return out
}

// Edges returns edges ordered by (source, kind, target) once finalized.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.finalized {
		return append([]Edge(nil), g.sortedEdges...)
	}
	return append([]Edge(nil), g.edgeOrder...)
}

func (g *Graph) Diagnostics() diagnostic.List {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append(diagnostic.List(nil), g.diags...)
}

func (g *Graph) Metadata() Metadata {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.meta
}

func (g *Graph) Root() string { return g.root }
