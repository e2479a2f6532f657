// # internal/engine/serialize/serialize.go
package serialize

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/graph"
)

const (
	IDStylePath = "path"
	IDStyleUUID = "uuid"
)

type Options struct {
	Compact     bool
	IDStyle     string
	Indent      bool
	Timestamp   time.Time
	ToolVersion string
}

// Serialize renders a finalized graph. The output depends only on the graph
// and opts, so identical graphs differ at most in generated_at.
func Serialize(g *graph.Graph, opts Options) ([]byte, error) {
	doc, err := Build(g, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "encode knowledge graph")
	}
	return buf.Bytes(), nil
}

// Build converts the graph into the document model without encoding it.
func Build(g *graph.Graph, opts Options) (*Document, error) {
	if !g.Finalized() {
		return nil, coreerrors.New(coreerrors.CodeInternal, "graph must be finalized before serialization")
	}
	meta := g.Metadata()
	doc := &Document{
		Metadata: Metadata{
			Root:                  meta.Root,
			GeneratedAt:           opts.Timestamp.UTC().Format(time.RFC3339),
			ToolVersion:           opts.ToolVersion,
			NodeCount:             meta.NodeCount,
			EdgeCount:             meta.EdgeCount,
			DiagnosticCount:       meta.DiagnosticCount,
			NodesByKind:           make(map[string]int, len(meta.NodesByKind)),
			EdgesByKind:           make(map[string]int, len(meta.EdgesByKind)),
			DiagnosticsBySeverity: meta.DiagnosticsBySeverity,
			Statistics:            meta.Stats,
		},
		Nodes:       make([]Node, 0, meta.NodeCount),
		Edges:       make([]Edge, 0, meta.EdgeCount),
		Diagnostics: make([]Diagnostic, 0, meta.DiagnosticCount),
	}
	for k, n := range meta.NodesByKind {
		doc.Metadata.NodesByKind[string(k)] = n
	}
	for k, n := range meta.EdgesByKind {
		doc.Metadata.EdgesByKind[string(k)] = n
	}

	for _, n := range g.Nodes() {
		attrs := make(map[string]any, len(n.Attributes))
		for k, v := range n.Attributes {
			attrs[k] = v
		}
		doc.Nodes = append(doc.Nodes, Node{ID: n.ID, Kind: string(n.Kind), Name: n.Name, Attributes: attrs})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{SourceID: e.SourceID, TargetID: e.TargetID, Kind: string(e.Kind)})
	}
	for _, d := range g.Diagnostics() {
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
			File: d.File, Severity: string(d.Severity), Code: d.Code, Message: d.Message,
		})
	}

	dict := &Dictionary{}
	switch opts.IDStyle {
	case IDStyleUUID:
		doc.Metadata.IDStyle = IDStyleUUID
		applyUUIDs(doc)
	default:
		if opts.Compact {
			dict.Prefixes = compactPrefixes(doc)
		}
	}
	if opts.Compact {
		dict.Strings = compactAnnotationArgs(doc)
	}
	if len(dict.Prefixes) > 0 || len(dict.Strings) > 0 {
		doc.Dictionary = dict
	}
	return doc, nil
}

// Decode parses a serialized document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeMalformed, "decode knowledge graph")
	}
	return &doc, nil
}

// UUIDFor maps a path-style id to its stable name-based UUID.
func UUIDFor(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("javakg:"+id)).String()
}

func applyUUIDs(doc *Document) {
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		n.Attributes["key"] = n.ID
		n.ID = UUIDFor(n.ID)
	}
	for i := range doc.Edges {
		e := &doc.Edges[i]
		e.SourceID = UUIDFor(e.SourceID)
		e.TargetID = UUIDFor(e.TargetID)
	}
}
