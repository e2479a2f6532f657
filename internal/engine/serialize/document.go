package serialize

import "javakg/internal/engine/graph"

// Document is the external knowledge-graph schema.
type Document struct {
	Metadata    Metadata     `json:"metadata"`
	Dictionary  *Dictionary  `json:"dictionary,omitempty"`
	Nodes       []Node       `json:"nodes"`
	Edges       []Edge       `json:"edges"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type Metadata struct {
	Root                  string           `json:"root"`
	GeneratedAt           string           `json:"generated_at"`
	ToolVersion           string           `json:"tool_version"`
	IDStyle               string           `json:"id_style,omitempty"`
	NodeCount             int              `json:"node_count"`
	EdgeCount             int              `json:"edge_count"`
	DiagnosticCount       int              `json:"diagnostic_count"`
	NodesByKind           map[string]int   `json:"nodes_by_kind"`
	EdgesByKind           map[string]int   `json:"edges_by_kind"`
	DiagnosticsBySeverity map[string]int   `json:"diagnostics_by_severity"`
	Statistics            graph.Statistics `json:"statistics"`
}

// Dictionary holds strings factored out of the document. An id written as
// "type:~3.Foo" expands to "type:" + Prefixes[3] + "Foo"; an annotation with
// "args_ref": n takes its args from Strings[n].
type Dictionary struct {
	Prefixes []string `json:"prefixes,omitempty"`
	Strings  []string `json:"strings,omitempty"`
}

type Node struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
}

type Edge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Kind     string `json:"kind"`
}

type Diagnostic struct {
	File     string `json:"file"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// annotationRef is an annotation whose args text lives in the dictionary.
type annotationRef struct {
	Name    string `json:"name"`
	Args    string `json:"args,omitempty"`
	ArgsRef *int   `json:"args_ref,omitempty"`
}
