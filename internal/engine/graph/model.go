package graph

type NodeKind string

const (
	KindPackage        NodeKind = "Package"
	KindFile           NodeKind = "File"
	KindClass          NodeKind = "Class"
	KindInterface      NodeKind = "Interface"
	KindEnum           NodeKind = "Enum"
	KindAnnotationType NodeKind = "AnnotationType"
	KindMethod         NodeKind = "Method"
	KindField          NodeKind = "Field"
	KindDependency     NodeKind = "ExternalDependency"
	KindUnresolved     NodeKind = "UnresolvedReference"
)

type EdgeKind string

const (
	EdgeContains    EdgeKind = "CONTAINS"
	EdgeImports     EdgeKind = "IMPORTS"
	EdgeExtends     EdgeKind = "EXTENDS"
	EdgeImplements  EdgeKind = "IMPLEMENTS"
	EdgeAnnotatedBy EdgeKind = "ANNOTATED_BY"
	EdgeDependsOn   EdgeKind = "DEPENDS_ON"
)

// Node attributes are kind specific. Values are strings, ints, bools,
// []string, []Annotation or []Param so every consumer can switch on them.
type Node struct {
	ID         string
	Kind       NodeKind
	Name       string
	Attributes map[string]any
}

type Edge struct {
	SourceID string
	TargetID string
	Kind     EdgeKind
}

type Annotation struct {
	Name string `json:"name"`
	Args string `json:"args,omitempty"`
}

type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Statistics is the human-oriented run summary.
type Statistics struct {
	Files        int `json:"files"`
	Packages     int `json:"packages"`
	Classes      int `json:"classes"`
	Interfaces   int `json:"interfaces"`
	Enums        int `json:"enums"`
	Annotations  int `json:"annotation_types"`
	Methods      int `json:"methods"`
	Fields       int `json:"fields"`
	Imports      int `json:"imports"`
	Dependencies int `json:"dependencies"`
	Unresolved   int `json:"unresolved_references"`
	// DistinctAnnotations counts annotation names used anywhere.
	DistinctAnnotations int `json:"distinct_annotations"`
}

type Metadata struct {
	Root                  string
	NodeCount             int
	EdgeCount             int
	DiagnosticCount       int
	NodesByKind           map[NodeKind]int
	EdgesByKind           map[EdgeKind]int
	DiagnosticsBySeverity map[string]int
	Stats                 Statistics
}

// View is the read-only surface handed to renderers and exporters.
type View interface {
	Nodes() []Node
	Edges() []Edge
}
