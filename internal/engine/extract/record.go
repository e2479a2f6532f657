package extract

import (
	"strings"

	"javakg/internal/engine/diagnostic"
)

type TypeKind int

const (
	KindClass TypeKind = iota
	KindInterface
	KindEnum
	KindAnnotationType
)

func (k TypeKind) String() string {
	switch k {
	case KindInterface:
		return "Interface"
	case KindEnum:
		return "Enum"
	case KindAnnotationType:
		return "AnnotationType"
	default:
		return "Class"
	}
}

type MemberKind int

const (
	MemberMethod MemberKind = iota
	MemberField
)

// Record is the local structural view of one source file. Names inside it
// are textual and unresolved; cross-file meaning is assigned later.
type Record struct {
	Path        string
	Package     string
	Imports     []Import
	Types       []*TypeDecl // declaration order, outer before inner
	Diagnostics diagnostic.List
}

type Import struct {
	Name     string // dotted target without the trailing ".*"
	Static   bool
	Wildcard bool
	Line     int
}

type TypeDecl struct {
	Name        string
	Outer       string // dotted chain of enclosing type names, empty for top-level
	Kind        TypeKind
	Modifiers   []string
	TypeParams  []string
	Extends     []TypeRef
	Implements  []TypeRef
	Annotations []Annotation
	Components  []Param // record header components
	Members     []Member
	IsRecord    bool
	Deprecated  bool
	Line        int
}

// TypeRef is a type as written plus its erasure used for name lookup.
type TypeRef struct {
	Text    string
	Erasure string
}

type Member struct {
	Kind        MemberKind
	Name        string
	Type        string // return or field type as written; empty for constructors
	TypeParams  []string
	Params      []Param
	Throws      []string
	Modifiers   []string
	Annotations []Annotation
	Default     string
	Constructor bool
	Constant    bool
	Deprecated  bool
	Line        int
}

type Param struct {
	Name        string
	Type        string
	Annotations []string
}

type Annotation struct {
	Name string
	Args string // literal argument text, unparsed
}

// LocalName is the type's dotted name within its package.
func (t *TypeDecl) LocalName() string {
	if t.Outer == "" {
		return t.Name
	}
	return t.Outer + "." + t.Name
}

// QualifiedName joins the record's package with the type's local name.
func (r *Record) QualifiedName(t *TypeDecl) string {
	if r.Package == "" {
		return t.LocalName()
	}
	return r.Package + "." + t.LocalName()
}

// Empty reports whether nothing structural was recognised.
func (r *Record) Empty() bool {
	return r.Package == "" && len(r.Types) == 0 && len(r.Imports) == 0
}

// ParamTypes returns the erased parameter types used to key overloads.
func (m *Member) ParamTypes() []string {
	out := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		out = append(out, EraseType(p.Type))
	}
	return out
}

// EraseType drops generic arguments and whitespace and folds varargs into
// array form: "Map<K, List<V>>..." becomes "Map[]".
func EraseType(text string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '<':
			depth++
		case c == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			b.WriteByte(c)
		}
	}
	return strings.ReplaceAll(b.String(), "...", "[]")
}
