// Package resolver turns textual type names into qualified names. Localize
// runs per file inside the workers; Table and Resolve run once after the
// barrier, when every declared type is known.
package resolver

import (
	"strings"

	"javakg/internal/engine/extract"
)

type RefKind int

const (
	RefExtends RefKind = iota
	RefImplements
	RefAnnotation
)

// Reference is a name written in one file that needs cross-file meaning.
type Reference struct {
	Kind RefKind
	// Type is the declaring type; Member indexes Type.Members, -1 when the
	// reference belongs to the type itself.
	Type   *extract.TypeDecl
	Member int
	Name   string
	// Enclosing is the qualified name of the innermost type whose member
	// types are in scope, empty for a top-level type's header.
	Enclosing string
}

// Local is the per-file import scope plus the references awaiting resolution.
type Local struct {
	Path       string
	Package    string
	Single     map[string]string // simple name -> imported qualified name
	Wildcards  []string          // on-demand imported packages or types
	Imports    []extract.Import
	References []Reference
}

// Localize derives a file's import scope and pending references. It reads
// only the record, so it is safe to run concurrently across files.
func Localize(rec *extract.Record) *Local {
	l := &Local{
		Path:    rec.Path,
		Package: rec.Package,
		Single:  make(map[string]string),
		Imports: rec.Imports,
	}
	for _, imp := range rec.Imports {
		switch {
		case imp.Static:
		case imp.Wildcard:
			l.Wildcards = append(l.Wildcards, imp.Name)
		default:
			l.Single[lastSegment(imp.Name)] = imp.Name
		}
	}

	for _, t := range rec.Types {
		// A type's own member types are in scope only inside its body, not
		// in its header.
		outer := ""
		if t.Outer != "" {
			outer = Qualify(rec.Package, t.Outer)
		}
		for _, ref := range t.Extends {
			l.add(RefExtends, t, -1, ref.Erasure, outer)
		}
		for _, ref := range t.Implements {
			l.add(RefImplements, t, -1, ref.Erasure, outer)
		}
		for _, a := range t.Annotations {
			l.add(RefAnnotation, t, -1, a.Name, outer)
		}
		body := rec.QualifiedName(t)
		for i, m := range t.Members {
			for _, a := range m.Annotations {
				l.add(RefAnnotation, t, i, a.Name, body)
			}
		}
	}
	return l
}

func (l *Local) add(kind RefKind, t *extract.TypeDecl, member int, name, enclosing string) {
	name = strings.TrimSpace(name)
	if name == "" || name == "?" {
		return
	}
	l.References = append(l.References, Reference{
		Kind:      kind,
		Type:      t,
		Member:    member,
		Name:      name,
		Enclosing: enclosing,
	})
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func parentName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}
