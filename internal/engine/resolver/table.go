package resolver

import (
	"sort"

	"javakg/internal/engine/extract"
)

// Declaration locates the winning declaration of a qualified type name.
type Declaration struct {
	Record int // index into the slice given to NewTable
	Type   *extract.TypeDecl
}

// Collision lists every file declaring the same qualified type name. The
// last path, in locator order, is the one kept.
type Collision struct {
	Name  string
	Paths []string
}

type Table struct {
	types      map[string]Declaration
	packages   map[string]bool
	collisions []Collision
}

// NewTable indexes every declared type. recs must be in locator order: a
// later declaration of the same name replaces an earlier one.
func NewTable(recs []*extract.Record) *Table {
	t := &Table{
		types:    make(map[string]Declaration),
		packages: make(map[string]bool),
	}
	declaredIn := make(map[string][]string)
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		t.packages[rec.Package] = true
		for _, decl := range rec.Types {
			fqn := rec.QualifiedName(decl)
			if paths := declaredIn[fqn]; len(paths) == 0 || paths[len(paths)-1] != rec.Path {
				declaredIn[fqn] = append(paths, rec.Path)
			}
			t.types[fqn] = Declaration{Record: i, Type: decl}
		}
	}
	for fqn, paths := range declaredIn {
		if len(paths) > 1 {
			t.collisions = append(t.collisions, Collision{Name: fqn, Paths: paths})
		}
	}
	sort.Slice(t.collisions, func(i, j int) bool { return t.collisions[i].Name < t.collisions[j].Name })
	return t
}

func (t *Table) Known(fqn string) bool {
	_, ok := t.types[fqn]
	return ok
}

func (t *Table) Lookup(fqn string) (Declaration, bool) {
	d, ok := t.types[fqn]
	return d, ok
}

// HasPackage reports whether any source file declares pkg.
func (t *Table) HasPackage(pkg string) bool { return t.packages[pkg] }

func (t *Table) Collisions() []Collision { return t.collisions }

// Len is the number of distinct qualified type names.
func (t *Table) Len() int { return len(t.types) }

// Qualify joins a package and a local type name.
func Qualify(pkg, local string) string {
	if pkg == "" {
		return local
	}
	return pkg + "." + local
}

// OwnerOfStatic returns the type a static import refers to.
func OwnerOfStatic(imp extract.Import) string {
	if imp.Wildcard {
		return imp.Name
	}
	return parentName(imp.Name)
}
