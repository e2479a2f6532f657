package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"javakg/internal/engine/extract"
)

func records(srcs map[string]string, order []string) []*extract.Record {
	out := make([]*extract.Record, 0, len(order))
	for _, p := range order {
		out = append(out, extract.Extract(p, []byte(srcs[p])))
	}
	return out
}

func TestResolveAmbiguousSimpleNamePrefersImport(t *testing.T) {
	srcs := map[string]string{
		"pkg/a/Foo.java": "package pkg.a; public class Foo {}",
		"pkg/b/Foo.java": "package pkg.b; public class Foo {}",
		"pkg/c/Bar.java": "package pkg.c; import pkg.a.Foo; public class Bar extends Foo {}",
	}
	recs := records(srcs, []string{"pkg/a/Foo.java", "pkg/b/Foo.java", "pkg/c/Bar.java"})
	table := NewTable(recs)
	local := Localize(recs[2])

	require.Len(t, local.References, 1)
	ref := local.References[0]
	assert.Equal(t, RefExtends, ref.Kind)

	res := table.Resolve(local, ref.Enclosing, ref.Name)
	assert.Equal(t, Resolution{Name: "pkg.a.Foo", Known: true, Rule: RuleImport}, res)
}

func TestResolveWildcardAmbiguityStaysUnresolved(t *testing.T) {
	srcs := map[string]string{
		"pkg/a/Foo.java": "package pkg.a; public class Foo {}",
		"pkg/b/Foo.java": "package pkg.b; public class Foo {}",
		"pkg/c/Bar.java": "package pkg.c; import pkg.a.*; import pkg.b.*; public class Bar extends Foo {}",
		"pkg/d/Baz.java": "package pkg.d; import pkg.a.*; public class Baz extends Foo {}",
	}
	recs := records(srcs, []string{"pkg/a/Foo.java", "pkg/b/Foo.java", "pkg/c/Bar.java", "pkg/d/Baz.java"})
	table := NewTable(recs)

	res := table.Resolve(Localize(recs[2]), "pkg.c.Bar", "Foo")
	assert.False(t, res.Known)
	assert.Equal(t, RuleAmbiguous, res.Rule)
	assert.Equal(t, "Foo", res.Name)

	res = table.Resolve(Localize(recs[3]), "pkg.d.Baz", "Foo")
	assert.Equal(t, Resolution{Name: "pkg.a.Foo", Known: true, Rule: RuleWildcard}, res)
}

func TestResolveOrder(t *testing.T) {
	srcs := map[string]string{
		"com/acme/A.java": `package com.acme;
import java.util.Map;
import org.other.Widget;
public class A extends B implements java.io.Serializable, Map.Entry<String, String> {
    static class Inner {}
    class Child extends Inner {}
}`,
		"com/acme/B.java": "package com.acme; public class B { public static class Nested {} }",
	}
	recs := records(srcs, []string{"com/acme/A.java", "com/acme/B.java"})
	table := NewTable(recs)
	local := Localize(recs[0])

	cases := []struct {
		enclosing, name string
		want            Resolution
	}{
		{"com.acme.A", "B", Resolution{Name: "com.acme.B", Known: true, Rule: RulePackage}},
		{"com.acme.A", "java.io.Serializable", Resolution{Name: "java.io.Serializable", Rule: RuleQualified}},
		{"com.acme.A", "com.acme.B", Resolution{Name: "com.acme.B", Known: true, Rule: RuleQualified}},
		{"com.acme.A", "B.Nested", Resolution{Name: "com.acme.B.Nested", Known: true, Rule: RulePackage}},
		{"com.acme.A.Child", "Inner", Resolution{Name: "com.acme.A.Inner", Known: true, Rule: RuleNested}},
		{"com.acme.A", "Map.Entry", Resolution{Name: "java.util.Map.Entry", Rule: RuleImport}},
		{"com.acme.A", "Widget", Resolution{Name: "org.other.Widget", Rule: RuleImport}},
		{"com.acme.A", "Override", Resolution{Name: "java.lang.Override", Rule: RuleJavaLang}},
		{"com.acme.A", "Mystery", Resolution{Name: "Mystery", Rule: RuleNone}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, table.Resolve(local, c.enclosing, c.name), c.name)
	}

	// Member types are not in scope in the declaring type's own header.
	shadow := map[string]string{
		"p/A.java": `package p;
class A extends Node {
    static class Node {}
    static class Box extends Node {}
}`,
		"p/Node.java": "package p; public class Node {}",
	}
	recs = records(shadow, []string{"p/A.java", "p/Node.java"})
	table = NewTable(recs)
	local = Localize(recs[0])

	supers := map[string]Resolution{}
	for _, ref := range local.References {
		if ref.Kind == RefExtends {
			supers[recs[0].QualifiedName(ref.Type)] = table.Resolve(local, ref.Enclosing, ref.Name)
		}
	}
	assert.Equal(t, Resolution{Name: "p.Node", Known: true, Rule: RulePackage}, supers["p.A"])
	assert.Equal(t, Resolution{Name: "p.A.Node", Known: true, Rule: RuleNested}, supers["p.A.Box"])
}

func TestNewTableCollisions(t *testing.T) {
	srcs := map[string]string{
		"one/Dup.java": "package p; class Dup {}",
		"two/Dup.java": "package p; class Dup { class In {} }",
	}
	recs := records(srcs, []string{"one/Dup.java", "two/Dup.java"})
	table := NewTable(recs)

	require.Len(t, table.Collisions(), 1)
	assert.Equal(t, Collision{Name: "p.Dup", Paths: []string{"one/Dup.java", "two/Dup.java"}}, table.Collisions()[0])

	decl, ok := table.Lookup("p.Dup")
	require.True(t, ok)
	assert.Equal(t, 1, decl.Record)
	assert.True(t, table.Known("p.Dup.In"))
	assert.True(t, table.HasPackage("p"))
	assert.Equal(t, 2, table.Len())
}

func TestLocalizeImportsAndReferences(t *testing.T) {
	rec := extract.Extract("x/Y.java", []byte(`package x;
import a.b.C;
import a.d.*;
import static a.b.C.helper;
@Marker
class Y implements I1, I2 {
    @Inject Dep dep;
}`))
	l := Localize(rec)
	assert.Equal(t, map[string]string{"C": "a.b.C"}, l.Single)
	assert.Equal(t, []string{"a.d"}, l.Wildcards)
	assert.Len(t, l.Imports, 3)
	assert.Equal(t, "a.b.C", OwnerOfStatic(l.Imports[2]))

	var kinds []RefKind
	for _, r := range l.References {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []RefKind{RefImplements, RefImplements, RefAnnotation, RefAnnotation}, kinds)
	assert.Equal(t, 0, l.References[3].Member)
	assert.Equal(t, -1, l.References[2].Member)
}
