// Package syntax cross-checks the pattern extractor against a real Java
// grammar. It never contributes entities, only the malformed-file signal.
package syntax

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// Report summarises grammar errors found in one file.
type Report struct {
	Errors  int
	Missing int
	// FirstLine is the 1-based line of the first problem, 0 when clean.
	FirstLine int
}

func (r Report) Clean() bool { return r.Errors == 0 && r.Missing == 0 }

func (r Report) String() string {
	if r.Clean() {
		return "no syntax errors"
	}
	return fmt.Sprintf("tree-sitter found %d error and %d missing node(s), first at line %d",
		r.Errors, r.Missing, r.FirstLine)
}

type Verifier struct {
	pool *ParserPool
}

// NewVerifier builds a verifier backed by the bundled Java grammar.
func NewVerifier() *Verifier {
	return &Verifier{pool: NewParserPool(sitter.NewLanguage(tree_sitter_java.Language()))}
}

// Verify parses src and counts ERROR and MISSING nodes.
func (v *Verifier) Verify(src []byte) Report {
	sp := v.pool.Get()
	defer v.pool.Put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return Report{Errors: 1, FirstLine: 1}
	}
	defer tree.Close()

	root := tree.RootNode()
	var rep Report
	if !root.HasError() {
		return rep
	}
	walk(root, &rep)
	return rep
}

func walk(n *sitter.Node, rep *Report) {
	switch {
	case n.IsError():
		rep.Errors++
		rep.note(n)
	case n.IsMissing():
		rep.Missing++
		rep.note(n)
	}
	if !n.HasError() {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			walk(child, rep)
		}
	}
}

func (r *Report) note(n *sitter.Node) {
	line := int(n.StartPosition().Row) + 1
	if r.FirstLine == 0 || line < r.FirstLine {
		r.FirstLine = line
	}
}
