package extract

import (
	"bytes"
	"fmt"
	"strings"

	"javakg/internal/engine/diagnostic"
)

type frameKind int

const (
	frameFile frameKind = iota
	frameType
	frameOpaque
)

type frame struct {
	kind frameKind
	decl *TypeDecl

	// opaque frames
	depth  int
	resume bool // keep the enclosing segment open after the block closes

	// enum frames start with the constant list
	consts     bool
	constStart int
}

type scanner struct {
	src      []byte
	m        *Masked
	rec      *Record
	stack    []*frame
	segStart int
	paren    int
	issues   []string
	seen     map[string]bool
}

// Extract scans one Java source file into a local structural record. It
// never fails: malformed input yields a partial record and a single warning.
func Extract(path string, src []byte) (rec *Record) {
	rec = &Record{Path: path}
	s := &scanner{
		src:   src,
		m:     Tokenize(src),
		rec:   rec,
		stack: []*frame{{kind: frameFile}},
		seen:  make(map[string]bool),
	}
	defer func() {
		if r := recover(); r != nil {
			s.issue(fmt.Sprintf("extractor stopped early: %v", r))
			s.finish()
		}
	}()
	s.run()
	s.finish()
	return rec
}

func (s *scanner) issue(msg string) {
	if s.seen[msg] {
		return
	}
	s.seen[msg] = true
	s.issues = append(s.issues, msg)
}

func (s *scanner) top() *frame { return s.stack[len(s.stack)-1] }

func (s *scanner) push(f *frame) { s.stack = append(s.stack, f) }

func (s *scanner) pop() { s.stack = s.stack[:len(s.stack)-1] }

func (s *scanner) run() {
	text := s.m.Text
	for i := 0; i < len(text); i++ {
		if s.m.Class[i] != ClassCode {
			continue
		}
		c := text[i]
		top := s.top()

		if top.kind == frameOpaque {
			switch c {
			case '{':
				top.depth++
			case '}':
				top.depth--
				if top.depth == 0 {
					s.pop()
					if !top.resume {
						s.segStart = i + 1
					}
				}
			}
			continue
		}

		switch c {
		case '(':
			s.paren++
		case ')':
			if s.paren > 0 {
				s.paren--
			} else {
				s.issue("unbalanced parentheses")
			}
		case ';':
			if s.paren > 0 {
				continue
			}
			if top.consts {
				s.enumConstants(top.decl, top.constStart, i)
				top.consts = false
			} else {
				s.statement(top, s.segStart, i)
			}
			s.segStart = i + 1
		case '{':
			if s.paren > 0 {
				continue
			}
			if top.consts {
				s.push(&frame{kind: frameOpaque, depth: 1, resume: true})
				continue
			}
			s.open(top, i)
		case '}':
			if s.paren > 0 {
				continue
			}
			s.close(top, i)
		}
	}

	if top := s.top(); top.consts {
		s.enumConstants(top.decl, top.constStart, len(text))
		top.consts = false
	}
	if open := len(s.stack) - 1; open > 0 {
		s.issue(fmt.Sprintf("unbalanced braces: %d block(s) left open", open))
	}
	if s.paren > 0 {
		s.issue("unclosed parenthesis")
	}
	if s.m.Unterminated != "" {
		s.issue("unterminated " + s.m.Unterminated)
	}
}

func (s *scanner) finish() {
	s.rec.Diagnostics = nil
	switch {
	case len(s.issues) > 0:
		s.rec.Diagnostics.Warn(s.rec.Path, diagnostic.CodeMalformed,
			"partial record: %s", strings.Join(s.issues, "; "))
	case s.rec.Empty():
		s.rec.Diagnostics.Info(s.rec.Path, diagnostic.CodeEmptyRecord,
			"no package, import or type declaration found")
	}
}

func (s *scanner) open(top *frame, at int) {
	from := s.segStart
	if top.kind == frameType && s.continuesSegment(from, at) {
		s.push(&frame{kind: frameOpaque, depth: 1, resume: true})
		return
	}

	p := newHeaderParser(s.src, s.m, from, at)
	if decl, pos, ok := p.parseTypeHeader(); ok {
		if top.kind == frameType {
			decl.Outer = top.decl.LocalName()
		}
		decl.Line = s.m.Line(pos)
		decl.Deprecated = hasDeprecated(decl.Annotations) || s.javadocDeprecated(from, at)
		s.rec.Types = append(s.rec.Types, decl)
		s.push(&frame{kind: frameType, decl: decl, consts: decl.Kind == KindEnum, constStart: at + 1})
		s.segStart = at + 1
		return
	}

	if top.kind == frameType {
		mp := newHeaderParser(s.src, s.m, from, at)
		if members, positions, ok := mp.parseMember(); ok {
			s.addMembers(top.decl, members, positions, from, at)
		} else if top.decl.IsRecord {
			cp := newHeaderParser(s.src, s.m, from, at)
			if m, pos, ok := cp.parseCompactConstructor(top.decl); ok {
				s.addMembers(top.decl, []Member{m}, []int{pos}, from, at)
			}
		}
	}
	s.push(&frame{kind: frameOpaque, depth: 1})
}

func (s *scanner) close(top *frame, at int) {
	switch top.kind {
	case frameFile:
		s.issue("unexpected '}'")
	case frameType:
		if top.consts {
			s.enumConstants(top.decl, top.constStart, at)
			top.consts = false
		}
		s.pop()
	}
	s.segStart = at + 1
}

// continuesSegment reports whether a brace belongs to a field initializer or
// an annotation default rather than starting a body.
func (s *scanner) continuesSegment(from, to int) bool {
	depth := 0
	for k := from; k < to; k++ {
		if s.m.Class[k] != ClassCode {
			continue
		}
		switch s.m.Text[k] {
		case '(':
			depth++
		case ')':
			depth--
		case '=':
			if depth == 0 {
				return true
			}
		}
	}
	trimmed := bytes.TrimSpace(s.m.Text[from:to])
	return bytes.HasSuffix(trimmed, []byte("default")) &&
		(len(trimmed) == 7 || !isIdentByte(trimmed[len(trimmed)-8]))
}

func (s *scanner) statement(top *frame, from, to int) {
	switch top.kind {
	case frameType:
		p := newHeaderParser(s.src, s.m, from, to)
		if members, positions, ok := p.parseMember(); ok {
			s.addMembers(top.decl, members, positions, from, to)
		}
	case frameFile:
		p := newHeaderParser(s.src, s.m, from, to)
		p.prefix()
		switch p.peek(0) {
		case "package":
			p.i++
			if name := p.qualifiedName(); name != "" && s.rec.Package == "" {
				s.rec.Package = name
			}
		case "import":
			line := s.m.Line(p.toks[p.i].pos)
			p.i++
			imp := Import{Line: line}
			if p.peek(0) == "static" {
				imp.Static = true
				p.i++
			}
			imp.Name = p.qualifiedName()
			if p.peek(0) == "." && p.peek(1) == "*" {
				imp.Wildcard = true
			}
			if imp.Name != "" {
				s.rec.Imports = append(s.rec.Imports, imp)
			}
		}
	}
}

func (s *scanner) addMembers(decl *TypeDecl, members []Member, positions []int, from, to int) {
	javadoc := s.javadocDeprecated(from, to)
	for k := range members {
		m := members[k]
		m.Line = s.m.Line(positions[k])
		m.Deprecated = javadoc || hasDeprecated(m.Annotations)
		decl.Members = append(decl.Members, m)
	}
}

func (s *scanner) enumConstants(decl *TypeDecl, from, to int) {
	p := newHeaderParser(s.src, s.m, from, to)
	for !p.done() {
		anns, _ := p.prefix()
		if !p.isIdent(0) {
			return
		}
		m := Member{
			Kind:        MemberField,
			Name:        p.peek(0),
			Type:        decl.Name,
			Constant:    true,
			Annotations: anns,
			Line:        s.m.Line(p.toks[p.i].pos),
			Deprecated:  hasDeprecated(anns),
		}
		p.i++
		if p.peek(0) == "(" {
			closeIdx := p.matchClose(p.i, "(", ")")
			if closeIdx < 0 {
				return
			}
			p.i = closeIdx + 1
		}
		if p.peek(0) == "{" {
			closeIdx := p.matchClose(p.i, "{", "}")
			if closeIdx < 0 {
				return
			}
			p.i = closeIdx + 1
		}
		decl.Members = append(decl.Members, m)
		if p.peek(0) != "," {
			return
		}
		p.i++
	}
}

func (s *scanner) javadocDeprecated(from, to int) bool {
	span, ok := s.m.JavadocIn(from, to)
	if !ok {
		return false
	}
	return bytes.Contains(s.src[span.Start:span.End], []byte("@deprecated"))
}

func hasDeprecated(anns []Annotation) bool {
	for _, a := range anns {
		if a.Name == "Deprecated" || a.Name == "java.lang.Deprecated" {
			return true
		}
	}
	return false
}
