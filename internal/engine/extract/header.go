package extract

import (
	"strings"
)

type token struct {
	text string
	pos  int // absolute offset into the source
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c >= 0x80
}

// lexHeader splits masked[from:to] into identifiers and single-byte symbols.
// "..." is kept as one token.
func lexHeader(masked []byte, from, to int) []token {
	var toks []token
	i := from
	for i < to {
		c := masked[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			i++
		case isIdentByte(c):
			start := i
			for i < to && isIdentByte(masked[i]) {
				i++
			}
			toks = append(toks, token{text: string(masked[start:i]), pos: start})
		case c == '.' && i+2 < to && masked[i+1] == '.' && masked[i+2] == '.':
			toks = append(toks, token{text: "...", pos: i})
			i += 3
		default:
			toks = append(toks, token{text: string(c), pos: i})
			i++
		}
	}
	return toks
}

var modifierWords = map[string]bool{
	"public": true, "protected": true, "private": true, "static": true,
	"final": true, "abstract": true, "native": true, "synchronized": true,
	"transient": true, "volatile": true, "strictfp": true, "default": true,
	"sealed": true,
}

var reservedWords = map[string]bool{
	"return": true, "new": true, "throw": true, "if": true, "else": true,
	"for": true, "while": true, "do": true, "switch": true, "case": true,
	"try": true, "catch": true, "finally": true, "assert": true, "break": true,
	"continue": true, "this": true, "super": true, "import": true,
	"package": true, "class": true, "interface": true, "enum": true,
	"extends": true, "implements": true, "throws": true, "instanceof": true,
	"true": true, "false": true, "null": true,
}

type headerParser struct {
	toks []token
	i    int
	src  []byte
	m    *Masked
}

func newHeaderParser(src []byte, m *Masked, from, to int) *headerParser {
	return &headerParser{toks: lexHeader(m.Text, from, to), src: src, m: m}
}

func (p *headerParser) peek(k int) string {
	if p.i+k < len(p.toks) {
		return p.toks[p.i+k].text
	}
	return ""
}

func (p *headerParser) done() bool { return p.i >= len(p.toks) }

func (p *headerParser) isIdent(k int) bool {
	s := p.peek(k)
	return s != "" && isIdentByte(s[0]) && !(s[0] >= '0' && s[0] <= '9')
}

// matchClose returns the index of the token closing the bracket at p.toks[open].
func (p *headerParser) matchClose(open int, openCh, closeCh string) int {
	depth := 0
	for k := open; k < len(p.toks); k++ {
		switch p.toks[k].text {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func (p *headerParser) qualifiedName() string {
	if !p.isIdent(0) {
		return ""
	}
	parts := []string{p.peek(0)}
	p.i++
	for p.peek(0) == "." && p.isIdent(1) {
		parts = append(parts, p.peek(1))
		p.i += 2
	}
	return strings.Join(parts, ".")
}

// prefix consumes interleaved annotations and modifiers.
func (p *headerParser) prefix() ([]Annotation, []string) {
	var anns []Annotation
	var mods []string
	for !p.done() {
		switch {
		case p.peek(0) == "@" && p.peek(1) != "interface":
			p.i++
			name := p.qualifiedName()
			if name == "" {
				return anns, mods
			}
			ann := Annotation{Name: name}
			if p.peek(0) == "(" {
				closeIdx := p.matchClose(p.i, "(", ")")
				if closeIdx < 0 {
					p.i = len(p.toks)
					anns = append(anns, ann)
					return anns, mods
				}
				ann.Args = p.literalText(p.toks[p.i].pos+1, p.toks[closeIdx].pos)
				p.i = closeIdx + 1
			}
			anns = append(anns, ann)
		case p.peek(0) == "non" && p.peek(1) == "-" && p.peek(2) == "sealed":
			mods = append(mods, "non-sealed")
			p.i += 3
		case modifierWords[p.peek(0)]:
			mods = append(mods, p.peek(0))
			p.i++
		default:
			return anns, mods
		}
	}
	return anns, mods
}

// literalText returns src[from:to] with comments removed and code whitespace
// collapsed; literal contents are kept verbatim.
func (p *headerParser) literalText(from, to int) string {
	var b strings.Builder
	space := false
	for k := from; k < to; k++ {
		c := p.src[k]
		switch p.m.Class[k] {
		case ClassComment:
			space = true
			continue
		case ClassLiteral:
		default:
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				space = true
				continue
			}
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteByte(c)
	}
	return b.String()
}

// typeRef parses a possibly generic, possibly array type.
func (p *headerParser) typeRef() (TypeRef, bool) {
	// Type-use annotations are not recorded.
	for p.peek(0) == "@" && p.peek(1) != "interface" {
		p.i++
		p.qualifiedName()
		if p.peek(0) == "(" {
			if c := p.matchClose(p.i, "(", ")"); c > 0 {
				p.i = c + 1
			}
		}
	}
	if p.peek(0) == "?" {
		p.i++
		text := "?"
		if kw := p.peek(0); kw == "extends" || kw == "super" {
			p.i++
			bound, ok := p.typeRef()
			if !ok {
				return TypeRef{}, false
			}
			text += " " + kw + " " + bound.Text
		}
		return TypeRef{Text: text, Erasure: "?"}, true
	}
	if !p.isIdent(0) || reservedWords[p.peek(0)] {
		return TypeRef{}, false
	}

	var text, erasure strings.Builder
	for {
		name := p.peek(0)
		p.i++
		text.WriteString(name)
		erasure.WriteString(name)
		if p.peek(0) == "<" {
			args, ok := p.typeArgs()
			if !ok {
				return TypeRef{}, false
			}
			text.WriteString(args)
		}
		if p.peek(0) == "." && p.isIdent(1) {
			text.WriteByte('.')
			erasure.WriteByte('.')
			p.i++
			continue
		}
		break
	}
	for p.peek(0) == "[" && p.peek(1) == "]" {
		text.WriteString("[]")
		p.i += 2
	}
	return TypeRef{Text: text.String(), Erasure: erasure.String()}, true
}

func (p *headerParser) typeArgs() (string, bool) {
	p.i++ // "<"
	if p.peek(0) == ">" {
		p.i++
		return "<>", true
	}
	var parts []string
	for {
		arg, ok := p.typeRef()
		if !ok {
			return "", false
		}
		for p.peek(0) == "&" {
			p.i++
			extra, ok := p.typeRef()
			if !ok {
				return "", false
			}
			arg.Text += " & " + extra.Text
		}
		parts = append(parts, arg.Text)
		switch p.peek(0) {
		case ",":
			p.i++
		case ">":
			p.i++
			return "<" + strings.Join(parts, ", ") + ">", true
		default:
			return "", false
		}
	}
}

// typeParams parses a declaration's "<T extends X, U>" list as written.
func (p *headerParser) typeParams() ([]string, bool) {
	if p.peek(0) != "<" {
		return nil, true
	}
	p.i++
	var out []string
	for {
		for p.peek(0) == "@" {
			p.i++
			p.qualifiedName()
		}
		if !p.isIdent(0) {
			return nil, false
		}
		param := p.peek(0)
		p.i++
		if p.peek(0) == "extends" {
			p.i++
			bound, ok := p.typeRef()
			if !ok {
				return nil, false
			}
			param += " extends " + bound.Text
			for p.peek(0) == "&" {
				p.i++
				extra, ok := p.typeRef()
				if !ok {
					return nil, false
				}
				param += " & " + extra.Text
			}
		}
		out = append(out, param)
		switch p.peek(0) {
		case ",":
			p.i++
		case ">":
			p.i++
			return out, true
		default:
			return nil, false
		}
	}
}

func (p *headerParser) typeList() []TypeRef {
	var out []TypeRef
	for {
		ref, ok := p.typeRef()
		if !ok {
			return out
		}
		out = append(out, ref)
		if p.peek(0) != "," {
			return out
		}
		p.i++
	}
}

// params parses the parenthesised list starting at the current "(".
func (p *headerParser) params() ([]Param, bool) {
	closeIdx := p.matchClose(p.i, "(", ")")
	if closeIdx < 0 {
		return nil, false
	}
	p.i++
	var out []Param
	for p.i < closeIdx {
		anns, _ := p.prefix()
		ref, ok := p.typeRef()
		if !ok {
			p.i = closeIdx + 1
			return out, false
		}
		typ := ref.Text
		if p.peek(0) == "..." {
			typ += "..."
			p.i++
		}
		param := Param{Type: typ}
		for _, a := range anns {
			param.Annotations = append(param.Annotations, a.Name)
		}
		if p.isIdent(0) {
			param.Name = p.peek(0)
			p.i++
		} else if p.peek(0) == "this" {
			param.Name = "this"
			p.i++
		}
		for p.peek(0) == "[" && p.peek(1) == "]" {
			param.Type += "[]"
			p.i += 2
		}
		out = append(out, param)
		if p.peek(0) == "," {
			p.i++
			continue
		}
		if p.i != closeIdx {
			p.i = closeIdx + 1
			return out, false
		}
	}
	p.i = closeIdx + 1
	return out, true
}

func (p *headerParser) namePos() int {
	if p.i > 0 && p.i-1 < len(p.toks) {
		return p.toks[p.i-1].pos
	}
	return 0
}

// parseTypeHeader recognises a class/interface/enum/record/@interface header.
func (p *headerParser) parseTypeHeader() (*TypeDecl, int, bool) {
	anns, mods := p.prefix()
	decl := &TypeDecl{Annotations: anns, Modifiers: mods}
	switch {
	case p.peek(0) == "class":
		decl.Kind = KindClass
		p.i++
	case p.peek(0) == "interface":
		decl.Kind = KindInterface
		p.i++
	case p.peek(0) == "enum":
		decl.Kind = KindEnum
		p.i++
	case p.peek(0) == "@" && p.peek(1) == "interface":
		decl.Kind = KindAnnotationType
		p.i += 2
	case p.peek(0) == "record" && p.isIdent(1) && (p.peek(2) == "(" || p.peek(2) == "<"):
		decl.Kind = KindClass
		decl.IsRecord = true
		p.i++
	default:
		return nil, 0, false
	}
	if !p.isIdent(0) || reservedWords[p.peek(0)] {
		return nil, 0, false
	}
	decl.Name = p.peek(0)
	p.i++
	pos := p.namePos()

	tps, ok := p.typeParams()
	if !ok {
		return nil, 0, false
	}
	decl.TypeParams = tps

	if decl.IsRecord && p.peek(0) == "(" {
		comps, _ := p.params()
		decl.Components = comps
	}

	for !p.done() {
		switch p.peek(0) {
		case "extends":
			p.i++
			decl.Extends = append(decl.Extends, p.typeList()...)
		case "implements":
			p.i++
			decl.Implements = append(decl.Implements, p.typeList()...)
		case "permits":
			p.i++
			p.typeList()
		default:
			// Trailing noise is tolerated; the header is already identified.
			p.i = len(p.toks)
		}
	}
	return decl, pos, true
}

// parseCompactConstructor recognises a record's canonical constructor written
// without a parameter list, `public R {`. Its parameters are the components.
func (p *headerParser) parseCompactConstructor(record *TypeDecl) (Member, int, bool) {
	anns, mods := p.prefix()
	if p.peek(0) != record.Name || p.i+1 != len(p.toks) {
		return Member{}, 0, false
	}
	p.i++
	m := Member{Kind: MemberMethod, Name: record.Name, Constructor: true,
		Annotations: anns, Modifiers: mods}
	m.Params = append(m.Params, record.Components...)
	return m, p.namePos(), true
}

// parseMember recognises method, constructor and field headers.
func (p *headerParser) parseMember() ([]Member, []int, bool) {
	anns, mods := p.prefix()
	tps, ok := p.typeParams()
	if !ok {
		return nil, nil, false
	}

	// Constructor: Name(
	if p.isIdent(0) && p.peek(1) == "(" && !reservedWords[p.peek(0)] {
		m := Member{Kind: MemberMethod, Name: p.peek(0), Constructor: true,
			Annotations: anns, Modifiers: mods, TypeParams: tps}
		p.i++
		pos := p.namePos()
		params, _ := p.params()
		m.Params = params
		p.trailer(&m)
		return []Member{m}, []int{pos}, true
	}

	ref, ok := p.typeRef()
	if !ok || !p.isIdent(0) || reservedWords[p.peek(0)] {
		return nil, nil, false
	}
	name := p.peek(0)
	p.i++
	pos := p.namePos()

	if p.peek(0) == "(" {
		m := Member{Kind: MemberMethod, Name: name, Type: ref.Text,
			Annotations: anns, Modifiers: mods, TypeParams: tps}
		params, _ := p.params()
		m.Params = params
		for p.peek(0) == "[" && p.peek(1) == "]" {
			m.Type += "[]"
			p.i += 2
		}
		p.trailer(&m)
		return []Member{m}, []int{pos}, true
	}
	if len(tps) > 0 {
		return nil, nil, false
	}

	var members []Member
	var positions []int
	for {
		f := Member{Kind: MemberField, Name: name, Type: ref.Text,
			Annotations: anns, Modifiers: mods}
		for p.peek(0) == "[" && p.peek(1) == "]" {
			f.Type += "[]"
			p.i += 2
		}
		members = append(members, f)
		positions = append(positions, pos)

		if p.peek(0) == "=" {
			p.skipInitializer()
		}
		if p.peek(0) != "," || !p.isIdent(1) {
			break
		}
		next := p.peek(2)
		if next != "" && next != "=" && next != "," && next != "[" {
			break
		}
		p.i++
		name = p.peek(0)
		p.i++
		pos = p.namePos()
	}
	return members, positions, true
}

// trailer consumes throws and annotation-member default clauses.
func (p *headerParser) trailer(m *Member) {
	if p.peek(0) == "throws" {
		p.i++
		for _, t := range p.typeList() {
			m.Throws = append(m.Throws, t.Text)
		}
	}
	if p.peek(0) == "default" && p.i+1 < len(p.toks) {
		from := p.toks[p.i+1].pos
		to := p.toks[len(p.toks)-1].pos + len(p.toks[len(p.toks)-1].text)
		m.Default = p.literalText(from, to)
		p.i = len(p.toks)
	}
}

// skipInitializer advances past "= expr" up to a top-level comma or the end.
func (p *headerParser) skipInitializer() {
	depth := 0
	for p.i++; !p.done(); p.i++ {
		switch p.peek(0) {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		case ",":
			if depth == 0 {
				return
			}
		}
	}
}
