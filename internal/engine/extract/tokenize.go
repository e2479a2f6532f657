package extract

import "sort"

// ByteClass tags each source byte after the masking pass.
type ByteClass uint8

const (
	ClassCode ByteClass = iota
	ClassComment
	ClassLiteral
)

// Span is a half-open byte range into the original source.
type Span struct {
	Start, End int
}

// Masked is the source with every comment body and literal content replaced
// by spaces. It has the same length as the input, so offsets and line numbers
// computed on Text are valid for the original bytes too.
type Masked struct {
	Text     []byte
	Class    []ByteClass
	Javadocs []Span
	// Unterminated names a comment or literal left open at end of input.
	Unterminated string

	lineStarts []int
}

// Tokenize runs the comment/literal stripping pre-pass.
func Tokenize(src []byte) *Masked {
	m := &Masked{
		Text:       make([]byte, len(src)),
		Class:      make([]ByteClass, len(src)),
		lineStarts: []int{0},
	}
	copy(m.Text, src)

	blank := func(i int, class ByteClass) {
		m.Class[i] = class
		if src[i] != '\n' && src[i] != '\r' {
			m.Text[i] = ' '
		}
	}

	n := len(src)
	i := 0
	for i < n {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				blank(i, ClassComment)
				i++
			}

		case c == '/' && i+1 < n && src[i+1] == '*':
			start := i
			javadoc := i+2 < n && src[i+2] == '*' && !(i+3 < n && src[i+3] == '/')
			blank(i, ClassComment)
			blank(i+1, ClassComment)
			i += 2
			closed := false
			for i < n {
				if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					blank(i, ClassComment)
					blank(i+1, ClassComment)
					i += 2
					closed = true
					break
				}
				blank(i, ClassComment)
				i++
			}
			if !closed {
				m.Unterminated = "block comment"
			}
			if javadoc {
				m.Javadocs = append(m.Javadocs, Span{Start: start, End: i})
			}

		case c == '"' && i+2 < n && src[i+1] == '"' && src[i+2] == '"':
			// Text block: delimiters stay visible, content is blanked.
			i += 3
			closed := false
			for i < n {
				if src[i] == '\\' && i+1 < n {
					blank(i, ClassLiteral)
					blank(i+1, ClassLiteral)
					i += 2
					continue
				}
				if src[i] == '"' && i+2 < n && src[i+1] == '"' && src[i+2] == '"' {
					i += 3
					closed = true
					break
				}
				blank(i, ClassLiteral)
				i++
			}
			if !closed {
				m.Unterminated = "text block"
			}

		case c == '"' || c == '\'':
			quote := c
			i++
			closed := false
			for i < n {
				if src[i] == '\\' && i+1 < n && src[i+1] != '\n' {
					blank(i, ClassLiteral)
					blank(i+1, ClassLiteral)
					i += 2
					continue
				}
				if src[i] == quote {
					i++
					closed = true
					break
				}
				if src[i] == '\n' {
					break
				}
				blank(i, ClassLiteral)
				i++
			}
			if !closed {
				if quote == '"' {
					m.Unterminated = "string literal"
				} else {
					m.Unterminated = "character literal"
				}
			}

		default:
			i++
		}
	}

	for k, b := range src {
		if b == '\n' {
			m.lineStarts = append(m.lineStarts, k+1)
		}
	}
	return m
}

// Line returns the 1-based line of offset.
func (m *Masked) Line(offset int) int {
	return sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	})
}

// JavadocIn returns the last javadoc span lying entirely within [from, to).
func (m *Masked) JavadocIn(from, to int) (Span, bool) {
	idx := sort.Search(len(m.Javadocs), func(i int) bool {
		return m.Javadocs[i].End > to
	})
	for k := idx - 1; k >= 0; k-- {
		s := m.Javadocs[k]
		if s.Start < from {
			break
		}
		return s, true
	}
	return Span{}, false
}
