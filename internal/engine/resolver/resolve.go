package resolver

import "strings"

// Rule names the step that produced a resolution.
type Rule string

const (
	RuleQualified Rule = "qualified"
	RuleNested    Rule = "nested"
	RuleImport    Rule = "import"
	RulePackage   Rule = "package"
	RuleWildcard  Rule = "wildcard"
	RuleJavaLang  Rule = "java.lang"
	RuleAmbiguous Rule = "ambiguous"
	RuleNone      Rule = "none"
)

// Resolution is the outcome for one name. Known is false for names outside
// the analysed sources; Name then carries the best qualified guess, or the
// name as written.
type Resolution struct {
	Name  string
	Known bool
	Rule  Rule
}

var javaLang = map[string]bool{
	"Object": true, "String": true, "Integer": true, "Long": true, "Short": true,
	"Byte": true, "Character": true, "Boolean": true, "Double": true, "Float": true,
	"Number": true, "Math": true, "System": true, "Thread": true, "Runnable": true,
	"Iterable": true, "Comparable": true, "CharSequence": true, "Cloneable": true,
	"AutoCloseable": true, "Enum": true, "Record": true, "Class": true, "Void": true,
	"StringBuilder": true, "ThreadLocal": true, "Throwable": true, "Exception": true,
	"Error": true, "RuntimeException": true, "IllegalArgumentException": true,
	"IllegalStateException": true, "UnsupportedOperationException": true,
	"NullPointerException": true, "IndexOutOfBoundsException": true,
	"ClassCastException": true, "ArithmeticException": true, "InterruptedException": true,
	"CloneNotSupportedException": true, "Override": true, "Deprecated": true,
	"SuppressWarnings": true, "FunctionalInterface": true, "SafeVarargs": true,
}

// Resolve maps a written type name to a qualified name using, in order:
// exact qualified names, nested types of the enclosing chain, the file's
// single-type imports, the file's own package, and on-demand imports when
// exactly one candidate matches. Ambiguity is never guessed.
func (t *Table) Resolve(l *Local, enclosing, name string) Resolution {
	name = strings.TrimSpace(strings.TrimSuffix(name, "[]"))
	if !strings.Contains(name, ".") {
		return t.resolveSimple(l, enclosing, name)
	}
	if t.Known(name) {
		return Resolution{Name: name, Known: true, Rule: RuleQualified}
	}

	first, rest, _ := strings.Cut(name, ".")
	head := t.resolveSimple(l, enclosing, first)
	switch {
	case head.Known:
		candidate := head.Name + "." + rest
		if t.Known(candidate) {
			return Resolution{Name: candidate, Known: true, Rule: head.Rule}
		}
		return Resolution{Name: candidate, Rule: head.Rule}
	case head.Rule == RuleImport || head.Rule == RuleJavaLang:
		// Outer type imported from outside the sources, e.g. Map.Entry.
		return Resolution{Name: head.Name + "." + rest, Rule: head.Rule}
	}
	return Resolution{Name: name, Rule: RuleQualified}
}

func (t *Table) resolveSimple(l *Local, enclosing, name string) Resolution {
	for scope := enclosing; scope != ""; scope = parentName(scope) {
		if !t.Known(scope) {
			break
		}
		if candidate := scope + "." + name; t.Known(candidate) {
			return Resolution{Name: candidate, Known: true, Rule: RuleNested}
		}
	}

	if l != nil {
		if fqn, ok := l.Single[name]; ok {
			return Resolution{Name: fqn, Known: t.Known(fqn), Rule: RuleImport}
		}
		if candidate := Qualify(l.Package, name); t.Known(candidate) {
			return Resolution{Name: candidate, Known: true, Rule: RulePackage}
		}

		var matches []string
		for _, w := range l.Wildcards {
			if candidate := w + "." + name; t.Known(candidate) {
				matches = append(matches, candidate)
			}
		}
		switch len(matches) {
		case 1:
			return Resolution{Name: matches[0], Known: true, Rule: RuleWildcard}
		case 0:
		default:
			return Resolution{Name: name, Rule: RuleAmbiguous}
		}
	}

	if javaLang[name] {
		qualified := "java.lang." + name
		return Resolution{Name: qualified, Known: t.Known(qualified), Rule: RuleJavaLang}
	}
	return Resolution{Name: name, Rule: RuleNone}
}
