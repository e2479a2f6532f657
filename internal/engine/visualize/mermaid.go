package visualize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"javakg/internal/engine/graph"
)

type MermaidGenerator struct {
	opts Options
}

func NewMermaidGenerator(opts Options) *MermaidGenerator {
	return &MermaidGenerator{opts: opts}
}

var mermaidClass = map[graph.NodeKind]string{
	graph.KindPackage:        "packageNode",
	graph.KindFile:           "fileNode",
	graph.KindClass:          "typeNode",
	graph.KindInterface:      "typeNode",
	graph.KindEnum:           "typeNode",
	graph.KindAnnotationType: "annotationNode",
	graph.KindMethod:         "memberNode",
	graph.KindField:          "memberNode",
	graph.KindDependency:     "externalNode",
	graph.KindUnresolved:     "externalNode",
}

var mermaidClassDefs = map[string]string{
	"packageNode":    "fill:#fffbe6,stroke:#8a7a2b",
	"fileNode":       "fill:#ffffff,stroke:#4d6480",
	"typeNode":       "fill:#f7fbff,stroke:#4d6480,stroke-width:1px",
	"annotationNode": "fill:#fff0f0,stroke:#a05050",
	"memberNode":     "fill:#fafafa,stroke:#999999",
	"externalNode":   "fill:#efefef,stroke:#808080,stroke-dasharray:4 3",
}

func (m *MermaidGenerator) Generate(view graph.View) string {
	s := selectView(view, m.opts)
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	names := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		names = append(names, n.ID)
	}
	ids := makeMermaidIDs(names)

	for _, pkg := range s.pkgs {
		fmt.Fprintf(&b, "  subgraph %s_group[\"%s\"]\n", ids[pkg], escapeMermaidLabel(label(s.byID[pkg])))
		b.WriteString("    " + mermaidNode(ids[pkg], s.byID[pkg]) + "\n")
		for _, id := range s.members[pkg] {
			b.WriteString("    " + mermaidNode(ids[id], s.byID[id]) + "\n")
		}
		b.WriteString("  end\n")
	}
	for _, id := range s.loose {
		b.WriteString("  " + mermaidNode(ids[id], s.byID[id]) + "\n")
	}

	byClass := make(map[string][]string)
	for _, n := range s.nodes {
		if class, ok := mermaidClass[n.Kind]; ok {
			byClass[class] = append(byClass[class], ids[n.ID])
		}
	}
	if len(byClass) > 0 {
		b.WriteString("\n")
	}
	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Fprintf(&b, "  classDef %s %s;\n", class, mermaidClassDefs[class])
		fmt.Fprintf(&b, "  class %s %s;\n", strings.Join(byClass[class], ","), class)
	}

	if len(s.edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range s.edges {
		if e.Kind == graph.EdgeContains {
			fmt.Fprintf(&b, "  %s --- %s\n", ids[e.SourceID], ids[e.TargetID])
			continue
		}
		arrow := "-->"
		if e.Kind == graph.EdgeImports || e.Kind == graph.EdgeImplements {
			arrow = "-.->"
		}
		fmt.Fprintf(&b, "  %s %s|%s| %s\n", ids[e.SourceID], arrow, e.Kind, ids[e.TargetID])
	}
	return b.String()
}

func mermaidNode(id string, n graph.Node) string {
	text := escapeMermaidLabel(label(n))
	switch n.Kind {
	case graph.KindInterface:
		return fmt.Sprintf("%s([\"%s\"])", id, text)
	case graph.KindMethod, graph.KindField:
		return fmt.Sprintf("%s(\"%s\")", id, text)
	case graph.KindDependency:
		return fmt.Sprintf("%s[[\"%s\"]]", id, text)
	case graph.KindUnresolved:
		return fmt.Sprintf("%s{{\"%s\"}}", id, text)
	}
	return fmt.Sprintf("%s[\"%s\"]", id, text)
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

// makeMermaidIDs assigns stable identifiers; names that sanitize to the same
// base get a numeric suffix in input order.
func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
