package visualize

import (
	"fmt"
	"strings"

	"javakg/internal/engine/graph"
)

type DOTGenerator struct {
	opts Options
}

func NewDOTGenerator(opts Options) *DOTGenerator {
	return &DOTGenerator{opts: opts}
}

var dotNodeStyle = map[graph.NodeKind]string{
	graph.KindPackage:        `shape=folder, fillcolor="lightyellow"`,
	graph.KindFile:           `shape=note, fillcolor="white"`,
	graph.KindClass:          `shape=box, fillcolor="aliceblue"`,
	graph.KindInterface:      `shape=box, fillcolor="honeydew", style="rounded,filled,dashed"`,
	graph.KindEnum:           `shape=box, fillcolor="lavender"`,
	graph.KindAnnotationType: `shape=box, fillcolor="mistyrose"`,
	graph.KindMethod:         `shape=ellipse, fillcolor="white", fontsize=8`,
	graph.KindField:          `shape=ellipse, fillcolor="whitesmoke", fontsize=8`,
	graph.KindDependency:     `shape=component, fillcolor="gainsboro", color="grey"`,
	graph.KindUnresolved:     `shape=box, fillcolor="gainsboro", color="grey", style="rounded,filled,dotted"`,
}

var dotEdgeStyle = map[graph.EdgeKind]string{
	graph.EdgeContains:    `color="grey", arrowhead=none`,
	graph.EdgeImports:     `color="steelblue", style=dashed`,
	graph.EdgeExtends:     `color="forestgreen", arrowhead=empty, penwidth=1.8`,
	graph.EdgeImplements:  `color="forestgreen", arrowhead=empty, style=dashed`,
	graph.EdgeAnnotatedBy: `color="darkorchid", arrowhead=dot`,
	graph.EdgeDependsOn:   `color="darkorange", penwidth=1.5`,
}

func (d *DOTGenerator) Generate(view graph.View) string {
	s := selectView(view, d.opts)
	var buf strings.Builder

	fmt.Fprintf(&buf, "digraph %s {\n", dotQuote(d.opts.Title))
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n")
	buf.WriteString("  overlap=false;\n\n")

	for i, pkg := range s.pkgs {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%s;\n", dotQuote(label(s.byID[pkg])))
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		d.writeNode(&buf, "    ", s.byID[pkg])
		for _, id := range s.members[pkg] {
			d.writeNode(&buf, "    ", s.byID[id])
		}
		buf.WriteString("  }\n")
	}
	if len(s.loose) > 0 {
		buf.WriteString("\n  // outside the source tree\n")
		for _, id := range s.loose {
			d.writeNode(&buf, "  ", s.byID[id])
		}
	}

	if len(s.edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range s.edges {
		attrs := dotEdgeStyle[e.Kind]
		if e.Kind != graph.EdgeContains {
			attrs += ", label=" + dotQuote(string(e.Kind))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", dotQuote(e.SourceID), dotQuote(e.TargetID), attrs)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func (d *DOTGenerator) writeNode(buf *strings.Builder, indent string, n graph.Node) {
	style, ok := dotNodeStyle[n.Kind]
	if !ok {
		style = `shape=box`
	}
	fmt.Fprintf(buf, "%s%s [label=%s, %s];\n", indent, dotQuote(n.ID), dotQuote(label(n)), style)
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
