package cli

import (
	"flag"
	"fmt"
	"io"

	"javakg/internal/data/query"
)

type cliOptions struct {
	configPath string
	out        string
	workers    int
	dot        string
	mermaid    string
	sqlite     string
	idStyle    string
	query      string
	queryLimit int
	ui         bool
	watch      bool
	verbose    bool
	version    bool
	noCompact  bool
	indent     bool
	members    bool
	verify     bool
	args       []string

	// set records which flags were given explicitly so they override the
	// config file and not the other way round.
	set map[string]bool
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("javakg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: javakg [flags] <root>")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./javakg.toml when present)")
	fs.StringVar(&opts.out, "out", "", "Output JSON path (default java_code_knowledge_graph.json)")
	fs.IntVar(&opts.workers, "workers", 0, "Number of extraction workers (default number of CPUs)")
	fs.StringVar(&opts.dot, "dot", "", "Also write a Graphviz DOT diagram to this path")
	fs.StringVar(&opts.mermaid, "mermaid", "", "Also write a Mermaid flowchart to this path")
	fs.StringVar(&opts.sqlite, "sqlite", "", "Also export the graph into this SQLite database")
	fs.StringVar(&opts.idStyle, "id-style", "", "Node id style: path or uuid")
	fs.StringVar(&opts.query, "query", "", `Print graph rows after the run, e.g. "SELECT nodes WHERE kind = 'Interface'"`)
	fs.IntVar(&opts.queryLimit, "query-limit", 0, "Optional row limit for --query")
	fs.BoolVar(&opts.ui, "ui", false, "Show a terminal progress view")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run whenever sources or build files change")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.noCompact, "no-compact", false, "Write full node ids instead of the prefix dictionary form")
	fs.BoolVar(&opts.indent, "indent", false, "Pretty-print the JSON document")
	fs.BoolVar(&opts.members, "diagram-members", false, "Include methods and fields in diagrams")
	fs.BoolVar(&opts.verify, "verify-syntax", false, "Cross-check each source with the tree-sitter Java grammar")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	opts.args = fs.Args()
	if len(opts.args) > 1 {
		return cliOptions{}, fmt.Errorf("expected at most one root directory, got %d", len(opts.args))
	}
	if opts.query != "" {
		if _, err := query.ParseCQL(opts.query); err != nil {
			return cliOptions{}, err
		}
	}
	return opts, nil
}
