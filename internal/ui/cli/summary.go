package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	coreapp "javakg/internal/core/app"
)

var (
	labelStyle = lipgloss.NewStyle().Width(22).Foreground(lipgloss.Color("#64748B"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)
)

func row(label string, value any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(fmt.Sprint(value)))
}

// renderSummary prints the statistics block shown after every run.
func renderSummary(res *coreapp.Result) string {
	if res == nil || res.Graph == nil {
		return ""
	}
	meta := res.Graph.Metadata()
	st := meta.Stats

	rows := []string{
		titleStyle.Render("Knowledge graph"),
		row("Files", fmt.Sprintf("%d (%d readable, %d cached)", res.Files, res.Readable, res.CacheHits)),
		row("Packages", st.Packages),
		row("Classes", st.Classes),
		row("Interfaces", st.Interfaces),
		row("Enums", st.Enums),
		row("Annotation types", st.Annotations),
		row("Methods", st.Methods),
		row("Fields", st.Fields),
		row("Imports", st.Imports),
		row("Dependencies", st.Dependencies),
		row("Unresolved", st.Unresolved),
		row("Distinct annotations", st.DistinctAnnotations),
		row("Nodes / edges", fmt.Sprintf("%d / %d", meta.NodeCount, meta.EdgeCount)),
	}

	if len(meta.DiagnosticsBySeverity) > 0 {
		sevs := make([]string, 0, len(meta.DiagnosticsBySeverity))
		for sev := range meta.DiagnosticsBySeverity {
			sevs = append(sevs, sev)
		}
		sort.Strings(sevs)
		parts := make([]string, 0, len(sevs))
		for _, sev := range sevs {
			parts = append(parts, fmt.Sprintf("%d %s", meta.DiagnosticsBySeverity[sev], sev))
		}
		rows = append(rows, row("Diagnostics", strings.Join(parts, ", ")))
	}
	for i, out := range res.Outputs {
		label := ""
		if i == 0 {
			label = "Written"
		}
		rows = append(rows, row(label, out))
	}
	if n := len(res.ExportErrors); n > 0 {
		rows = append(rows, row("Export failures", warnStyle.Render(fmt.Sprint(n))))
	}
	rows = append(rows, statusStyle.Render(fmt.Sprintf("finished in %s", res.Duration.Round(time.Millisecond))))

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)) + "\n"
}
