// Package diagnostic records non-fatal extraction and resolution issues.
// A run never fails because of a diagnostic; they travel with the graph.
package diagnostic

import (
	"fmt"
	"sort"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Stable codes so consumers can filter without parsing messages.
const (
	CodeEmptyRecord  = "EMPTY_RECORD"
	CodeMalformed    = "MALFORMED"
	CodeUnreadable   = "UNREADABLE"
	CodeOversized    = "OVERSIZED"
	CodeCollision    = "COLLISION"
	CodeDanglingEdge = "DANGLING_EDGE"
	CodeBuildFile    = "BUILD_FILE"
	CodeWalk         = "WALK"
)

type Diagnostic struct {
	File     string
	Severity Severity
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s [%s] %s", d.File, d.Severity, d.Code, d.Message)
}

// List accumulates diagnostics for one producer. It is not safe for
// concurrent use; each worker owns its own List.
type List []Diagnostic

func (l *List) Add(file string, sev Severity, code, format string, args ...any) {
	*l = append(*l, Diagnostic{
		File:     file,
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *List) Info(file, code, format string, args ...any) {
	l.Add(file, SeverityInfo, code, format, args...)
}

func (l *List) Warn(file, code, format string, args ...any) {
	l.Add(file, SeverityWarning, code, format, args...)
}

func (l *List) Error(file, code, format string, args ...any) {
	l.Add(file, SeverityError, code, format, args...)
}

// CountBySeverity tallies the list.
func (l List) CountBySeverity() map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, d := range l {
		out[d.Severity]++
	}
	return out
}

// Sort orders by file, keeping insertion order within a file.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].File < l[j].File
	})
}
