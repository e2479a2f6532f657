package query

import (
	"fmt"
	"strings"

	"javakg/internal/engine/graph"
)

var edgeFields = map[string]bool{"kind": true, "source": true, "target": true}

// Result holds the rows selected by one query; only the slice matching the
// query target is filled.
type Result struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// Execute parses raw and runs it against view. A limit of zero or less
// returns every match.
func Execute(view graph.View, raw string, limit int) (Result, error) {
	q, err := ParseCQL(raw)
	if err != nil {
		return Result{}, err
	}
	return Run(view, q, limit), nil
}

// Run evaluates an already parsed query. Rows keep the view's order.
func Run(view graph.View, q CQLQuery, limit int) Result {
	edges := view.Edges()
	var out Result

	if q.Target == TargetEdges {
		for _, e := range edges {
			if limit > 0 && len(out.Edges) >= limit {
				break
			}
			if matchAll(q.Conditions, func(field string) (any, bool) { return edgeField(e, field) }) {
				out.Edges = append(out.Edges, e)
			}
		}
		return out
	}

	fanIn := make(map[string]int)
	fanOut := make(map[string]int)
	for _, e := range edges {
		if e.Kind == graph.EdgeContains {
			continue
		}
		fanOut[e.SourceID]++
		fanIn[e.TargetID]++
	}
	for _, n := range view.Nodes() {
		if limit > 0 && len(out.Nodes) >= limit {
			break
		}
		lookup := func(field string) (any, bool) {
			switch field {
			case "id":
				return n.ID, true
			case "kind":
				return string(n.Kind), true
			case "name":
				return n.Name, true
			case "fan_in":
				return fanIn[n.ID], true
			case "fan_out":
				return fanOut[n.ID], true
			}
			v, ok := n.Attributes[field]
			return v, ok
		}
		if matchAll(q.Conditions, lookup) {
			out.Nodes = append(out.Nodes, n)
		}
	}
	return out
}

func edgeField(e graph.Edge, field string) (any, bool) {
	switch field {
	case "kind":
		return string(e.Kind), true
	case "source":
		return e.SourceID, true
	case "target":
		return e.TargetID, true
	}
	return nil, false
}

// matchAll requires every condition to hold. A field the row does not carry
// never matches.
func matchAll(conds []CQLCondition, lookup func(string) (any, bool)) bool {
	for _, c := range conds {
		v, ok := lookup(c.Field)
		if !ok || !match(c, v) {
			return false
		}
	}
	return true
}

func match(c CQLCondition, v any) bool {
	if c.IsInt {
		n, ok := v.(int)
		if !ok {
			return false
		}
		switch c.Op {
		case "=":
			return n == c.IntVal
		case "!=":
			return n != c.IntVal
		case ">":
			return n > c.IntVal
		case ">=":
			return n >= c.IntVal
		case "<":
			return n < c.IntVal
		case "<=":
			return n <= c.IntVal
		}
		return false
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		s = fmt.Sprint(x)
	case []string:
		if c.Op == "contains" {
			for _, item := range x {
				if strings.EqualFold(item, c.StrVal) {
					return true
				}
			}
			return false
		}
		return false
	default:
		return false
	}

	switch c.Op {
	case "=":
		return s == c.StrVal
	case "!=":
		return s != c.StrVal
	case "contains":
		return strings.Contains(strings.ToLower(s), strings.ToLower(c.StrVal))
	}
	return false
}
