package serialize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/graph"
)

var compactSchemes = []string{graph.PrefixType, graph.PrefixMember, graph.PrefixRef}

// splitID separates scheme, package prefix (with trailing dot) and the rest.
// Only type, member and reference ids carry a package prefix.
func splitID(id string) (scheme, prefix, rest string, ok bool) {
	for _, s := range compactSchemes {
		if strings.HasPrefix(id, s) {
			scheme = s
			break
		}
	}
	if scheme == "" {
		return "", "", "", false
	}
	body := id[len(scheme):]
	qualified := body
	if i := strings.IndexByte(body, '#'); i >= 0 {
		qualified = body[:i]
	}
	end := 0
	for {
		dot := strings.IndexByte(qualified[end:], '.')
		if dot <= 0 {
			break
		}
		seg := qualified[end : end+dot]
		if seg[0] < 'a' || seg[0] > 'z' {
			break
		}
		end += dot + 1
	}
	if end == 0 {
		return "", "", "", false
	}
	return scheme, body[:end], body[end:], true
}

func compactPrefixes(doc *Document) []string {
	counts := make(map[string]int)
	for _, n := range doc.Nodes {
		if _, prefix, _, ok := splitID(n.ID); ok {
			counts[prefix]++
		}
	}
	var candidates []string
	for p, c := range counts {
		if c >= 2 {
			candidates = append(candidates, p)
		}
	}
	sort.Strings(candidates)

	var prefixes []string
	index := make(map[string]string, len(candidates))
	for _, p := range candidates {
		token := "~" + strconv.Itoa(len(prefixes)) + "."
		if len(token) >= len(p) {
			continue
		}
		index[p] = token
		prefixes = append(prefixes, p)
	}
	if len(prefixes) == 0 {
		return nil
	}
	rewrite := func(id string) string {
		scheme, prefix, rest, ok := splitID(id)
		if !ok {
			return id
		}
		if token, hit := index[prefix]; hit {
			return scheme + token + rest
		}
		return id
	}
	for i := range doc.Nodes {
		doc.Nodes[i].ID = rewrite(doc.Nodes[i].ID)
	}
	for i := range doc.Edges {
		doc.Edges[i].SourceID = rewrite(doc.Edges[i].SourceID)
		doc.Edges[i].TargetID = rewrite(doc.Edges[i].TargetID)
	}
	return prefixes
}

func compactAnnotationArgs(doc *Document) []string {
	counts := make(map[string]int)
	for _, n := range doc.Nodes {
		anns, _ := n.Attributes["annotations"].([]graph.Annotation)
		for _, a := range anns {
			if a.Args != "" {
				counts[a.Args]++
			}
		}
	}
	var candidates []string
	for s, c := range counts {
		if c >= 2 {
			candidates = append(candidates, s)
		}
	}
	sort.Strings(candidates)

	var repeated []string
	for _, s := range candidates {
		if !worthInterning(s, counts[s], len(repeated)) {
			continue
		}
		repeated = append(repeated, s)
	}
	if len(repeated) == 0 {
		return nil
	}
	index := make(map[string]int, len(repeated))
	for i, s := range repeated {
		index[s] = i
	}

	for i := range doc.Nodes {
		anns, ok := doc.Nodes[i].Attributes["annotations"].([]graph.Annotation)
		if !ok {
			continue
		}
		out := make([]annotationRef, 0, len(anns))
		for _, a := range anns {
			ref := annotationRef{Name: a.Name, Args: a.Args}
			if idx, hit := index[a.Args]; hit {
				idx := idx
				ref.Args = ""
				ref.ArgsRef = &idx
			}
			out = append(out, ref)
		}
		doc.Nodes[i].Attributes["annotations"] = out
	}
	return repeated
}

// worthInterning reports whether moving s into the dictionary at index idx
// shrinks the output: every use swaps `"args":"s"` for `"args_ref":idx`,
// and the dictionary holds one quoted copy.
func worthInterning(s string, uses, idx int) bool {
	quoted := len(strconv.Quote(s))
	inline := uses * (len(`"args":`) + quoted)
	interned := uses*(len(`"args_ref":`)+len(strconv.Itoa(idx))) + quoted + 1
	return interned < inline
}

// Expand reverses dictionary compaction in place, so a compact document
// carries exactly the information of its uncompacted form.
func Expand(doc *Document) error {
	if doc.Dictionary == nil {
		return nil
	}
	dict := doc.Dictionary

	expandID := func(id string) (string, error) {
		for _, s := range compactSchemes {
			if !strings.HasPrefix(id, s+"~") {
				continue
			}
			body := id[len(s)+1:]
			dot := strings.IndexByte(body, '.')
			if dot < 0 {
				return "", fmt.Errorf("bad compact id %q", id)
			}
			n, err := strconv.Atoi(body[:dot])
			if err != nil || n < 0 || n >= len(dict.Prefixes) {
				return "", fmt.Errorf("prefix reference out of range in %q", id)
			}
			return s + dict.Prefixes[n] + body[dot+1:], nil
		}
		return id, nil
	}

	var err error
	for i := range doc.Nodes {
		if doc.Nodes[i].ID, err = expandID(doc.Nodes[i].ID); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeMalformed, "expand node id")
		}
		if err := expandAnnotations(doc.Nodes[i].Attributes, dict.Strings); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeMalformed, "expand annotation args")
		}
	}
	for i := range doc.Edges {
		e := &doc.Edges[i]
		if e.SourceID, err = expandID(e.SourceID); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeMalformed, "expand edge source")
		}
		if e.TargetID, err = expandID(e.TargetID); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeMalformed, "expand edge target")
		}
	}
	doc.Dictionary = nil
	return nil
}

func expandAnnotations(attrs map[string]any, strs []string) error {
	lookup := func(n int) (string, error) {
		if n < 0 || n >= len(strs) {
			return "", fmt.Errorf("string reference %d out of range", n)
		}
		return strs[n], nil
	}
	switch anns := attrs["annotations"].(type) {
	case []annotationRef:
		out := make([]graph.Annotation, 0, len(anns))
		for _, a := range anns {
			args := a.Args
			if a.ArgsRef != nil {
				s, err := lookup(*a.ArgsRef)
				if err != nil {
					return err
				}
				args = s
			}
			out = append(out, graph.Annotation{Name: a.Name, Args: args})
		}
		attrs["annotations"] = out
	case []any:
		// Decoded JSON.
		for _, item := range anns {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			raw, has := m["args_ref"]
			if !has {
				continue
			}
			f, ok := raw.(float64)
			if !ok {
				return fmt.Errorf("args_ref is %T", raw)
			}
			s, err := lookup(int(f))
			if err != nil {
				return err
			}
			delete(m, "args_ref")
			m["args"] = s
		}
	}
	return nil
}
