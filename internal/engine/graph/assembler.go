package graph

import (
	"log/slog"
	"strings"

	"javakg/internal/engine/buildfile"
	"javakg/internal/engine/diagnostic"
	"javakg/internal/engine/extract"
	"javakg/internal/engine/resolver"
	"javakg/internal/shared/util"
)

// SourceInput is one successfully read source file.
type SourceInput struct {
	Rel    string
	Record *extract.Record
	Local  *resolver.Local
}

// BuildInput is one parsed build descriptor.
type BuildInput struct {
	Rel        string
	Descriptor *buildfile.Descriptor
}

// Input is everything the workers produced, in locator order.
type Input struct {
	Root        string
	Sources     []SourceInput
	Builds      []BuildInput
	Diagnostics diagnostic.List
}

// Assembler performs the single-threaded merge after the worker barrier.
type Assembler struct {
	logger *slog.Logger
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

type assembly struct {
	g     *Graph
	table *resolver.Table
	log   *slog.Logger
	// kept maps a declaration to the type id it produced; shadowed
	// declarations are absent.
	kept map[*extract.TypeDecl]string
}

// Assemble merges per-file results into one finalized graph.
func (a *Assembler) Assemble(in Input) *Graph {
	recs := make([]*extract.Record, len(in.Sources))
	for i, s := range in.Sources {
		recs[i] = s.Record
	}
	as := &assembly{
		g:     New(in.Root),
		table: resolver.NewTable(recs),
		log:   a.logger,
		kept:  make(map[*extract.TypeDecl]string),
	}
	as.g.AddDiagnostics(in.Diagnostics...)

	for _, c := range as.table.Collisions() {
		kept := c.Paths[len(c.Paths)-1]
		as.g.AddDiagnostics(diagnostic.Diagnostic{
			File:     kept,
			Severity: diagnostic.SeverityWarning,
			Code:     diagnostic.CodeCollision,
			Message: "type " + c.Name + " declared in " + strings.Join(c.Paths, ", ") +
				"; keeping " + kept,
		})
	}

	for i, src := range in.Sources {
		as.addSource(i, src)
	}
	for _, src := range in.Sources {
		as.addImports(src)
		as.addReferences(src)
	}
	for _, b := range in.Builds {
		as.addBuild(b)
	}

	as.g.Finalize()
	meta := as.g.Metadata()
	a.logger.Debug("graph assembled",
		"nodes", meta.NodeCount, "edges", meta.EdgeCount, "diagnostics", meta.DiagnosticCount)
	return as.g
}

func (as *assembly) addSource(index int, src SourceInput) {
	rec := src.Record
	as.g.AddDiagnostics(rec.Diagnostics...)

	pkgID := as.g.Ensure(Node{ID: PackageID(rec.Package), Kind: KindPackage, Name: PackageName(rec.Package)})
	fileID := FileID(src.Rel)
	fileAttrs := map[string]any{"package": PackageName(rec.Package)}
	if err := as.g.AddNode(Node{ID: fileID, Kind: KindFile, Name: baseName(src.Rel), Attributes: fileAttrs}, pkgID); err != nil {
		as.log.Warn("skipping file node", "path", src.Rel, "error", err)
		return
	}

	for _, t := range rec.Types {
		fqn := rec.QualifiedName(t)
		decl, ok := as.table.Lookup(fqn)
		if !ok || decl.Type != t {
			as.g.AppendAttr(fileID, "shadowed", fqn)
			continue
		}
		typeID := TypeID(fqn)
		if err := as.g.AddNode(Node{ID: typeID, Kind: typeKind(t.Kind), Name: t.Name, Attributes: typeAttrs(rec, t)}, fileID); err != nil {
			as.log.Warn("skipping type node", "type", fqn, "error", err)
			continue
		}
		as.kept[t] = typeID
		as.addMembers(src.Rel, fqn, typeID, t)
	}

	for _, c := range as.table.Collisions() {
		if decl, ok := as.table.Lookup(c.Name); ok && decl.Record == index {
			as.g.AppendAttr(TypeID(c.Name), "shadows", strings.Join(c.Paths[:len(c.Paths)-1], ","))
		}
	}
}

func (as *assembly) addMembers(rel, fqn, typeID string, t *extract.TypeDecl) {
	ids := make([]string, len(t.Members))
	last := make(map[string]int, len(t.Members))
	for i := range t.Members {
		m := &t.Members[i]
		if m.Kind == extract.MemberMethod {
			ids[i] = MethodID(fqn, m.Name, m.ParamTypes())
		} else {
			ids[i] = FieldID(fqn, m.Name)
		}
		last[ids[i]] = i
	}
	for i := range t.Members {
		m := &t.Members[i]
		if last[ids[i]] != i {
			as.g.AddDiagnostics(diagnostic.Diagnostic{
				File:     rel,
				Severity: diagnostic.SeverityWarning,
				Code:     diagnostic.CodeCollision,
				Message:  "member " + ids[i] + " declared more than once; keeping the last declaration",
			})
			continue
		}
		kind := KindField
		if m.Kind == extract.MemberMethod {
			kind = KindMethod
		}
		if err := as.g.AddNode(Node{ID: ids[i], Kind: kind, Name: m.Name, Attributes: memberAttrs(m)}, typeID); err != nil {
			as.log.Warn("skipping member node", "member", ids[i], "error", err)
		}
	}
}

func (as *assembly) addImports(src SourceInput) {
	fileID := FileID(src.Rel)
	if !as.g.Has(fileID) {
		return
	}
	for _, imp := range src.Record.Imports {
		var target string
		switch {
		case imp.Static:
			owner := resolver.OwnerOfStatic(imp)
			if as.table.Known(owner) {
				target = TypeID(owner)
			} else {
				target = as.placeholder(owner, map[string]any{"static": true})
			}
		case imp.Wildcard:
			switch {
			case as.table.HasPackage(imp.Name):
				target = PackageID(imp.Name)
			case as.table.Known(imp.Name):
				target = TypeID(imp.Name)
			default:
				target = as.placeholder(imp.Name+".*", map[string]any{"wildcard": true})
			}
		default:
			if as.table.Known(imp.Name) {
				target = TypeID(imp.Name)
			} else {
				target = as.placeholder(imp.Name, nil)
			}
		}
		as.g.AddEdge(fileID, target, EdgeImports)
	}
}

func (as *assembly) addReferences(src SourceInput) {
	if src.Local == nil {
		return
	}
	for _, ref := range src.Local.References {
		typeID, ok := as.kept[ref.Type]
		if !ok {
			continue
		}
		res := as.table.Resolve(src.Local, ref.Enclosing, ref.Name)
		target := TypeID(res.Name)
		if !res.Known {
			target = as.placeholder(res.Name, nil)
		}

		source := typeID
		if ref.Member >= 0 {
			m := &ref.Type.Members[ref.Member]
			fqn := strings.TrimPrefix(typeID, PrefixType)
			if m.Kind == extract.MemberMethod {
				source = MethodID(fqn, m.Name, m.ParamTypes())
			} else {
				source = FieldID(fqn, m.Name)
			}
		}

		switch ref.Kind {
		case resolver.RefExtends:
			as.g.AddEdge(source, target, EdgeExtends)
		case resolver.RefImplements:
			as.g.AddEdge(source, target, EdgeImplements)
		case resolver.RefAnnotation:
			as.g.AddEdge(source, target, EdgeAnnotatedBy)
		}
	}
}

func (as *assembly) addBuild(b BuildInput) {
	d := b.Descriptor
	as.g.AddDiagnostics(d.Diagnostics...)

	pkgID := as.g.Ensure(Node{ID: PackageID(""), Kind: KindPackage, Name: DefaultPackage})
	fileID := FileID(b.Rel)
	attrs := map[string]any{"package": DefaultPackage}
	if d.Tool != "" {
		attrs["build"] = string(d.Tool)
	}
	setStrings(attrs, "plugins", d.Plugins)
	setStrings(attrs, "repositories", d.Repositories)
	setStrings(attrs, "profiles", d.Profiles)
	if err := as.g.AddNode(Node{ID: fileID, Kind: KindFile, Name: baseName(b.Rel), Attributes: attrs}, pkgID); err != nil {
		as.log.Warn("skipping build descriptor node", "path", b.Rel, "error", err)
		return
	}

	for _, c := range d.Dependencies {
		depAttrs := map[string]any{"group": c.Group, "artifact": c.Artifact}
		if c.Version != "" {
			depAttrs["version"] = c.Version
		}
		if c.Scope != "" {
			if d.Tool == buildfile.ToolGradle {
				depAttrs["configuration"] = c.Scope
			} else {
				depAttrs["scope"] = c.Scope
			}
		}
		if c.Managed {
			depAttrs["managed"] = true
		}
		if c.Profile != "" {
			depAttrs["profile"] = c.Profile
		}
		depID := DependencyID(c)
		if existing, seen := as.g.Node(depID); seen {
			as.mergeDependency(existing, depAttrs, c.Managed)
		} else {
			as.g.Ensure(Node{ID: depID, Kind: KindDependency, Name: c.Group + ":" + c.Artifact, Attributes: depAttrs})
		}
		as.g.AddEdge(fileID, depID, EdgeDependsOn)
	}
}

// mergeDependency folds a repeated declaration of the same coordinate into
// the existing node. A direct declaration's scope wins over a managed one,
// and the node stays managed only while every declaration is managed.
func (as *assembly) mergeDependency(existing Node, attrs map[string]any, managed bool) {
	wasManaged, _ := existing.Attributes["managed"].(bool)
	for k, v := range attrs {
		if k == "managed" {
			continue
		}
		_, has := existing.Attributes[k]
		if !has || (wasManaged && !managed) {
			as.g.SetAttr(existing.ID, k, v)
		}
	}
	if wasManaged && !managed {
		as.g.UnsetAttr(existing.ID, "managed")
	}
}

// placeholder returns the id of the unresolved-reference node for name.
func (as *assembly) placeholder(name string, attrs map[string]any) string {
	return as.g.Ensure(Node{ID: RefID(name), Kind: KindUnresolved, Name: name, Attributes: attrs})
}

func typeKind(k extract.TypeKind) NodeKind {
	switch k {
	case extract.KindInterface:
		return KindInterface
	case extract.KindEnum:
		return KindEnum
	case extract.KindAnnotationType:
		return KindAnnotationType
	default:
		return KindClass
	}
}

func typeAttrs(rec *extract.Record, t *extract.TypeDecl) map[string]any {
	attrs := map[string]any{"line": t.Line}
	setStrings(attrs, "modifiers", t.Modifiers)
	setStrings(attrs, "type_params", t.TypeParams)
	if t.Outer != "" {
		attrs["outer"] = resolver.Qualify(rec.Package, t.Outer)
	}
	if anns := annotations(t.Annotations); len(anns) > 0 {
		attrs["annotations"] = anns
	}
	if t.Deprecated {
		attrs["deprecated"] = true
	}
	if t.IsRecord {
		attrs["record"] = true
		attrs["components"] = params(t.Components)
	}
	return attrs
}

func memberAttrs(m *extract.Member) map[string]any {
	attrs := map[string]any{"line": m.Line}
	if m.Type != "" {
		attrs["type"] = m.Type
	}
	setStrings(attrs, "modifiers", m.Modifiers)
	setStrings(attrs, "type_params", m.TypeParams)
	setStrings(attrs, "throws", m.Throws)
	if anns := annotations(m.Annotations); len(anns) > 0 {
		attrs["annotations"] = anns
	}
	if m.Kind == extract.MemberMethod {
		attrs["params"] = params(m.Params)
	}
	if m.Constructor {
		attrs["constructor"] = true
	}
	if m.Constant {
		attrs["constant"] = true
	}
	if m.Default != "" {
		attrs["default"] = m.Default
	}
	if m.Deprecated {
		attrs["deprecated"] = true
	}
	return attrs
}

func annotations(in []extract.Annotation) []Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]Annotation, 0, len(in))
	for _, a := range in {
		out = append(out, Annotation{Name: a.Name, Args: a.Args})
	}
	return out
}

func params(in []extract.Param) []Param {
	out := make([]Param, 0, len(in))
	for _, p := range in {
		out = append(out, Param{Name: p.Name, Type: p.Type})
	}
	return out
}

func setStrings(attrs map[string]any, key string, values []string) {
	if len(values) > 0 {
		attrs[key] = append([]string(nil), values...)
	}
}

func baseName(rel string) string {
	rel = util.NormalizeSlashPath(rel)
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
