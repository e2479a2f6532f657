package app

import (
	"context"
	"path/filepath"
	"time"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/graph"
	"javakg/internal/engine/serialize"
	"javakg/internal/engine/visualize"
	"javakg/internal/shared/observability"
	"javakg/internal/shared/util"
	"javakg/internal/shared/version"
)

func (a *App) serializeOptions() serialize.Options {
	return serialize.Options{
		Compact:     a.Config.Output.CompactEnabled(),
		IDStyle:     a.Config.Graph.IDStyle,
		Indent:      a.Config.Output.Indent,
		Timestamp:   a.now(),
		ToolVersion: version.Version,
	}
}

// writeOutputs writes the JSON document and any configured diagrams. Each
// file is replaced atomically.
func (a *App) writeOutputs(ctx context.Context, g *graph.Graph, res *Result) error {
	_, span := observability.Tracer.Start(ctx, PhaseWrite)
	defer span.End()
	defer observePhase(PhaseWrite, time.Now())

	if ctx.Err() != nil {
		return aborted(ctx, PhaseWrite)
	}

	data, err := serialize.Serialize(g, a.serializeOptions())
	if err != nil {
		return err
	}
	out := a.Config.Output.JSON
	if err := util.WriteFileAtomic(out, data, 0o644); err != nil {
		return coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeIO, "write knowledge graph"), coreerrors.CtxPath, out)
	}
	res.OutputPath = out
	res.Outputs = append(res.Outputs, out)

	opts := visualize.Options{Members: a.Config.Output.Members, Title: filepath.Base(g.Root())}
	diagrams := []struct {
		path   string
		render func() string
	}{
		{a.Config.Output.DOT, func() string { return visualize.NewDOTGenerator(opts).Generate(g) }},
		{a.Config.Output.Mermaid, func() string { return visualize.NewMermaidGenerator(opts).Generate(g) }},
	}
	for _, d := range diagrams {
		if d.path == "" {
			continue
		}
		if err := util.WriteFileAtomic(d.path, []byte(d.render()), 0o644); err != nil {
			return coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeIO, "write diagram"), coreerrors.CtxPath, d.path)
		}
		res.Outputs = append(res.Outputs, d.path)
	}
	a.emitProgress(Progress{Phase: PhaseWrite, Done: len(res.Outputs), Total: len(res.Outputs)})
	return nil
}
