// # internal/core/app/pipeline.go
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/buildfile"
	"javakg/internal/engine/diagnostic"
	"javakg/internal/engine/extract"
	"javakg/internal/engine/graph"
	"javakg/internal/engine/locator"
	"javakg/internal/engine/resolver"
	"javakg/internal/shared/observability"
)

// fileResult is one worker's output slot; workers never share slots.
type fileResult struct {
	source   *graph.SourceInput
	build    *graph.BuildInput
	diags    diagnostic.List
	readable bool
	cached   bool
}

// Run executes one full extraction: locate, extract in parallel, wait for
// every worker, assemble, then write. Cancellation before the write aborts
// the run with nothing written.
func (a *App) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	ctx, span := observability.Tracer.Start(ctx, "javakg.run")
	defer span.End()

	root, err := filepath.Abs(a.Config.Source.Root)
	if err != nil {
		return nil, coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeValidationError, "resolve root"), coreerrors.CtxPath, a.Config.Source.Root)
	}

	located, err := a.locate(ctx, root)
	if err != nil {
		return nil, err
	}

	results, err := a.extractAll(ctx, located)
	if err != nil {
		return nil, err
	}

	in := graph.Input{Root: root, Diagnostics: append(diagnostic.List(nil), located.Diagnostics...)}
	res := &Result{Files: len(results)}
	for _, r := range results {
		in.Diagnostics = append(in.Diagnostics, r.diags...)
		if !r.readable {
			continue
		}
		res.Readable++
		if r.cached {
			res.CacheHits++
		}
		if r.source != nil {
			in.Sources = append(in.Sources, *r.source)
		}
		if r.build != nil {
			in.Builds = append(in.Builds, *r.build)
		}
	}
	if res.Readable == 0 {
		return nil, coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeNoInput, "no readable Java source or build files found"),
			coreerrors.CtxPath, root)
	}

	g := a.assemble(ctx, in)
	if ctx.Err() != nil {
		return nil, aborted(ctx, PhaseAssemble)
	}
	res.Graph = g
	res.Diagnostics = g.Diagnostics()

	if err := a.writeOutputs(ctx, g, res); err != nil {
		return nil, err
	}
	a.export(ctx, g, res)

	recordGraphMetrics(g)
	res.Duration = time.Since(started)
	span.SetAttributes(
		attribute.Int("javakg.files", res.Files),
		attribute.Int("javakg.nodes", g.Metadata().NodeCount),
		attribute.Int("javakg.edges", g.Metadata().EdgeCount),
	)
	a.Logger.Info("knowledge graph written",
		"output", res.OutputPath,
		"files", res.Files,
		"nodes", g.Metadata().NodeCount,
		"edges", g.Metadata().EdgeCount,
		"diagnostics", len(res.Diagnostics),
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

func (a *App) locate(ctx context.Context, root string) (*locator.Result, error) {
	ctx, span := observability.Tracer.Start(ctx, PhaseLocate)
	defer span.End()
	defer observePhase(PhaseLocate, time.Now())

	located, err := locator.Locate(ctx, a.Config.Rules(root))
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("sources located",
		"root", root, "sources", len(located.Sources), "build_files", len(located.BuildFiles))
	a.emitProgress(Progress{Phase: PhaseLocate, Done: len(located.Sources) + len(located.BuildFiles)})
	return located, nil
}

func (a *App) extractAll(ctx context.Context, located *locator.Result) ([]fileResult, error) {
	ctx, span := observability.Tracer.Start(ctx, PhaseExtract)
	defer span.End()
	defer observePhase(PhaseExtract, time.Now())

	entries := located.All()
	results := make([]fileResult, len(entries))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Extract.Workers)
	for i, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := a.limiter.Wait(gctx, 1); err != nil {
				return err
			}
			results[i] = a.process(gctx, entry)
			a.emitProgress(Progress{Phase: PhaseExtract, Done: int(done.Add(1)), Total: len(entries)})
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil || ctx.Err() != nil {
		return nil, aborted(ctx, PhaseExtract)
	}
	return results, nil
}

func (a *App) process(ctx context.Context, e locator.Entry) fileResult {
	kind := "source"
	if e.Kind == locator.KindBuild {
		kind = "build"
	}
	started := time.Now()
	defer func() {
		observability.ExtractionDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	}()

	var res fileResult
	data, err := readBounded(ctx, e.Path, a.Config.Limits.MaxFileBytes, a.Config.Limits.ReadTimeout)
	if err != nil {
		var big *oversizedError
		switch {
		case errors.As(err, &big):
			res.diags.Warn(e.Rel, diagnostic.CodeOversized, "skipped: %v", big)
			observability.FilesProcessed.WithLabelValues(observability.OutcomeSkipped).Inc()
		case ctx.Err() != nil:
		case errors.Is(err, context.DeadlineExceeded):
			res.diags.Error(e.Rel, diagnostic.CodeUnreadable, "read timed out after %s", a.Config.Limits.ReadTimeout)
			observability.FilesProcessed.WithLabelValues(observability.OutcomeUnreadable).Inc()
		default:
			res.diags.Error(e.Rel, diagnostic.CodeUnreadable, "read failed: %v", err)
			observability.FilesProcessed.WithLabelValues(observability.OutcomeUnreadable).Inc()
		}
		return res
	}
	res.readable = true

	if e.Kind == locator.KindBuild {
		extra, perr := gradleProperties(e)
		if perr != nil {
			res.diags.Warn(e.Rel, diagnostic.CodeBuildFile, "gradle.properties ignored: %v", perr)
		}
		res.build = &graph.BuildInput{Rel: e.Rel, Descriptor: buildfile.Parse(e.Rel, data, extra)}
		observability.FilesProcessed.WithLabelValues(observability.OutcomeOK).Inc()
		return res
	}

	if rec, local, ok := a.cachedSource(e.Rel, data); ok {
		res.cached = true
		res.source = &graph.SourceInput{Rel: e.Rel, Record: rec, Local: local}
		observability.FilesProcessed.WithLabelValues(observability.OutcomeCached).Inc()
		return res
	}

	rec := extract.Extract(e.Rel, data)
	if a.verifier != nil && !hasSeverity(rec.Diagnostics, diagnostic.SeverityWarning) {
		if rep := a.verifier.Verify(data); !rep.Clean() {
			rec.Diagnostics.Warn(e.Rel, diagnostic.CodeMalformed, "partial record: %s", rep)
		}
	}
	local := resolver.Localize(rec)
	a.storeSource(e.Rel, data, rec, local)
	res.source = &graph.SourceInput{Rel: e.Rel, Record: rec, Local: local}
	observability.FilesProcessed.WithLabelValues(observability.OutcomeOK).Inc()
	return res
}

func (a *App) assemble(ctx context.Context, in graph.Input) *graph.Graph {
	_, span := observability.Tracer.Start(ctx, PhaseAssemble)
	defer span.End()
	defer observePhase(PhaseAssemble, time.Now())

	g := graph.NewAssembler(a.Logger).Assemble(in)
	a.emitProgress(Progress{Phase: PhaseAssemble, Done: g.Metadata().NodeCount})
	return g
}

// gradleProperties reads a gradle.properties next to a Gradle descriptor.
func gradleProperties(e locator.Entry) (map[string]string, error) {
	if tool, ok := buildfile.DetectTool(e.Path); !ok || tool != buildfile.ToolGradle {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(e.Path), "gradle.properties"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return buildfile.ParseProperties(data)
}

func hasSeverity(l diagnostic.List, sev diagnostic.Severity) bool {
	for _, d := range l {
		if d.Severity == sev {
			return true
		}
	}
	return false
}

func aborted(ctx context.Context, phase string) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return coreerrors.AddContext(
		coreerrors.Wrap(cause, coreerrors.CodeAborted, "run aborted"),
		coreerrors.CtxPhase, phase)
}

func observePhase(phase string, started time.Time) {
	observability.PhaseDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
}

func recordGraphMetrics(g *graph.Graph) {
	meta := g.Metadata()
	observability.GraphNodes.Reset()
	for kind, n := range meta.NodesByKind {
		observability.GraphNodes.WithLabelValues(string(kind)).Set(float64(n))
	}
	observability.GraphEdges.Reset()
	for kind, n := range meta.EdgesByKind {
		observability.GraphEdges.WithLabelValues(string(kind)).Set(float64(n))
	}
	for sev, n := range meta.DiagnosticsBySeverity {
		observability.Diagnostics.WithLabelValues(sev).Add(float64(n))
	}
}
