package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"javakg/internal/data/artifact"
	"javakg/internal/data/graphdb"
	"javakg/internal/data/neo4jsink"
	"javakg/internal/engine/graph"
	"javakg/internal/engine/serialize"
	"javakg/internal/shared/observability"
)

// export pushes the finished graph to the optional sinks. The JSON file is
// already on disk at this point, so a failing sink is logged and recorded
// but does not fail the run.
func (a *App) export(ctx context.Context, g *graph.Graph, res *Result) {
	out := a.Config.Output
	if out.SQLite == "" && !out.Neo4j.Enabled() && !out.Artifact.Enabled() {
		return
	}
	ctx, span := observability.Tracer.Start(ctx, PhaseExport)
	defer span.End()
	defer observePhase(PhaseExport, time.Now())

	res.RunID = uuid.NewString()

	var doc *serialize.Document
	if out.SQLite != "" || out.Neo4j.Enabled() {
		opts := a.serializeOptions()
		opts.Compact = false
		var err error
		if doc, err = serialize.Build(g, opts); err != nil {
			a.exportFailed(res, "document", err)
			return
		}
	}

	if out.SQLite != "" {
		if err := a.exportSQLite(ctx, res.RunID, doc); err != nil {
			a.exportFailed(res, "sqlite", err)
		} else {
			res.Outputs = append(res.Outputs, out.SQLite)
		}
	}
	if out.Neo4j.Enabled() {
		if err := a.exportNeo4j(ctx, doc); err != nil {
			a.exportFailed(res, "neo4j", err)
		} else {
			res.Outputs = append(res.Outputs, out.Neo4j.URI)
		}
	}
	if out.Artifact.Enabled() {
		keys, err := a.uploadArtifacts(ctx, res.RunID, res.Outputs)
		if err != nil {
			a.exportFailed(res, "artifact", err)
		}
		res.Outputs = append(res.Outputs, keys...)
	}
}

func (a *App) exportFailed(res *Result, sink string, err error) {
	a.Logger.Warn("export failed", "sink", sink, "error", err)
	res.ExportErrors = append(res.ExportErrors, err)
}

func (a *App) exportSQLite(ctx context.Context, runID string, doc *serialize.Document) error {
	store, err := graphdb.Open(a.Config.Output.SQLite)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.SaveDocument(ctx, runID, doc)
	return err
}

func (a *App) exportNeo4j(ctx context.Context, doc *serialize.Document) error {
	cfg := a.Config.Output.Neo4j
	exporter, closeFn, err := neo4jsink.Connect(ctx, neo4jsink.Config{
		URI:       cfg.URI,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Database:  cfg.Database,
		BatchSize: cfg.BatchSize,
	}, a.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn(context.WithoutCancel(ctx)) }()
	return exporter.Export(ctx, doc)
}

// uploadArtifacts copies the files written by this run to the bucket under
// the run id. Database URIs in outputs are skipped.
func (a *App) uploadArtifacts(ctx context.Context, runID string, outputs []string) ([]string, error) {
	cfg := a.Config.Output.Artifact
	store, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
		Prefix:    cfg.Prefix,
	})
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, p := range outputs {
		if p == a.Config.Output.SQLite || p == a.Config.Output.Neo4j.URI {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return keys, err
		}
		key, err := store.Put(ctx, runID, filepath.Base(p), contentType(p), data)
		if err != nil {
			return keys, err
		}
		keys = append(keys, "s3://"+cfg.Bucket+"/"+key)
	}
	return keys, nil
}

func contentType(p string) string {
	switch filepath.Ext(p) {
	case ".json":
		return "application/json"
	case ".dot", ".gv":
		return "text/vnd.graphviz"
	default:
		return "text/plain; charset=utf-8"
	}
}
