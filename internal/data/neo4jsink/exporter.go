package neo4jsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"javakg/internal/engine/serialize"
)

// Runner executes one Cypher statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

type Config struct {
	URI       string
	Username  string
	Password  string
	Database  string
	BatchSize int
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, r.driver, cypher, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database))
	return err
}

// Exporter loads a knowledge-graph document into Neo4j with batched
// UNWIND ... MERGE statements. Every node carries the JavaEntity label plus
// one label for its kind; edges become relationships named by edge kind.
type Exporter struct {
	runner Runner
	batch  int
	logger *slog.Logger
}

func NewExporter(r Runner, batchSize int, logger *slog.Logger) *Exporter {
	if batchSize <= 0 {
		batchSize = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{runner: r, batch: batchSize, logger: logger}
}

// Connect opens a driver, checks connectivity and returns an exporter plus a
// close function for the driver.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Exporter, func(context.Context) error, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	r := &driverRunner{driver: driver, database: cfg.Database}
	return NewExporter(r, cfg.BatchSize, logger), driver.Close, nil
}

func (e *Exporter) Export(ctx context.Context, doc *serialize.Document) error {
	if doc.Dictionary != nil {
		return fmt.Errorf("neo4j export: compacted documents must be expanded first")
	}
	if err := e.runner.Run(ctx,
		"CREATE CONSTRAINT java_entity_id IF NOT EXISTS FOR (n:JavaEntity) REQUIRE n.id IS UNIQUE", nil); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}

	byKind := make(map[string][]map[string]any)
	for _, n := range doc.Nodes {
		byKind[n.Kind] = append(byKind[n.Kind], map[string]any{
			"id":    n.ID,
			"name":  n.Name,
			"props": properties(n.Attributes),
		})
	}
	for _, kind := range sortedKeys(byKind) {
		cypher := fmt.Sprintf(`UNWIND $batch AS row
MERGE (n:JavaEntity {id: row.id})
SET n:%s, n.name = row.name, n.kind = %q, n += row.props`, identifier(kind), kind)
		if err := e.inBatches(ctx, cypher, byKind[kind]); err != nil {
			return fmt.Errorf("load %s nodes: %w", kind, err)
		}
		e.logger.Debug("neo4j nodes loaded", "kind", kind, "count", len(byKind[kind]))
	}

	edgesByKind := make(map[string][]map[string]any)
	for _, edge := range doc.Edges {
		edgesByKind[edge.Kind] = append(edgesByKind[edge.Kind], map[string]any{
			"source": edge.SourceID,
			"target": edge.TargetID,
		})
	}
	for _, kind := range sortedKeys(edgesByKind) {
		cypher := fmt.Sprintf(`UNWIND $batch AS row
MATCH (a:JavaEntity {id: row.source})
MATCH (b:JavaEntity {id: row.target})
MERGE (a)-[:%s]->(b)`, identifier(kind))
		if err := e.inBatches(ctx, cypher, edgesByKind[kind]); err != nil {
			return fmt.Errorf("load %s edges: %w", kind, err)
		}
	}
	e.logger.Info("neo4j export complete", "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	return nil
}

func (e *Exporter) inBatches(ctx context.Context, cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += e.batch {
		end := min(start+e.batch, len(rows))
		if err := e.runner.Run(ctx, cypher, map[string]any{"batch": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// properties flattens attributes into values Neo4j can store: scalars and
// string lists pass through, anything structured is stored as JSON text.
func properties(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string, bool, int, int64, float64:
			out[k] = val
		case []string:
			out[k] = val
		default:
			data, err := json.Marshal(val)
			if err != nil {
				continue
			}
			out[k] = string(data)
		}
	}
	return out
}

// identifier backtick-quotes a label or relationship type.
func identifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "") + "`"
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
